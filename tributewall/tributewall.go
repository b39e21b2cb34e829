// Package tributewall is the public guestbook: anyone with an active session
// may post, only a privileged session may delete.
package tributewall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tributeboard/dbtypes"
	"tributeboard/livesync"
	"tributeboard/session"
	"tributeboard/store"
)

var (
	ErrNameMustNotBeEmpty         = errors.New("name must not be empty")
	ErrRelationshipMustNotBeEmpty = errors.New("relationship must not be empty")
	ErrMessageMustNotBeEmpty      = errors.New("message must not be empty")
	// ErrNoActiveSession means the session bootstrap has not completed, so
	// the store would reject the write anyway.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNotAuthorized means the attempted moderation action needs a
	// privileged session.  Distinct from connectivity failures so the
	// admin understands it is a session problem, not a bug.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrDeleteNotConfirmed means the irreversible-action guard was not
	// satisfied.
	ErrDeleteNotConfirmed = errors.New("deletion was not confirmed")
)

// successWindow is how long the transient posted-successfully indicator
// stays up.
const successWindow = 5 * time.Second

// Draft holds the visitor's unsubmitted input.  A failed submit preserves
// it; only a successful submit clears it.
type Draft struct {
	Name         string
	Relationship string
	Message      string
}

// Wall is the live tribute collection plus its submission state.
type Wall struct {
	st       store.Store
	sess     *session.Controller
	coll     *livesync.Collection[dbtypes.Tribute]
	onChange func()

	mu            sync.Mutex
	draft         Draft
	success       bool
	successTimer  *time.Timer
	successWindow time.Duration
	now           func() time.Time
}

// Subscribe starts the tribute subscription.  Reading needs no privilege;
// the collection is publicly readable.
func Subscribe(ctx context.Context, st store.Store, sess *session.Controller, onChange func()) *Wall {
	w := &Wall{
		st:            st,
		sess:          sess,
		onChange:      onChange,
		successWindow: successWindow,
		now:           time.Now,
	}
	w.coll = livesync.Subscribe(ctx, st, dbtypes.CollectionTributes, dbtypes.TributeFromFields, onChange)
	return w
}

// Tributes returns the current local view, newest first.
func (w *Wall) Tributes() []dbtypes.Tribute {
	return w.coll.Snapshot()
}

// PermissionDenied reports whether the subscription itself is being
// rejected, which indicates a session/authorization problem.
func (w *Wall) PermissionDenied() bool {
	return w.coll.PermissionDenied()
}

// Draft returns the preserved visitor input.
func (w *Wall) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Success reports whether the transient posted-successfully indicator is
// currently showing.  It clears on its own after the success window.
func (w *Wall) Success() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.success
}

// Submit validates and posts a tribute.  Any active session may post, the
// guestbook is intentionally open.  The submission timestamp is assigned by
// the store, never the client clock.  On failure the draft is preserved for
// redisplay; on success it is cleared and the success indicator shows.
func (w *Wall) Submit(ctx context.Context, name, relationship, message string) error {
	name = strings.TrimSpace(name)
	relationship = strings.TrimSpace(relationship)
	message = strings.TrimSpace(message)

	// Known-invalid writes never reach the network.
	if name == "" {
		return ErrNameMustNotBeEmpty
	}
	if relationship == "" {
		return ErrRelationshipMustNotBeEmpty
	}
	if message == "" {
		return ErrMessageMustNotBeEmpty
	}

	snap := w.sess.Current()
	if snap.State != session.AnonymousActive && snap.State != session.PrivilegedActive {
		return ErrNoActiveSession
	}

	w.mu.Lock()
	w.draft = Draft{Name: name, Relationship: relationship, Message: message}
	w.mu.Unlock()

	_, err := w.st.WriteNew(ctx, dbtypes.CollectionTributes, map[string]any{
		"name":         name,
		"relationship": relationship,
		"message":      message,
		"date":         w.now().Format("1/2/2006"),
		"timestamp":    store.ServerTimestamp,
	})
	if err != nil {
		// Draft stays; the visitor retries without retyping.
		return fmt.Errorf("while posting tribute: %w", err)
	}

	w.mu.Lock()
	w.draft = Draft{}
	w.success = true
	if w.successTimer != nil {
		w.successTimer.Stop()
	}
	w.successTimer = time.AfterFunc(w.successWindow, w.clearSuccess)
	onChange := w.onChange
	w.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}

func (w *Wall) clearSuccess() {
	w.mu.Lock()
	w.success = false
	onChange := w.onChange
	w.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Delete removes a tribute.  Needs explicit confirmation and a privileged
// session; the store is the final authority, so a server-side rejection is
// also reported as ErrNotAuthorized.
func (w *Wall) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	if !w.sess.Privileged() {
		return ErrNotAuthorized
	}

	if err := w.st.Delete(ctx, dbtypes.CollectionTributes, id); err != nil {
		// Privilege can be lost mid-flight (sign-out racing the delete);
		// the store's rejection is authoritative.
		if store.Classify(err) == store.KindPermissionDenied {
			return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		}
		return fmt.Errorf("while deleting tribute %s: %w", id, err)
	}
	return nil
}

// Unsubscribe tears down the subscription and the success timer.
// Idempotent.
func (w *Wall) Unsubscribe() {
	w.coll.Unsubscribe()

	w.mu.Lock()
	if w.successTimer != nil {
		w.successTimer.Stop()
	}
	w.mu.Unlock()
}

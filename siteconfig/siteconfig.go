// Package siteconfig mirrors the singleton site_settings document and gives
// the admin surface a merge-write path for it.
package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tributeboard/dbtypes"
	"tributeboard/store"
)

var (
	// ErrSaveInFlight means a save is already running.  Saves from one
	// client are serialized so partial merges don't interleave; the store
	// may still interleave writes from other clients (last-writer-wins).
	ErrSaveInFlight = errors.New("a configuration save is already in flight")
	// ErrInvalidDate means the retirement date does not parse as an ISO
	// date.  Rejected locally, before any network call.
	ErrInvalidDate = errors.New("retirement date must be an ISO date (YYYY-MM-DD)")
)

// Patch is a partial configuration update.  Nil fields are left untouched
// server-side.
type Patch struct {
	HeroQuote      *string
	RetirementDate *string
	ProfilePicture *string
}

func (p Patch) fields() map[string]any {
	out := map[string]any{}
	if p.HeroQuote != nil {
		out["heroQuote"] = *p.HeroQuote
	}
	if p.RetirementDate != nil {
		out["retirementDate"] = *p.RetirementDate
	}
	if p.ProfilePicture != nil {
		out["profilePic"] = *p.ProfilePicture
	}
	return out
}

// Store is the live local view of the site configuration.  An absent
// document is valid and yields the defaults.
type Store struct {
	st       store.Store
	onChange func()

	mu       sync.Mutex
	current  dbtypes.SiteConfig
	readTime time.Time
	syncing  bool
	failKind store.Kind
	failErr  error
	closed   bool
	cancel   func()
}

// Subscribe starts the document subscription.  onChange (optional) fires
// after every applied push.
func Subscribe(ctx context.Context, st store.Store, onChange func()) *Store {
	s := &Store{st: st, onChange: onChange, current: dbtypes.DefaultSiteConfig()}

	cancel := st.SubscribeDocument(ctx, dbtypes.CollectionConfig, dbtypes.KeySiteSettings, func(snap store.DocumentSnapshot, err error) {
		s.apply(ctx, snap, err)
	})

	s.mu.Lock()
	s.cancel = cancel
	closed := s.closed
	s.mu.Unlock()
	if closed {
		cancel()
	}
	return s
}

func (s *Store) apply(ctx context.Context, snap store.DocumentSnapshot, err error) {
	if err != nil {
		kind := store.Classify(err)
		slog.WarnContext(ctx, "Config subscription error", slog.String("kind", kind.String()), slog.Any("err", err))

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.failKind = kind
		s.failErr = err
		onChange := s.onChange
		s.mu.Unlock()

		if onChange != nil {
			onChange()
		}
		return
	}

	cfg := dbtypes.DefaultSiteConfig()
	if snap.Exists {
		cfg = dbtypes.SiteConfigFromFields(snap.Fields)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !s.readTime.IsZero() && snap.ReadTime.Before(s.readTime) {
		// Stale push; a newer snapshot was already applied.
		s.mu.Unlock()
		return
	}
	s.current = cfg
	s.readTime = snap.ReadTime
	s.failKind = store.KindNone
	s.failErr = nil
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Current returns the last confirmed remote configuration, or the defaults
// when the document does not exist yet.
func (s *Store) Current() dbtypes.SiteConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SaveInFlight reports whether a save is currently running.
func (s *Store) SaveInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// Err returns the last surfaced subscription failure, if any.
func (s *Store) Err() (store.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failKind, s.failErr
}

// Save merge-writes the patch.  Requires a privileged session; the store
// enforces that, locally we only hide the affordance.  The local value is
// never optimistically advanced: a rejected save leaves Current at the last
// confirmed remote value.
func (s *Store) Save(ctx context.Context, p Patch) error {
	if p.RetirementDate != nil {
		if _, err := time.Parse("2006-01-02", *p.RetirementDate); err != nil {
			return ErrInvalidDate
		}
	}

	fields := p.fields()
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.syncing = true
	s.mu.Unlock()

	err := s.st.WriteMerge(ctx, dbtypes.CollectionConfig, dbtypes.KeySiteSettings, fields)

	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("while saving site configuration: %w", err)
	}
	return nil
}

// Unsubscribe tears the document subscription down.  Idempotent.
func (s *Store) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

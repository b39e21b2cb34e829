// Package livesync keeps a local ordered snapshot of a remote collection
// current via a push subscription.
//
// The local snapshot is a cache, replaced wholesale on every push.  No
// incremental diffing: collections here are small, bounded by human-authored
// content, and full replace keeps the adapter trivially correct.
package livesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tributeboard/store"
)

// DecodeFunc turns one pushed document into a T.
type DecodeFunc[T any] func(id string, fields map[string]any) (T, error)

// Collection is a continuously-updated, descending-timestamp-ordered local
// view of one remote collection.  Two Collections update independently of
// each other; no cross-collection consistency is promised.
type Collection[T any] struct {
	name     string
	onChange func()

	mu       sync.Mutex
	docs     []T
	readTime time.Time
	failKind store.Kind
	failErr  error
	closed   bool
	cancel   func()
}

// Subscribe starts the push subscription.  onChange (optional) fires after
// every applied snapshot or surfaced error.  The caller must call
// Unsubscribe exactly once when the dependent lifetime ends; extra calls are
// harmless.
func Subscribe[T any](ctx context.Context, st store.Store, collection string, decode DecodeFunc[T], onChange func()) *Collection[T] {
	c := &Collection[T]{name: collection, onChange: onChange}

	handler := func(snap store.QuerySnapshot, err error) {
		if err != nil {
			c.applyError(ctx, err)
			return
		}
		c.applySnapshot(ctx, snap, decode)
	}

	cancel := st.SubscribeQuery(ctx, collection, handler)

	c.mu.Lock()
	c.cancel = cancel
	closed := c.closed
	c.mu.Unlock()
	if closed {
		// Unsubscribed before the subscription handle arrived.
		cancel()
	}
	return c
}

func (c *Collection[T]) applySnapshot(ctx context.Context, snap store.QuerySnapshot, decode DecodeFunc[T]) {
	docs := make([]T, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		v, err := decode(d.ID, d.Fields)
		if err != nil {
			slog.WarnContext(ctx, "Dropping undecodable document", slog.String("collection", c.name), slog.String("id", d.ID), slog.Any("err", err))
			continue
		}
		docs = append(docs, v)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// Transports can reorder deliveries.  An older snapshot must never
	// overwrite a newer one, so anything older than the last applied read
	// time is discarded.
	if !c.readTime.IsZero() && snap.ReadTime.Before(c.readTime) {
		c.mu.Unlock()
		return
	}
	c.docs = docs
	c.readTime = snap.ReadTime
	c.failKind = store.KindNone
	c.failErr = nil
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

func (c *Collection[T]) applyError(ctx context.Context, err error) {
	kind := store.Classify(err)
	slog.WarnContext(ctx, "Subscription error", slog.String("collection", c.name), slog.String("kind", kind.String()), slog.Any("err", err))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.failKind = kind
	c.failErr = err
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Snapshot returns a copy of the current local view, in the store's
// descending-timestamp order as of the last applied push.
func (c *Collection[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.docs))
	copy(out, c.docs)
	return out
}

// Err returns the last surfaced subscription failure, if the view is
// currently failing.  KindPermissionDenied indicates a session problem the
// user can act on; other kinds warrant retry guidance.
func (c *Collection[T]) Err() (store.Kind, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failKind, c.failErr
}

// PermissionDenied reports whether the subscription is failing with an
// authorization error.
func (c *Collection[T]) PermissionDenied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failKind == store.KindPermissionDenied
}

// ReadTime returns the revision marker of the last applied snapshot.
func (c *Collection[T]) ReadTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readTime
}

// Unsubscribe tears the subscription down.  Idempotent; after the first
// call no push mutates the local view.
func (c *Collection[T]) Unsubscribe() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

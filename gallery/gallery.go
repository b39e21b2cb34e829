// Package gallery is the archival photo board: publicly readable, writable
// only by a privileged session, filterable by category.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tributeboard/dbtypes"
	"tributeboard/livesync"
	"tributeboard/session"
	"tributeboard/store"
)

var (
	// ErrCaptionMustNotBeEmpty is raised locally, before any network call.
	ErrCaptionMustNotBeEmpty = errors.New("a description is required")
	// ErrUnknownCategory means the category is not in the fixed set.
	ErrUnknownCategory = errors.New("unknown gallery category")
	// ErrNotAuthorized means the action needs a privileged session.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrDeleteNotConfirmed means the irreversible-action guard was not
	// satisfied.
	ErrDeleteNotConfirmed = errors.New("deletion was not confirmed")
)

// Board is the live gallery collection plus its category filter.
type Board struct {
	st   store.Store
	sess *session.Controller
	coll *livesync.Collection[dbtypes.GalleryEntry]

	mu     sync.Mutex
	filter string
}

// Subscribe starts the gallery subscription with the filter at the "All"
// sentinel.
func Subscribe(ctx context.Context, st store.Store, sess *session.Controller, onChange func()) *Board {
	b := &Board{st: st, sess: sess, filter: dbtypes.CategoryAll}
	b.coll = livesync.Subscribe(ctx, st, dbtypes.CollectionGallery, dbtypes.GalleryEntryFromFields, onChange)
	return b
}

// SetFilter selects a category, or the "All" sentinel.  Unknown values fall
// back to "All" rather than erroring; the filter is a view concern.
func (b *Board) SetFilter(category string) {
	if category != dbtypes.CategoryAll && !dbtypes.ValidCategory(category) {
		category = dbtypes.CategoryAll
	}
	b.mu.Lock()
	b.filter = category
	b.mu.Unlock()
}

// Filter returns the active category selection.
func (b *Board) Filter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Entries projects the already-synced local snapshot through the category
// filter.  Pure and synchronous: no network round-trip per filter change.
func (b *Board) Entries() []dbtypes.GalleryEntry {
	all := b.coll.Snapshot()

	b.mu.Lock()
	filter := b.filter
	b.mu.Unlock()

	if filter == dbtypes.CategoryAll {
		return all
	}
	out := make([]dbtypes.GalleryEntry, 0, len(all))
	for _, e := range all {
		if e.Category == filter {
			out = append(out, e)
		}
	}
	return out
}

// PermissionDenied reports whether the subscription itself is being
// rejected.
func (b *Board) PermissionDenied() bool {
	return b.coll.PermissionDenied()
}

// CreateEntry adds a photo to the archive.  Caption and category are
// validated locally so a known-invalid write never costs a round trip; the
// store validates again and its rejection is authoritative.
func (b *Board) CreateEntry(ctx context.Context, imageURL, caption, category string) error {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return ErrCaptionMustNotBeEmpty
	}
	if !dbtypes.ValidCategory(category) {
		return ErrUnknownCategory
	}
	if !b.sess.Privileged() {
		return ErrNotAuthorized
	}

	_, err := b.st.WriteNew(ctx, dbtypes.CollectionGallery, map[string]any{
		"url":       imageURL,
		"caption":   caption,
		"category":  category,
		"timestamp": store.ServerTimestamp,
	})
	if err != nil {
		if store.Classify(err) == store.KindPermissionDenied {
			return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		}
		return fmt.Errorf("while creating gallery entry: %w", err)
	}
	return nil
}

// DeleteEntry removes a photo.  Same confirm-plus-privilege pattern as
// tribute deletion.
func (b *Board) DeleteEntry(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	if !b.sess.Privileged() {
		return ErrNotAuthorized
	}

	if err := b.st.Delete(ctx, dbtypes.CollectionGallery, id); err != nil {
		if store.Classify(err) == store.KindPermissionDenied {
			return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		}
		return fmt.Errorf("while deleting gallery entry %s: %w", id, err)
	}
	return nil
}

// Unsubscribe tears down the subscription.  Idempotent.
func (b *Board) Unsubscribe() {
	b.coll.Unsubscribe()
}

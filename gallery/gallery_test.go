package gallery

import (
	"context"
	"errors"
	"testing"

	"tributeboard/dbtypes"
	"tributeboard/identity/identitytest"
	"tributeboard/session"
	"tributeboard/store/storetest"

	"github.com/google/go-cmp/cmp"
)

func adminSession(t *testing.T, ctx context.Context) *session.Controller {
	t.Helper()
	provider := identitytest.New()
	sess := session.New(provider, session.Options{ReauthAnonymous: true})
	t.Cleanup(sess.Close)
	sess.Bootstrap(ctx)
	if err := sess.SignIn(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return sess
}

func anonymousSession(t *testing.T, ctx context.Context) *session.Controller {
	t.Helper()
	provider := identitytest.New()
	sess := session.New(provider, session.Options{ReauthAnonymous: true})
	t.Cleanup(sess.Close)
	sess.Bootstrap(ctx)
	return sess
}

func TestCreateEntryStoresPhoto(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := adminSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	if err := b.CreateEntry(ctx, "https://example.com/p.jpg", "Camp inspection", "Official Duties"); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	entries := b.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected one entry; got %d", len(entries))
	}
	if entries[0].Caption != "Camp inspection" || entries[0].Category != "Official Duties" {
		t.Errorf("Bad stored entry: %+v", entries[0])
	}
}

func TestCreateEntryValidatesBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := adminSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	if err := b.CreateEntry(ctx, "https://example.com/p.jpg", "   ", "Official Duties"); !errors.Is(err, ErrCaptionMustNotBeEmpty) {
		t.Errorf("Bad error for empty caption; got %v, want %v", err, ErrCaptionMustNotBeEmpty)
	}
	if err := b.CreateEntry(ctx, "https://example.com/p.jpg", "Caption", "Vacations"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Bad error for unknown category; got %v, want %v", err, ErrUnknownCategory)
	}
	if err := b.CreateEntry(ctx, "https://example.com/p.jpg", "Caption", dbtypes.CategoryAll); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("The filter sentinel must not be storable; got %v, want %v", err, ErrUnknownCategory)
	}

	if got := fake.WriteCalls("gallery"); got != 0 {
		t.Errorf("Invalid entries reached the store; %d write calls", got)
	}
}

func TestCreateEntryRequiresPrivilege(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := anonymousSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	err := b.CreateEntry(ctx, "https://example.com/p.jpg", "Caption", "Others")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("Bad error for anonymous create; got %v, want %v", err, ErrNotAuthorized)
	}
	if got := fake.WriteCalls("gallery"); got != 0 {
		t.Errorf("Unprivileged create reached the store; %d write calls", got)
	}
}

func TestFilterProjectsLocally(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := adminSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	seed := []struct{ caption, category string }{
		{"Parade", "Official Duties"},
		{"Bonfire", "Camp Activities"},
		{"Visit", "Official Duties"},
	}
	for _, s := range seed {
		if err := b.CreateEntry(ctx, "https://example.com/p.jpg", s.caption, s.category); err != nil {
			t.Fatalf("CreateEntry %q: %v", s.caption, err)
		}
	}
	writesBefore := fake.WriteCalls("gallery")

	b.SetFilter("Official Duties")

	var got []string
	for _, e := range b.Entries() {
		got = append(got, e.Caption)
	}
	// Newest first within the filtered view.
	want := []string{"Visit", "Parade"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bad filtered view (-want +got):\n%s", diff)
	}

	b.SetFilter(dbtypes.CategoryAll)
	if got := len(b.Entries()); got != 3 {
		t.Errorf("All filter should show everything; got %d entries", got)
	}

	// Filtering is a pure local projection.
	if got := fake.WriteCalls("gallery"); got != writesBefore {
		t.Errorf("Filter changes hit the store; writes went %d -> %d", writesBefore, got)
	}
}

func TestUnknownFilterFallsBackToAll(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := anonymousSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	b.SetFilter("Nonsense")
	if got := b.Filter(); got != dbtypes.CategoryAll {
		t.Errorf("Bad filter fallback; got %q, want %q", got, dbtypes.CategoryAll)
	}
}

func TestDeleteEntryGuards(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := anonymousSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	if err := b.DeleteEntry(ctx, "doc1", false); !errors.Is(err, ErrDeleteNotConfirmed) {
		t.Errorf("Bad error for unconfirmed delete; got %v, want %v", err, ErrDeleteNotConfirmed)
	}
	if err := b.DeleteEntry(ctx, "doc1", true); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Bad error for anonymous delete; got %v, want %v", err, ErrNotAuthorized)
	}
}

func TestDeleteEntryRemovesPhoto(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()
	sess := adminSession(t, ctx)

	b := Subscribe(ctx, fake, sess, nil)
	defer b.Unsubscribe()

	if err := b.CreateEntry(ctx, "https://example.com/p.jpg", "Parade", "Official Duties"); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	entries := b.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected one entry; got %d", len(entries))
	}

	if err := b.DeleteEntry(ctx, entries[0].ID, true); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if got := b.Entries(); len(got) != 0 {
		t.Errorf("Entry still present after delete; got %+v", got)
	}
}

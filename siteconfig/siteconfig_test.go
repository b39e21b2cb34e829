package siteconfig

import (
	"context"
	"errors"
	"testing"

	"tributeboard/dbtypes"
	"tributeboard/store"
	"tributeboard/store/storetest"

	"github.com/google/go-cmp/cmp"
)

func strptr(s string) *string { return &s }

func TestAbsentDocumentYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	if diff := cmp.Diff(dbtypes.DefaultSiteConfig(), s.Current()); diff != "" {
		t.Errorf("Bad config for absent document (-want +got):\n%s", diff)
	}
}

func TestSaveMergesPartialPatch(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	if err := fake.WriteMerge(ctx, "config", "site_settings", map[string]any{
		"heroQuote":      "Original quote",
		"retirementDate": "2026-04-30",
		"profilePic":     "https://example.com/a.jpg",
	}); err != nil {
		t.Fatalf("WriteMerge: %v", err)
	}

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	if err := s.Save(ctx, Patch{HeroQuote: strptr("New quote")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := dbtypes.SiteConfig{
		HeroQuote:      "New quote",
		RetirementDate: "2026-04-30",
		ProfilePicture: "https://example.com/a.jpg",
	}
	if diff := cmp.Diff(want, s.Current()); diff != "" {
		t.Errorf("Partial save clobbered untouched fields (-want +got):\n%s", diff)
	}
}

func TestSaveCreatesDocumentLazily(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	if err := s.Save(ctx, Patch{RetirementDate: strptr("2026-05-15")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	docs := fake.Docs("config")
	if _, ok := docs["site_settings"]; !ok {
		t.Fatalf("Expected the site_settings document to be created; have %v", docs)
	}

	// Unset fields still read as defaults.
	got := s.Current()
	if got.RetirementDate != "2026-05-15" {
		t.Errorf("Bad saved date; got %q, want %q", got.RetirementDate, "2026-05-15")
	}
	if got.HeroQuote != dbtypes.DefaultHeroQuote {
		t.Errorf("Bad hero quote; got %q, want the default", got.HeroQuote)
	}
}

func TestSaveRejectsBadDateLocally(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	err := s.Save(ctx, Patch{RetirementDate: strptr("30/04/2026")})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("Bad error for unparseable date; got %v, want %v", err, ErrInvalidDate)
	}
	if got := fake.WriteCalls("config"); got != 0 {
		t.Errorf("Invalid date reached the store; %d write calls", got)
	}
}

func TestEmptyPatchIsNotDispatched(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	if err := s.Save(ctx, Patch{}); err != nil {
		t.Fatalf("Save of empty patch: %v", err)
	}
	if got := fake.WriteCalls("config"); got != 0 {
		t.Errorf("Empty patch reached the store; %d write calls", got)
	}
}

func TestFailedSaveKeepsConfirmedValue(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	s := Subscribe(ctx, fake, nil)
	defer s.Unsubscribe()

	before := s.Current()

	fake.FailWrites(storetest.PermissionDenied())
	err := s.Save(ctx, Patch{HeroQuote: strptr("Unauthorized edit")})
	if err == nil {
		t.Fatalf("Expected an error from a rejected save")
	}

	if diff := cmp.Diff(before, s.Current()); diff != "" {
		t.Errorf("Rejected save advanced the local value (-want +got):\n%s", diff)
	}
	if s.SaveInFlight() {
		t.Errorf("Save should not be marked in flight after completion")
	}
}

func TestConcurrentSaveIsRejected(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	var s *Store
	var inner error
	reentrant := &reentrantStore{FakeStore: fake, onWrite: func() {
		inner = s.Save(ctx, Patch{HeroQuote: strptr("second")})
	}}

	s = Subscribe(ctx, reentrant, nil)
	defer s.Unsubscribe()

	if err := s.Save(ctx, Patch{HeroQuote: strptr("first")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !errors.Is(inner, ErrSaveInFlight) {
		t.Errorf("Bad error for overlapping save; got %v, want %v", inner, ErrSaveInFlight)
	}
}

// reentrantStore triggers a second save while the first one's write is still
// in flight.
type reentrantStore struct {
	*storetest.FakeStore
	onWrite func()
}

func (r *reentrantStore) WriteMerge(ctx context.Context, collection, key string, fields map[string]any) error {
	r.onWrite()
	return r.FakeStore.WriteMerge(ctx, collection, key, fields)
}

func TestSubscriptionErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	fake := storetest.New()

	var snapHandler store.DocumentHandler
	capture := &handlerCapturingStore{FakeStore: fake, captured: &snapHandler}

	s := Subscribe(ctx, capture, nil)
	defer s.Unsubscribe()

	snapHandler(store.DocumentSnapshot{}, storetest.Unavailable())

	kind, err := s.Err()
	if kind != store.KindUnavailable || err == nil {
		t.Errorf("Bad surfaced error; got kind %v err %v", kind, err)
	}
}

// handlerCapturingStore exposes the document handler so a test can inject
// subscription errors.
type handlerCapturingStore struct {
	*storetest.FakeStore
	captured *store.DocumentHandler
}

func (c *handlerCapturingStore) SubscribeDocument(ctx context.Context, collection, key string, h store.DocumentHandler) func() {
	*c.captured = h
	return c.FakeStore.SubscribeDocument(ctx, collection, key, h)
}

// Package storetest provides an in-memory Store for tests: deterministic
// server timestamps, synchronous snapshot pushes, and failure injection.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tributeboard/store"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PermissionDenied returns an error that Classify maps to
// KindPermissionDenied.
func PermissionDenied() error {
	return status.Error(codes.PermissionDenied, "fake: permission denied")
}

// Unavailable returns an error that Classify maps to KindUnavailable.
func Unavailable() error {
	return status.Error(codes.Unavailable, "fake: unavailable")
}

type querySub struct {
	collection string
	handler    store.QueryHandler
	cancelled  bool
}

type docSub struct {
	path      string
	handler   store.DocumentHandler
	cancelled bool
}

// FakeStore implements store.Store in memory.  The store clock advances one
// second per operation, so server-assigned timestamps and snapshot read
// times are strictly monotonic.
type FakeStore struct {
	mu          sync.Mutex
	clock       time.Time
	nextID      int
	collections map[string]map[string]map[string]any
	querySubs   []*querySub
	docSubs     []*docSub

	writeErr   error
	writeCalls map[string]int
}

var _ store.Store = (*FakeStore)(nil)

func New() *FakeStore {
	return &FakeStore{
		clock:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		collections: map[string]map[string]map[string]any{},
		writeCalls:  map[string]int{},
	}
}

// FailWrites makes every subsequent write call fail with err.  Pass nil to
// restore normal operation.
func (f *FakeStore) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

// WriteCalls reports how many write operations were dispatched against the
// collection, including ones that failed.
func (f *FakeStore) WriteCalls(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeCalls[collection]
}

// Docs returns the stored field maps of a collection, keyed by document id.
func (f *FakeStore) Docs(collection string) map[string]map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]map[string]any{}
	for id, fields := range f.collections[collection] {
		out[id] = cloneFields(fields)
	}
	return out
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (f *FakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// querySnapshotLocked builds the descending-timestamp snapshot of a
// collection.  Callers hold f.mu.
func (f *FakeStore) querySnapshotLocked(collection string) store.QuerySnapshot {
	snap := store.QuerySnapshot{ReadTime: f.tick()}
	for id, fields := range f.collections[collection] {
		snap.Documents = append(snap.Documents, store.Document{ID: id, Fields: cloneFields(fields)})
	}
	sort.Slice(snap.Documents, func(i, j int) bool {
		ti, _ := snap.Documents[i].Fields["timestamp"].(time.Time)
		tj, _ := snap.Documents[j].Fields["timestamp"].(time.Time)
		return tj.Before(ti)
	})
	return snap
}

func (f *FakeStore) docSnapshotLocked(collection, key string) store.DocumentSnapshot {
	snap := store.DocumentSnapshot{ReadTime: f.tick()}
	if fields, ok := f.collections[collection][key]; ok {
		snap.Exists = true
		snap.Fields = cloneFields(fields)
	}
	return snap
}

type push func()

// notifyLocked collects handler invocations for every live subscriber of the
// collection.  The pushes run after f.mu is released, in order.
func (f *FakeStore) notifyLocked(collection string) []push {
	var pushes []push
	for _, sub := range f.querySubs {
		if sub.cancelled || sub.collection != collection {
			continue
		}
		sub := sub
		snap := f.querySnapshotLocked(collection)
		pushes = append(pushes, func() { sub.handler(snap, nil) })
	}
	for _, sub := range f.docSubs {
		if sub.cancelled || !strings.HasPrefix(sub.path, collection+"/") {
			continue
		}
		sub := sub
		key := strings.TrimPrefix(sub.path, collection+"/")
		snap := f.docSnapshotLocked(collection, key)
		pushes = append(pushes, func() { sub.handler(snap, nil) })
	}
	return pushes
}

func run(pushes []push) {
	for _, p := range pushes {
		p()
	}
}

func (f *FakeStore) SubscribeQuery(ctx context.Context, collection string, h store.QueryHandler) (cancel func()) {
	f.mu.Lock()
	sub := &querySub{collection: collection, handler: h}
	f.querySubs = append(f.querySubs, sub)
	snap := f.querySnapshotLocked(collection)
	f.mu.Unlock()

	// Fires immediately with current state, per contract.
	h(snap, nil)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		sub.cancelled = true
	}
}

func (f *FakeStore) SubscribeDocument(ctx context.Context, collection, key string, h store.DocumentHandler) (cancel func()) {
	f.mu.Lock()
	sub := &docSub{path: collection + "/" + key, handler: h}
	f.docSubs = append(f.docSubs, sub)
	snap := f.docSnapshotLocked(collection, key)
	f.mu.Unlock()

	h(snap, nil)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		sub.cancelled = true
	}
}

// resolveLocked replaces the ServerTimestamp sentinel with the store clock.
func (f *FakeStore) resolveLocked(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == store.ServerTimestamp {
			out[k] = f.tick()
			continue
		}
		out[k] = v
	}
	return out
}

func (f *FakeStore) WriteNew(ctx context.Context, collection string, fields map[string]any) (string, error) {
	f.mu.Lock()
	f.writeCalls[collection]++
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("doc%d", f.nextID)
	if f.collections[collection] == nil {
		f.collections[collection] = map[string]map[string]any{}
	}
	f.collections[collection][id] = f.resolveLocked(fields)
	pushes := f.notifyLocked(collection)
	f.mu.Unlock()

	run(pushes)
	return id, nil
}

func (f *FakeStore) WriteMerge(ctx context.Context, collection, key string, fields map[string]any) error {
	f.mu.Lock()
	f.writeCalls[collection]++
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	if f.collections[collection] == nil {
		f.collections[collection] = map[string]map[string]any{}
	}
	doc := f.collections[collection][key]
	if doc == nil {
		doc = map[string]any{}
	}
	for k, v := range f.resolveLocked(fields) {
		doc[k] = v
	}
	f.collections[collection][key] = doc
	pushes := f.notifyLocked(collection)
	f.mu.Unlock()

	run(pushes)
	return nil
}

func (f *FakeStore) Delete(ctx context.Context, collection, key string) error {
	f.mu.Lock()
	f.writeCalls[collection]++
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	delete(f.collections[collection], key)
	pushes := f.notifyLocked(collection)
	f.mu.Unlock()

	run(pushes)
	return nil
}

// EmitQuerySnapshot delivers an arbitrary snapshot to every live subscriber
// of the collection, bypassing the stored state.  Used to simulate
// out-of-order delivery.
func (f *FakeStore) EmitQuerySnapshot(collection string, snap store.QuerySnapshot) {
	f.mu.Lock()
	var pushes []push
	for _, sub := range f.querySubs {
		if sub.cancelled || sub.collection != collection {
			continue
		}
		sub := sub
		pushes = append(pushes, func() { sub.handler(snap, nil) })
	}
	f.mu.Unlock()

	run(pushes)
}

// EmitQueryError delivers an error to every live subscriber of the
// collection.
func (f *FakeStore) EmitQueryError(collection string, err error) {
	f.mu.Lock()
	var pushes []push
	for _, sub := range f.querySubs {
		if sub.cancelled || sub.collection != collection {
			continue
		}
		sub := sub
		pushes = append(pushes, func() { sub.handler(store.QuerySnapshot{}, err) })
	}
	f.mu.Unlock()

	run(pushes)
}

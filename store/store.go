// Package store defines the narrow contract the application consumes from the
// remote document collection service, and classifies its failures.
//
// The store owns all authoritative state.  Local state held by subscribers is
// a cache, replaced wholesale on every snapshot push.
package store

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a remote-call failure into the categories the rest of the
// application acts on.  Presentation never sees a raw error.
type Kind int

const (
	// KindNone means the error is nil.
	KindNone Kind = iota
	// KindPermissionDenied means the current session lacks privilege for
	// the attempted operation.  Directs the user toward authentication.
	KindPermissionDenied
	// KindUnavailable is a transient connectivity failure, retryable.
	KindUnavailable
	// KindUnknown is everything else.  Non-fatal, logged, surfaced as a
	// generic failure.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnavailable:
		return "Unavailable"
	case KindUnknown:
		return "Unknown"
	}
	return "Unknown"
}

// Classify maps a remote-call error onto a Kind.  The backing service speaks
// gRPC, so unwrapping the status code covers both transports and wrapped
// errors.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var se interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &se) {
		return KindUnknown
	}
	switch se.GRPCStatus().Code() {
	case codes.PermissionDenied, codes.Unauthenticated:
		return KindPermissionDenied
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return KindUnavailable
	}
	return KindUnknown
}

// Document is one document of a query snapshot.
type Document struct {
	ID     string
	Fields map[string]any
}

// QuerySnapshot is the full current state of a subscribed query, delivered
// wholesale on each change.  Documents are ordered by the store: descending
// server-assigned timestamp.  ReadTime is monotonic per subscription and
// identifies the snapshot's revision.
type QuerySnapshot struct {
	Documents []Document
	ReadTime  time.Time
}

// DocumentSnapshot is the full current state of a subscribed document.  An
// absent document is a valid snapshot with Exists false.
type DocumentSnapshot struct {
	Exists   bool
	Fields   map[string]any
	ReadTime time.Time
}

// QueryHandler receives query snapshot pushes.  Exactly one of the snapshot
// or the error is meaningful per call.  Pushes stop after the subscription's
// cancel function runs.
type QueryHandler func(QuerySnapshot, error)

// DocumentHandler receives document snapshot pushes.
type DocumentHandler func(DocumentSnapshot, error)

// ServerTimestamp marks a field whose value is assigned by the store at write
// time, from the store's clock.  Avoids client clock-skew ordering bugs.
var ServerTimestamp = serverTimestampSentinel{}

type serverTimestampSentinel struct{}

// Store is the contract consumed from the remote document service.  All
// methods may fail with errors classifiable by Classify.
type Store interface {
	// SubscribeQuery subscribes to a collection ordered by descending
	// server timestamp.  The handler fires immediately with current state,
	// then on every change, until the returned cancel function is called.
	// Cancel is idempotent.
	SubscribeQuery(ctx context.Context, collection string, h QueryHandler) (cancel func())

	// SubscribeDocument subscribes to a single document by key.
	SubscribeDocument(ctx context.Context, collection, key string, h DocumentHandler) (cancel func())

	// WriteNew creates a document with a store-assigned unique id.
	WriteNew(ctx context.Context, collection string, fields map[string]any) (id string, err error)

	// WriteMerge updates only the given fields of a document, creating it
	// if absent.  Other fields are left untouched server-side.
	WriteMerge(ctx context.Context, collection, key string, fields map[string]any) error

	// Delete removes a document by key.
	Delete(ctx context.Context, collection, key string) error
}

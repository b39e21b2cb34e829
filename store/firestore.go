package store

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// orderField is the server-assigned timestamp every subscribed collection is
// ordered by.
const orderField = "timestamp"

// Firestore adapts a Firestore client to the Store contract.
type Firestore struct {
	client *firestore.Client
}

var _ Store = (*Firestore)(nil)

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

// firestoreFields rewrites the ServerTimestamp sentinel into the client
// library's own sentinel.  Everything else passes through.
func firestoreFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestampSentinel); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Firestore) SubscribeQuery(ctx context.Context, collection string, h QueryHandler) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)

	go func() {
		it := s.client.Collection(collection).OrderBy(orderField, firestore.Desc).Snapshots(ctx)
		defer it.Stop()
		for {
			qsnap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					// Subscription torn down.
					return
				}
				slog.ErrorContext(ctx, "Query snapshot stream failed", slog.String("collection", collection), slog.Any("err", err))
				h(QuerySnapshot{}, err)
				return
			}

			docs, err := qsnap.Documents.GetAll()
			if err != nil {
				h(QuerySnapshot{}, err)
				return
			}

			out := QuerySnapshot{ReadTime: qsnap.ReadTime}
			for _, d := range docs {
				out.Documents = append(out.Documents, Document{ID: d.Ref.ID, Fields: d.Data()})
			}
			h(out, nil)
		}
	}()

	return cancel
}

func (s *Firestore) SubscribeDocument(ctx context.Context, collection, key string, h DocumentHandler) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)

	go func() {
		it := s.client.Collection(collection).Doc(key).Snapshots(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				slog.ErrorContext(ctx, "Document snapshot stream failed", slog.String("collection", collection), slog.String("key", key), slog.Any("err", err))
				h(DocumentSnapshot{}, err)
				return
			}

			h(DocumentSnapshot{
				Exists:   snap.Exists(),
				Fields:   snap.Data(),
				ReadTime: snap.ReadTime,
			}, nil)
		}
	}()

	return cancel
}

func (s *Firestore) WriteNew(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, firestoreFields(fields))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Firestore) WriteMerge(ctx context.Context, collection, key string, fields map[string]any) error {
	_, err := s.client.Collection(collection).Doc(key).Set(ctx, firestoreFields(fields), firestore.MergeAll)
	return err
}

func (s *Firestore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.client.Collection(collection).Doc(key).Delete(ctx)
	return err
}

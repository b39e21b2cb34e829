// Package imagestore places uploaded images either in a GCS bucket (serving
// them by public object URL) or inline as data URLs when no bucket is
// configured.  The image placement always completes before the document
// referencing it is written.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
)

const objectPrefix = "images/"

// Store writes images and returns a URL usable in an img tag.
type Store struct {
	gcs    *storage.Client
	bucket string
}

// New builds a Store backed by the given bucket.  An empty bucket name
// yields the inline data-URL mode with no GCS client at all.
func New(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return &Store{}, nil
	}

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}
	return &Store{gcs: gcs, bucket: bucket}, nil
}

// Inline reports whether images are stored inline rather than in a bucket.
func (s *Store) Inline() bool {
	return s.gcs == nil
}

// Put stores the image bytes and returns their URL.  In bucket mode the
// object write completes before the URL is returned, so a caller that then
// writes a document referencing it gets the strict image-before-document
// ordering.
func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if s.gcs == nil {
		return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	object := objectPrefix + fmt.Sprintf("%d-%s", time.Now().UnixNano(), name)

	w := s.gcs.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("while writing image object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("while finishing image object: %w", err)
	}

	return "https://storage.googleapis.com/" + url.PathEscape(s.bucket) + "/" + url.PathEscape(object), nil
}

package imagestore

import (
	"context"
	"strings"
	"testing"
)

func TestInlineMode(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s.Inline() {
		t.Fatalf("Expected inline mode without a bucket")
	}

	got, err := s.Put(ctx, "portrait.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("Bad inline URL prefix; got %q", got)
	}
	if got != "data:image/png;base64,iVBORw==" {
		t.Errorf("Bad inline URL; got %q", got)
	}
}

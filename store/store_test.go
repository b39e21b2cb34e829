package store

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{status.Error(codes.PermissionDenied, "denied"), KindPermissionDenied},
		{status.Error(codes.Unauthenticated, "who are you"), KindPermissionDenied},
		{status.Error(codes.Unavailable, "down"), KindUnavailable},
		{status.Error(codes.DeadlineExceeded, "slow"), KindUnavailable},
		{status.Error(codes.ResourceExhausted, "quota"), KindUnavailable},
		{status.Error(codes.NotFound, "missing"), KindUnknown},
		{errors.New("not a status error"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestClassifySeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("while deleting: %w", status.Error(codes.PermissionDenied, "denied"))
	if got := Classify(err); got != KindPermissionDenied {
		t.Errorf("Classify of wrapped error = %v, want %v", got, KindPermissionDenied)
	}
}

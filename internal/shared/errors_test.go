package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth failed", ErrAuthFailed, true},
		{"wrapped token expired", fmt.Errorf("spotify: %w", ErrTokenExpired), true},
		{"transport", fmt.Errorf("%w: connection refused", ErrTransport), true},
		{"unavailable", ErrServiceUnavailable, true},
		{"canceled", context.Canceled, true},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), true},
		{"rejected", fmt.Errorf("%w: 400 bad request", ErrRequestRejected), false},
		{"track not found", ErrTrackNotFound, false},
		{"region mismatch", ErrRegionMismatch, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

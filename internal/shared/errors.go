package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrRegionMismatch     = fmt.Errorf("source and destination regions differ")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrTransport          = fmt.Errorf("transport failure")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRequestRejected    = fmt.Errorf("request rejected")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

var fatalErrors = []error{
	ErrAuthFailed,
	ErrNotAuthenticated,
	ErrTokenExpired,
	ErrTransport,
	ErrServiceUnavailable,
	ErrTimeout,
	context.Canceled,
	context.DeadlineExceeded,
}

// IsFatal reports whether err should abort a sync run rather than skip a single track.
//
// Authentication, transport and availability failures are fatal; rejected requests and missing
// tracks are not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range fatalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

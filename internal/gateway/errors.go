package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"datfeed/gateway/internal/boardmenu"
	"datfeed/gateway/internal/dat"
	"datfeed/gateway/internal/origin"
)

// ValidationError rejects a request before any work is done.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// CachedUpstreamError replays a failure remembered by the response cache.
type CachedUpstreamError struct {
	Err error
}

func (e *CachedUpstreamError) Error() string {
	return "cached failure: " + e.Err.Error()
}

func (e *CachedUpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error from this package to an HTTP status.
func StatusCode(err error) int {
	var (
		ve  *ValidationError
		ue  *origin.UpstreamError
		mle *dat.MalformedLineError
		cue *CachedUpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, boardmenu.ErrBoardNotFound):
		return http.StatusNotFound
	case errors.As(err, &ue), errors.As(err, &mle), errors.Is(err, dat.ErrEmptyDocument), errors.As(err, &cue):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// negativeCacheable reports whether a failure should be remembered.
// Bad input and callers that went away are not the origin's fault.
func negativeCacheable(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

package core

import (
	"errors"
	"fmt"
)

// Error kinds for common failure scenarios. Handlers map these to HTTP
// statuses at the boundary; everything else becomes a generic 500.
var (
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrUpstreamAuth   = errors.New("token refresh rejected by provider")
	ErrNoDevice       = errors.New("no playback device available")
	ErrNotFound       = errors.New("nothing found")
	ErrInvalidVolume  = errors.New("volume must be between 0 and 100")
)

// UpstreamError carries the provider's error envelope for a non-2xx
// response. Auth failures (401) are special-cased by the upstream client's
// refresh-and-retry policy; everything else propagates unmodified.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("spotify API error %d: %s", e.Status, e.Message)
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrProviderUnknown reports a lookup for an unregistered identifier.
	ErrProviderUnknown = errors.New("unknown provider")

	// ErrCredentialMissing is a user-actionable failure: the selected
	// backend needs an API key and none was supplied. Never retried.
	ErrCredentialMissing = errors.New("backend credential missing")

	// ErrBackendUnreachable covers connection failures and timeouts while
	// reaching the backend. Callers may retry; the core does not.
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrBackendRejected covers requests the backend received and refused,
	// such as an invalid credential or a malformed payload.
	ErrBackendRejected = errors.New("backend rejected request")
)

// Unreachable wraps a transport-level failure as a backend-unreachable
// condition, distinct from a rejection.
func Unreachable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackendUnreachable, provider, err)
}

// Rejected wraps a non-2xx backend status as a rejection.
func Rejected(provider string, status int, detail string) error {
	return fmt.Errorf("%w: %s: status %d: %s", ErrBackendRejected, provider, status, detail)
}

// IsTransport reports whether err is a connection or timeout failure rather
// than an HTTP-level response.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

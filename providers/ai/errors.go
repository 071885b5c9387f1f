package ai

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for adapter operations. Adapters wrap these with *Error so
// callers can classify failures with errors.Is while still seeing the
// provider and operation that produced them.
var (
	// ErrNotConfigured indicates the provider has no endpoint or model table
	// yet. The remote configuration may simply not have arrived; the
	// condition is recoverable by retrying once it populates.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrUnknownModel indicates the requested model identifier is not in the
	// adapter's configured model table.
	ErrUnknownModel = errors.New("unknown model identifier")

	// ErrAuth indicates missing or rejected credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrProtocol indicates the backend answered outside its wire contract,
	// most commonly a non-2xx HTTP status before the stream opened.
	ErrProtocol = errors.New("protocol error")

	// ErrNetwork indicates a transport-level failure (connect, read, TLS,
	// timeout).
	ErrNetwork = errors.New("network error")
)

// Error wraps adapter errors with the provider kind and operation for
// context. Use errors.Is / errors.As against the sentinel errors above.
type Error struct {
	Provider Kind   // Backend family ("gpt", "claude", ...)
	Op       string // Operation that failed ("stream", "build_request")
	Err      error  // Underlying error, usually wrapping a sentinel
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new adapter error.
func NewError(provider Kind, op string, err error) *Error {
	return &Error{Provider: provider, Op: op, Err: err}
}

// IsConfigurationError reports whether err stems from missing provider
// configuration, including an unknown model identifier.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrUnknownModel)
}

// StatusCoder is implemented by transport errors that carry an HTTP status
// code (see internal/utils.HTTPStatusError).
type StatusCoder interface {
	HTTPStatus() int
}

// ClassifyTransportError maps a raw transport failure onto the adapter error
// taxonomy: 401/403 become ErrAuth, any other non-2xx status becomes
// ErrProtocol, and everything else is ErrNetwork. Context cancellation is
// passed through untouched so the orchestrator can recognize a user-initiated
// cancel that the transport reported as a generic failure.
func ClassifyTransportError(kind Kind, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr StatusCoder
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatus() {
		case 401, 403:
			return NewError(kind, op, fmt.Errorf("%w: %v", ErrAuth, err))
		default:
			return NewError(kind, op, fmt.Errorf("%w: %v", ErrProtocol, err))
		}
	}

	return NewError(kind, op, fmt.Errorf("%w: %v", ErrNetwork, err))
}

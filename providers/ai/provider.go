package ai

import "context"

// StreamProvider is the contract every backend adapter must satisfy. An
// adapter is stateless aside from its injected configuration: it translates
// the canonical request into its backend's wire format, issues a single
// streaming POST, and exposes the response as a lazy fragment sequence.
//
// Pre-stream failures (missing configuration, bad credentials, non-2xx HTTP
// status, network failure) are returned as a normal error before any fragment
// is yielded. Mid-stream failures are yielded through the iterator. Both are
// classified with the sentinel errors in this package so callers can use
// errors.Is to distinguish configuration, auth, protocol, and network
// conditions.
type StreamProvider interface {
	// StreamChat sends a chat request and returns a ChatStream that yields
	// incremental text fragments as they arrive from the backend.
	StreamChat(ctx context.Context, request ChatRequest) (*ChatStream, error)

	// Kind reports which backend family this adapter speaks to.
	Kind() Kind
}

// Package openai streams chat completions from OpenAI-compatible GPT
// backends over SSE.
package openai

import (
	"net/http"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

const (
	chatCompletionsPath = "/chat/completions"

	// GPT backends expect the system preamble under the "developer" role.
	systemRole = "developer"
)

// Provider streams GPT chat completions. Endpoint, credentials and the model
// table are resolved from the configuration registry at call time, so a
// provider constructed before remote configuration arrives becomes usable as
// soon as the registry populates.
type Provider struct {
	registry     *config.Registry
	entitlements ai.Entitlements
	client       *http.Client
}

// New creates a GPT provider backed by the given configuration registry.
// entitlements may be nil, in which case attachments are always allowed.
func New(registry *config.Registry, entitlements ai.Entitlements) *Provider {
	return &Provider{
		registry:     registry,
		entitlements: entitlements,
		client:       http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client, e.g. with timeouts or a custom
// transport for testing.
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.client = client
	return p
}

// Kind returns the backend family this provider serves.
func (p *Provider) Kind() ai.Kind {
	return ai.KindGPT
}

var _ ai.StreamProvider = (*Provider)(nil)

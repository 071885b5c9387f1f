// Package meta streams chat completions for the Meta AI persona, which
// rides an OpenAI-compatible chat completions backend.
package meta

import (
	"net/http"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

const (
	chatCompletionsPath = "/chat/completions"

	// Same backend family as GPT, so the preamble travels under the
	// "developer" role.
	systemRole = "developer"

	maxTokens = 1024
)

// Provider streams Meta AI chat completions. Endpoint, credentials and the
// model table come from the configuration registry at call time.
type Provider struct {
	registry     *config.Registry
	entitlements ai.Entitlements
	client       *http.Client
}

// New creates a Meta AI provider backed by the given configuration registry.
// entitlements may be nil, in which case attachments are always allowed.
func New(registry *config.Registry, entitlements ai.Entitlements) *Provider {
	return &Provider{
		registry:     registry,
		entitlements: entitlements,
		client:       http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.client = client
	return p
}

// Kind returns the backend family this provider serves.
func (p *Provider) Kind() ai.Kind {
	return ai.KindMeta
}

var _ ai.StreamProvider = (*Provider)(nil)

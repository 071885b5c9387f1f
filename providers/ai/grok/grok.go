// Package grok streams chat completions from xAI's OpenAI-compatible
// Grok endpoint.
package grok

import (
	"net/http"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

const (
	chatCompletionsPath = "/chat/completions"

	systemRole = "system"

	// Grok vision requests ask for full-resolution image analysis.
	imageDetail = "high"
)

// Provider streams Grok chat completions. Endpoint, credentials and the
// model table come from the configuration registry at call time.
type Provider struct {
	registry     *config.Registry
	entitlements ai.Entitlements
	client       *http.Client
}

// New creates a Grok provider backed by the given configuration registry.
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
	return ai.KindGrok
}

var _ ai.StreamProvider = (*Provider)(nil)

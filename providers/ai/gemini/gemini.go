// Package gemini streams chat completions from Google's Gemini REST API.
package gemini

import (
	"net/http"
	"net/url"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

// Provider streams Gemini chat completions. Endpoint, credentials and the
// model table come from the configuration registry at call time.
type Provider struct {
	registry     *config.Registry
	entitlements ai.Entitlements
	client       *http.Client
}

// New creates a Gemini provider backed by the given configuration registry.
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
	return ai.KindGemini
}

// streamURL builds the per-model streaming endpoint. The API key travels as
// a query parameter rather than a header.
func streamURL(endpoint, model, apiKey string) string {
	return endpoint + "/models/" + url.PathEscape(model) + ":streamGenerateContent?alt=sse&key=" + url.QueryEscape(apiKey)
}

var _ ai.StreamProvider = (*Provider)(nil)

// Package anthropic streams chat completions from Claude backends using the
// Anthropic Messages API.
package anthropic

import (
	"net/http"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

const (
	messagesPath = "/messages"

	// The Messages API authenticates with x-api-key instead of a bearer
	// token and requires a pinned API version header.
	apiKeyHeader     = "x-api-key"
	versionHeader    = "anthropic-version"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 2048
)

// Provider streams Claude chat completions. Endpoint, credentials and the
// model table come from the configuration registry at call time.
type Provider struct {
	registry     *config.Registry
	entitlements ai.Entitlements
	client       *http.Client
}

// New creates a Claude provider backed by the given configuration registry.
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
	return ai.KindClaude
}

var _ ai.StreamProvider = (*Provider)(nil)

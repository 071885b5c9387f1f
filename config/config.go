// Package config holds the externally supplied provider configuration:
// per-backend endpoint URLs, API keys, and display-name → model-identifier
// tables. The data is fetched from a remote configuration service at startup
// (and on demand), optionally overridden from a local TOML file, and treated
// as read-mostly by the adapters. An empty registry is a valid state at
// process start; adapters fail fast with a configuration error and recover
// once the registry populates.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/codbun/chatcore/providers/ai"
)

// ProviderConfig describes one backend: where to reach it, how to
// authenticate, and which models the UI may select.
type ProviderConfig struct {
	Endpoint string            `json:"endpoint" toml:"endpoint"`
	APIKey   string            `json:"api_key,omitempty" toml:"api_key"`
	Models   map[string]string `json:"models" toml:"models"` // display name -> model identifier
}

// Empty reports whether the config is unusable for issuing a call.
func (c ProviderConfig) Empty() bool {
	return c.Endpoint == "" || len(c.Models) == 0
}

// HasModel reports whether identifier is one of the configured model
// identifiers.
func (c ProviderConfig) HasModel(identifier string) bool {
	for _, id := range c.Models {
		if id == identifier {
			return true
		}
	}
	return false
}

// Registry is the process-wide provider configuration. Adapters look their
// config up on every call, so a registry that is empty at startup and
// populates later requires no adapter restart.
type Registry struct {
	mu        sync.RWMutex
	providers map[ai.Kind]ProviderConfig
}

// NewRegistry returns an empty configuration registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[ai.Kind]ProviderConfig)}
}

// Provider returns the configuration for kind. The second return value is
// false when the kind was never configured.
func (r *Registry) Provider(kind ai.Kind) (ProviderConfig, bool) {
	r.mu.RLock()
	cfg, ok := r.providers[kind]
	r.mu.RUnlock()
	return cfg, ok
}

// SetProvider stores or replaces the configuration for kind.
func (r *Registry) SetProvider(kind ai.Kind, cfg ProviderConfig) {
	r.mu.Lock()
	r.providers[kind] = cfg
	r.mu.Unlock()
}

// document is the wire/file shape shared by the remote service and the local
// TOML override: a single map of provider kind to config.
type document struct {
	Providers map[string]ProviderConfig `json:"providers" toml:"providers"`
}

// apply merges a parsed document into the registry, replacing entries for
// kinds the document names and leaving others untouched.
func (r *Registry) apply(doc document) {
	for name, cfg := range doc.Providers {
		r.SetProvider(ai.Kind(name), cfg)
	}
}

// maxDocumentSize caps the configuration payload size (1 MB).
const maxDocumentSize int64 = 1 * 1024 * 1024

// defaultFetchTimeout bounds the remote configuration request.
const defaultFetchTimeout = 15 * time.Second

// FetchRemote retrieves the configuration document from the remote service
// and merges it into the registry. A failure leaves the registry unchanged;
// callers typically log and continue, since an unconfigured provider is a
// handled state.
func (r *Registry) FetchRemote(ctx context.Context, client *http.Client, url string) error {
	httpClient := client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("error creating config request: %w", err)
	}

	response, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching remote config: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("remote config returned status %d", response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxDocumentSize))
	if err != nil {
		return fmt.Errorf("error reading remote config: %w", err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("error decoding remote config: %w", err)
	}

	r.apply(doc)
	return nil
}

// LoadFile merges a local TOML configuration file into the registry. Used
// both as a development override and as the reload target for Watch.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding config file %s: %w", path, err)
	}

	r.apply(doc)
	return nil
}

package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codbun/chatcore/providers/ai"
)

func TestProviderConfigEmpty(t *testing.T) {
	assert.True(t, ProviderConfig{}.Empty())
	assert.True(t, ProviderConfig{Endpoint: "https://api.example.com"}.Empty(), "no models means unusable")
	assert.True(t, ProviderConfig{Models: map[string]string{"GPT": "gpt-4o"}}.Empty(), "no endpoint means unusable")
	assert.False(t, ProviderConfig{
		Endpoint: "https://api.example.com",
		Models:   map[string]string{"GPT": "gpt-4o"},
	}.Empty())
}

func TestHasModelChecksIdentifiers(t *testing.T) {
	cfg := ProviderConfig{Models: map[string]string{"GPT-4o": "gpt-4o"}}
	assert.True(t, cfg.HasModel("gpt-4o"))
	assert.False(t, cfg.HasModel("GPT-4o"), "display names are not identifiers")
	assert.False(t, cfg.HasModel("gpt-5"))
}

func TestFetchRemoteMergesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"providers": {
				"gpt":    {"endpoint": "https://api.openai.example", "api_key": "k1", "models": {"GPT-4o": "gpt-4o"}},
				"claude": {"endpoint": "https://api.anthropic.example", "api_key": "k2", "models": {"Sonnet": "claude-sonnet"}}
			}
		}`))
	}))
	defer server.Close()

	registry := NewRegistry()
	registry.SetProvider(ai.KindGemini, ProviderConfig{Endpoint: "https://kept.example", Models: map[string]string{"Flash": "gemini-flash"}})

	require.NoError(t, registry.FetchRemote(context.Background(), nil, server.URL))

	gpt, ok := registry.Provider(ai.KindGPT)
	require.True(t, ok)
	assert.Equal(t, "https://api.openai.example", gpt.Endpoint)
	assert.True(t, gpt.HasModel("gpt-4o"))

	_, ok = registry.Provider(ai.KindGemini)
	assert.True(t, ok, "kinds absent from the document are left untouched")
}

func TestFetchRemoteFailureLeavesRegistryUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	registry := NewRegistry()
	registry.SetProvider(ai.KindGPT, ProviderConfig{Endpoint: "https://kept.example", Models: map[string]string{"GPT": "gpt-4o"}})

	err := registry.FetchRemote(context.Background(), nil, server.URL)
	require.Error(t, err)

	cfg, ok := registry.Provider(ai.KindGPT)
	require.True(t, ok)
	assert.Equal(t, "https://kept.example", cfg.Endpoint)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[providers.qwen]
endpoint = "https://dashscope.example/compatible-mode/v1"
api_key = "qk"

[providers.qwen.models]
"Qwen Max" = "qwen-max"
`), 0o644))

	registry := NewRegistry()
	require.NoError(t, registry.LoadFile(path))

	cfg, ok := registry.Provider(ai.KindQwen)
	require.True(t, ok)
	assert.Equal(t, "qk", cfg.APIKey)
	assert.True(t, cfg.HasModel("qwen-max"))
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[providers.gpt]
endpoint = "https://one.example"
[providers.gpt.models]
"GPT" = "gpt-4o"
`), 0o644))

	registry := NewRegistry()
	require.NoError(t, registry.LoadFile(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, registry.Watch(ctx, path, nil))

	require.NoError(t, os.WriteFile(path, []byte(`
[providers.gpt]
endpoint = "https://two.example"
[providers.gpt.models]
"GPT" = "gpt-4o"
`), 0o644))

	require.Eventually(t, func() bool {
		cfg, _ := registry.Provider(ai.KindGPT)
		return cfg.Endpoint == "https://two.example"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchSurvivesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[providers.gpt]
endpoint = "https://one.example"
[providers.gpt.models]
"GPT" = "gpt-4o"
`), 0o644))

	registry := NewRegistry()
	require.NoError(t, registry.LoadFile(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, registry.Watch(ctx, path, nil))

	// Atomic write: temp file in the same directory renamed over the
	// target, exactly how editors and snapshot writers replace files.
	tmp := filepath.Join(dir, "chatcore.toml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`
[providers.gpt]
endpoint = "https://two.example"
[providers.gpt.models]
"GPT" = "gpt-4o"
`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		cfg, _ := registry.Provider(ai.KindGPT)
		return cfg.Endpoint == "https://two.example"
	}, 2*time.Second, 10*time.Millisecond)

	// The watch must survive the inode swap: a second replace reloads too.
	require.NoError(t, os.WriteFile(tmp, []byte(`
[providers.gpt]
endpoint = "https://three.example"
[providers.gpt.models]
"GPT" = "gpt-4o"
`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		cfg, _ := registry.Provider(ai.KindGPT)
		return cfg.Endpoint == "https://three.example"
	}, 2*time.Second, 10*time.Millisecond)
}

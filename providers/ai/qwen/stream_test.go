package qwen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

func testRegistry(endpoint string) *config.Registry {
	registry := config.NewRegistry()
	registry.SetProvider(ai.KindQwen, config.ProviderConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Models:   map[string]string{"Qwen Max": "qwen-max"},
	})
	return registry
}

func TestStreamChatWireShape(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"ok"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:          "qwen-max",
		SystemPreamble: "Be terse.",
		UserText:       "hi",
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "ok" {
		t.Errorf("Collect() = %q, want %q", text, "ok")
	}

	var wire chatCompletionRequest
	if err := json.Unmarshal(gotBody, &wire); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	if wire.MaxTokens != 1024 {
		t.Errorf("max_tokens = %d, want 1024", wire.MaxTokens)
	}
	if wire.Messages[0].Role != "system" {
		t.Errorf("system role = %q, want system", wire.Messages[0].Role)
	}
}

func TestStreamChatNotConfigured(t *testing.T) {
	provider := New(config.NewRegistry(), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "qwen-max", UserText: "hi"})
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Errorf("StreamChat() error = %v, want ErrNotConfigured", err)
	}
}

func TestStreamChatProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "qwen-max", UserText: "hi"})
	if !errors.Is(err, ai.ErrProtocol) {
		t.Errorf("StreamChat() error = %v, want ErrProtocol", err)
	}
}

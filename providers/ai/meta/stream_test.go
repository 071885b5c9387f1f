package meta

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
	registry.SetProvider(ai.KindMeta, config.ProviderConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Models:   map[string]string{"Meta AI": "gpt-4o-mini"},
	})
	return registry
}

func TestStreamChatWireShape(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"hey"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:          "gpt-4o-mini",
		SystemPreamble: "You are Meta AI.",
		UserText:       "hi",
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "hey" {
		t.Errorf("Collect() = %q, want %q", text, "hey")
	}

	var wire chatCompletionRequest
	if err := json.Unmarshal(gotBody, &wire); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	if wire.MaxTokens != 1024 {
		t.Errorf("max_tokens = %d, want 1024", wire.MaxTokens)
	}
	if wire.Messages[0].Role != "developer" {
		t.Errorf("system role = %q, want developer", wire.Messages[0].Role)
	}
	if len(wire.Stop) != 2 {
		t.Errorf("stop sequences = %v, want two entries", wire.Stop)
	}
}

func TestStreamChatTextBeforeImages(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o-mini",
		UserText: "what is this?",
		Attachments: []ai.Attachment{
			{Base64: "aGk=", MediaType: "image/png"},
		},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	if _, err := stream.Collect(); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var wire struct {
		Messages []struct {
			Role    string        `json:"role"`
			Content []contentPart `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(gotBody, &wire); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	parts := wire.Messages[len(wire.Messages)-1].Content
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want 2", len(parts))
	}
	if parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Errorf("part order = [%s %s], want text before image_url", parts[0].Type, parts[1].Type)
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,aGk=" {
		t.Errorf("image URL = %q", parts[1].ImageURL.URL)
	}
}

func TestStreamChatNotConfigured(t *testing.T) {
	provider := New(config.NewRegistry(), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "gpt-4o-mini", UserText: "hi"})
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Errorf("StreamChat() error = %v, want ErrNotConfigured", err)
	}
}

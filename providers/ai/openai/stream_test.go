package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
)

func testRegistry(endpoint string) *config.Registry {
	registry := config.NewRegistry()
	registry.SetProvider(ai.KindGPT, config.ProviderConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Models:   map[string]string{"GPT-4o": "gpt-4o"},
	})
	return registry
}

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestStreamChatCollectsFragments(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test key", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("Hello"))
		fmt.Fprint(w, sseChunk(" world"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:          "gpt-4o",
		SystemPreamble: "Be terse.",
		Turns:          []ai.Turn{{UserText: "hi", AssistantText: "hello"}},
		UserText:       "continue",
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "Hello world" {
		t.Errorf("Collect() = %q, want %q", text, "Hello world")
	}

	var wire chatCompletionRequest
	if err := json.Unmarshal(gotBody, &wire); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	if !wire.Stream {
		t.Error("request did not ask for streaming")
	}
	if len(wire.Messages) != 4 {
		t.Fatalf("got %d messages, want 4 (system + 2 history + current)", len(wire.Messages))
	}
	if wire.Messages[0].Role != "developer" {
		t.Errorf("system role = %q, want developer", wire.Messages[0].Role)
	}
	if wire.Messages[1].Role != "user" || wire.Messages[2].Role != "assistant" {
		t.Errorf("history roles = %q, %q; want user, assistant", wire.Messages[1].Role, wire.Messages[2].Role)
	}
	if len(wire.Stop) != 2 {
		t.Errorf("stop sequences = %v, want two entries", wire.Stop)
	}
}

func TestStreamChatAttachmentsTextBeforeImages(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), ai.EntitlementsFunc(func() bool { return true }))
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o",
		UserText: "what is this?",
		Attachments: []ai.Attachment{
			{Base64: "aGVsbG8=", MediaType: "image/png"},
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
		t.Fatalf("got %d content parts, want 2", len(parts))
	}
	if parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Errorf("part order = %q, %q; want text first, image second", parts[0].Type, parts[1].Type)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image URL = %q, want data URL with declared media type", parts[1].ImageURL.URL)
	}
}

func TestStreamChatSkipsMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("before"))
		fmt.Fprint(w, "data: {not json at all{{\n\n")
		fmt.Fprint(w, sseChunk("after"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "gpt-4o", UserText: "hi"})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "beforeafter" {
		t.Errorf("Collect() = %q, want fragments around the bad frame", text)
	}
}

func TestStreamChatAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "gpt-4o", UserText: "hi"})
	if !errors.Is(err, ai.ErrAuth) {
		t.Errorf("StreamChat() error = %v, want ErrAuth", err)
	}
}

func TestStreamChatNotConfigured(t *testing.T) {
	provider := New(config.NewRegistry(), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "gpt-4o", UserText: "hi"})
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Errorf("StreamChat() error = %v, want ErrNotConfigured", err)
	}
}

func TestStreamChatUnknownModel(t *testing.T) {
	provider := New(testRegistry("http://unused.invalid"), nil)
	_, err := provider.StreamChat(context.Background(), ai.ChatRequest{Model: "no-such-model", UserText: "hi"})
	if !errors.Is(err, ai.ErrUnknownModel) {
		t.Errorf("StreamChat() error = %v, want ErrUnknownModel", err)
	}
}

func TestStreamChatEntitlementShortCircuit(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	provider := New(testRegistry(server.URL), ai.EntitlementsFunc(func() bool { return false }))
	stream, err := provider.StreamChat(context.Background(), ai.ChatRequest{
		Model:       "gpt-4o",
		UserText:    "what is this?",
		Attachments: []ai.Attachment{{Base64: "aGVsbG8="}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != ai.AttachmentUpsellMessage {
		t.Errorf("Collect() = %q, want upsell message", text)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("backend saw %d requests, want 0", n)
	}
}

func TestStreamChatCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("partial"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider := New(testRegistry(server.URL), nil)
	stream, err := provider.StreamChat(ctx, ai.ChatRequest{Model: "gpt-4o", UserText: "hi"})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	var collected strings.Builder
	var streamErr error
	for fragment, err := range stream.Iter() {
		if err != nil {
			streamErr = err
			break
		}
		collected.WriteString(fragment)
		cancel()
	}

	if collected.String() != "partial" {
		t.Errorf("collected %q before cancel, want %q", collected.String(), "partial")
	}
	if !errors.Is(streamErr, context.Canceled) {
		t.Errorf("stream error = %v, want context.Canceled", streamErr)
	}
}

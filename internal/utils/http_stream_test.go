package utils

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFrameScanner(t *testing.T) {
	input := strings.Join([]string{
		": keep-alive comment",
		"event: message",
		`data: {"a":1}`,
		"",
		"data: first half",
		"data: second half",
		"",
		"retry: 3000",
		`data: {"b":2}`,
		"",
		"data: [DONE]",
		"",
	}, "\n")

	scanner := NewFrameScanner(strings.NewReader(input))

	frame, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if frame != `{"a":1}` {
		t.Errorf("frame 1 = %q", frame)
	}

	frame, err = scanner.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if frame != "first half\nsecond half" {
		t.Errorf("multi-line frame = %q, want data lines joined", frame)
	}

	frame, err = scanner.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if frame != `{"b":2}` {
		t.Errorf("frame 3 = %q", frame)
	}

	if _, err = scanner.Next(); err != io.EOF {
		t.Errorf("Next() after [DONE] = %v, want io.EOF", err)
	}
}

func TestFrameScannerPlainEOF(t *testing.T) {
	scanner := NewFrameScanner(strings.NewReader("data: last\n"))

	frame, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if frame != "last" {
		t.Errorf("frame = %q", frame)
	}
	if _, err := scanner.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestFrameScannerLineTooLong(t *testing.T) {
	scanner := NewFrameScanner(strings.NewReader("data: " + strings.Repeat("x", maxFrameLineSize+1)))
	if _, err := scanner.Next(); err == nil || err == io.EOF {
		t.Errorf("Next() on oversized line = %v, want a scanner error", err)
	}
}

func TestDoPostStreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := DoPostStream(context.Background(), nil, server.URL, "key", map[string]string{"q": "hi"})

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *HTTPStatusError", err)
	}
	if statusErr.HTTPStatus() != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", statusErr.HTTPStatus())
	}
	if !strings.Contains(statusErr.Body, "quota") {
		t.Errorf("body = %q, want backend message captured", statusErr.Body)
	}
}

func TestDoPostStreamSetsHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), nil, server.URL, "key", nil,
		HeaderOption{Key: "Authorization", Value: "custom"})
	if err != nil {
		t.Fatalf("DoPostStream() error = %v", err)
	}
	CloseWithLog(response.Body)

	if got.Get("Accept") != "text/event-stream" {
		t.Errorf("Accept = %q", got.Get("Accept"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", got.Get("Content-Type"))
	}
	if got.Get("Authorization") != "custom" {
		t.Errorf("Authorization = %q, want header option to win over the api key", got.Get("Authorization"))
	}
}

// Package summarize condenses web pages and raw text through a chat backend.
// Pages are fetched, converted from HTML to markdown, and sent as a one-shot
// summarization prompt.
package summarize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/codbun/chatcore/normalize"
	"github.com/codbun/chatcore/providers/ai"
)

const (
	// maxBodySize caps the fetched page body.
	maxBodySize int64 = 2 * 1024 * 1024

	// maxPromptChars caps the converted page content placed in the prompt,
	// keeping the request inside backend context limits.
	maxPromptChars = 8000

	systemPreamble = "You summarize documents. Reply with a short plain-text summary of the supplied content, nothing else."
)

// Summarizer produces summaries through a single chat backend and model.
type Summarizer struct {
	provider ai.StreamProvider
	model    string
	client   *http.Client
}

// New creates a summarizer over the given provider and model.
func New(provider ai.StreamProvider, model string) *Summarizer {
	return &Summarizer{
		provider: provider,
		model:    model,
		client:   http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client for page fetches.
func (s *Summarizer) WithHTTPClient(client *http.Client) *Summarizer {
	s.client = client
	return s
}

// URL fetches the page, converts it to markdown and summarizes the result.
func (s *Summarizer) URL(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building page request: %w", err)
	}

	response, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("fetching page: unexpected status %d", response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting page: %w", err)
	}

	return s.Text(ctx, markdown)
}

// Text summarizes raw text. The content is truncated to the prompt cap
// before submission; the summary comes back normalized and trimmed.
func (s *Summarizer) Text(ctx context.Context, text string) (string, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return "", fmt.Errorf("nothing to summarize")
	}
	if len(content) > maxPromptChars {
		cut := maxPromptChars
		// Back off to a rune boundary so the cut never splits a UTF-8 sequence.
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	stream, err := s.provider.StreamChat(ctx, ai.ChatRequest{
		Model:          s.model,
		SystemPreamble: systemPreamble,
		UserText:       "Summarize the following content:\n\n" + content,
	})
	if err != nil {
		return "", fmt.Errorf("opening summary stream: %w", err)
	}

	summary, err := stream.Collect()
	if err != nil {
		return "", fmt.Errorf("collecting summary: %w", err)
	}
	return strings.TrimSpace(normalize.Text(summary)), nil
}

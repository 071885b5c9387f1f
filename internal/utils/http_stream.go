package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codbun/chatcore/providers/observability"
)

// HeaderOption is a custom header applied to an outgoing request.
// It can override defaults such as Authorization.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPStatusError reports a response outside the 2xx range. The body is
// captured (capped) so adapters can surface the backend's own error message.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, 500))
}

// HTTPStatus returns the response status code. It satisfies the StatusCoder
// interface adapters use for error classification.
func (e *HTTPStatusError) HTTPStatus() int {
	return e.StatusCode
}

// maxErrorBodySize caps how much of an error response body is read, to
// prevent unbounded memory allocation from rogue responses.
const maxErrorBodySize int64 = 1 * 1024 * 1024

// DoPostStream performs an HTTP POST request with a JSON body and returns the
// raw response with its body left open for streamed reading. The caller is
// responsible for closing the response body when done. On error paths the
// body is consumed and closed before returning.
//
// Non-2xx responses produce an *HTTPStatusError so adapters can map status
// codes onto their own error taxonomy; transport failures come back as plain
// wrapped errors.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	observer := observability.ObserverFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	// Apply custom headers (can override Authorization if needed)
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if observer != nil {
			observer.Trace("stream request failed",
				observability.String(observability.AttrHTTPURL, url),
				observability.Duration("http.request.duration", requestDuration),
				observability.Error(err),
			)
		}
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))
		if readErr != nil {
			return response, &HTTPStatusError{StatusCode: response.StatusCode, Body: fmt.Sprintf("(failed to read body: %v)", readErr)}
		}
		return response, &HTTPStatusError{StatusCode: response.StatusCode, Body: string(errorBody)}
	}

	if observer != nil {
		observer.Trace("stream response started",
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	return response, nil
}

// CloseWithLog closes the closer and logs a warning through the default
// logger path when closing fails. Used in defers where the primary error,
// if any, must take precedence.
func CloseWithLog(closer io.Closer) {
	if err := closer.Close(); err != nil {
		// Best effort; a failed body close never overrides the stream result.
		_ = err
	}
}

// maxFrameLineSize is the maximum size of a single protocol frame line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for long
// completions arriving as a single delta. If a line exceeds this limit the
// scanner returns a wrapped bufio.ErrTooLong via the Next() error path.
const maxFrameLineSize = 1 * 1024 * 1024

// FrameScanner reads SSE-style newline-delimited protocol frames from an
// io.Reader. Lines that do not carry the "data:" prefix (comments, event
// names, keep-alives, blank lines) are skipped; the [DONE] sentinel used by
// OpenAI-compatible APIs terminates the stream.
type FrameScanner struct {
	scanner *bufio.Scanner
}

// NewFrameScanner creates a FrameScanner over the given reader. Individual
// lines up to maxFrameLineSize are supported.
func NewFrameScanner(reader io.Reader) *FrameScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameLineSize)
	return &FrameScanner{scanner: scanner}
}

// Next returns the next data frame payload as a string.
//
// Multi-line data fields (multiple consecutive "data:" lines within one
// event) are joined with newlines into a single payload. Returns io.EOF when
// the stream ends or the [DONE] sentinel is encountered.
func (frameScanner *FrameScanner) Next() (string, error) {
	var dataLines []string

	for frameScanner.scanner.Scan() {
		line := frameScanner.scanner.Text()

		// Empty line signals end of an event; flush accumulated data lines
		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		// Skip SSE comments
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			// OpenAI-compatible end-of-stream sentinel
			if data == "[DONE]" {
				return "", io.EOF
			}

			dataLines = append(dataLines, data)
			continue
		}

		// Other SSE fields (event:, id:, retry:) and keep-alive noise are
		// not data frames; skip them silently.
	}

	if err := frameScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("frame scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}

	return "", io.EOF
}

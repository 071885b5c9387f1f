package anthropic

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/codbun/chatcore/internal/utils"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
)

// StreamChat opens a streamed Messages API exchange and returns the fragment
// stream.
func (p *Provider) StreamChat(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)

	if len(request.Attachments) > 0 && p.entitlements != nil && !p.entitlements.AllowAttachments() {
		return ai.NewStaticStream(ai.AttachmentUpsellMessage), nil
	}

	cfg, ok := p.registry.Provider(ai.KindClaude)
	if !ok || cfg.Empty() {
		return nil, ai.NewError(ai.KindClaude, "stream", ai.ErrNotConfigured)
	}
	if !cfg.HasModel(request.Model) {
		return nil, ai.NewError(ai.KindClaude, "stream", fmt.Errorf("%w: %q", ai.ErrUnknownModel, request.Model))
	}

	if observer != nil {
		observer.Trace("starting chat stream",
			observability.String(observability.AttrProvider, string(ai.KindClaude)),
			observability.String(observability.AttrModel, request.Model),
			observability.Int(observability.AttrTurnCount, len(request.Turns)),
			observability.Int(observability.AttrAttachments, len(request.Attachments)),
		)
	}

	// Empty apiKey suppresses the default Bearer header; credentials travel
	// in x-api-key instead.
	response, err := utils.DoPostStream(ctx, p.client, cfg.Endpoint+messagesPath, "", buildRequest(request),
		utils.HeaderOption{Key: apiKeyHeader, Value: cfg.APIKey},
		utils.HeaderOption{Key: versionHeader, Value: apiVersion},
	)
	if err != nil {
		return nil, ai.ClassifyTransportError(ai.KindClaude, "stream", err)
	}

	return ai.NewChatStream(streamFragments(ctx, response)), nil
}

// streamFragments drains the SSE body, yielding the text of each
// content_block_delta frame. An error event terminates the stream as a
// protocol error; frames of other types are skipped.
func streamFragments(ctx context.Context, response *http.Response) func(yield func(string, error) bool) {
	return func(yield func(string, error) bool) {
		defer utils.CloseWithLog(response.Body)

		frames := utils.NewFrameScanner(response.Body)
		for {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}

			payload, err := frames.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", ai.ClassifyTransportError(ai.KindClaude, "stream", err))
				return
			}

			event, ok := utils.DecodeFrame[streamEvent](payload)
			if !ok {
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text == "" {
					continue
				}
				if !yield(event.Delta.Text, nil) {
					return
				}
			case "message_stop":
				return
			case "error":
				message := "stream error"
				if event.Error != nil {
					message = event.Error.Message
				}
				yield("", ai.NewError(ai.KindClaude, "stream", fmt.Errorf("%w: %s", ai.ErrProtocol, message)))
				return
			}
		}
	}
}

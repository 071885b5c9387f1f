package meta

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/codbun/chatcore/internal/utils"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
)

// StreamChat opens a streamed chat completion against the configured
// OpenAI-compatible backend and returns the fragment stream.
func (p *Provider) StreamChat(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)

	if len(request.Attachments) > 0 && p.entitlements != nil && !p.entitlements.AllowAttachments() {
		return ai.NewStaticStream(ai.AttachmentUpsellMessage), nil
	}

	cfg, ok := p.registry.Provider(ai.KindMeta)
	if !ok || cfg.Empty() {
		return nil, ai.NewError(ai.KindMeta, "stream", ai.ErrNotConfigured)
	}
	if !cfg.HasModel(request.Model) {
		return nil, ai.NewError(ai.KindMeta, "stream", fmt.Errorf("%w: %q", ai.ErrUnknownModel, request.Model))
	}

	if observer != nil {
		observer.Trace("starting chat stream",
			observability.String(observability.AttrProvider, string(ai.KindMeta)),
			observability.String(observability.AttrModel, request.Model),
			observability.Int(observability.AttrTurnCount, len(request.Turns)),
		)
	}

	response, err := utils.DoPostStream(ctx, p.client, cfg.Endpoint+chatCompletionsPath, cfg.APIKey, buildRequest(request))
	if err != nil {
		return nil, ai.ClassifyTransportError(ai.KindMeta, "stream", err)
	}

	return ai.NewChatStream(streamFragments(ctx, response)), nil
}

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
				yield("", ai.ClassifyTransportError(ai.KindMeta, "stream", err))
				return
			}

			chunk, ok := utils.DecodeFrame[chatCompletionChunk](payload)
			if !ok {
				continue
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
		}
	}
}

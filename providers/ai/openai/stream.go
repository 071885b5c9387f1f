package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/codbun/chatcore/internal/utils"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
)

// StreamChat opens a streamed chat completion and returns the fragment
// stream. Configuration and model validation happen here, before any network
// traffic; attachment submissions without the required entitlement
// short-circuit into a single static upsell fragment.
func (p *Provider) StreamChat(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)

	if len(request.Attachments) > 0 && p.entitlements != nil && !p.entitlements.AllowAttachments() {
		if observer != nil {
			observer.Debug("attachment submission without entitlement, returning upsell",
				observability.String(observability.AttrProvider, string(ai.KindGPT)),
			)
		}
		return ai.NewStaticStream(ai.AttachmentUpsellMessage), nil
	}

	cfg, ok := p.registry.Provider(ai.KindGPT)
	if !ok || cfg.Empty() {
		return nil, ai.NewError(ai.KindGPT, "stream", ai.ErrNotConfigured)
	}
	if !cfg.HasModel(request.Model) {
		return nil, ai.NewError(ai.KindGPT, "stream", fmt.Errorf("%w: %q", ai.ErrUnknownModel, request.Model))
	}

	if observer != nil {
		observer.Trace("starting chat stream",
			observability.String(observability.AttrProvider, string(ai.KindGPT)),
			observability.String(observability.AttrModel, request.Model),
			observability.Int(observability.AttrTurnCount, len(request.Turns)),
			observability.Int(observability.AttrAttachments, len(request.Attachments)),
		)
	}

	response, err := utils.DoPostStream(ctx, p.client, cfg.Endpoint+chatCompletionsPath, cfg.APIKey, buildRequest(request))
	if err != nil {
		return nil, ai.ClassifyTransportError(ai.KindGPT, "stream", err)
	}

	return ai.NewChatStream(streamFragments(ctx, response)), nil
}

// streamFragments drains the SSE body, yielding one fragment per non-empty
// delta. Frames that fail to decode even after repair are skipped; a scanner
// failure mid-stream surfaces as a network error after the fragments already
// yielded.
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
				yield("", ai.ClassifyTransportError(ai.KindGPT, "stream", err))
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

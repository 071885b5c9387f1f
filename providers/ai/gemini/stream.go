package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/codbun/chatcore/internal/utils"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
)

// StreamChat opens a streamed generateContent exchange and returns the
// fragment stream.
func (p *Provider) StreamChat(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)

	if len(request.Attachments) > 0 && p.entitlements != nil && !p.entitlements.AllowAttachments() {
		return ai.NewStaticStream(ai.AttachmentUpsellMessage), nil
	}

	cfg, ok := p.registry.Provider(ai.KindGemini)
	if !ok || cfg.Empty() {
		return nil, ai.NewError(ai.KindGemini, "stream", ai.ErrNotConfigured)
	}
	if !cfg.HasModel(request.Model) {
		return nil, ai.NewError(ai.KindGemini, "stream", fmt.Errorf("%w: %q", ai.ErrUnknownModel, request.Model))
	}

	if observer != nil {
		observer.Trace("starting chat stream",
			observability.String(observability.AttrProvider, string(ai.KindGemini)),
			observability.String(observability.AttrModel, request.Model),
			observability.Int(observability.AttrTurnCount, len(request.Turns)),
		)
	}

	// API key travels in the URL; empty apiKey argument keeps the
	// Authorization header unset.
	response, err := utils.DoPostStream(ctx, p.client, streamURL(cfg.Endpoint, request.Model, cfg.APIKey), "", buildRequest(request))
	if err != nil {
		return nil, ai.ClassifyTransportError(ai.KindGemini, "stream", err)
	}

	return ai.NewChatStream(streamFragments(ctx, response)), nil
}

// streamFragments drains the SSE body, yielding the text of every candidate
// part. Gemini streams end by closing the body; there is no end sentinel.
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
				yield("", ai.ClassifyTransportError(ai.KindGemini, "stream", err))
				return
			}

			chunk, ok := utils.DecodeFrame[generateContentChunk](payload)
			if !ok {
				continue
			}

			for _, cand := range chunk.Candidates {
				for _, p := range cand.Content.Parts {
					if p.Text == "" {
						continue
					}
					if !yield(p.Text, nil) {
						return
					}
				}
			}
		}
	}
}

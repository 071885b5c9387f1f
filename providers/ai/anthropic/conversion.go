package anthropic

import (
	"fmt"

	"github.com/codbun/chatcore/providers/ai"
)

// buildRequest converts a canonical chat request into the Messages API wire
// shape. The system preamble travels in the top-level system field, not as a
// message. When attachments are present the current user message becomes a
// block list: a numbered "Image: N" text label followed by its base64 image
// block for each attachment, with the submission text as the final block.
func buildRequest(request ai.ChatRequest) messagesRequest {
	messages := make([]message, 0, 2*len(request.Turns)+1)

	for _, turn := range request.Turns {
		messages = append(messages, message{Role: "user", Content: turn.UserText})
		messages = append(messages, message{Role: "assistant", Content: turn.AssistantText})
	}

	messages = append(messages, currentMessage(request))

	return messagesRequest{
		Model:     request.Model,
		MaxTokens: defaultMaxTokens,
		System:    request.SystemPreamble,
		Messages:  messages,
		Stream:    true,
	}
}

func currentMessage(request ai.ChatRequest) message {
	if len(request.Attachments) == 0 {
		return message{Role: "user", Content: request.UserText}
	}

	blocks := make([]contentBlock, 0, 2*len(request.Attachments)+1)
	for i, attachment := range request.Attachments {
		blocks = append(blocks, contentBlock{
			Type: "text",
			Text: fmt.Sprintf("Image: %d", i+1),
		})
		blocks = append(blocks, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: attachment.MIME(),
				Data:      attachment.Base64,
			},
		})
	}
	blocks = append(blocks, contentBlock{Type: "text", Text: request.UserText})

	return message{Role: "user", Content: blocks}
}

package grok

import "github.com/codbun/chatcore/providers/ai"

var defaultStopSequences = []string{"\n\n\n", "<|im_end|>"}

// buildRequest converts a canonical chat request into the xAI wire shape.
// Unlike the other OpenAI-compatible backends, Grok puts image parts before
// the text part and requests high-detail vision analysis.
func buildRequest(request ai.ChatRequest) chatCompletionRequest {
	messages := make([]message, 0, 2*len(request.Turns)+2)

	if request.SystemPreamble != "" {
		messages = append(messages, message{Role: systemRole, Content: request.SystemPreamble})
	}

	for _, turn := range request.Turns {
		messages = append(messages, message{Role: "user", Content: turn.UserText})
		messages = append(messages, message{Role: "assistant", Content: turn.AssistantText})
	}

	messages = append(messages, currentMessage(request))

	return chatCompletionRequest{
		Model:    request.Model,
		Messages: messages,
		Stop:     defaultStopSequences,
		Stream:   true,
	}
}

func currentMessage(request ai.ChatRequest) message {
	if len(request.Attachments) == 0 {
		return message{Role: "user", Content: request.UserText}
	}

	parts := make([]contentPart, 0, len(request.Attachments)+1)
	for _, attachment := range request.Attachments {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: attachment.DataURL(), Detail: imageDetail},
		})
	}
	parts = append(parts, contentPart{Type: "text", Text: request.UserText})

	return message{Role: "user", Content: parts}
}

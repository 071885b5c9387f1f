package meta

import "github.com/codbun/chatcore/providers/ai"

var defaultStopSequences = []string{"\n\n\n", "<|im_end|>"}

// buildRequest converts a canonical chat request into the OpenAI-compatible
// wire shape the persona rides on. The current submission carries the text
// part first when attachments are present.
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
		Model:     request.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stop:      defaultStopSequences,
		Stream:    true,
	}
}

func currentMessage(request ai.ChatRequest) message {
	if len(request.Attachments) == 0 {
		return message{Role: "user", Content: request.UserText}
	}

	parts := make([]contentPart, 0, len(request.Attachments)+1)
	parts = append(parts, contentPart{Type: "text", Text: request.UserText})
	for _, attachment := range request.Attachments {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: attachment.DataURL()},
		})
	}

	return message{Role: "user", Content: parts}
}

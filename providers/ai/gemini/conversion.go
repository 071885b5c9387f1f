package gemini

import "github.com/codbun/chatcore/providers/ai"

// buildRequest converts a canonical chat request into the generateContent
// wire shape. History alternates user/model contents; the system preamble
// travels in system_instruction. Attachment parts precede the text part of
// the current submission.
func buildRequest(request ai.ChatRequest) generateContentRequest {
	contents := make([]content, 0, 2*len(request.Turns)+1)

	for _, turn := range request.Turns {
		contents = append(contents, content{Role: "user", Parts: []part{{Text: turn.UserText}}})
		contents = append(contents, content{Role: "model", Parts: []part{{Text: turn.AssistantText}}})
	}

	contents = append(contents, currentContent(request))

	wire := generateContentRequest{Contents: contents}
	if request.SystemPreamble != "" {
		wire.SystemInstruction = &content{Parts: []part{{Text: request.SystemPreamble}}}
	}
	return wire
}

func currentContent(request ai.ChatRequest) content {
	parts := make([]part, 0, len(request.Attachments)+1)
	for _, attachment := range request.Attachments {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: attachment.MIME(),
				Data:     attachment.Base64,
			},
		})
	}
	parts = append(parts, part{Text: request.UserText})

	return content{Role: "user", Parts: parts}
}

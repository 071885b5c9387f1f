package anthropic

// Wire structures for the Anthropic Messages streaming API.

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
}

// message holds either a plain string or a content block list in Content.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// streamEvent is a single SSE data frame. Only content_block_delta frames
// carry text; everything else (message_start, ping, message_stop) is skipped
// by type.
type streamEvent struct {
	Type  string      `json:"type"`
	Delta eventDelta  `json:"delta"`
	Error *eventError `json:"error"`
}

type eventDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type eventError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

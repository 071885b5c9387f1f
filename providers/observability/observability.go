package observability

import "time"

// Observer provides structured logging for the chat core. Adapters, the
// store, and the orchestrator receive an Observer through context and emit
// trace-level events along the request path; implementations decide where
// those events go. A nil Observer is always safe to skip.
type Observer interface {
	Trace(msg string, attrs ...Attribute)
	Debug(msg string, attrs ...Attribute)
	Info(msg string, attrs ...Attribute)
	Warn(msg string, attrs ...Attribute)
	Error(msg string, attrs ...Attribute)
}

// Attribute represents a key-value pair of event metadata.
type Attribute struct {
	Key   string
	Value interface{}
}

// String creates a string attribute
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates an error attribute
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: "error", Value: ""}
	}
	return Attribute{Key: "error", Value: err.Error()}
}

// Shared attribute keys, so log output stays greppable across packages.
const (
	AttrProvider       = "llm.provider"
	AttrEndpoint       = "llm.endpoint"
	AttrModel          = "llm.model"
	AttrConversationID = "chat.conversation_id"
	AttrExchangeID     = "chat.exchange_id"
	AttrTurnCount      = "chat.turn_count"
	AttrAttachments    = "chat.attachment_count"
	AttrFragmentCount  = "chat.fragment_count"
	AttrResponseLength = "chat.response_length"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPURL        = "http.url"
)

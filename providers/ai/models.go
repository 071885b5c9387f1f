package ai

/*
	##### ADAPTER INPUT #####
*/

// ChatRequest is the provider-agnostic representation of one chat call.
// Adapters translate it into their backend's wire format; the request itself
// is ephemeral and never persisted.
type ChatRequest struct {
	Model          string       `json:"model"`                     // Provider-specific model identifier chosen by the caller
	SystemPreamble string       `json:"system_preamble,omitempty"` // Optional persona prompt; adapters fall back to their default when empty
	Turns          []Turn       `json:"turns,omitempty"`           // Prior completed turns, oldest first, excluding any in-flight exchange
	UserText       string       `json:"user_text"`                 // The message being sent now
	Attachments    []Attachment `json:"attachments,omitempty"`     // Ordered encoded images attached to the current message
}

// Turn is one completed user/assistant pair drawn from conversation history.
type Turn struct {
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
}

// Attachment carries one image as an opaque base64 payload. Encoding and
// size-capping happen outside the core; adapters only embed the blob in
// whatever inline-image convention their backend expects.
type Attachment struct {
	Base64    string `json:"base64"`
	MediaType string `json:"media_type,omitempty"` // Defaults to image/jpeg when empty
}

// MIME returns the attachment media type, defaulting to image/jpeg.
func (a Attachment) MIME() string {
	if a.MediaType == "" {
		return "image/jpeg"
	}
	return a.MediaType
}

// DataURL returns the attachment as a data: URL, the inline-image convention
// used by OpenAI-compatible backends.
func (a Attachment) DataURL() string {
	return "data:" + a.MIME() + ";base64," + a.Base64
}

/*
	##### PROVIDER KINDS #####
*/

// Kind identifies which backend family an adapter speaks to. The values are
// stable: they appear in persisted conversations and in configuration.
type Kind string

const (
	KindGPT    Kind = "gpt"
	KindClaude Kind = "claude"
	KindGemini Kind = "gemini"
	KindQwen   Kind = "qwen"
	KindGrok   Kind = "grok"
	KindMeta   Kind = "meta"
)

// Kinds lists every known provider kind in display order.
func Kinds() []Kind {
	return []Kind{KindGPT, KindClaude, KindGemini, KindQwen, KindGrok, KindMeta}
}

/*
	##### ENTITLEMENTS #####
*/

// Entitlements is the external premium-feature gate queried by adapters
// before honoring attachments. It is owned by the subscription system, not
// by this core.
type Entitlements interface {
	// AllowAttachments reports whether the user may send image attachments.
	AllowAttachments() bool
}

// AttachmentUpsellMessage is the single fragment adapters yield instead of
// calling the network when the request carries attachments the user is not
// entitled to. The stream terminates normally after this fragment; this is
// product behavior, not an error.
const AttachmentUpsellMessage = "Chatting about photos is a Premium feature. Upgrade to Pro to get answers about your images."

// EntitlementsFunc adapts a plain function to the Entitlements interface.
type EntitlementsFunc func() bool

// AllowAttachments implements Entitlements.
func (f EntitlementsFunc) AllowAttachments() bool { return f() }

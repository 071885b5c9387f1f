// Package store owns the persisted conversation model: conversations, their
// exchanges, and the media they are saved through.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/codbun/chatcore/providers/ai"
)

// Exchange is one user submission and the assistant response that answers
// it. While the response is streaming, InFlight is true and ResponseText
// grows monotonically; InFlight is transient state and never persisted.
type Exchange struct {
	ID             string          `json:"id"`
	UserText       string          `json:"user_text"`
	Attachments    []ai.Attachment `json:"attachments,omitempty"`
	ResponseText   string          `json:"response_text"`
	AvatarRef      string          `json:"avatar_ref,omitempty"`
	FailureMessage string          `json:"failure_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	InFlight       bool            `json:"-"`
}

// NewExchange creates a pending exchange for the given submission.
func NewExchange(userText string, attachments []ai.Attachment) Exchange {
	return Exchange{
		ID:          uuid.NewString(),
		UserText:    userText,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
		InFlight:    true,
	}
}

// Failed reports whether the exchange ended with an error.
func (e Exchange) Failed() bool {
	return e.FailureMessage != ""
}

func (e Exchange) clone() Exchange {
	cloned := e
	if e.Attachments != nil {
		cloned.Attachments = make([]ai.Attachment, len(e.Attachments))
		copy(cloned.Attachments, e.Attachments)
	}
	return cloned
}

// Conversation is an ordered list of exchanges against one backend family.
type Conversation struct {
	ID           string     `json:"id"`
	ProviderKind ai.Kind    `json:"provider_kind"`
	Title        string     `json:"title,omitempty"`
	Exchanges    []Exchange `json:"exchanges"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewConversation creates an empty conversation for the given backend.
func NewConversation(kind ai.Kind) Conversation {
	now := time.Now().UTC()
	return Conversation{
		ID:           uuid.NewString(),
		ProviderKind: kind,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (c Conversation) clone() Conversation {
	cloned := c
	cloned.Exchanges = make([]Exchange, len(c.Exchanges))
	for i, exchange := range c.Exchanges {
		cloned.Exchanges[i] = exchange.clone()
	}
	return cloned
}

// Collection is the whole persisted state: every conversation the user has.
// Persistence always replaces the collection wholesale, mirroring the
// load-mutate-save cycle of the store.
type Collection struct {
	Conversations []Conversation `json:"conversations"`
}

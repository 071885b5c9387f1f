package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
)

var (
	// ErrPersistence wraps failures of the underlying medium.
	ErrPersistence = errors.New("persistence failure")

	// ErrConversationNotFound indicates the conversation ID is not in the
	// collection.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrExchangeNotFound indicates the exchange ID is not in the
	// conversation.
	ErrExchangeNotFound = errors.New("exchange not found")
)

// Medium persists a Collection wholesale. Implementations must replace the
// previous snapshot atomically so a crash mid-save never corrupts it.
type Medium interface {
	Load(ctx context.Context) (Collection, error)
	Save(ctx context.Context, collection Collection) error
}

// Store keeps the in-memory collection and serializes every mutation behind
// one mutex. Readers always receive deep copies, so callers can hold returned
// values across further mutations.
type Store struct {
	mu         sync.Mutex
	medium     Medium
	collection Collection
}

// New creates an empty store over the given medium.
func New(medium Medium) *Store {
	return &Store{medium: medium}
}

// Load replaces the in-memory collection with the medium's snapshot. A
// missing or unreadable snapshot is not fatal: the store starts empty and
// logs the failure, so one corrupt file never bricks the chat history path.
func (s *Store) Load(ctx context.Context) {
	collection, err := s.medium.Load(ctx)
	if err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Warn("conversation snapshot unreadable, starting empty",
				observability.Error(err),
			)
		}
		collection = Collection{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = collection
}

// Save writes the current collection through the medium.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.medium.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) snapshotLocked() Collection {
	snapshot := Collection{Conversations: make([]Conversation, len(s.collection.Conversations))}
	for i, conversation := range s.collection.Conversations {
		snapshot.Conversations[i] = conversation.clone()
	}
	return snapshot
}

// CreateConversation adds an empty conversation for the given backend and
// returns a copy of it.
func (s *Store) CreateConversation(kind ai.Kind) Conversation {
	conversation := NewConversation(kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection.Conversations = append(s.collection.Conversations, conversation)
	return conversation.clone()
}

// CreateWithFirstExchange creates a conversation seeded with its opening
// exchange, the shape a fresh chat takes on first send.
func (s *Store) CreateWithFirstExchange(kind ai.Kind, exchange Exchange) Conversation {
	conversation := NewConversation(kind)
	conversation.Exchanges = []Exchange{exchange.clone()}
	conversation.UpdatedAt = exchange.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection.Conversations = append(s.collection.Conversations, conversation)
	return conversation.clone()
}

// Conversation returns a deep copy of the conversation with the given ID.
func (s *Store) Conversation(id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(id)
	if index < 0 {
		return Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return s.collection.Conversations[index].clone(), nil
}

// Conversations returns deep copies of every conversation, most recently
// updated first.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	listed := make([]Conversation, len(s.collection.Conversations))
	for i, conversation := range s.collection.Conversations {
		listed[i] = conversation.clone()
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return listed[i].UpdatedAt.After(listed[j].UpdatedAt)
	})
	return listed
}

// DeleteConversation removes the conversation with the given ID.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.collection.Conversations = append(s.collection.Conversations[:index], s.collection.Conversations[index+1:]...)
	return nil
}

// AppendExchange adds an exchange to the end of the conversation.
func (s *Store) AppendExchange(conversationID string, exchange Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(conversationID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conversation := &s.collection.Conversations[index]
	conversation.Exchanges = append(conversation.Exchanges, exchange.clone())
	conversation.UpdatedAt = exchange.CreatedAt
	return nil
}

// UpdateExchange replaces the stored exchange that shares the given
// exchange's ID.
func (s *Store) UpdateExchange(conversationID string, exchange Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(conversationID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conversation := &s.collection.Conversations[index]
	for i := range conversation.Exchanges {
		if conversation.Exchanges[i].ID == exchange.ID {
			conversation.Exchanges[i] = exchange.clone()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrExchangeNotFound, exchange.ID)
}

// RemoveExchange deletes the exchange with the given ID and returns a copy of
// it, so a retry can resubmit the same text and attachments.
func (s *Store) RemoveExchange(conversationID, exchangeID string) (Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(conversationID)
	if index < 0 {
		return Exchange{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conversation := &s.collection.Conversations[index]
	for i, exchange := range conversation.Exchanges {
		if exchange.ID == exchangeID {
			removed := exchange.clone()
			conversation.Exchanges = append(conversation.Exchanges[:i], conversation.Exchanges[i+1:]...)
			return removed, nil
		}
	}
	return Exchange{}, fmt.Errorf("%w: %s", ErrExchangeNotFound, exchangeID)
}

// Exchanges returns deep copies of the conversation's exchanges in order.
func (s *Store) Exchanges(conversationID string) ([]Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(conversationID)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conversation := s.collection.Conversations[index]
	exchanges := make([]Exchange, len(conversation.Exchanges))
	for i, exchange := range conversation.Exchanges {
		exchanges[i] = exchange.clone()
	}
	return exchanges, nil
}

func (s *Store) indexLocked(conversationID string) int {
	for i, conversation := range s.collection.Conversations {
		if conversation.ID == conversationID {
			return i
		}
	}
	return -1
}

// Package chat drives a single conversation: it submits user turns to the
// configured backend, folds streamed fragments into the persisted exchange,
// and publishes snapshots to observers.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/codbun/chatcore/normalize"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/observability"
	"github.com/codbun/chatcore/store"
)

var (
	// ErrEmptySubmission indicates the submission had neither text nor
	// attachments after trimming.
	ErrEmptySubmission = errors.New("empty submission")

	// ErrBusy indicates an exchange is already in flight for this
	// conversation. Cancel it or wait for it to finish first.
	ErrBusy = errors.New("exchange already in flight")
)

// observerBuffer is the per-observer channel capacity. Slow observers miss
// intermediate snapshots rather than stalling the stream.
const observerBuffer = 64

// Orchestrator owns one conversation. At most one exchange is in flight at a
// time; Submit blocks until its stream completes, fails, or is cancelled.
type Orchestrator struct {
	store          *store.Store
	providers      *ai.Registry
	conversationID string
	kind           ai.Kind
	systemPreamble string
	avatarRef      string

	mu        sync.Mutex
	inFlight  bool
	cancel    context.CancelFunc
	observers []chan []store.Exchange
}

// New creates an orchestrator for an existing conversation. The backend
// family is taken from the conversation itself.
func New(st *store.Store, providers *ai.Registry, conversationID string) (*Orchestrator, error) {
	conversation, err := st.Conversation(conversationID)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		store:          st,
		providers:      providers,
		conversationID: conversationID,
		kind:           conversation.ProviderKind,
	}, nil
}

// WithSystemPreamble sets the system preamble sent with every submission.
func (o *Orchestrator) WithSystemPreamble(preamble string) *Orchestrator {
	o.systemPreamble = preamble
	return o
}

// WithAvatarRef sets the avatar reference stamped onto new exchanges.
func (o *Orchestrator) WithAvatarRef(ref string) *Orchestrator {
	o.avatarRef = ref
	return o
}

// ConversationID returns the conversation this orchestrator drives.
func (o *Orchestrator) ConversationID() string {
	return o.conversationID
}

// Kind returns the backend family of the conversation.
func (o *Orchestrator) Kind() ai.Kind {
	return o.kind
}

// Exchanges returns a copy of the conversation's exchanges.
func (o *Orchestrator) Exchanges() ([]store.Exchange, error) {
	return o.store.Exchanges(o.conversationID)
}

// Observe registers a snapshot channel. Every mutation of the conversation
// publishes the full exchange list; snapshots are dropped, never blocked on,
// when the observer lags.
func (o *Orchestrator) Observe() <-chan []store.Exchange {
	ch := make(chan []store.Exchange, observerBuffer)
	o.mu.Lock()
	o.observers = append(o.observers, ch)
	o.mu.Unlock()
	return ch
}

func (o *Orchestrator) publish() {
	exchanges, err := o.store.Exchanges(o.conversationID)
	if err != nil {
		return
	}
	// Sends stay under the lock so Close cannot close a channel mid-publish.
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ch := range o.observers {
		select {
		case ch <- exchanges:
		default:
		}
	}
}

// Close closes every observer channel and drops the observer list. Further
// publishes are silent no-ops; Close is idempotent. Callers stop observing by
// ranging until their channel closes.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	observers := o.observers
	o.observers = nil
	o.mu.Unlock()
	for _, ch := range observers {
		close(ch)
	}
}

// Submit sends a user turn to the backend and blocks until the response
// stream finishes. The returned exchange is the final state: completed,
// failed (FailureMessage set), or cancelled (partial ResponseText, no
// failure). Only submission-level problems are returned as errors; stream
// failures are recorded on the exchange so the conversation keeps both the
// question and what went wrong.
func (o *Orchestrator) Submit(ctx context.Context, userText string, attachments []ai.Attachment, model string) (*store.Exchange, error) {
	trimmed := strings.TrimSpace(userText)
	if trimmed == "" && len(attachments) == 0 {
		return nil, ErrEmptySubmission
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	streamCtx, cancel := context.WithCancel(ctx)
	o.inFlight = true
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.cancel = nil
		o.mu.Unlock()
		cancel()
	}()

	history, err := o.historyTurns()
	if err != nil {
		return nil, err
	}

	exchange := store.NewExchange(trimmed, attachments)
	exchange.AvatarRef = o.avatarRef
	if err := o.store.AppendExchange(o.conversationID, exchange); err != nil {
		return nil, err
	}
	o.publish()

	final := o.runStream(streamCtx, exchange, history, model)

	if err := o.store.UpdateExchange(o.conversationID, final); err != nil {
		return nil, err
	}
	o.commit(ctx)
	o.publish()
	return &final, nil
}

// runStream drives the provider stream and returns the exchange in its final
// state. Cancellation is not a failure: the partial response is kept and
// FailureMessage stays empty.
func (o *Orchestrator) runStream(ctx context.Context, exchange store.Exchange, history []ai.Turn, model string) store.Exchange {
	observer := observability.ObserverFromContext(ctx)

	finalize := func(raw string, streamErr error) store.Exchange {
		exchange.InFlight = false
		exchange.ResponseText = strings.TrimSpace(normalize.Text(raw))
		if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
			exchange.FailureMessage = streamErr.Error()
		}
		return exchange
	}

	provider, err := o.providers.Lookup(o.kind)
	if err != nil {
		return finalize("", err)
	}

	request := ai.ChatRequest{
		Model:          model,
		SystemPreamble: o.systemPreamble,
		Turns:          history,
		UserText:       exchange.UserText,
		Attachments:    exchange.Attachments,
	}

	stream, err := provider.StreamChat(ctx, request)
	if err != nil {
		if observer != nil && !errors.Is(err, context.Canceled) {
			observer.Warn("stream open failed",
				observability.String(observability.AttrProvider, string(o.kind)),
				observability.String(observability.AttrExchangeID, exchange.ID),
				observability.Error(err),
			)
		}
		return finalize("", err)
	}

	var raw strings.Builder
	fragments := 0
	for fragment, streamErr := range stream.Iter() {
		if streamErr != nil {
			return finalize(raw.String(), streamErr)
		}
		raw.WriteString(fragment)
		fragments++

		// Grow-only republish: the normalized accumulated text extends the
		// previously published text, keeping observers monotonic.
		exchange.ResponseText = strings.TrimSpace(normalize.Text(raw.String()))
		if err := o.store.UpdateExchange(o.conversationID, exchange); err != nil {
			return finalize(raw.String(), err)
		}
		o.publish()
	}

	if observer != nil {
		observer.Debug("stream complete",
			observability.String(observability.AttrProvider, string(o.kind)),
			observability.String(observability.AttrExchangeID, exchange.ID),
			observability.Int(observability.AttrFragmentCount, fragments),
			observability.Int(observability.AttrResponseLength, raw.Len()),
		)
	}
	return finalize(raw.String(), nil)
}

// historyTurns builds the prior completed turns for the wire request.
// In-flight, failed and empty-response exchanges are skipped: backends
// reject dangling user messages with no assistant answer.
func (o *Orchestrator) historyTurns() ([]ai.Turn, error) {
	exchanges, err := o.store.Exchanges(o.conversationID)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(exchanges))
	for _, exchange := range exchanges {
		if exchange.InFlight || exchange.Failed() || exchange.ResponseText == "" {
			continue
		}
		turns = append(turns, ai.Turn{
			UserText:      exchange.UserText,
			AssistantText: exchange.ResponseText,
		})
	}
	return turns, nil
}

// commit persists the collection. Persistence failures are logged and
// swallowed: losing a snapshot write never takes down a finished exchange.
func (o *Orchestrator) commit(ctx context.Context) {
	if err := o.store.Save(ctx); err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Warn("conversation snapshot save failed",
				observability.String(observability.AttrConversationID, o.conversationID),
				observability.Error(err),
			)
		}
	}
}

// Retry removes the exchange with the given ID and resubmits its text and
// attachments. The removed exchange's position is not preserved: the retried
// exchange is appended as the newest turn.
func (o *Orchestrator) Retry(ctx context.Context, exchangeID, model string) (*store.Exchange, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.mu.Unlock()

	removed, err := o.store.RemoveExchange(o.conversationID, exchangeID)
	if err != nil {
		return nil, err
	}
	o.publish()

	return o.Submit(ctx, removed.UserText, removed.Attachments, model)
}

// Cancel stops the in-flight exchange, if any. The stream winds down
// cooperatively: the partial response is kept and the exchange finishes
// without a failure. Calling Cancel when nothing is in flight is a no-op.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

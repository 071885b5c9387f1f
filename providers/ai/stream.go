package ai

import (
	"iter"
	"strings"
)

// ChatStream wraps a lazy sequence of assistant text fragments. It supports
// range-based iteration for incremental rendering and a convenience Collect()
// method for callers who want the complete response.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// underlying adapter may hold open resources (such as an HTTP response body)
// that are only released when the iterator completes or is abandoned via a
// loop break. Constructing a ChatStream and never iterating it will leak
// those resources.
type ChatStream struct {
	iterator iter.Seq2[string, error]
}

// NewChatStream creates a ChatStream from a raw fragment iterator. The
// iterator yields text fragments with a nil error for normal deltas, and may
// yield a non-nil error to signal a mid-stream failure; normal completion is
// signalled by the iterator simply finishing.
func NewChatStream(iterator iter.Seq2[string, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewStaticStream wraps a fixed text as a single-fragment stream that then
// terminates normally. Adapters use it for the attachment entitlement
// short-circuit, where a canned message replaces the network call.
func NewStaticStream(text string) *ChatStream {
	return NewChatStream(func(yield func(string, error) bool) {
		yield(text, nil)
	})
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
//	for fragment, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    render(fragment)
//	}
func (stream *ChatStream) Iter() iter.Seq2[string, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the concatenated text.
// A mid-stream error terminates collection and returns the partial text
// accumulated so far together with the error.
func (stream *ChatStream) Collect() (string, error) {
	var builder strings.Builder
	for fragment, err := range stream.iterator {
		if err != nil {
			return builder.String(), err
		}
		builder.WriteString(fragment)
	}
	return builder.String(), nil
}

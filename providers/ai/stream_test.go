package ai

import (
	"errors"
	"testing"
)

func TestCollectConcatenatesFragments(t *testing.T) {
	stream := NewChatStream(func(yield func(string, error) bool) {
		for _, fragment := range []string{"a", "b", "c"} {
			if !yield(fragment, nil) {
				return
			}
		}
	})

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if text != "abc" {
		t.Errorf("Collect() = %q, want %q", text, "abc")
	}
}

func TestCollectKeepsPartialTextOnError(t *testing.T) {
	boom := errors.New("boom")
	stream := NewChatStream(func(yield func(string, error) bool) {
		if !yield("partial", nil) {
			return
		}
		yield("", boom)
	})

	text, err := stream.Collect()
	if !errors.Is(err, boom) {
		t.Errorf("Collect() error = %v, want the stream error", err)
	}
	if text != "partial" {
		t.Errorf("Collect() = %q, want the text before the failure", text)
	}
}

func TestStaticStream(t *testing.T) {
	stream := NewStaticStream("only fragment")

	var fragments []string
	for fragment, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("static stream yielded error %v", err)
		}
		fragments = append(fragments, fragment)
	}
	if len(fragments) != 1 || fragments[0] != "only fragment" {
		t.Errorf("fragments = %v, want exactly one", fragments)
	}
}

func TestIterStopsWhenConsumerBreaks(t *testing.T) {
	yielded := 0
	stream := NewChatStream(func(yield func(string, error) bool) {
		for yield("x", nil) {
			yielded++
		}
	})

	for range stream.Iter() {
		break
	}
	if yielded != 0 {
		t.Errorf("producer kept running after consumer break: %d extra yields", yielded)
	}
}

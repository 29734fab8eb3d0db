package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundOrdering(t *testing.T) {
	b := New()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if err := b.PublishInbound(ctx, Message{Channel: "telegram", ChatID: "1", Text: text}); err != nil {
			t.Fatalf("PublishInbound: %v", err)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		msg, err := b.ConsumeInbound(ctx)
		if err != nil {
			t.Fatalf("ConsumeInbound: %v", err)
		}
		if msg.Text != want {
			t.Errorf("got %q, want %q", msg.Text, want)
		}
	}
}

func TestConsumeInboundHonorsCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := b.ConsumeInbound(ctx); err == nil {
		t.Error("expected error from cancelled consume")
	}
}

func TestPublishEventBlocksWhenFull(t *testing.T) {
	b := New()
	ctx := context.Background()

	for i := 0; i < eventCapacity; i++ {
		if err := b.PublishEvent(ctx, EventMessage{EventName: "e"}); err != nil {
			t.Fatalf("PublishEvent: %v", err)
		}
	}

	full, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.PublishEvent(full, EventMessage{EventName: "overflow"}); err == nil {
		t.Error("expected publish to block on a full queue")
	}
}

func TestTryConsumeEvent(t *testing.T) {
	b := New()

	if _, ok := b.TryConsumeEvent(); ok {
		t.Error("TryConsumeEvent returned an event from an empty queue")
	}

	if err := b.PublishEvent(context.Background(), EventMessage{EventName: "e", Text: "match"}); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}
	msg, ok := b.TryConsumeEvent()
	if !ok || msg.Text != "match" {
		t.Errorf("TryConsumeEvent = %+v, %v", msg, ok)
	}
}

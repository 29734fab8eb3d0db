// Package bus provides the bounded channels connecting adapters, the
// command handler, watchers, and the event router.
package bus

import "context"

// Message is one inbound chat message, produced by a channel adapter and
// consumed exactly once by the command handler.
type Message struct {
	Channel string
	ChatID  string
	Text    string
}

// EventMessage is one matched watch condition, produced by a watcher and
// consumed exactly once by the event router.
type EventMessage struct {
	EventName string
	Text      string
}

const (
	inboundCapacity = 64
	eventCapacity   = 64
)

// Bus holds the inbound message queue and the event queue. Both are
// multi-producer, single-consumer; a full queue suspends the producer
// rather than dropping.
type Bus struct {
	inbound chan Message
	events  chan EventMessage
}

// New creates a Bus with bounded queues.
func New() *Bus {
	return &Bus{
		inbound: make(chan Message, inboundCapacity),
		events:  make(chan EventMessage, eventCapacity),
	}
}

// PublishInbound queues an inbound message, blocking while the queue is full.
func (b *Bus) PublishInbound(ctx context.Context, msg Message) error {
	select {
	case b.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumeInbound blocks until a message is available or ctx is cancelled.
func (b *Bus) ConsumeInbound(ctx context.Context) (Message, error) {
	select {
	case msg := <-b.inbound:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// PublishEvent queues an event match, blocking while the queue is full.
func (b *Bus) PublishEvent(ctx context.Context, msg EventMessage) error {
	select {
	case b.events <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumeEvent blocks until an event is available or ctx is cancelled.
func (b *Bus) ConsumeEvent(ctx context.Context) (EventMessage, error) {
	select {
	case msg := <-b.events:
		return msg, nil
	case <-ctx.Done():
		return EventMessage{}, ctx.Err()
	}
}

// TryConsumeEvent returns a queued event without blocking.
func (b *Bus) TryConsumeEvent() (EventMessage, bool) {
	select {
	case msg := <-b.events:
		return msg, true
	default:
		return EventMessage{}, false
	}
}

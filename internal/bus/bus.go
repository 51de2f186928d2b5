// Package bus carries messages between the input channels, the agent
// loop, and the output sinks. All queues are bounded; producers that
// cannot enqueue within a short grace period drop the message rather
// than block the rest of the system.
package bus

import (
	"context"
	"log/slog"
	"time"
)

// Source identifies where an inbound message came from. Replies are
// routed back to the same source.
type Source int

const (
	SourceConsole Source = iota
	SourceBridge
	SourceScheduler
	SourceVoice
)

// String returns the source name for logging.
func (s Source) String() string {
	switch s {
	case SourceConsole:
		return "console"
	case SourceBridge:
		return "bridge"
	case SourceScheduler:
		return "scheduler"
	case SourceVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Message is one unit of conversation traffic.
type Message struct {
	Text   string
	Source Source
	// ReplyTo carries the telegram chat id for telegram-sourced
	// messages; zero otherwise.
	ReplyTo int64
}

// enqueueGrace is how long Send waits for queue space before dropping.
const enqueueGrace = time.Second

// Queue is a bounded message channel with drop-on-full semantics.
type Queue struct {
	name string
	ch   chan Message
	log  *slog.Logger
}

// NewQueue creates a bounded queue. Capacity must be positive.
func NewQueue(name string, capacity int, log *slog.Logger) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{name: name, ch: make(chan Message, capacity), log: log}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Message { return q.ch }

// Name returns the queue name used in logs.
func (q *Queue) Name() string { return q.name }

// Len returns the number of messages currently waiting.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Send enqueues msg, waiting up to one second for space. On timeout the
// message is logged and dropped; the agent must never wedge on a slow
// consumer. Returns false if dropped or the context was canceled.
func (q *Queue) Send(ctx context.Context, msg Message) bool {
	select {
	case q.ch <- msg:
		return true
	default:
	}

	t := time.NewTimer(enqueueGrace)
	defer t.Stop()
	select {
	case q.ch <- msg:
		return true
	case <-t.C:
		q.log.Warn("queue full, dropping message",
			"queue", q.name, "source", msg.Source.String(), "len", len(msg.Text))
		return false
	case <-ctx.Done():
		return false
	}
}

// TrySend enqueues msg without waiting. Returns false when full.
func (q *Queue) TrySend(msg Message) bool {
	select {
	case q.ch <- msg:
		return true
	default:
		q.log.Warn("queue full, dropping message",
			"queue", q.name, "source", msg.Source.String(), "len", len(msg.Text))
		return false
	}
}

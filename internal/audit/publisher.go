package audit

import (
	"context"
	"log/slog"
)

// Publisher accepts audit events from domain services. Implementations must
// not block the caller: verification latency is user-visible and the audit
// trail is not worth adding to it.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Sink is the terminal destination for audit events (Kafka, memory, ...).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// ChannelPublisher buffers events in memory for a background worker to drain.
// When the buffer is full the event is dropped with a warning; losing an audit
// line beats stalling a verify request.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues the event without blocking.
func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"website_id", event.WebsiteID,
		)
		return nil
	}
}

// Inbox exposes the receive side for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout delivers chat events to the live connections joined to the
// event's chat.
//
// Delivery is best-effort: a connection that is not live when the event is
// drained never receives it, there is no acknowledgement, retry or replay.
// A single EventFanout drains the queue, so events of one chat reach each
// connection in queue order. Each sink gets at most sinkTimeout per event.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, registry: registry, events: events, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout resolves the recipients when the event is drained, not when it
// was queued. Typing signals skip the typing user's own connection.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	exclude := recipientsToSkip(evt)
	sinks := w.registry.GetSinksForChat(evt.ChatID(), exclude)
	for _, sink := range sinks {
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Debug("Sink did not consume event", "chat_id", evt.ChatID(), "error", err)
	}
}

func recipientsToSkip(evt event.DomainEvent) (exclude domain.UserID) {
	if typing, ok := evt.(event.UserTyping); ok {
		return typing.UserID
	}
	return 0
}

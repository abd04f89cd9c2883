package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

// Broadcaster queues events for the fan-out worker.
// One queue keeps the enqueue order of a chat equal to its delivery order.
type Broadcaster struct {
	events chan event.DomainEvent
	log    *slog.Logger
}

func NewBroadcaster(events chan event.DomainEvent, log *slog.Logger) *Broadcaster {
	return &Broadcaster{events: events, log: log}
}

// DeliverMessage must only be called with a message already persisted.
// It waits for room in the queue unless ctx ends first.
func (b *Broadcaster) DeliverMessage(ctx context.Context, message domain.MessageWithSender) error {
	select {
	case b.events <- event.MessagePosted{Message: message}:
		return nil
	case <-ctx.Done():
		b.log.Warn("Message not broadcast", "chat_id", message.ChatID, "message_id", message.ID, "error", ctx.Err())
		return ctx.Err()
	}
}

// DeliverTyping is fire-and-forget, the signal is dropped when the queue is full.
func (b *Broadcaster) DeliverTyping(userID domain.UserID, chatID domain.ChatID) {
	select {
	case b.events <- event.UserTyping{UserID: userID, Chat: chatID}:
	default:
		b.log.Debug("Typing event lost", "user_id", userID, "chat_id", chatID)
	}
}

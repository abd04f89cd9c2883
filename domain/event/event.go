// Package event defines what the broadcast engine pushes to live connections.
package event

import (
	"chat-relay/domain"
)

// DomainEvent is routed to the subscribers of a single chat.
type DomainEvent interface {
	ChatID() domain.ChatID
}

// MessagePosted is emitted once a message is durably stored.
type MessagePosted struct {
	Message domain.MessageWithSender
}

func (m MessagePosted) ChatID() domain.ChatID {
	return m.Message.ChatID
}

// UserTyping is ephemeral and never persisted.
// The typing user's own connection is excluded from delivery.
type UserTyping struct {
	UserID domain.UserID
	Chat   domain.ChatID
}

func (t UserTyping) ChatID() domain.ChatID {
	return t.Chat
}

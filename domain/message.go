package domain

import (
	"encoding/json"
	"time"
)

type MessageID int64

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageVoice MessageType = "voice"
	MessageVideo MessageType = "video"
)

// Message is immutable once broadcast, except through an explicit edit.
type Message struct {
	ID        MessageID       `json:"id"`
	ChatID    ChatID          `json:"chatId"`
	SenderID  UserID          `json:"senderId"`
	Content   string          `json:"content"`
	Type      MessageType     `json:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsEdited  bool            `json:"isEdited"`
	ReplyToID *MessageID      `json:"replyToId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MessageWithSender is a persisted message hydrated with its sender profile.
type MessageWithSender struct {
	Message
	Sender User `json:"sender"`
}

type CreateMessageCommand struct {
	ChatID    ChatID          `validate:"required,gt=0"`
	SenderID  UserID          `validate:"required,gt=0"`
	Content   string          `validate:"required,max=4096"`
	Type      MessageType     `validate:"omitempty,oneof=text image file voice video"`
	Metadata  json.RawMessage
	ReplyToID *MessageID
}

type EditMessageCommand struct {
	MessageID MessageID `validate:"required,gt=0"`
	EditorID  UserID    `validate:"required,gt=0"`
	Content   string    `validate:"required,max=4096"`
}

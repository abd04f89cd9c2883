package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

const (
	frameAuth        = "auth"
	frameJoinChat    = "join_chat"
	frameSendMessage = "send_message"
	frameTyping      = "typing"
	frameNewMessage  = "new_message"
	frameError       = "error"
)

// inboundFrame is the union of every frame a client may send.
type inboundFrame struct {
	Type        string             `json:"type"`
	UserID      domain.UserID      `json:"userId"`
	Token       string             `json:"token"`
	ChatID      domain.ChatID      `json:"chatId"`
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"messageType"`
	Metadata    json.RawMessage    `json:"metadata"`
	ReplyToID   *domain.MessageID  `json:"replyToId"`
}

type newMessageFrame struct {
	Type    string                   `json:"type"`
	Message domain.MessageWithSender `json:"message"`
	ChatID  domain.ChatID            `json:"chatId"`
}

type typingFrame struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	ChatID domain.ChatID `json:"chatId"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeFrame(data []byte) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	switch frame.Type {
	case frameAuth, frameJoinChat, frameSendMessage, frameTyping:
		return frame, nil
	default:
		return inboundFrame{}, fmt.Errorf("%w: unknown type %q", errors.ErrInvalidFrame, frame.Type)
	}
}

func encodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessagePosted:
		return json.Marshal(newMessageFrame{Type: frameNewMessage, Message: evt.Message, ChatID: evt.ChatID()})
	case event.UserTyping:
		return json.Marshal(typingFrame{Type: frameTyping, UserID: evt.UserID, ChatID: evt.ChatID()})
	default:
		return nil, fmt.Errorf("unsupported event %T", e)
	}
}

// encodeError hides the details of unexpected errors from clients.
func encodeError(err error) []byte {
	code := errors.Code(err)
	message := err.Error()
	if code == errors.CodeInternal {
		message = "internal error"
	}
	payload, _ := json.Marshal(errorFrame{Type: frameError, Code: code, Message: message})
	return payload
}

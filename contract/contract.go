//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type ConnectionID string

// Connection is a live client link able to receive events.
type Connection interface {
	EventSink
	ID() ConnectionID
	Close() error
}

type IRegistry interface {
	Register(userID domain.UserID, conn Connection) (evicted Connection)
	Unregister(connID ConnectionID) (userID domain.UserID, wasCurrent bool)
	Join(connID ConnectionID, chatID domain.ChatID) error
	Lookup(connID ConnectionID) (userID domain.UserID, chatID domain.ChatID, ok bool)
	GetSinksForChat(chatID domain.ChatID, exclude domain.UserID) []EventSink
	IsOnline(userID domain.UserID) bool
}

type IBroadcaster interface {
	DeliverMessage(ctx context.Context, message domain.MessageWithSender) error
	DeliverTyping(userID domain.UserID, chatID domain.ChatID)
}

// IChatDirectory is the part of the chat directory the message path needs.
type IChatDirectory interface {
	GetChat(id domain.ChatID) (domain.Chat, error)
	IsMember(chatID domain.ChatID, userID domain.UserID) (bool, error)
	CreateMessage(cmd domain.CreateMessageCommand) (domain.MessageWithSender, error)
}

// IBotInterpreter runs the conversation of the built-in bot.
// Handle reports false when the input is not meant for the interpreter.
type IBotInterpreter interface {
	BotUserID() domain.UserID
	Handle(userID domain.UserID, input string) (reply string, handled bool)
}

// IMessagePoster persists then broadcasts a message.
type IMessagePoster interface {
	PostMessage(ctx context.Context, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error)
}

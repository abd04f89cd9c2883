// Package runtime handles live connections, event propagation and deferred work.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	supervisor  contract.ISupervisor
	registry    contract.IRegistry
	directory   contract.IChatDirectory
	broadcaster contract.IBroadcaster
	interpreter contract.IBotInterpreter
	scheduler   *Scheduler
	chatLocks   *KeyedMutex
	events      chan event.DomainEvent
	sinkTimeout time.Duration
	replyDelay  time.Duration
	extra       []contract.Worker
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	directory contract.IChatDirectory, events chan event.DomainEvent,
	sinkTimeout, replyDelay time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		directory:   directory,
		broadcaster: NewBroadcaster(events, log),
		scheduler:   NewScheduler(log),
		chatLocks:   NewKeyedMutex(),
		events:      events,
		sinkTimeout: sinkTimeout,
		replyDelay:  replyDelay,
	}
}

// WithInterpreter plugs the built-in bot. Without one, bot chats behave
// like any other chat.
func (o *Orchestrator) WithInterpreter(interpreter contract.IBotInterpreter) *Orchestrator {
	o.interpreter = interpreter
	return o
}

// Add registers extra workers supervised alongside the fan-out.
func (o *Orchestrator) Add(worker ...contract.Worker) *Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extra = append(o.extra, worker...)
	return o
}

func (o *Orchestrator) Broadcaster() contract.IBroadcaster {
	return o.broadcaster
}

// PostMessage persists the message, hands it to the fan-out and, when the
// message is addressed to the built-in bot, schedules the bot reply.
// The user's own message is delivered before the interpreter runs.
func (o *Orchestrator) PostMessage(ctx context.Context, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error) {
	message, err := o.persistAndDeliver(ctx, cmd)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	o.interpret(message.Message)
	return message, nil
}

// persistAndDeliver holds the chat lock across both steps so that the
// delivery order of a chat matches its persistence order.
func (o *Orchestrator) persistAndDeliver(ctx context.Context, cmd domain.CreateMessageCommand) (domain.MessageWithSender, error) {
	unlock := o.chatLocks.Lock(fmt.Sprintf("chat:%d", cmd.ChatID))
	defer unlock()

	message, err := o.directory.CreateMessage(cmd)
	if err != nil {
		return domain.MessageWithSender{}, err
	}
	if err = o.broadcaster.DeliverMessage(ctx, message); err != nil {
		// Persisted anyway, clients catch up through the history.
		o.log.Warn("Persisted message not delivered", "message_id", message.ID, "error", err)
	}
	return message, nil
}

func (o *Orchestrator) interpret(message domain.Message) {
	if o.interpreter == nil || message.SenderID == o.interpreter.BotUserID() {
		return
	}
	if !o.isBotChat(message.ChatID) {
		return
	}
	reply, handled := o.interpreter.Handle(message.SenderID, strings.TrimSpace(message.Content))
	if !handled {
		return
	}
	chatID, botID := message.ChatID, o.interpreter.BotUserID()
	key := fmt.Sprintf("user:%d", message.SenderID)
	scheduled := o.scheduler.Schedule(key, o.replyDelay, func(ctx context.Context) {
		_, err := o.persistAndDeliver(ctx, domain.CreateMessageCommand{
			ChatID:   chatID,
			SenderID: botID,
			Content:  reply,
			Type:     domain.MessageText,
		})
		if err != nil {
			o.log.Error("Bot reply not posted", "chat_id", chatID, "error", err)
		}
	})
	if !scheduled {
		o.log.Warn("Bot reply dropped, orchestrator stopped", "chat_id", chatID)
	}
}

func (o *Orchestrator) isBotChat(chatID domain.ChatID) bool {
	chat, err := o.directory.GetChat(chatID)
	if err != nil || chat.Type != domain.ChatBot {
		return false
	}
	member, err := o.directory.IsMember(chatID, o.interpreter.BotUserID())
	if err != nil {
		o.log.Warn("Bot membership lookup failed", "chat_id", chatID, "error", err)
		return false
	}
	return member
}

// Start registers the fan-out and extra workers and runs the supervisor
// until ctx is done.
func (o *Orchestrator) Start(ctx context.Context) {
	fanout := workers.NewEventFanout(o.log, o.registry, o.events, o.sinkTimeout)

	o.mu.Lock()
	o.supervisor.Add(fanout)
	o.supervisor.Add(o.extra...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// WaitIdle blocks until every scheduled bot reply has been posted.
func (o *Orchestrator) WaitIdle() {
	o.scheduler.Wait()
}

// Stop drops pending bot replies and stops the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.scheduler.Stop()
	o.supervisor.Stop()
}

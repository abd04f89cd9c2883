package e2e

import (
	"chat-relay/auth"
	"chat-relay/botfather"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/rest"
	"chat-relay/infrastructure/rpc"
	"chat-relay/infrastructure/ws"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// stack is the relay wired the way cmd/server wires it, on temporary storage.
type stack struct {
	url      string
	grpcAddr string
	stop     func()
}

func startStack(t *testing.T, verificationCode string) *stack {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelInfo)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	sequences, err := repositories.NewSequences(db)
	req.NoError(err)
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)

	users := repositories.NewUserRepository(db, sequences, repositories.NewUserIndex(writer), log)
	chats := repositories.NewChatRepository(db, sequences, log)
	messages := repositories.NewMessageRepository(db, sequences, log)
	bots := repositories.NewBotRepository(db, sequences, log)

	tokens := auth.NewTokenIssuer("e2e-secret", time.Hour)
	directory := services.NewDirectoryService(log, users, chats, messages, bots, "https://t.me/+")
	accounts := services.NewAccountService(log, users, chats, bots, directory, tokens, verificationCode)
	botUser, _, err := accounts.EnsureBuiltinBot()
	req.NoError(err)

	botSessions := botfather.NewSessionStore(time.Minute)
	registry := runtime.NewRegistry()
	events := make(chan event.DomainEvent, 256)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 50*time.Millisecond), registry, directory,
		events, time.Second, 10*time.Millisecond).
		WithInterpreter(botfather.NewInterpreter(log, directory, botSessions, botUser.ID))

	grpcServer := rpc.NewServer(log)
	orchestrator.Add(
		workers.NewSessionReaper(log, botSessions, time.Minute),
		workers.NewHealthMonitoringWorker(log, grpcServer, 50*time.Millisecond,
			workers.Probe{Name: "badger", Check: func() error { return nil }}),
	)
	sessions := services.NewSessionService(log, registry, directory, orchestrator, orchestrator.Broadcaster(), accounts, tokens, true)

	ctx, cancel := context.WithCancel(context.Background())
	go orchestrator.Start(ctx)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	go func() { _ = grpcServer.Serve(listener) }()

	router := rest.NewRouter(rest.NewAPI(log, accounts, directory), tokens, true, ws.NewHandler(log, sessions, 64, nil))
	server := httptest.NewServer(router)

	return &stack{
		url:      server.URL,
		grpcAddr: listener.Addr().String(),
		stop: func() {
			server.Close()
			grpcServer.GracefulStop()
			cancel()
			orchestrator.Stop()
			_ = writer.Close()
			_ = sequences.Release()
			_ = db.Close()
		},
	}
}

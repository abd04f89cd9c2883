package main

import (
	"chat-relay/auth"
	"chat-relay/botfather"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/rest"
	"chat-relay/infrastructure/rpc"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	shutdownTimeout    = 10 * time.Second
	queueWarnThreshold = 0.8
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Every defer registered here runs before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	sequences, err := repositories.NewSequences(db)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = sequences.Release() }()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	userRepository := repositories.NewUserRepository(db, sequences, repositories.NewUserIndex(blugeWriter), logger)
	chatRepository := repositories.NewChatRepository(db, sequences, logger)
	messageRepository := repositories.NewMessageRepository(db, sequences, logger)
	botRepository := repositories.NewBotRepository(db, sequences, logger)

	// 3. Services
	tokens := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)
	directory := services.NewDirectoryService(logger, userRepository, chatRepository, messageRepository, botRepository, config.InviteBaseURL)
	if config.ModerationEnabled {
		moderator, err := buildModerator(config, charReplacement, logger)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
		}
		directory.WithCensor(moderator)
	}
	accounts := services.NewAccountService(logger, userRepository, chatRepository, botRepository, directory, tokens, config.VerificationCode)
	botUser, bot, err := accounts.EnsureBuiltinBot()
	if err != nil {
		return exitRuntime, fmt.Errorf("built-in bot bootstrap failed: %w", err)
	}
	logger.Info("Built-in bot ready", "user_id", botUser.ID, "bot", bot.Username)

	// 4. Supervision & Orchestration
	botSessions := botfather.NewSessionStore(config.BotSessionTTL)
	interpreter := botfather.NewInterpreter(logger, directory, botSessions, botUser.ID)
	registry := runtime.NewRegistry()
	events := make(chan event.DomainEvent, config.BufferSize)
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, supervisor, registry, directory, events, config.SinkTimeout, config.BotReplyDelay).
		WithInterpreter(interpreter)

	grpcServer := rpc.NewServer(logger)
	processStats := workers.NewProcessStats(logger, config.MetricInterval, goruntime.NumGoroutine)
	queueUsage := workers.NewChannelCapacityWorker(logger, config.MetricInterval, queueWarnThreshold,
		workers.NamedChannel{Name: "events", Channel: events})
	orchestrator.Add(
		workers.NewSessionReaper(logger, botSessions, config.BotSessionTTL),
		processStats,
		queueUsage,
		workers.NewHealthMonitoringWorker(logger, grpcServer, config.MetricInterval,
			workers.Probe{Name: "badger", Check: func() error { return badgerProbe(db) }},
			workers.Probe{Name: "bluge", Check: func() error { return blugeProbe(blugeWriter) }},
		),
	)

	sessions := services.NewSessionService(logger, registry, directory, orchestrator, orchestrator.Broadcaster(),
		accounts, tokens, config.AuthRequireToken)

	if logger.Enabled(ctx, slog.LevelDebug) {
		debugServer := internal.StartDebugServer(logger, db, config.DebugPort, "/inspect", recordMapper, func() map[string]any {
			return debugStats(registry, processStats, queueUsage)
		})
		defer func() { _ = internal.StopDebugServer(context.Background(), debugServer) }()
	}

	errChan := make(chan error, 2)
	go orchestrator.Start(ctx)

	// 5. gRPC health endpoint
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	go func() {
		logger.Info("Starting gRPC health server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil {
			errChan <- err
		}
	}()

	// 6. HTTP API + websocket
	wsHandler := ws.NewHandler(logger, sessions, config.ConnectionBufferSize, internal.SplitList(config.AllowedOrigins))
	api := rest.NewAPI(logger, accounts, directory)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           rest.NewRouter(api, tokens, config.AuthRequireToken, wsHandler),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		logger.Error("Server failed, shutting down", "error", err)
		code = exitRuntime
	}

	// 8. Graceful shutdown: stop accepting, then drain the engine.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server did not shut down cleanly", "error", shutdownErr)
	}
	// Hijacked websockets outlive Shutdown, their sessions are released here
	if closeErr := wsHandler.CloseAll(shutdownCtx); closeErr != nil {
		logger.Warn("Websocket sessions not all released", "error", closeErr)
	}
	grpcServer.GracefulStop()
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return code, err
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// buildModerator merges CENSORED_WORDS with the word lists of CENSORED_DIR.
func buildModerator(config internal.Config, censoredChar rune, logger *slog.Logger) (*moderation.Moderator, error) {
	words := internal.SplitList(config.CensoredWords)
	if config.CensoredDir != "" {
		dictionary, err := moderation.NewLoader(os.DirFS(config.CensoredDir)).LoadAll(".", words...)
		if err != nil {
			return nil, err
		}
		logger.Info("Censored dictionaries loaded", "languages", dictionary.Languages, "words", len(dictionary.Words))
		words = dictionary.Words
	}
	return moderation.NewModerator(words, censoredChar, logger)
}

func badgerProbe(db *badger.DB) error {
	if db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func blugeProbe(writer *bluge.Writer) error {
	reader, err := writer.Reader()
	if err != nil {
		return err
	}
	return reader.Close()
}

func recordMapper(key string, val []byte) internal.InspectRow {
	record := repositories.Describe(key, val)
	row := internal.InspectRow{
		Key:       key,
		Kind:      record.Kind,
		Timestamp: "--:--:--",
		EntityID:  record.EntityID,
		Detail:    record.Detail,
	}
	if !record.At.IsZero() {
		row.Timestamp = record.At.Format(time.DateTime)
	}
	return row
}

func debugStats(registry *runtime.Registry, processStats *workers.ProcessStats, queueUsage *workers.ChannelCapacityWorker) map[string]any {
	connections, chats := registry.Counts()
	stats := map[string]any{
		"connections":  connections,
		"joined_chats": chats,
	}
	if snapshot := processStats.Latest(); snapshot != nil {
		stats["rss_mb"] = snapshot.RSSBytes / (1 << 20)
		stats["cpu_percent"] = fmt.Sprintf("%.1f", snapshot.CPUPercent)
		stats["goroutines"] = snapshot.Goroutines
	}
	for _, usage := range queueUsage.Latest() {
		stats["queue_"+usage.Name] = fmt.Sprintf("%d/%d", usage.Length, usage.Capacity)
	}
	return stats
}

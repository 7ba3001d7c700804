package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"campus-chat/auth"
	"campus-chat/infrastructure/ws"
	"campus-chat/internal"
	"campus-chat/repositories"
	"campus-chat/runtime"
	"campus-chat/runtime/workers"
	"campus-chat/services"
	"campus-chat/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	// Defer will be executed before run() returns anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories, moderation, services
	groupRepository := repositories.NewGroupRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	moderator, err := runtime.LoadModerator(log, charReplacement)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	registry := runtime.NewRegistry()
	chatService := services.NewChatService(log, groupRepository, messageRepository, moderator)
	membershipService := services.NewMembershipService(log, groupRepository, registry)

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, registry,
		chatService, membershipService, config.BufferSize, config.SinkTimeout)
	orchestrator.Add(sink.NewActivitySink(groupRepository, log))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)
	defer orchestrator.Stop()

	// 6. WebSocket endpoint
	var authenticator *auth.Authenticator
	if config.JWTSecret != "" {
		authenticator = auth.NewAuthenticator(config.JWTSecret)
	} else {
		log.Warn("JWT_SECRET is empty, handshake identities are trusted as-is")
	}

	handler := ws.NewHandler(log, orchestrator, membershipService, registry,
		authenticator, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info(fmt.Sprintf("Chat server listening on %s", address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

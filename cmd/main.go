package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-server/auth"
	"chat-server/domain"
	"chat-server/infrastructure/httpapi"
	"chat-server/infrastructure/ws"
	"chat-server/moderation"
	"chat-server/observability"
	"chat-server/repositories"
	"chat-server/runtime"
	"chat-server/runtime/workers"
	"chat-server/search"
	"chat-server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the server lifecycle. Keeping the
// logic out of main ensures deferred cleanup runs before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	auth.SetSecret([]byte(config.JWTSecret))

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories
	userRepository := repositories.NewUserRepository(db)
	sessionRepository, err := repositories.NewSessionRepository(db, log)
	if err != nil {
		return fmt.Errorf("session repository: %w", err)
	}
	defer sessionRepository.Close()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository: %w", err)
	}
	defer messageRepository.Close()

	messageIndex := search.NewMessageIndex(indexWriter, log)

	// 4. Moderation (optional)
	var moderator *moderation.Moderator
	if config.CensoredWordsPath != "" {
		words, err := loadCensoredWords(config.CensoredWordsPath)
		if err != nil {
			return fmt.Errorf("censored words: %w", err)
		}
		replacement, err := config.CharacterRune()
		if err != nil {
			return fmt.Errorf("moderator: %w", err)
		}
		m, err := moderation.NewModerator(words, replacement)
		if err != nil {
			return fmt.Errorf("moderator: %w", err)
		}
		moderator = &m
		log.Info("Moderation enabled", "words", len(words))
	}

	// 5. Services & Fan-out
	presence := runtime.NewPresence()
	toIndex := make(chan domain.Message, config.BufferSize)
	chatService := services.NewChatService(
		log, sessionRepository, messageRepository, messageIndex, presence, moderator, toIndex,
	)
	authService := services.NewAuthService(userRepository, config.TokenDuration)
	monitor := observability.NewMonitor(log, presence)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Background workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewPresenceNotifier(log, presence),
		workers.NewSearchIndexer(log, messageIndex, toIndex),
	)
	sup.Run(ctx)

	// 8. HTTP & Websocket server
	mux := http.NewServeMux()
	httpapi.NewServer(log, chatService, authService, userRepository, monitor).Routes(mux)
	mux.Handle("/ws", ws.NewHandler(
		log, chatService, authService, presence, monitor,
		config.ConnectionBufferSize, config.AuthWindow,
	))

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// loadCensoredWords reads one word per line, ignoring blanks and comments.
func loadCensoredWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

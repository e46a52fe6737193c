package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/forum-topics-bot/internal/di"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/config"
	httpServer "github.com/reshetovitsme/forum-topics-bot/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/forum-topics-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func setupLogger(level slog.Level) {
	// Text to stdout at the configured level, errors also as JSON to stderr
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	logger := slog.New(slogmulti.Fanout(textHandler, jsonHandler))
	slog.SetDefault(logger)
}

func main() {
	setupLogger(slog.LevelInfo)

	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.SlogLevel())

	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	if _, err := do.Invoke[*telegramHandler.Handler](injector); err != nil {
		slog.Error("Failed to initialize telegram handler", "error", err)
		os.Exit(1)
	}
	server, err := do.Invoke[*httpServer.Server](injector)
	if err != nil {
		slog.Error("Failed to initialize HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	slog.Info("Application started", "port", cfg.HTTPPort, "env", cfg.AppEnv)
	slog.Info("Press Ctrl+C to stop")

	// Start blocks until ctx is cancelled
	b.Start(ctx)
	slog.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := di.Shutdown(shutdownCtx, injector); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
}

package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	journalRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/repository"
	journalService "github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/service"
	settingsRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/repository"
	settingsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/service"
	statsRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/repository"
	statsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/service"
	topicsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/service"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/config"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	httpServer "github.com/reshetovitsme/forum-topics-bot/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/forum-topics-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container. Providers are lazy:
// nothing is loaded until main invokes it.
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Settings Repository
	do.Provide(injector, func(i do.Injector) (settingsRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := settingsRepo.NewFileStorage(cfg.SettingsPath())
		if err != nil {
			return nil, oops.With("path", cfg.SettingsPath(), "context", "failed to initialize settings repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Stats Repository
	do.Provide(injector, func(i do.Injector) (statsRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return statsRepo.NewFileStorage(cfg.StatsPath()), nil
	})

	// Register Journal Repository
	do.Provide(injector, func(i do.Injector) (journalRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return journalRepo.NewFileStorage(cfg.JournalPath()), nil
	})

	// Register Settings Service
	do.Provide(injector, func(i do.Injector) (*settingsService.Service, error) {
		repo := do.MustInvoke[settingsRepo.Repository](i)
		return settingsService.New(repo, slog.Default())
	})

	// Register Journal Service
	do.Provide(injector, func(i do.Injector) (*journalService.Service, error) {
		repo := do.MustInvoke[journalRepo.Repository](i)
		return journalService.New(repo), nil
	})

	// Register Invoker
	do.Provide(injector, func(i do.Injector) (*invoker.Invoker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return invoker.New(
			invoker.WithPolicy(invoker.Policy{MaxAttempts: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay}),
			invoker.WithLogger(slog.Default()),
		), nil
	})

	// Register Bot. Updates are dispatched to the handler, resolved on first use
	// because the handler itself needs the bot through the client.
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		settings := do.MustInvoke[*settingsService.Service](i)

		token := cfg.TelegramBotToken
		if token == "" {
			token = settings.Snapshot().BotToken
		}
		if token == "" {
			return nil, oops.Wrap(sharedErrors.ErrMissingBotToken)
		}

		opts := []bot.Option{
			bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
				do.MustInvoke[*telegramHandler.Handler](i).HandleUpdate(ctx, b, update)
			}),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(token, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Telegram Client
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b := do.MustInvoke[*bot.Bot](i)
		return telegramHandler.NewClient(b, cfg.TelegramRatePerSec), nil
	})

	// Register Stats Service
	do.Provide(injector, func(i do.Injector) (*statsService.Service, error) {
		repo := do.MustInvoke[statsRepo.Repository](i)
		client := do.MustInvoke[*telegramHandler.Client](i)
		inv := do.MustInvoke[*invoker.Invoker](i)
		svc, err := statsService.New(repo, client, inv, slog.Default())
		if err != nil {
			return nil, oops.With("context", "failed to initialize stats service").Wrap(err)
		}
		return svc, nil
	})

	// Register Topics Service
	do.Provide(injector, func(i do.Injector) (*topicsService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*telegramHandler.Client](i)
		inv := do.MustInvoke[*invoker.Invoker](i)
		journal := do.MustInvoke[*journalService.Service](i)

		return topicsService.New(client, inv,
			topicsService.WithCreatePolicy(invoker.Policy{MaxAttempts: cfg.CreateMaxAttempts, BaseDelay: cfg.CreateBaseDelay}),
			topicsService.WithPacing(topicsService.Pacing{
				BeforePost:       cfg.PauseBeforePost,
				BeforePin:        cfg.PauseBeforePin,
				BetweenTopics:    cfg.PauseBetweenTopics,
				AfterFailure:     cfg.PauseAfterFailure,
				BetweenTemplates: cfg.PauseBetweenTemplates,
				BetweenGreetings: cfg.PauseBetweenGreetings,
			}),
			topicsService.WithJournal(journal),
			topicsService.WithLogger(slog.Default()),
		), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b := do.MustInvoke[*bot.Bot](i)
		client := do.MustInvoke[*telegramHandler.Client](i)
		inv := do.MustInvoke[*invoker.Invoker](i)
		settings := do.MustInvoke[*settingsService.Service](i)
		stats := do.MustInvoke[*statsService.Service](i)
		topics := do.MustInvoke[*topicsService.Service](i)

		handler := telegramHandler.New(cfg, client, inv, settings, stats, topics)
		handler.SetLogger(slog.Default())
		handler.RegisterCommands(b)
		return handler, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		stats := do.MustInvoke[*statsService.Service](i)
		journal := do.MustInvoke[*journalService.Service](i)
		server := httpServer.New(cfg, stats, journal)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services. The bot stops with the context
// passed to Start; here only the HTTP server needs draining.
func Shutdown(ctx context.Context, injector do.Injector) error {
	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return oops.With("context", "failed to stop http server").Wrap(err)
		}
	}
	return nil
}

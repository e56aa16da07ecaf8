package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/charlielabs/charlie/internal/config"
	httpcontroller "github.com/charlielabs/charlie/internal/controller/http"
	"github.com/charlielabs/charlie/internal/database"
	"github.com/charlielabs/charlie/internal/domain/chat"
	chatdao "github.com/charlielabs/charlie/internal/domain/chat/dao"
	"github.com/charlielabs/charlie/internal/domain/chat/limiter"
	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/domain/media"
	"github.com/charlielabs/charlie/internal/domain/quota"
	"github.com/charlielabs/charlie/internal/domain/rotation"
	"github.com/charlielabs/charlie/internal/domain/scheduler"
	"github.com/charlielabs/charlie/internal/generator"
	"github.com/charlielabs/charlie/internal/httpx/upstream/bluesky"
	"github.com/charlielabs/charlie/internal/httpx/upstream/telegram"
	"github.com/charlielabs/charlie/internal/httpx/upstream/twitter"
	"github.com/charlielabs/charlie/internal/persona"
	"github.com/charlielabs/charlie/internal/platform"
	"github.com/charlielabs/charlie/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pg *pgxpool.Pool

	chatService *chat.Service
	tracker     *quota.Tracker
	queue       *interaction.Queue
	rotation    *rotation.Selector
	library     *media.Library
	clients     []scheduler.Client
	scheduler   *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure initializes optional infrastructure: Postgres for
// chat history and S3 for the promo media library. Both are skippable;
// the service degrades instead of refusing to start.
func (a *App) initInfrastructure(ctx context.Context) error {
	if dsn := a.cfg.Database.PostgresDSN; dsn != "" {
		pool, err := database.NewPostgresPool(ctx, dsn, database.PoolConfig{
			MaxConns:     int32(a.cfg.Database.MaxOpenConns),
			MinConns:     int32(a.cfg.Database.MaxIdleConns),
			ConnLifetime: a.cfg.Database.ConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pg = pool
	} else {
		a.logger.Warn("no database configured, chat history is in-memory only")
	}

	if a.cfg.S3.Endpoint != "" {
		store, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
			PublicURL:       a.cfg.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("initializing s3 storage: %w", err)
		}
		a.library = media.NewLibrary(store)
	} else {
		a.logger.Warn("no s3 endpoint configured, posts go out without media")
	}

	return nil
}

// initDomains wires the domain layer: generator, chat service, quota
// tracker, interaction queue, rotation selector, platform clients and the
// scheduler on top of them.
func (a *App) initDomains(ctx context.Context) error {
	var gen generator.Generator
	if a.cfg.LLM.APIKey != "" {
		gen = generator.NewAnthropic(a.cfg.LLM.APIKey, a.cfg.LLM.Model, persona.SystemPrompt, a.cfg.LLM.MaxTokens)
	} else {
		a.logger.Warn("no LLM API key configured, running in FAQ-only mode")
	}

	var history chat.HistoryStore
	if a.pg != nil {
		history = chatdao.NewMessagePostgres(a.pg)
	} else {
		history = chat.NewMemoryHistory()
	}

	lim := limiter.New(limiter.Config{
		Window:      a.cfg.Chat.RateWindow,
		PerKeyLimit: a.cfg.Chat.RatePerSession,
		GlobalLimit: a.cfg.Chat.RateGlobal,
	})
	a.chatService = chat.NewService(lim, history, gen, chat.Config{
		HistoryLimit: a.cfg.Chat.HistoryLimit,
	}, a.logger)

	a.tracker = quota.New(quota.Limits{
		PostsPerPlatform: map[platform.Platform]int{
			platform.PlatformBluesky:  a.cfg.Quota.PostsBluesky,
			platform.PlatformTwitter:  a.cfg.Quota.PostsTwitter,
			platform.PlatformTelegram: a.cfg.Quota.PostsTelegram,
		},
		RepliesPerPlatform: map[platform.Platform]int{
			platform.PlatformBluesky:  a.cfg.Quota.RepliesBluesky,
			platform.PlatformTwitter:  a.cfg.Quota.RepliesTwitter,
			platform.PlatformTelegram: a.cfg.Quota.RepliesTelegram,
		},
		CombinedPosts:   a.cfg.Quota.CombinedPosts,
		CombinedReplies: a.cfg.Quota.CombinedReplies,
	})
	a.queue = interaction.NewQueue()
	a.rotation = rotation.New(rotation.Config{
		TopicExclusion: a.cfg.Rotation.TopicExclusion,
		StyleExclusion: a.cfg.Rotation.StyleExclusion,
		HistoryCap:     a.cfg.Rotation.HistoryCap,
	})

	a.clients = a.buildClients(ctx)

	if a.cfg.Scheduler.Enabled && len(a.clients) > 0 {
		var picker scheduler.MediaPicker
		if a.library != nil {
			picker = a.library
		}
		sched, err := scheduler.New(
			a.schedulerConfig(),
			a.tracker,
			a.queue,
			a.rotation,
			gen,
			a.clients,
			picker,
			a.logger,
		)
		if err != nil {
			return fmt.Errorf("initializing scheduler: %w", err)
		}
		a.scheduler = sched
	} else {
		a.logger.Warn("scheduler disabled or no platforms configured")
	}

	return nil
}

// buildClients constructs a client per configured platform. Missing
// credentials disable a platform; a failed authentication disables it too,
// with an error logged, so one bad credential never blocks the rest.
func (a *App) buildClients(ctx context.Context) []scheduler.Client {
	var candidates []scheduler.Client
	if a.cfg.Bluesky.Identifier != "" {
		candidates = append(candidates, bluesky.New(
			a.cfg.Bluesky.Identifier,
			a.cfg.Bluesky.AppPassword,
			bluesky.WithBaseURL(a.cfg.Bluesky.BaseURL),
		))
	}
	if a.cfg.Twitter.AccessToken != "" {
		candidates = append(candidates, twitter.New(
			a.cfg.Twitter.AccessToken,
			a.cfg.Twitter.UserID,
			twitter.WithBaseURL(a.cfg.Twitter.BaseURL),
		))
	}
	if a.cfg.Telegram.BotToken != "" {
		candidates = append(candidates, telegram.New(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID))
	}

	var clients []scheduler.Client
	for _, client := range candidates {
		if err := client.Authenticate(ctx); err != nil {
			a.logger.Error("platform authentication failed, platform disabled",
				"platform", client.Name(),
				"error", err,
			)
			continue
		}
		a.logger.Info("platform connected", "platform", client.Name())
		clients = append(clients, client)
	}
	return clients
}

func (a *App) schedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Timezone = a.cfg.Scheduler.Timezone
	cfg.PostingEnabled = a.cfg.Scheduler.PostingEnabled
	cfg.RepliesEnabled = a.cfg.Scheduler.RepliesEnabled
	cfg.MorningPostTime = a.cfg.Scheduler.MorningPostTime
	cfg.EveningSlots = a.cfg.Scheduler.EveningSlots
	cfg.PollIntervals = map[platform.Platform]time.Duration{
		platform.PlatformBluesky:  a.cfg.Scheduler.BlueskyPoll,
		platform.PlatformTwitter:  a.cfg.Scheduler.TwitterPoll,
		platform.PlatformTelegram: a.cfg.Scheduler.TelegramPoll,
	}
	cfg.MaxRepliesPerCycle = a.cfg.Scheduler.MaxRepliesPerCycle
	cfg.Signature = a.cfg.Scheduler.Signature
	cfg.Retention = a.cfg.Scheduler.Retention()
	return cfg
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		chatHandler := httpcontroller.NewChatHandler(a.chatService)
		chatHandler.RegisterRoutes(r)

		platforms := make([]platform.Platform, 0, len(a.clients))
		for _, client := range a.clients {
			platforms = append(platforms, client.Name())
		}
		statusHandler := httpcontroller.NewStatusHandler(a.tracker, a.queue, a.rotation, platforms)
		statusHandler.RegisterRoutes(r)

		if a.library != nil {
			mediaHandler := httpcontroller.NewMediaHandler(a.library)
			mediaHandler.RegisterRoutes(r)
		}
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.pg != nil {
		if err := a.pg.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pg != nil {
		a.pg.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}

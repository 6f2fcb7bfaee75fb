package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/leadscout/internal/config"
	"github.com/xavierca1/leadscout/internal/feed"
	"github.com/xavierca1/leadscout/internal/infra/cache"
	"github.com/xavierca1/leadscout/internal/infra/database"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/infra/integration/gemini"
	"github.com/xavierca1/leadscout/internal/infra/integration/n8n"
	"github.com/xavierca1/leadscout/internal/infra/integration/supabase"
	"github.com/xavierca1/leadscout/internal/infra/mail"
	"github.com/xavierca1/leadscout/internal/infra/queue"
	"github.com/xavierca1/leadscout/internal/infra/realtime"
	"github.com/xavierca1/leadscout/internal/infra/worker"
	applog "github.com/xavierca1/leadscout/internal/logger"
	"github.com/xavierca1/leadscout/internal/session"
	"github.com/xavierca1/leadscout/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := applog.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
	)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.NewDBConnection(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	rawLeadRepo := database.NewRawLeadRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Database.Redis.Address,
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
	})
	defer rdb.Close()
	sessionStore := cache.NewSessionStore(rdb, cfg.Database.Redis.KeyPrefix)

	hub := feed.NewHub(cfg.Realtime.BufferSize, logger.Named("hub"))

	var source feed.Source
	var rabbitMQ *queue.RabbitMQ
	switch cfg.Realtime.Driver {
	case "rabbitmq":
		rabbitMQ, err = queue.NewRabbitMQ(cfg.Realtime.RabbitMQURL, queue.Topology{
			Exchange:   cfg.Realtime.Exchange,
			Queue:      cfg.Realtime.Queue,
			RoutingKey: cfg.Realtime.RoutingKey,
		})
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		source = queue.NewConsumer(rabbitMQ.Ch, rabbitMQ.Topology.Queue, logger.Named("consumer"))
	default:
		source = realtime.NewPGListener(
			cfg.Database.Postgres.GetDSN(),
			cfg.Realtime.Channel,
			rawLeadRepo,
			config.GetDuration(cfg.Realtime.MinReconnectMs),
			config.GetDuration(cfg.Realtime.MaxReconnectMs),
			logger.Named("listener"),
		)
	}

	authClient := supabase.NewClient(
		cfg.Auth.Supabase.URL,
		cfg.Auth.Supabase.AnonKey,
		config.GetDuration(cfg.Auth.Supabase.Timeout),
	)
	workflowClient := n8n.NewClient(cfg.Integrations.Workflow.WebhookURL)

	classifier, err := gemini.NewClassifier(ctx, gemini.Config{
		APIKey:   cfg.Integrations.GenAI.APIKey,
		Model:    cfg.Integrations.GenAI.Model,
		BaseURL:  cfg.Integrations.GenAI.BaseURL,
		Greeting: cfg.Integrations.GenAI.GreetingTemplate,
	}, logger.Named("classifier"))
	if err != nil {
		return err
	}

	var reporter usecase.ReportSender
	if cfg.Mail.Enabled {
		reporter = mail.NewEmailSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From,
		)
	}

	enrichedLeadRepo := database.NewEnrichedLeadRepository(db)

	manager := session.NewManager(authClient, sessionStore, session.Services{
		RawLeads: rawLeadRepo,
		Hub:      hub,
		Classify: usecase.NewClassifyLeadsUseCase(classifier, enrichedLeadRepo, reporter, logger.Named("classify")),
		Search:   usecase.NewSearchLeadsUseCase(workflowClient, logger.Named("search")),
		Saved:    usecase.NewListSavedLeadsUseCase(enrichedLeadRepo, logger.Named("saved")),
		Logger:   logger.Named("workspace"),
	}, logger.Named("session"))
	manager.IdleTimeout = config.GetDuration(cfg.Session.IdleTimeout)
	defer manager.Close()

	expirationWorker := worker.NewSessionExpirationWorker(
		manager, config.GetDuration(cfg.Session.SweepInterval), logger.Named("expiration"),
	)

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	var rabbitConn *amqp.Connection
	if rabbitMQ != nil {
		rabbitConn = rabbitMQ.Conn
	}
	health := handlers.NewHealthHandler(db, handlers.PingFunc(sessionStore.Ping), rabbitConn, map[string]bool{
		"auth":     cfg.Auth.Supabase.URL != "",
		"workflow": cfg.Integrations.Workflow.WebhookURL != "",
		"genai":    cfg.Integrations.GenAI.APIKey != "",
		"mail":     cfg.Mail.Enabled,
	}, cfg.App.Version)

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: newRouter(routerDeps{
			cfg:         cfg,
			logger:      logger,
			manager:     manager,
			health:      health,
			authLimiter: authLimiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Closing the workspaces ends open lead streams so Shutdown can drain.
	server.RegisterOnShutdown(manager.Close)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx, source)
	})

	g.Go(func() error {
		expirationWorker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("http server listening",
			zap.String("addr", server.Addr),
			zap.String("realtime_driver", cfg.Realtime.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

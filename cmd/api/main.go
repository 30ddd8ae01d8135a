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

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"presusimple/internal/client"
	"presusimple/internal/config"
	"presusimple/internal/database"
	"presusimple/internal/events"
	"presusimple/internal/logger"
	"presusimple/internal/notify"
	"presusimple/internal/server"
	"presusimple/internal/services"
	"presusimple/internal/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := newPublisher(appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	var notifier services.ResetNotifier
	if n := notify.NewEmailNotifier(appConfig.Email); n != nil {
		notifier = n
	}

	mobileCodes := services.NewMobileAuthService(appConfig.MobileCodeTTL)
	usersClient := client.NewUsersClient(appConfig.InternalAPIURL, appConfig.InternalAPIKey, appConfig.InternalAPITimeout, nil)

	srv := server.New(server.Deps{
		Config:      appConfig,
		DB:          dbManager.DB(),
		UserLookup:  usersClient,
		Notifier:    notifier,
		MobileCodes: mobileCodes,
	})
	relay := events.NewRelay(dbManager.DB(), publisher, appConfig.OutboxPollInterval, appConfig.OutboxBatchSize)

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting presusimple API on port %s", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return relay.Run(ctx) })
	g.Go(func() error { mobileCodes.Run(ctx); return nil })
	g.Go(func() error { srv.LoginLimiter.Run(ctx); return nil })
	g.Go(func() error { srv.CodeLimiter.Run(ctx); return nil })

	return g.Wait()
}

// newPublisher connects to the broker, or logs events when none is configured.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Get().Warn("AMQP_URL not set, outbox events will only be logged")
		return events.LogPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	return p, nil
}

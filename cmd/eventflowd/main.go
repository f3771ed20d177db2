package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/harborline/eventflow/internal/config"
	"github.com/harborline/eventflow/internal/dispatch"
	"github.com/harborline/eventflow/internal/handlers"
	"github.com/harborline/eventflow/internal/ingress/kafka"
	"github.com/harborline/eventflow/internal/observers"
	"github.com/harborline/eventflow/internal/repository"
	transport "github.com/harborline/eventflow/internal/transport/http"
	"github.com/harborline/eventflow/pkg/database"
	"github.com/harborline/eventflow/pkg/logger"
	"github.com/harborline/eventflow/pkg/retry"
)

func main() {
	cfg := config.Load("eventflowd")

	log, err := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("eventflow starting",
		zap.String("environment", cfg.Server.Environment),
		zap.String("service", cfg.Server.ServiceName),
	)

	// Database and repository.
	db, err := database.NewGormDB(&database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
		LogLevel: gormlogger.Warn,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db,
		&repository.Order{},
		&repository.Notification{},
		&repository.AuditEntry{},
	); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	repo := repository.NewGormRepository(db)

	// Handler registry. Later registrations win per type, so order matters if
	// two handlers ever claim the same event type.
	registry := dispatch.NewRegistry(
		handlers.NewOrderHandler(repo, cfg.Batch.OrderSize, log),
		handlers.NewPaymentHandler(repo, log),
		handlers.NewNotificationHandler(repo, handlers.NewLogSender(log), cfg.Batch.NotificationSize, log),
	)
	log.Info("handlers registered", zap.Int("event_types", len(registry.SupportedTypes())))

	// Observers.
	notifier := dispatch.NewNotifier(log)
	notifier.Attach(observers.NewAuditObserver(repo, log))
	notifier.Attach(observers.NewMetricsObserver())

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		publisher, err := observers.NewPublisherObserver(nc, cfg.NATS.Stream, log)
		if err != nil {
			log.Fatal("failed to create integration publisher", zap.Error(err))
		}
		notifier.Attach(publisher)
		log.Info("integration publisher attached", zap.String("stream", cfg.NATS.Stream))
	}

	// Dispatch pipeline.
	executor := dispatch.NewExecutor(registry, notifier, retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Factor:      cfg.Retry.BackoffFactor,
	}, cfg.Batch.JobRetention, log)
	batcher := dispatch.NewBatcher(registry, executor,
		cfg.Batch.DefaultSize, cfg.Batch.Timeout, cfg.Batch.SweepInterval, log)
	dispatcher := dispatch.NewDispatcher(registry, batcher, notifier, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go batcher.Start(ctx)

	// Kafka ingress, when brokers are configured.
	var consumer *kafka.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, dispatcher, log)
		if err != nil {
			log.Fatal("failed to create kafka consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("kafka consumer stopped", zap.Error(err))
			}
		}()
		log.Info("kafka ingress started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// HTTP operational surface.
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	transport.RegisterRoutes(router, transport.NewPipelineHandler(dispatcher, batcher, executor, log))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: router,
	}
	go func() {
		log.Info("http server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTime)
	defer shutdownCancel()

	// Stop ingress first so no new events arrive, then drain what is queued.
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error("failed to close kafka consumer", zap.Error(err))
		}
	}
	batcher.ForceFlush(shutdownCtx)
	executor.Drain()
	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if nc != nil {
		nc.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("eventflow stopped")
}

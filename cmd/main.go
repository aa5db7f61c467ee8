package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config error", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if cfg.EnvFile != "" {
		log.Info("loaded environment file", zap.String("path", cfg.EnvFile))
	}

	if err := run(cfg, log); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("service gracefully stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	database, err := db.NewDb(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer database.Close()

	created, err := db.InitAdmin(ctx, database, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin user created", zap.String("username", cfg.AdminUsername))
	}

	packageRepo := postgresql.NewPackageRepo(database)

	packageCache := cache.NewPackageCache(packageRepo, log)
	if err := packageCache.LoadInitialData(ctx, cfg.CacheWarmLimit); err != nil {
		log.Warn("package cache warm-up failed", zap.Error(err))
	}

	outboxRepo := postgresql.NewOutboxTaskRepo()
	stg := storage.NewStorage(database, storage.Repositories{
		Packages:   packageRepo,
		Deliveries: postgresql.NewDeliveryRepo(database),
		Users:      postgresql.NewUserRepo(database),
		History:    postgresql.NewHistoryRepo(database),
		Outbox:     outboxRepo,
	}, packageCache, cfg.KafkaTopic, log)

	var producer kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.KafkaBrokers, log)
	} else {
		log.Warn("KAFKA_BROKERS is empty, lifecycle events go to the console")
		producer = kafka.NewConsoleProducer(log)
	}
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval:    cfg.OutboxPollInterval,
		BatchSize:       cfg.OutboxBatchSize,
		MaxAttempts:     cfg.OutboxMaxAttempts,
		ProcessingLease: cfg.OutboxLease,
	}, log)

	auditManager := server.NewAuditManager(cfg.AuditWorkers, cfg.AuditBatchSize, cfg.AuditTimeout, log)
	srv := server.New(stg, auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), auditManager, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})

	g.Go(func() error {
		publisher.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		publisher.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

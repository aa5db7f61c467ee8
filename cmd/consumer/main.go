package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config error", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required for the consumer")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		log.Info("closing kafka reader")
		if err := r.Close(); err != nil {
			log.Error("closing kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer started",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.Strings("brokers", cfg.KafkaBrokers))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("shutdown signal received, stopping consumer")
				return
			}
			log.Error("reading message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		event, err := repository.DecodeLifecycleEvent(m.Value)
		if err != nil {
			log.Warn("skipping malformed event",
				zap.Int64("offset", m.Offset),
				zap.ByteString("value", m.Value),
				zap.Error(err))
			continue
		}

		log.Info("lifecycle event",
			zap.Time("timestamp", m.Time),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.String("key", string(m.Key)),
			zap.String("type", event.Type),
			zap.String("package_id", event.PackageID),
			zap.String("delivery_id", event.DeliveryID),
			zap.String("old_status", event.OldStatus),
			zap.String("new_status", event.NewStatus))
	}
}

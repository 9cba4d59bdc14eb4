// Package producer relays committed outbox rows onto the bus.
package producer

import (
	"context"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultBatchSize    = 50
)

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// ProcessOutboxEvents polls the outbox until ctx is cancelled. Rows that fail
// to publish are marked failed and picked up again on a later poll, so a
// publish is never lost once the writing transaction committed.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	publisher messaging.Publisher,
	metrics *messaging.Metrics,
	logger *zap.Logger,
	cfg RelayConfig,
) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.L()
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started",
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("batch_size", cfg.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := ProcessPendingEvents(ctx, repo, publisher, metrics, log, cfg.BatchSize); err != nil {
				log.Error("process outbox events failed", zap.Error(err))
			}
		}
	}
}

// ProcessPendingEvents runs one relay pass and returns how many rows were sent.
func ProcessPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	publisher messaging.Publisher,
	metrics *messaging.Metrics,
	logger *zap.Logger,
	batchSize int,
) (int, error) {
	events, err := repo.ListPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	logger.Info("processing pending outbox events", zap.Int("count", len(events)))

	sent := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return sent, nil
		}

		if err := publisher.Publish(ctx, event.Topic, event.Envelope()); err != nil {
			metrics.ObserveOutboxPublish(kafka.OutboxStatusFailed)
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("routing_key", event.RoutingKey),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			if err := repo.MarkFailed(ctx, event.ID, err.Error()); err != nil {
				logger.Error("mark outbox failed failed", zap.String("outbox_id", event.ID), zap.Error(err))
			}
			continue
		}
		metrics.ObserveOutboxPublish(kafka.OutboxStatusSent)

		// A failed MarkSent republishes the row later; consumers dedupe on the id.
		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++

		logger.Info("outbox event sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
			zap.String("routing_key", event.RoutingKey),
		)
	}

	return sent, nil
}

package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka/producer"
	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunWorker relays committed outbox rows to Kafka until ctx is cancelled.
func RunWorker(ctx context.Context, cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	if err := cfg.ValidateBus(); err != nil {
		return err
	}

	if cfg.BusDriver != config.BusDriverKafka {
		return errors.New("worker process requires BUS_DRIVER=kafka; the memory bus runs inside the api")
	}

	_, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBrokers(), connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	publisher := kafka.NewPublisher(kafkaWriter,
		kafka.WithWriteTimeout(cfg.KafkaWriteTimeout),
		kafka.WithPublisherLogger(logger),
	)
	metrics := messaging.NewMetrics(prometheus.DefaultRegisterer)

	g, gctx := errgroup.WithContext(ctx)
	startMetricsServer(gctx, g, cfg, "worker", databaseCheck(sqlDB))
	g.Go(func() error {
		runRelay(gctx, sqlDB, publisher, metrics, cfg, logger)
		return nil
	})

	return g.Wait()
}

func runRelay(
	ctx context.Context,
	db *sql.DB,
	publisher messaging.Publisher,
	metrics *messaging.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) {
	producer.ProcessOutboxEvents(ctx, kafka.NewOutboxRepository(db), publisher, metrics, logger, producer.RelayConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
	})
}

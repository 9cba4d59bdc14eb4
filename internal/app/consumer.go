package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/carsonjc04/Hive-Engine/internal/appaccess"
	"github.com/carsonjc04/Hive-Engine/internal/bootstrap"
	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/device"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"
	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RegisterSubscriptions binds both offboarding consumers to sub. Each gets
// its own subscription, so one failing never holds back the other.
func RegisterSubscriptions(
	sub messaging.Subscriber,
	pattern string,
	devices device.Service,
	access appaccess.Service,
	logger *zap.Logger,
) error {
	if err := sub.Subscribe(device.SubscriptionName, pattern, device.NewTerminationHandler(devices, logger)); err != nil {
		return err
	}
	return sub.Subscribe(appaccess.SubscriptionName, pattern, appaccess.NewTerminationHandler(access, logger))
}

func newConsumerServices(db *sql.DB, gormDB *gorm.DB, logger *zap.Logger) (device.Service, appaccess.Service) {
	deviceService := device.NewService(db, device.NewRepository(gormDB), logger)
	accessService := appaccess.NewService(db, appaccess.NewRepository(gormDB), logger)
	return deviceService, accessService
}

// RunConsumer consumes the lifecycle topic from Kafka until ctx is cancelled.
func RunConsumer(ctx context.Context, cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if err := cfg.ValidateBus(); err != nil {
		return err
	}

	if cfg.BusDriver != config.BusDriverKafka {
		return errors.New("consumer process requires BUS_DRIVER=kafka; the memory bus runs inside the api")
	}

	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	inbox, closeInbox, err := newInbox(cfg, logger)
	if err != nil {
		return err
	}
	defer closeInbox()

	dlqWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBrokers(), connectRetries)
	if err != nil {
		return err
	}
	defer dlqWriter.Close()

	metrics := messaging.NewMetrics(prometheus.DefaultRegisterer)
	dlqPublisher := kafka.NewPublisher(dlqWriter,
		kafka.WithWriteTimeout(cfg.KafkaWriteTimeout),
		kafka.WithPublisherLogger(logger),
	)

	subscriber := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:         cfg.KafkaBrokers(),
		Topic:           cfg.KafkaTopic,
		GroupPrefix:     cfg.KafkaGroupPrefix,
		DeadLetterTopic: cfg.DeadLetterTopic(),
		Policy:          deliveryPolicy(cfg),
	}, dlqPublisher,
		kafka.WithInbox(inbox),
		kafka.WithMetrics(metrics),
		kafka.WithSubscriberLogger(logger),
	)
	defer subscriber.Close()

	deviceService, accessService := newConsumerServices(sqlDB, gormDB, logger)
	if err := RegisterSubscriptions(subscriber, cfg.ConsumerSubscriptionPattern, deviceService, accessService, logger); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	startMetricsServer(gctx, g, cfg, "consumer", databaseCheck(sqlDB))
	g.Go(func() error {
		return subscriber.Run(gctx)
	})

	logger.Info("consumer started",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("pattern", cfg.ConsumerSubscriptionPattern),
		zap.Int("max_deliveries", cfg.ConsumerMaxDeliveries),
	)
	err = g.Wait()
	bootstrap.NewStdoutAuditLogger(logger).Log(context.Background(), bootstrap.AuditLog{
		Action:  "CONSUMER_SHUTDOWN",
		Message: "Consumer stopped",
	})
	return err
}

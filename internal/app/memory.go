package app

import (
	"context"
	"database/sql"

	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/memory"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// startInProcessCascade runs the relay and both consumers on a memory bus
// inside g. The relay starts once the subscriptions are open, and the bus
// only returns from Publish after both consumers finished with the event, so
// a row is marked sent only when the cascade for it is done. Rows still
// pending at a crash are republished on the next start. Dead letters live in
// process memory only.
func startInProcessCascade(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	metrics *messaging.Metrics,
	logger *zap.Logger,
) error {
	inbox, closeInbox, err := newInbox(cfg, logger)
	if err != nil {
		return err
	}

	bus := memory.NewBus(cfg.KafkaTopic, deliveryPolicy(cfg),
		memory.WithInbox(inbox),
		memory.WithMetrics(metrics),
		memory.WithLogger(logger),
	)

	deviceService, accessService := newConsumerServices(db, gormDB, logger)
	if err := RegisterSubscriptions(bus, cfg.ConsumerSubscriptionPattern, deviceService, accessService, logger); err != nil {
		closeInbox()
		return err
	}

	g.Go(func() error {
		defer closeInbox()
		defer bus.Close()
		return bus.Run(ctx)
	})
	g.Go(func() error {
		select {
		case <-bus.Ready():
		case <-ctx.Done():
			return nil
		}
		runRelay(ctx, db, bus, metrics, cfg, logger)
		return nil
	})
	return nil
}

// Package app wires the api, worker and consumer processes.
package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/bootstrap"
	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/middleware"
	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const connectRetries = 5

// RunAPI serves the HTTP boundary until ctx is cancelled. With
// BUS_DRIVER=memory the relay and both consumers run in this process too.
func RunAPI(ctx context.Context, cfg *config.Config) error {
	logger := zap.L().Named("app.api")

	if err := cfg.ValidateBus(); err != nil {
		return err
	}

	gormDB, sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	metrics := messaging.NewMetrics(prometheus.DefaultRegisterer)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	registerModules(router, sqlDB, gormDB, cfg, logger)
	bootstrap.RegisterOpsRoutes(router, prometheus.DefaultGatherer, databaseCheck(sqlDB))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.BusDriver == config.BusDriverMemory {
		logger.Warn("running in-process cascade on the memory bus; dead letters are not persisted")
		if err := startInProcessCascade(gctx, g, cfg, sqlDB, gormDB, metrics, logger); err != nil {
			return err
		}
	}

	g.Go(func() error {
		return bootstrap.StartHTTPServer(gctx, router, bootstrap.ServerConfig{
			Name:         "api",
			Port:         cfg.Port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}, bootstrap.NewStdoutAuditLogger(logger))
	})

	return g.Wait()
}

func connectDatabase(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.PostgresDSN(), connectRetries)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

func databaseCheck(db *sql.DB) bootstrap.HealthCheck {
	return bootstrap.HealthCheck{Name: "postgres", Check: db.PingContext}
}

func deliveryPolicy(cfg *config.Config) messaging.DeliveryPolicy {
	return messaging.DeliveryPolicy{
		MaxDeliveries:  cfg.ConsumerMaxDeliveries,
		HandlerTimeout: cfg.ConsumerHandlerTimeout,
		RetryInitial:   cfg.ConsumerRetryInitial,
		RetryMax:       cfg.ConsumerRetryMax,
	}
}

// newInbox uses Redis when REDIS_ADDR is set. Without it every redelivery
// reaches the handlers, which stay correct because they are idempotent.
func newInbox(cfg *config.Config, logger *zap.Logger) (messaging.Inbox, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, inbox disabled")
		return messaging.NewNoopInbox(), func() {}, nil
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewRedisInbox(rdb, cfg.InboxTTL), func() { _ = rdb.Close() }, nil
}

// startMetricsServer exposes /metrics and /healthz for headless processes.
func startMetricsServer(ctx context.Context, g *errgroup.Group, cfg *config.Config, name string, checks ...bootstrap.HealthCheck) {
	if cfg.MetricsPort == "" {
		return
	}
	router := bootstrap.NewOpsRouter(prometheus.DefaultGatherer, checks...)
	g.Go(func() error {
		return bootstrap.StartHTTPServer(ctx, router, bootstrap.ServerConfig{
			Name:         name + "-metrics",
			Port:         cfg.MetricsPort,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}, nil)
	})
}

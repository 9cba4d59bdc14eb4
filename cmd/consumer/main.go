package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/carsonjc04/Hive-Engine/internal/app"
	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsumer(ctx, cfg); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}

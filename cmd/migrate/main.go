// migrate applies the embedded schema: go run ./cmd/migrate -direction up
package main

import (
	"flag"
	"log"

	"github.com/carsonjc04/Hive-Engine/internal/config"
	"github.com/carsonjc04/Hive-Engine/internal/db/migrate"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "migration direction: up or down")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if err := migrate.Run(cfg.PostgresURL(), *direction); err != nil {
		logger.Fatal("migrate failed", zap.String("direction", *direction), zap.Error(err))
	}
	logger.Info("migrations applied", zap.String("direction", *direction))
}

package main

import (
	"context"

	"glowloops/internal/config"
	"glowloops/internal/db"
	productrepo "glowloops/internal/repository/product"
	"glowloops/internal/seed"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer base.Sync() //nolint:errcheck
	logger := base.With(zap.String("component", "seed"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}

package main

import (
	"context"
	"flag"

	"glowloops/internal/config"
	"glowloops/internal/db"
	"glowloops/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "revert this many migrations instead of applying")
	status := flag.Bool("status", false, "print the schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer base.Sync() //nolint:errcheck
	logger := base.With(zap.String("component", "migrate"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch {
	case *status:
	case *down > 0:
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatal("rollback migrations", zap.Int("steps", *down), zap.Error(err))
		}
		logger.Info("migrations reverted", zap.Int("steps", *down))
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	st, err := migrate.Current(ctx, pool)
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty), zap.Bool("empty", st.Empty))
}

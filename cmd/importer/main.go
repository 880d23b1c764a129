package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"glowloops/internal/config"
	"glowloops/internal/db"
	"glowloops/internal/importer"
	productrepo "glowloops/internal/repository/product"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to catalog product CSV")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer base.Sync() //nolint:errcheck
	logger := base.With(zap.String("component", "importer"))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, logger), logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}

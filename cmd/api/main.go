package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowloops/internal/config"
	"glowloops/internal/db"
	"glowloops/internal/events"
	"glowloops/internal/httpserver"
	"glowloops/internal/media"
	cartrepo "glowloops/internal/repository/cart"
	customerrepo "glowloops/internal/repository/customer"
	productrepo "glowloops/internal/repository/product"
	tokenrepo "glowloops/internal/repository/token"
	cartsvc "glowloops/internal/service/cart"
	customersvc "glowloops/internal/service/customer"
	productsvc "glowloops/internal/service/product"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	base, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer base.Sync() //nolint:errcheck
	logger := base.With(zap.String("component", "api"))
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger.Named("db"))
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaCartTopic, logger.Named("events"))
		defer kp.Close()
		publisher = kp
		logger.Info("publishing cart events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaCartTopic))
	}

	images, err := media.NewURLBuilder(cfg.CloudinaryURL, logger.Named("media"))
	if err != nil {
		logger.Fatal("init cloudinary", zap.Error(err))
	}

	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger), images)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool, logger), publisher, logger.Named("cart"))
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool, logger.Named("tokens")), logger.Named("customer"))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc: customerService,
		CartSvc:     cartService,
		ProductSvc:  productService,
	}, cfg.CORSOrigins)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeTokens(purgeCtx, customerService, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func purgeTokens(ctx context.Context, svc *customersvc.Service, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpiredTokens(ctx); err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
			}
		}
	}
}

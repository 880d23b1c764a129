package httpserver

import (
	"context"
	"errors"
	"time"

	"glowloops/internal/domain"
	customersvc "glowloops/internal/service/customer"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type cartService interface {
	GetCart(ctx context.Context, shopperID string) (*domain.CartSnapshot, error)
	PutCart(ctx context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, error)
}

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	CustomerSvc customerService
	CartSvc     cartService
	ProductSvc  productService
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger.Named("access")).Writer()), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, logger))

	h := &handlers{deps: deps, logger: logger}

	auth := router.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/token", h.token)
	auth.POST("/logout", h.logout)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	me := router.Group("/me", authMiddleware(deps.CustomerSvc))
	me.GET("", h.me)
	me.GET("/cart", h.getCart)
	me.PUT("/cart", h.putCart)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

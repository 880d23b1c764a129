package httpserver

import (
	"context"
	"testing"

	"glowloops/internal/domain"
	customersvc "glowloops/internal/service/customer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubCustomerAuthSvc struct {
	customer  *domain.Customer
	loginErr  error
	signErr   error
	meErr     error
	logoutErr error
	lastToken string
}

func (s *stubCustomerAuthSvc) Signup(_ context.Context, _ customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return s.customer, nil
}

func (s *stubCustomerAuthSvc) Login(_ context.Context, _ string, _ string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.customer, "access", nil
}

func (s *stubCustomerAuthSvc) LookupByToken(_ context.Context, token string) (*domain.Customer, error) {
	s.lastToken = token
	if s.meErr != nil {
		return nil, s.meErr
	}
	return s.customer, nil
}

func (s *stubCustomerAuthSvc) Logout(_ context.Context, token string) error {
	s.lastToken = token
	return s.logoutErr
}

func (s *stubCustomerAuthSvc) AccessTTLSeconds() int {
	return 3600
}

type stubCartService struct {
	doc         *domain.CartSnapshot
	getErr      error
	putErr      error
	lastShopper string
	lastPut     *domain.CartSnapshot
}

func (s *stubCartService) GetCart(_ context.Context, shopperID string) (*domain.CartSnapshot, error) {
	s.lastShopper = shopperID
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.doc, nil
}

func (s *stubCartService) PutCart(_ context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, error) {
	s.lastShopper = shopperID
	s.lastPut = &doc
	if s.putErr != nil {
		return nil, s.putErr
	}
	if s.doc != nil {
		return s.doc, nil
	}
	return &doc, nil
}

type stubProductService struct {
	products []domain.Product
	err      error
}

func (s *stubProductService) List(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func testRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.CustomerSvc == nil {
		deps.CustomerSvc = &stubCustomerAuthSvc{}
	}
	if deps.CartSvc == nil {
		deps.CartSvc = &stubCartService{}
	}
	if deps.ProductSvc == nil {
		deps.ProductSvc = &stubProductService{}
	}
	router, err := buildRouter(zap.NewNop(), nil, deps, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

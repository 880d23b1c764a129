package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"glowloops/internal/domain"
)

func TestListProducts(t *testing.T) {
	products := &stubProductService{products: []domain.Product{
		{ID: "p1", Key: "halo-hoops", Name: "Halo Hoops", PriceCents: 2450, Currency: "USD"},
		{ID: "p2", Key: "loop-bracelet", Name: "Loop Bracelet", PriceCents: 3490, Currency: "USD"},
	}}
	router := testRouter(t, Deps{ProductSvc: products})

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"count":2`) || !strings.Contains(rec.Body.String(), `"key":"loop-bracelet"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListProducts_EmptyIsArray(t *testing.T) {
	router := testRouter(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"products":[]`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGetProduct(t *testing.T) {
	router := testRouter(t, Deps{ProductSvc: &stubProductService{products: []domain.Product{{ID: "p1", Name: "Halo Hoops"}}}})

	for path, want := range map[string]int{
		"/products/p1":      http.StatusOK,
		"/products/missing": http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d body=%s", path, want, rec.Code, rec.Body.String())
		}
	}
}

func TestGetProduct_InternalError(t *testing.T) {
	router := testRouter(t, Deps{ProductSvc: &stubProductService{err: errors.New("db down")}})

	req := httptest.NewRequest(http.MethodGet, "/products/p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

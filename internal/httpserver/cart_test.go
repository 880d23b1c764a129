package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glowloops/internal/domain"

	"github.com/shopspring/decimal"
)

func signedIn() *stubCustomerAuthSvc {
	return &stubCustomerAuthSvc{customer: &domain.Customer{ID: "shopper-1", Email: "s@example.com"}}
}

func TestGetCart_ReturnsDocumentWithTotals(t *testing.T) {
	carts := &stubCartService{doc: &domain.CartSnapshot{
		Items: []domain.LineItem{{
			ID: "l1", ProductID: "p1", Name: "Halo Hoops", Quantity: 2, UnitPrice: decimal.NewFromInt(20),
		}},
		Shipping:  &domain.Shipping{Price: decimal.NewFromInt(5)},
		UpdatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}}
	router := testRouter(t, Deps{CustomerSvc: signedIn(), CartSvc: carts})

	req := httptest.NewRequest(http.MethodGet, "/me/cart", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if carts.lastShopper != "shopper-1" {
		t.Fatalf("expected shopper-1, got %q", carts.lastShopper)
	}
	for _, want := range []string{`"productId":"p1"`, `"totalItemCount":2`, `"total":"45"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("missing %s in body: %s", want, rec.Body.String())
		}
	}
}

func TestGetCart_NotFound(t *testing.T) {
	router := testRouter(t, Deps{CustomerSvc: signedIn(), CartSvc: &stubCartService{getErr: domain.ErrNotFound}})

	req := httptest.NewRequest(http.MethodGet, "/me/cart", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetCart_RequiresAuth(t *testing.T) {
	router := testRouter(t, Deps{CartSvc: &stubCartService{}})

	req := httptest.NewRequest(http.MethodGet, "/me/cart", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestPutCart_DecodesDocument(t *testing.T) {
	carts := &stubCartService{}
	router := testRouter(t, Deps{CustomerSvc: signedIn(), CartSvc: carts})

	body := `{"items":[{"id":"l1","productId":"p1","name":"Halo","unitPrice":"19.99","quantity":3,"color":"gold",
		"addOn":{"id":"care-1y","name":"care","price":"4.50"}}],
		"discount":{"type":"fixed","amount":"5"},"updatedAt":"2026-04-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/me/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	got := carts.lastPut
	if got == nil || len(got.Items) != 1 {
		t.Fatalf("unexpected put %+v", got)
	}
	it := got.Items[0]
	if it.Quantity != 3 || it.Color != "gold" || it.AddOn == nil || !it.AddOn.Price.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("unexpected line %+v", it)
	}
	if got.Discount == nil || got.Discount.Type != domain.DiscountFixed {
		t.Fatalf("unexpected discount %+v", got.Discount)
	}
	if !got.UpdatedAt.Equal(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updatedAt %v", got.UpdatedAt)
	}
}

func TestPutCart_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"malformed", nil, `{"items":`, http.StatusBadRequest},
		{"invalid line", &domain.InvalidLineItemError{Field: "quantity", Reason: "must be at least 1"}, `{"items":[]}`, http.StatusBadRequest},
		{"internal", errors.New("db down"), `{"items":[]}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := testRouter(t, Deps{CustomerSvc: signedIn(), CartSvc: &stubCartService{putErr: tc.err}})
		req := httptest.NewRequest(http.MethodPut, "/me/cart", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}
}

package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"glowloops/internal/domain"
	"glowloops/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestPostgres_PutIfNewer(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	var shopperID string
	err := pool.QueryRow(ctx, `INSERT INTO customers (email, password_hash) VALUES ('cart@example.com', 'x') RETURNING id::text`).Scan(&shopperID)
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	repo := NewPostgres(pool, nil)
	if _, err := repo.GetByShopper(ctx, shopperID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := domain.CartSnapshot{
		Items: []domain.LineItem{{
			ID: "l1", ProductID: "p1", Name: "Halo Hoops", Quantity: 2,
			UnitPrice: decimal.RequireFromString("24.50"),
		}},
		UpdatedAt: t1,
	}
	stored, written, err := repo.PutIfNewer(ctx, shopperID, first)
	if err != nil || !written {
		t.Fatalf("PutIfNewer first: written=%v err=%v", written, err)
	}
	if !stored.SameContents(first) {
		t.Fatalf("stored mismatch %+v", stored)
	}

	older := first.Clone()
	older.Items[0].Quantity = 9
	older.UpdatedAt = t1.Add(-time.Minute)
	stored, written, err = repo.PutIfNewer(ctx, shopperID, older)
	if err != nil {
		t.Fatalf("PutIfNewer older: %v", err)
	}
	if written || stored.Items[0].Quantity != 2 {
		t.Fatalf("older document must not overwrite, got written=%v %+v", written, stored)
	}

	newer := first.Clone()
	newer.Items[0].Quantity = 3
	newer.UpdatedAt = t1.Add(time.Minute)
	if _, written, err = repo.PutIfNewer(ctx, shopperID, newer); err != nil || !written {
		t.Fatalf("PutIfNewer newer: written=%v err=%v", written, err)
	}
	fetched, err := repo.GetByShopper(ctx, shopperID)
	if err != nil {
		t.Fatalf("GetByShopper: %v", err)
	}
	if fetched.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %+v", fetched.Items)
	}

	if err := repo.Delete(ctx, shopperID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, shopperID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_documents, tokens, products, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

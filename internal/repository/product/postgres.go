package product

import (
	"context"
	"errors"
	"fmt"

	"glowloops/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// attributes is the jsonb payload of a product row.
type attributes struct {
	Images []string       `json:"images,omitempty"`
	Colors []string       `json:"colors,omitempty"`
	AddOns []domain.AddOn `json:"addOns,omitempty"`
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT id::text, key, sku, name, description, price_cents, currency, attributes, created_at
FROM products
ORDER BY created_at DESC, key ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, key, sku, name, description, price_cents, currency, attributes, created_at
FROM products
WHERE id::text = $1
`
	p, err := r.scan(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	attrs, err := json.Marshal(attributes{Images: product.Images, Colors: product.Colors, AddOns: product.AddOns})
	if err != nil {
		return nil, err
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	const q = `
INSERT INTO products (id, key, sku, name, description, price_cents, currency, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    attributes = EXCLUDED.attributes
RETURNING id::text, created_at
`
	res := product
	err = r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Currency,
		attrs,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Debug("product repo: upserted", zap.String("key", res.Key), zap.String("id", res.ID))
	return &res, nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var raw []byte
	if err := row.Scan(&p.ID, &p.Key, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &raw, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var attrs attributes
		if err := json.Unmarshal(raw, &attrs); err != nil {
			r.logger.Error("product repo: decode attributes", zap.String("id", p.ID), zap.Error(err))
			return nil, err
		}
		p.Images, p.Colors, p.AddOns = attrs.Images, attrs.Colors, attrs.AddOns
	}
	return &p, nil
}

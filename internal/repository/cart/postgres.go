package cart

import (
	"context"
	"errors"
	"time"

	"glowloops/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgres returns a Repository backed by the cart_documents table.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger, now: time.Now}
}

func (r *postgresRepo) GetByShopper(ctx context.Context, shopperID string) (*domain.CartSnapshot, error) {
	const q = `
SELECT document
FROM cart_documents
WHERE shopper_id = $1
`
	var raw []byte
	if err := r.pool.QueryRow(ctx, q, shopperID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.decode(shopperID, raw)
}

func (r *postgresRepo) PutIfNewer(ctx context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var raw []byte
	var storedAt time.Time
	err = tx.QueryRow(ctx, `
SELECT document, updated_at
FROM cart_documents
WHERE shopper_id = $1
FOR UPDATE
`, shopperID).Scan(&raw, &storedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = r.now().UTC()
		}
	case err != nil:
		return nil, false, err
	default:
		if doc.UpdatedAt.IsZero() || storedAt.After(doc.UpdatedAt) {
			stored, err := r.decode(shopperID, raw)
			if err != nil {
				return nil, false, err
			}
			return stored, false, nil
		}
	}

	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO cart_documents (shopper_id, document, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (shopper_id) DO UPDATE
SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
`, shopperID, encoded, doc.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return &doc, true, nil
}

func (r *postgresRepo) Delete(ctx context.Context, shopperID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_documents WHERE shopper_id = $1`, shopperID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) decode(shopperID string, raw []byte) (*domain.CartSnapshot, error) {
	var doc domain.CartSnapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.logger.Error("decode cart document", zap.String("shopper_id", shopperID), zap.Error(err))
		return nil, err
	}
	return &doc, nil
}

package token

import (
	"context"
	"errors"
	"time"

	"glowloops/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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

func (r *postgresRepo) Create(ctx context.Context, t Token) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tokens (token_hash, customer_id, expires_at) VALUES ($1, $2, $3)`,
		t.Hash, t.CustomerID, t.ExpiresAt)
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return domain.ErrAlreadyExists
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		return domain.ErrNotFound
	default:
		r.logger.Error("token repo: create", zap.String("customer_id", t.CustomerID), zap.Error(err))
		return err
	}
}

func (r *postgresRepo) GetByHash(ctx context.Context, hash string) (*Token, error) {
	var out Token
	err := r.pool.QueryRow(ctx, `
SELECT token_hash, customer_id::text, expires_at, created_at
FROM tokens
WHERE token_hash = $1`, hash).Scan(&out.Hash, &out.CustomerID, &out.ExpiresAt, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Error("token repo: get", zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) DeleteByHash(ctx context.Context, hash string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE token_hash = $1`, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Debug("token repo: purged expired", zap.Int64("count", n))
	}
	return tag.RowsAffected(), nil
}

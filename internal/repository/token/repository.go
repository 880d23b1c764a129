// Package token stores access tokens by digest. The raw bearer value is only
// ever held by the client.
package token

import (
	"context"
	"time"
)

type Token struct {
	// Hash is the hex SHA-256 of the bearer value.
	Hash       string
	CustomerID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, t Token) error
	GetByHash(ctx context.Context, hash string) (*Token, error)
	DeleteByHash(ctx context.Context, hash string) error
	// DeleteExpired removes tokens that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

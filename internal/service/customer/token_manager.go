package customer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"glowloops/internal/domain"
	tokenrepo "glowloops/internal/repository/token"
)

const issueAttempts = 3

type tokenMeta struct {
	CustomerID string
	ExpiresAt  time.Time
}

// tokenManager issues opaque bearer tokens. Only their digests are stored.
type tokenManager struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

func newTokenManager(repo tokenrepo.Repository) *tokenManager {
	return &tokenManager{repo: repo, now: time.Now}
}

func (m *tokenManager) Issue(ctx context.Context, customerID string, ttl time.Duration) (string, error) {
	expiresAt := m.now().Add(ttl).UTC()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		raw, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Hash:       hashToken(raw),
			CustomerID: customerID,
			ExpiresAt:  expiresAt,
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("store token: %w", err)
		}
		return raw, nil
	}
	return "", fmt.Errorf("token collision after %d attempts", issueAttempts)
}

// Validate resolves raw to its customer. Expired tokens are deleted on sight.
func (m *tokenManager) Validate(ctx context.Context, raw string) (tokenMeta, bool) {
	if raw == "" {
		return tokenMeta{}, false
	}
	hash := hashToken(raw)
	stored, err := m.repo.GetByHash(ctx, hash)
	if err != nil || stored.CustomerID == "" {
		return tokenMeta{}, false
	}
	if !m.now().Before(stored.ExpiresAt) {
		_ = m.repo.DeleteByHash(ctx, hash)
		return tokenMeta{}, false
	}
	return tokenMeta{CustomerID: stored.CustomerID, ExpiresAt: stored.ExpiresAt}, true
}

func (m *tokenManager) Revoke(ctx context.Context, raw string) error {
	return m.repo.DeleteByHash(ctx, hashToken(raw))
}

func (m *tokenManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

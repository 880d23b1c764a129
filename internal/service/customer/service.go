package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glowloops/internal/domain"
	custrepo "glowloops/internal/repository/customer"
	tokenrepo "glowloops/internal/repository/token"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidSignup wraps signup input that fails validation.
	ErrInvalidSignup = errors.New("invalid signup")
)

// Service handles shopper signup, login and token lookup.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	logger      *zap.Logger
	accessTTL   time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		logger:      logger,
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Signup registers a new shopper.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidSignup)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignup, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer signed up", zap.String("customer_id", c.ID))
	return c, nil
}

// Login validates credentials and returns an access token plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, c.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return c, access, nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// Logout revokes an access token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// PurgeExpiredTokens deletes tokens past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired tokens", zap.Int64("count", n))
	}
	return n, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}

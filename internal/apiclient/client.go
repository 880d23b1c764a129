// Package apiclient talks to the GlowLoops HTTP API on behalf of a shopper.
// Client satisfies cartstore.Remote.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"glowloops/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer the client has no sentinel for.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api: %d %s (field %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// LoginResult is the token grant returned by POST /auth/token.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	CustomerID  string `json:"customer_id"`
}

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type customerEnvelope struct {
	Customer domain.Customer `json:"customer"`
}

type productList struct {
	Count    int              `json:"count"`
	Products []domain.Product `json:"products"`
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
	rc.JSONMarshal = json.Marshal
	rc.JSONUnmarshal = json.Unmarshal
	return &Client{http: rc, logger: logger}
}

// SetToken installs the bearer token used for /me requests. An empty token
// clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// Login exchanges credentials for an access token and installs it.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	resp, err := c.request(ctx).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   email,
			"password":   password,
		}).
		SetResult(&out).
		Post("/auth/token")
	if err := c.check("login", resp, err); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (*domain.Customer, error) {
	var out customerEnvelope
	resp, err := c.request(ctx).SetBody(in).SetResult(&out).Post("/auth/signup")
	if err := c.check("signup", resp, err); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

// Logout revokes the current token server-side and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	resp, err := c.request(ctx).Post("/auth/logout")
	c.SetToken("")
	return c.check("logout", resp, err)
}

func (c *Client) Me(ctx context.Context) (*domain.Customer, error) {
	var out customerEnvelope
	resp, err := c.request(ctx).SetResult(&out).Get("/me")
	if err := c.check("me", resp, err); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out productList
	resp, err := c.request(ctx).SetResult(&out).Get("/products")
	if err := c.check("list products", resp, err); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	resp, err := c.request(ctx).SetPathParam("id", id).SetResult(&out).Get("/products/{id}")
	if err := c.check("get product", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCart fetches the signed-in shopper's cart document. The token, not
// shopperID, selects the document server-side; shopperID is used for logs.
func (c *Client) GetCart(ctx context.Context, shopperID string) (*domain.CartSnapshot, error) {
	var out domain.CartSnapshot
	resp, err := c.request(ctx).SetResult(&out).Get("/me/cart")
	if err := c.check("get cart", resp, err); err != nil {
		c.logger.Debug("get cart", zap.String("shopper_id", shopperID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// PutCart submits doc and returns the document the server kept, which is the
// stored one when it was newer.
func (c *Client) PutCart(ctx context.Context, shopperID string, doc domain.CartSnapshot) (*domain.CartSnapshot, error) {
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	var out domain.CartSnapshot
	resp, err := c.request(ctx).SetBody(doc).SetResult(&out).Put("/me/cart")
	if err := c.check("put cart", resp, err); err != nil {
		c.logger.Debug("put cart", zap.String("shopper_id", shopperID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// check turns transport failures and error statuses into errors.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

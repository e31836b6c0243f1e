// Package client is a typed HTTP client for the user management API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const userPath = "/api/v1/user"

// Client calls the user routes of a running server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User is a user as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateUserInput is the body of a create request.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// UpdateUserInput is the body of an update request.
type UpdateUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Result is the outcome of a write. Status is false when the server declined
// the write in-band, e.g. a create with an email that is already registered.
type Result struct {
	Status  bool
	Message string
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (%d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type envelope struct {
	// bool on success responses, the string "bad request" on validation failures
	Status  any             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (e envelope) ok() bool {
	b, _ := e.Status.(bool)
	return b
}

// ListUsers returns every user, newest id first.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := c.request(ctx, http.MethodGet, userPath, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByEmail returns the user registered with email, or nil if there is none.
func (c *Client) FindByEmail(ctx context.Context, email string) (*User, error) {
	var users []User
	path := userPath + "?" + url.Values{"email": {email}}.Encode()
	if _, err := c.request(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// GetUser returns the user with the given id. A missing user is an *APIError with StatusCode 404.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if _, err := c.request(ctx, http.MethodGet, userPath+"/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, in CreateUserInput) (*Result, error) {
	return c.request(ctx, http.MethodPost, userPath, in, nil)
}

// UpdateUser overwrites name, email and phone of a user.
func (c *Client) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*Result, error) {
	return c.request(ctx, http.MethodPatch, userPath+"/"+url.PathEscape(id), in, nil)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) (*Result, error) {
	return c.request(ctx, http.MethodDelete, userPath+"/"+url.PathEscape(id), nil, nil)
}

// ChangePassword replaces a user's password.
func (c *Client) ChangePassword(ctx context.Context, id, password string) (*Result, error) {
	body := map[string]string{"password": password}
	return c.request(ctx, http.MethodPost, userPath+"/change-password/"+url.PathEscape(id), body, nil)
}

// ToggleStatus flips a user's status.
func (c *Client) ToggleStatus(ctx context.Context, id string) (*Result, error) {
	return c.request(ctx, http.MethodPost, userPath+"/state/"+url.PathEscape(id), nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, payload, data any) (*Result, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("user API request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		c.logger.Warn("user API error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", env.Message))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Detail: env.Error}
	}

	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("failed to decode data: %w", err)
		}
	}

	return &Result{Status: env.ok(), Message: env.Message}, nil
}

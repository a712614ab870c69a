// Package accounts is the HTTP client of the campus account service. It
// implements portal.IdentityResolver and portal.AccountService.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 10 * time.Second

	PathLogin          = "/accounts/login"
	PathRegister       = "/accounts/register"
	PathLogout         = "/accounts/logout"
	PathProfile        = "/accounts/profile"
	PathChangePassword = "/accounts/change-password"

	HeaderRequestID = "X-Request-ID"

	maxBodySize = 1 << 20
)

var (
	_ portal.IdentityResolver = (*Client)(nil)
	_ portal.AccountService   = (*Client)(nil)
)

// Config holds the account service client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     portal.Logger
	UserAgent  string
}

// Client talks to the account service.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     portal.Logger
}

// New creates a new account service client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
		logger:     logger,
	}
}

// BaseURL returns the service root all paths are relative to
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Resolve implements portal.IdentityResolver with a single profile lookup.
func (c *Client) Resolve(ctx context.Context, token string) (*portal.User, error) {
	if token == "" {
		return nil, portal.NewUnauthorizedError(map[string]any{"reason": "empty token"})
	}

	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   PathProfile,
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(body, PathProfile)
}

// Login implements portal.AccountService.
func (c *Client) Login(ctx context.Context, credentials portal.Credentials) (*portal.LoginResponse, error) {
	body, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      PathLogin,
		payload:   loginPayload(credentials),
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	var out portal.LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, portal.NewInvalidResponseError(err, map[string]any{"path": PathLogin})
	}
	return &out, nil
}

// Register implements portal.AccountService.
func (c *Client) Register(ctx context.Context, registration portal.Registration) (*portal.User, error) {
	body, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      PathRegister,
		payload:   registration,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(body, PathRegister)
}

// Logout implements portal.AccountService.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   PathLogout,
		token:  token,
	})
	return err
}

// UpdateProfile implements portal.AccountService.
func (c *Client) UpdateProfile(ctx context.Context, token string, update portal.ProfileUpdate) (*portal.User, error) {
	body, err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    PathProfile,
		token:   token,
		payload: update,
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(body, PathProfile)
}

// ChangePassword implements portal.AccountService.
func (c *Client) ChangePassword(ctx context.Context, token string, change portal.PasswordChange) error {
	_, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    PathChangePassword,
		token:   token,
		payload: change,
	})
	return err
}

type request struct {
	method  string
	path    string
	token   string
	payload any
	// anonymous requests map 401 to a rejection, there is no session to end
	anonymous bool
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	requestID := uuid.NewString()
	metadata := map[string]any{
		"method":     r.method,
		"path":       r.path,
		"request_id": requestID,
	}

	var body io.Reader
	if r.payload != nil {
		raw, err := json.Marshal(r.payload)
		if err != nil {
			return nil, portal.NewValidationError("request could not be encoded", metadata)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.config.BaseURL+r.path, body)
	if err != nil {
		return nil, portal.NewUnreachableError(err, metadata)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("%s %s request_id=%s transport error: %v", r.method, r.path, requestID, err)
		return nil, portal.NewUnreachableError(err, metadata)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, portal.NewUnreachableError(err, metadata)
	}

	c.logger.Debug("%s %s request_id=%s status=%d took=%s", r.method, r.path, requestID, resp.StatusCode, time.Since(start))

	metadata["status"] = resp.StatusCode
	if err := classify(resp.StatusCode, raw, r.anonymous, metadata); err != nil {
		return nil, err
	}

	return raw, nil
}

func classify(status int, body []byte, anonymous bool, metadata map[string]any) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500:
		return portal.NewUnreachableError(nil, metadata)
	case (status == http.StatusUnauthorized || status == http.StatusForbidden) && !anonymous:
		return portal.NewUnauthorizedError(metadata)
	case status >= 400:
		return portal.NewServerRejectedError(ErrorMessage(body), metadata)
	default:
		return portal.NewInvalidResponseError(nil, metadata)
	}
}

func loginPayload(c portal.Credentials) map[string]string {
	payload := map[string]string{
		"identifier": c.Identifier,
		"password":   c.Password,
	}
	if strings.Contains(c.Identifier, "@") {
		payload["email"] = c.Identifier
	} else {
		payload["username"] = c.Identifier
	}
	return payload
}

// decodeUser accepts both {"user": {...}} and a bare user object.
func decodeUser(body []byte, path string) (*portal.User, error) {
	var envelope struct {
		User *portal.User `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, portal.NewInvalidResponseError(err, map[string]any{"path": path})
	}
	if envelope.User != nil {
		return envelope.User, nil
	}

	var bare portal.User
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, portal.NewInvalidResponseError(err, map[string]any{"path": path})
	}
	if bare.ID == "" && bare.Role == "" {
		return nil, portal.NewInvalidResponseError(errors.New("response carries no user"), map[string]any{"path": path})
	}
	return &bare, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

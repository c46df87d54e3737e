// Package client is the Go client of the back-office API. It carries the
// session and satisfies onboarding.Submitter so a Wizard can submit through
// it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"insurance-service/internal/domain/auth"
	xerrors "insurance-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned after a 401; the session has been cleared.
var ErrUnauthorized = xerrors.Wrap(xerrors.ErrSessionExpired, "session expired, sign in again")

// APIError is a non-2xx answer. Message is the server's text verbatim when
// it sent one.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes a 422 with field messages as a *xerrors.ValidationError so
// callers such as the onboarding wizard can store them per field.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnprocessableEntity && len(e.Fields) > 0 {
		return &xerrors.ValidationError{Fields: e.Fields}
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type Client struct {
	baseURL        string
	http           *http.Client
	session        *Session
	onUnauthorized func()
	logger         *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// OnUnauthorized registers a hook run after a 401 clears the session,
// typically to route the user back to sign-in.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 60 * time.Second},
		session: session,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Login signs in and starts the session.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginResponse, error) {
	var out auth.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", auth.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.session.Start(out.AccessToken, out.User.Role)
	return &out, nil
}

// Logout ends the server session. The local session is cleared even when
// the request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*auth.UserInfo, error) {
	var out auth.UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// send issues the request and turns any non-2xx answer into an error. On
// success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
		c.logger.Info("session rejected by server", zap.String("path", path))
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}
	return nil, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return apiErr
	}
	switch {
	case env.Message != "":
		apiErr.Message = env.Message
	case env.Error != "":
		apiErr.Message = env.Error
	}

	var fields map[string]string
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &fields) == nil {
		apiErr.Fields = fields
	}
	return apiErr
}

// IsAPIError reports whether err is an APIError with the given status.
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

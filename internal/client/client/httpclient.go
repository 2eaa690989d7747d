package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aidemoi/aidemoi/internal/common"
)

const DefaultTimeout = 10 * time.Second

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the traced default transport, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// NewHTTPClient builds a client for the API at baseURL. A non-positive
// timeout falls back to DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var res struct {
		Tokens Tokens `json:"tokens"`
	}
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body, &res); err != nil {
		return nil, err
	}
	return &res.Tokens, nil
}

func (c *HTTPClient) Profile(ctx context.Context, accessToken string) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", accessToken, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", accessToken, nil, nil)
}

func (c *HTTPClient) LogoutAll(ctx context.Context, accessToken string) (int64, error) {
	var res struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/logout-all", accessToken, nil, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

// Ping probes /healthz.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(ctx, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if ctxErr := c.mapError(ctx, err); errors.Is(ctxErr, ErrTimeout) {
			return ctxErr
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		msg := env.Message
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) mapError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Package api is the dashboard's only door to the backend.
//
// ENVELOPE CONTRACT:
// Every backend response body is a JSON object
//
//	{"success": bool, "data": <payload>, "message": "<human text>"}
//
// and it is parsed regardless of the HTTP status code. That gives exactly three
// outcomes per call:
//
//	success:true   → payload decoded into T, validated, returned
//	success:false  → *apperror.AppError (ErrRejected / ErrUnauthorized / ...)
//	anything else  → *apperror.AppError wrapping ErrTransport
//
// The client never retries and never caches. Callers decide what a failure
// means for their view.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sakif/trading-dashboard/internal/apperror"
)

// maxBodySize caps how much of a response we are willing to buffer.
const maxBodySize = 4 << 20

// Envelope is the uniform wrapper around every backend response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Empty is the payload type of operations whose data the caller ignores.
type Empty struct{}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	origin     string
	httpClient *http.Client
	logger     *slog.Logger
	validate   *validator.Validate
}

type Option func(*Client)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client rooted at baseURL, e.g. "http://localhost:3001/api".
// The health endpoint lives at the origin, outside the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL:    base,
		origin:     strings.TrimSuffix(base, "/api"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one call. path is relative to the API root unless abs is set.
type request struct {
	method string
	path   string
	abs    bool
	token  string
	query  url.Values
	body   any
}

func do[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T

	target := c.baseURL + r.path
	if r.abs {
		target = c.origin + r.path
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return zero, fmt.Errorf("api: encoding %s %s body: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return zero, fmt.Errorf("api: building %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)
	if r.token != "" {
		(&oauth2.Token{AccessToken: r.token}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		return zero, apperror.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return zero, apperror.Transport(err)
	}

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", reqID),
	)

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, apperror.Transport(fmt.Errorf("decoding %s %s response (status %d): %w",
			r.method, r.path, resp.StatusCode, err))
	}
	if !env.Success {
		return zero, apperror.Rejected(resp.StatusCode, env.Message)
	}

	var out T
	if _, ok := any(out).(Empty); ok {
		return out, nil
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, apperror.InvalidPayload(err)
		}
	}
	if err := c.check(out); err != nil {
		return zero, apperror.InvalidPayload(err)
	}
	return out, nil
}

// check runs struct validation on a decoded payload. Slices are checked per
// element; a nil pointer means the backend sent no data where some was due.
func (c *Client) check(v any) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return fmt.Errorf("missing data")
		}
		if rv.Elem().Kind() != reflect.Struct {
			return nil
		}
		return c.validate.Struct(v)
	case reflect.Struct:
		return c.validate.Struct(v)
	case reflect.Slice:
		for i := range rv.Len() {
			if err := c.check(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

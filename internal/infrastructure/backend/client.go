// Package backend is the REST client of the inventory backend. It attaches
// the bearer token, normalizes response shapes and maps HTTP failures to the
// domain error taxonomy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config captures the settings of the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the pooled client. Tests pass httptest's client.
	HTTPClient *http.Client
}

// Client talks to the inventory REST backend. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// New returns a Client for cfg.BaseURL.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{base: base, http: hc, log: log.With().Str("component", "backend").Logger()}, nil
}

// StatusError is a non-2xx answer from the backend. It unwraps to the domain
// error its status maps to.
type StatusError struct {
	Route  string
	Status int
	Detail string
	Body   []byte
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Route, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Route, e.Status)
}

// credentialRoutes answer 400 when the credentials they were sent are bad.
var credentialRoutes = map[string]bool{
	"auth.login":   true,
	"auth.refresh": true,
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return domain.ErrRejected
	case e.Status == http.StatusBadRequest && credentialRoutes[e.Route]:
		return domain.ErrRejected
	case e.Status == http.StatusBadRequest:
		return domain.ErrBadRequest
	case e.Status == http.StatusForbidden:
		return domain.ErrForbidden
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrUnavailable
	}
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Route: "ping", Status: resp.StatusCode}
	}
	return nil
}

// request sends one call. body is JSON-encoded when non-nil and the answer is
// decoded into out when both are non-empty.
func (c *Client) request(ctx context.Context, route, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", route, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String()+"/", rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(route, "error").Observe(time.Since(start).Seconds())
		c.log.Warn().Err(err).Str("route", route).Msg("backend request failed")
		return fmt.Errorf("%s: %w: %w", route, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.BackendRequestDuration.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: read body: %w: %w", route, domain.ErrUnavailable, err)
	}

	c.log.Debug().
		Str("route", route).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Route: route, Status: resp.StatusCode, Detail: errorDetail(raw), Body: raw}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", route, domain.ErrUnavailable, err)
	}
	return nil
}

// errorDetail pulls a human-readable message out of an error body.
func errorDetail(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		var s string
		if v, ok := body[key]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// validationErrors turns a 400 body into field errors. Values may be a list
// of strings or a single string. Top-level detail/error messages are kept
// under non_field_errors so they are never lost.
func validationErrors(raw []byte) domain.ValidationErrors {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.ValidationErrors{"non_field_errors": {"Invalid input."}}
	}
	out := domain.ValidationErrors{}
	for field, v := range body {
		if field == "detail" || field == "error" || field == "message" {
			field = "non_field_errors"
		}
		var list []string
		if json.Unmarshal(v, &list) == nil {
			out[field] = append(out[field], list...)
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[field] = append(out[field], s)
		}
	}
	if len(out) == 0 {
		out["non_field_errors"] = []string{"Invalid input."}
	}
	return out
}

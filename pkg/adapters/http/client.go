package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// Client talks to a channel backend: POST /enrich for live product data and
// POST /orders for draft order creation.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *slog.Logger
}

var (
	_ ports.Enricher  = (*Client)(nil)
	_ ports.Submitter = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.HTTP = c
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.HTTP = &http.Client{Timeout: d}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{BaseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

type enrichRequest struct {
	Channel    string   `json:"channel"`
	VariantIDs []string `json:"variantIds"`
}

type enrichResponse struct {
	Products map[string]domain.Enrichment `json:"products"`
}

// Enrich implements ports.Enricher.
func (c *Client) Enrich(ctx context.Context, channel string, variantIDs []string) (map[string]domain.Enrichment, error) {
	var resp enrichResponse
	if err := c.post(ctx, "/enrich", enrichRequest{Channel: channel, VariantIDs: variantIDs}, &resp); err != nil {
		return nil, fmt.Errorf("enrich %s: %w", channel, err)
	}
	if resp.Products == nil {
		resp.Products = map[string]domain.Enrichment{}
	}
	return resp.Products, nil
}

// Submit implements ports.Submitter.
func (c *Client) Submit(ctx context.Context, order domain.Order) (domain.Confirmation, error) {
	var conf domain.Confirmation
	if err := c.post(ctx, "/orders", order, &conf); err != nil {
		return domain.Confirmation{}, fmt.Errorf("submit order: %w", err)
	}
	return conf, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("backend call", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

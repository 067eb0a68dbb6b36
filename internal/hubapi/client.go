package hubapi

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

	"github.com/five82/deskhub/internal/resource"
)

// Fetcher retrieves raw response bodies. The engine decodes them.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, body any) ([]byte, error)
}

// Transport is everything the sync engine needs from the hub: list fetches
// plus the mutation calls.
type Transport interface {
	Fetcher
	Update(ctx context.Context, endpoint string, req UpdateRequest) error
	SendMessage(ctx context.Context, endpoint string, req ChatRequest) ([]byte, error)
	Trigger(ctx context.Context, action resource.Action) error
}

// Ensure Client implements Transport at compile time.
var _ Transport = (*Client)(nil)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "deskhub/dev"
	maxResponseBytes = 8 << 20
	errorBodyLimit   = 200
)

// Options configure a Client.
type Options struct {
	Timeout    time.Duration // zero uses 30s; negative disables the client timeout
	UserAgent  string
	HTTPClient *http.Client // overrides Timeout when set
}

// Client posts JSON to hub webhook endpoints.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a Client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		switch {
		case timeout == 0:
			timeout = defaultTimeout
		case timeout < 0:
			timeout = 0
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{http: hc, userAgent: ua}
}

// Fetch posts body to endpoint and returns the raw response.
func (c *Client) Fetch(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Update posts a task or notification update.
func (c *Client) Update(ctx context.Context, endpoint string, req UpdateRequest) error {
	_, err := c.do(ctx, http.MethodPost, endpoint, req)
	return err
}

// SendMessage posts a chat message and returns the hub's reply body.
func (c *Client) SendMessage(ctx context.Context, endpoint string, req ChatRequest) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, req)
}

// Trigger invokes a quick action's webhook with its method and payload.
func (c *Client) Trigger(ctx context.Context, action resource.Action) error {
	method := strings.ToUpper(strings.TrimSpace(action.Method))
	if method == "" {
		method = resource.DefaultActionMethod
	}
	var body any
	if len(action.Payload) > 0 {
		body = action.Payload
	} else if method != http.MethodGet {
		body = struct{}{}
	}
	_, err := c.do(ctx, method, action.URL, body)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	target, err := ValidateEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "execute request", URL: target.Redacted(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{Op: "read response", URL: target.Redacted(), Err: err}
	}
	if len(data) > maxResponseBytes {
		return nil, &TransportError{Op: "read response", URL: target.Redacted(), Err: ErrResponseTooLarge}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        target.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), errorBodyLimit),
		}
	}
	return data, nil
}

// ValidateEndpoint parses endpoint and rejects values that cannot be posted
// to: empty, unparsable, non-http(s) or hostless URLs.
func ValidateEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, &ConfigurationError{Reason: "empty url"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &ConfigurationError{Endpoint: trimmed, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{Endpoint: trimmed, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Endpoint: trimmed, Reason: "missing host"}
	}
	return u, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single HTTP call.
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader carries a per-request id.
	RequestIDHeader = "X-Request-Id"
)

// HTTP sends requests as JSON over net/http.
type HTTP struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures HTTP.
type Option func(*HTTP)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithTimeout sets the client timeout. The client given to WithClient is
// copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if h.client == nil {
			h.client = &http.Client{Timeout: d}
			return
		}

		c := *h.client
		c.Timeout = d
		h.client = &c
	}
}

// WithRateLimit throttles requests to rps per second with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *HTTP) {
		if rps <= 0 {
			h.limiter = nil
			return
		}

		if burst < 1 {
			burst = 1
		}

		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTP creates an HTTP transport with DefaultTimeout.
func NewHTTP(opts ...Option) *HTTP {
	h := &HTTP{client: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Do sends req and decodes the reply. Non-2xx replies fail with *StatusError.
func (h *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader

	if req.Data != nil {
		data, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range req.Header {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	data := decode(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method: req.Method,
			URL:    req.URL,
			Status: resp.StatusCode,
			Data:   data,
		}
	}

	header := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		header[key] = resp.Header.Get(key)
	}

	return &Response{Data: data, Status: resp.StatusCode, Header: header}, nil
}

// decode parses a JSON body. Empty bodies give nil; anything that is not
// JSON is returned as text.
func decode(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}

	return v
}

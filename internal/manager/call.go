package manager

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"entity-manager/internal/common"
	"entity-manager/internal/request"
	"entity-manager/internal/transform"
	"entity-manager/internal/transport"
)

var _ request.Requester = (*Manager)(nil)

// Get sends a GET request.
func (m *Manager) Get(ctx context.Context, o request.Options) (any, error) {
	return m.call(ctx, http.MethodGet, o)
}

// Delete sends a DELETE request.
func (m *Manager) Delete(ctx context.Context, o request.Options) (any, error) {
	return m.call(ctx, http.MethodDelete, o)
}

// Post sends a POST request. Missing data is sent as an empty object.
func (m *Manager) Post(ctx context.Context, o request.Options) (any, error) {
	if o.Data == nil {
		o.Data = map[string]any{}
	}

	return m.call(ctx, http.MethodPost, o)
}

// Put sends a PUT request. Data is required.
func (m *Manager) Put(ctx context.Context, o request.Options) (any, error) {
	if o.Data == nil {
		return nil, fmt.Errorf("%s: %w", http.MethodPut, ErrMissingData)
	}

	return m.call(ctx, http.MethodPut, o)
}

// Patch sends a PATCH request. Data is required.
func (m *Manager) Patch(ctx context.Context, o request.Options) (any, error) {
	if o.Data == nil {
		return nil, fmt.Errorf("%s: %w", http.MethodPatch, ErrMissingData)
	}

	return m.call(ctx, http.MethodPatch, o)
}

func (m *Manager) call(ctx context.Context, method string, o request.Options) (any, error) {
	o = request.Merge(m.HTTPOptions(), o)
	if o.URL == "" {
		return nil, fmt.Errorf("%s: %w", method, ErrMissingURL)
	}

	target := m.Endpoint() + EncodeCriteria(o.URL, o.Criteria)

	data := o.Data

	if o.RequestTransformer != "" && data != nil {
		var err error

		data, err = m.transformers.ApplyForwardChain(transform.ParseChain(o.RequestTransformer), data)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()

	resp, err := m.transport.Do(ctx, &transport.Request{
		Method: method,
		URL:    target,
		Header: o.Header,
		Data:   data,
	})

	elapsed := time.Since(start)
	m.metrics.observe(method, err, elapsed)

	if err != nil {
		m.logger.Debug("Request failed", "method", method, "url", target, "duration", elapsed, "error", err)
		return nil, err
	}

	m.logger.Debug("Request succeeded", "method", method, "url", target, "status", resp.Status, "duration", elapsed)

	out := resp.Data

	if o.ResponseTransformer != "" {
		out, err = m.transformers.ApplyReverseChain(transform.ParseChain(o.ResponseTransformer), out)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// EncodeCriteria appends each criterion to u as key=<compact JSON>, keys in
// sorted order. The first criterion opens the query string when u has none.
func EncodeCriteria(u string, criteria map[string]any) string {
	if len(criteria) == 0 {
		return u
	}

	var b strings.Builder

	b.WriteString(u)

	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}

	for _, k := range common.SortedKeys(criteria) {
		value, err := json.Marshal(criteria[k])
		if err != nil {
			value = []byte(fmt.Sprint(criteria[k]))
		}

		b.WriteString(sep)
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(string(value)))

		sep = "&"
	}

	return b.String()
}

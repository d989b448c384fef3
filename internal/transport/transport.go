package transport

import (
	"context"
	"fmt"
)

// Request describes one call.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	// Data is the JSON payload. Nil sends no body.
	Data any
}

// Response is a successful reply.
type Response struct {
	// Data is the decoded JSON body, or the raw text when it is not JSON.
	Data   any
	Status int
	Header map[string]string
}

// Transport performs requests. A non-nil error means the request failed;
// failures are returned to callers as they are.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// StatusError is returned for replies outside the 2xx range.
type StatusError struct {
	Method string
	URL    string
	Status int
	// Data is the decoded error body, if any.
	Data any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
}

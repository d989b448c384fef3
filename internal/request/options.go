package request

import (
	"context"

	"entity-manager/internal/common"
)

// Options describe one call. Zero fields are unset.
type Options struct {
	// URL is relative to the manager endpoint.
	URL    string
	Header map[string]string
	// Data is the outbound payload.
	Data any
	// Criteria are encoded into the query string.
	Criteria map[string]any
	// RequestTransformer is a transformer chain applied forward to Data.
	RequestTransformer string
	// ResponseTransformer is a transformer chain applied in reverse to the
	// response data.
	ResponseTransformer string
}

// Merge returns base overridden by every set field of over. Headers and
// criteria merge key by key.
func Merge(base, over Options) Options {
	out := base

	if over.URL != "" {
		out.URL = over.URL
	}

	if over.Data != nil {
		out.Data = over.Data
	}

	if over.RequestTransformer != "" {
		out.RequestTransformer = over.RequestTransformer
	}

	if over.ResponseTransformer != "" {
		out.ResponseTransformer = over.ResponseTransformer
	}

	if base.Header != nil || over.Header != nil {
		out.Header = common.MergeMaps(base.Header, over.Header)
	}

	if base.Criteria != nil || over.Criteria != nil {
		out.Criteria = common.MergeMaps(base.Criteria, over.Criteria)
	}

	return out
}

// MergeAll folds opts onto base, left to right.
func MergeAll(base Options, opts ...Options) Options {
	for _, o := range opts {
		base = Merge(base, o)
	}

	return base
}

// Requester issues HTTP-shaped calls and returns the response data.
type Requester interface {
	Get(ctx context.Context, opts Options) (any, error)
	Post(ctx context.Context, opts Options) (any, error)
	Put(ctx context.Context, opts Options) (any, error)
	Patch(ctx context.Context, opts Options) (any, error)
	Delete(ctx context.Context, opts Options) (any, error)
}

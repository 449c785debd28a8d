// File path: internal/data/orchestrator/options.go
package orchestrator

import (
	"github.com/raglens/raglens/internal/bucket"
	"github.com/raglens/raglens/internal/llm"
	"github.com/raglens/raglens/internal/search"
)

type Option func(*options)

type options struct {
	provider llm.Provider
	index    search.Index
	objects  bucket.Bucket
}

// WithProvider injects a chat/embedding provider implementation.
func WithProvider(provider llm.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithSearchIndex injects a search backend implementation.
func WithSearchIndex(index search.Index) Option {
	return func(o *options) {
		o.index = index
	}
}

// WithBucket injects an object-store implementation.
func WithBucket(objects bucket.Bucket) Option {
	return func(o *options) {
		o.objects = objects
	}
}

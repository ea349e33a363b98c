package transport

import (
	"net/http"

	"github.com/rs/zerolog"
)

type Option func(*RoundTripper)

// WithTransport sets the inner transport used to send requests
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithRefreshPath sets the path suffix identifying the refresh endpoint
func WithRefreshPath(path string) Option {
	return func(t *RoundTripper) {
		t.refreshPath = path
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}

package auth

import (
	"net/http"
	"time"

	"github.com/kottesh/amuhacks/client/auth/store"
	"github.com/rs/zerolog"
)

type Option func(s *Session)

// WithStore sets credential store, memory by default
func WithStore(aStore store.Store) Option {
	return func(s *Session) {
		s.store = aStore
	}
}

// WithTransport sets the transport the pipeline sends requests through
func WithTransport(transport http.RoundTripper) Option {
	return func(s *Session) {
		s.inner = transport
	}
}

// WithTimeout sets per request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

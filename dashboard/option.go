package dashboard

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type Option func(s *Store)

// WithClock sets the clock used to compute the chart window
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

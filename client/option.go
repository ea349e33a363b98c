package client

import "github.com/rs/zerolog"

// Option represents option
type Option func(c *Client)

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

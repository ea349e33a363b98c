package mock

import "time"

type Option func(s *Service)

// WithSecret sets the HMAC key used to sign tokens
func WithSecret(secret []byte) Option {
	return func(s *Service) {
		s.Secret = secret
	}
}

// WithAccessTTL sets access token lifetime
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.AccessTTL = ttl
	}
}

// WithUser seeds a registered user
func WithUser(email, password, firstName string) Option {
	return func(s *Service) {
		s.addUser(email, password, firstName, nil)
	}
}

// WithParser replaces the free-text transaction parser
func WithParser(parser Parser) Option {
	return func(s *Service) {
		s.parser = parser
	}
}

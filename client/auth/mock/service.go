package mock

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/kottesh/amuhacks/schema"
)

const (
	// Issuer is the iss claim of every token the fake issues.
	Issuer = "quid-mock"
	// Prefix is the API mount point, clients use server URL + Prefix as base URL.
	Prefix = "/api/v1"

	DefaultEmail     = "demo@quid.app"
	DefaultPassword  = "password123"
	DefaultFirstName = "Demo"
)

type (
	// Service is a test server that simulates the Quid backend
	Service struct {
		Secret     []byte
		AccessTTL  time.Duration
		RefreshTTL time.Duration

		mu           sync.Mutex
		users        map[string]*user
		accessTokens map[string]string
		refresh      map[string]string
		accounts     map[int]*schema.Account
		transactions map[int]*schema.Transaction
		nextID       int
		calls        map[string]int
		behavior     Behavior
		parser       Parser
	}

	// Behavior toggles failure modes of the refresh endpoint.
	Behavior struct {
		// FailRefresh rejects every refresh with 401.
		FailRefresh bool
		// OmitRefreshToken answers refresh without rotating the refresh token.
		OmitRefreshToken bool
		// OmitAccessToken answers refresh with 200 and no access_token.
		OmitAccessToken bool
		// RefreshDelay holds refresh responses.
		RefreshDelay time.Duration
		// RejectCurrentUser answers users/me with 401 whatever the token.
		RejectCurrentUser bool
	}

	user struct {
		schema.User
		password string
	}

	// Parser extracts transactions from free text.
	Parser func(text string) []schema.ParsedTransaction
)

// NewService creates a fake backend seeded with the default user
func NewService(opts ...Option) *Service {
	ret := &Service{
		Secret:       []byte("quid-mock-secret"),
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   24 * time.Hour,
		users:        map[string]*user{},
		accessTokens: map[string]string{},
		refresh:      map[string]string{},
		accounts:     map[int]*schema.Account{},
		transactions: map[int]*schema.Transaction{},
		calls:        map[string]int{},
		parser:       ParseLines,
	}
	ret.addUser(DefaultEmail, DefaultPassword, DefaultFirstName, nil)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// NewHTTPTestServer starts an httptest server for a new fake backend.
func NewHTTPTestServer(opts ...Option) (*httptest.Server, *Service) {
	service := NewService(opts...)
	return httptest.NewServer(service.Handler()), service
}

// BaseURL returns the API base URL for a server started with NewHTTPTestServer.
func BaseURL(server *httptest.Server) string {
	return server.URL + Prefix + "/"
}

// Configure changes refresh behaviour.
func (s *Service) Configure(fn func(b *Behavior)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.behavior)
}

// ExpireAccessTokens invalidates every issued access token; refresh tokens stay valid.
func (s *Service) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = map[string]string{}
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (s *Service) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = map[string]string{}
}

// Calls returns how many times the named route was hit.
func (s *Service) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// User returns the stored user or nil.
func (s *Service) User(email string) *schema.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		ret := u.User
		return &ret
	}
	return nil
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (s *Service) Handler() http.Handler {
	return s.router()
}

func (s *Service) addUser(email, password, firstName string, lastName *string) *user {
	s.nextID++
	active := true
	ret := &user{
		User:     schema.User{ID: s.nextID, Email: email, FirstName: firstName, LastName: lastName, IsActive: &active},
		password: password,
	}
	s.users[email] = ret
	return ret
}

func (s *Service) count(route string) {
	s.mu.Lock()
	s.calls[route]++
	s.mu.Unlock()
}

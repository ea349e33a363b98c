package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kottesh/amuhacks/client/auth/store"
	"github.com/kottesh/amuhacks/client/auth/transport"
	"github.com/kottesh/amuhacks/internal/collection"
	"github.com/kottesh/amuhacks/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	LoginPath    = "auth/login"
	RegisterPath = "auth/register"
	RefreshPath  = "auth/refresh"
	MePath       = "users/me"

	// DefaultTimeout bounds every request made through a Session.
	DefaultTimeout = 30 * time.Second
)

const (
	messageLoginFailed        = "Login failed."
	messageRegistrationFailed = "Registration failed."
)

// State is a snapshot of the session as seen by observers.
type State struct {
	Authenticated  bool
	User           *schema.User
	ExpiresAt      time.Time
	Loading        bool
	Error          string
	SuccessMessage string
}

// Session is the authenticated API client. It exclusively owns the current
// credential; use Request to build calls that carry it.
type Session struct {
	baseURL string
	store   store.Store
	inner   http.RoundTripper
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	user    *schema.User
	loading int
	err     *schema.Error
	success string

	observers *collection.Registry[func(State)]

	refreshGroup singleflight.Group
	httpClient   *http.Client
	rest         *resty.Client
}

// New creates a session for baseURL restoring any credential held by the store.
func New(ctx context.Context, baseURL string, options ...Option) (*Session, error) {
	ret := &Session{
		baseURL:   baseURL,
		inner:     http.DefaultTransport,
		timeout:   DefaultTimeout,
		logger:    log.Logger,
		observers: collection.NewRegistry[func(State)](),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.store == nil {
		ret.store = store.NewMemoryStore()
	}
	credentials, err := ret.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore credentials: %w", err)
	}
	if credentials.Token != nil {
		ret.token = credentials.Token
		ret.token.Expiry = tokenExpiry(ret.token.AccessToken)
		ret.user = credentials.User
		ret.logger.Debug().Bool("user", ret.user != nil).Msg("restored session from store")
	}

	pipeline := transport.New(ret, transport.WithTransport(ret.inner), transport.WithLogger(ret.logger))
	ret.httpClient = &http.Client{Transport: pipeline, Timeout: ret.timeout}
	ret.rest = resty.NewWithClient(ret.httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		OnAfterResponse(translateError)
	return ret, nil
}

// Request returns a request bound to ctx that travels through the authenticated pipeline.
func (s *Session) Request(ctx context.Context) *resty.Request {
	return s.rest.R().SetContext(ctx)
}

// HTTPClient returns a plain client over the same pipeline.
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// BaseURL returns the API base URL.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Login exchanges identifier and secret for a credential.
func (s *Session) Login(ctx context.Context, identifier, secret string) bool {
	s.begin()
	defer s.end()

	response := &oauth2.Token{}
	request := s.Request(transport.WithSkipAuth(ctx)).
		SetFormData(map[string]string{"username": identifier, "password": secret})
	err := Send(request, resty.MethodPost, LoginPath, response)
	if err == nil && response.AccessToken == "" {
		err = schema.NewMalformedError(http.StatusOK, "", errors.New("no access token received"))
	}
	if err != nil {
		apiErr := asError(err)
		if apiErr.Kind == schema.KindUnauthorized {
			apiErr = apiErr.WithKind(schema.KindInvalidCredentials)
		}
		s.fail(apiErr.WithDefault(messageLoginFailed))
		s.logger.Warn().Str("kind", string(apiErr.Kind)).Int("status", apiErr.Status).Msg("login failed")
		return false
	}

	token := &oauth2.Token{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       tokenExpiry(response.AccessToken),
	}
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()

	user := &schema.User{}
	me := s.Request(transport.WithSkipAuth(ctx)).SetAuthToken(token.AccessToken)
	if err := Send(me, resty.MethodGet, MePath, user); err != nil {
		s.logger.Warn().Err(err).Msg("unable to fetch current user")
	} else {
		s.mu.Lock()
		s.user = user
		s.mu.Unlock()
	}
	s.persist(ctx)
	s.logger.Info().Str("identifier", identifier).Msg("logged in")
	return true
}

// Register creates a new account; it does not log in.
func (s *Session) Register(ctx context.Context, email, password, firstName string, lastName *string) bool {
	s.begin()
	defer s.end()

	created := &schema.User{}
	request := s.Request(transport.WithSkipAuth(ctx)).SetBody(&schema.UserCreate{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	err := Send(request, resty.MethodPost, RegisterPath, created)
	if err == nil && created.ID == 0 {
		err = schema.NewMalformedError(http.StatusOK, "", errors.New("no user id received"))
	}
	if err != nil {
		apiErr := asError(err)
		s.fail(apiErr.WithDefault(messageRegistrationFailed))
		s.logger.Warn().Str("kind", string(apiErr.Kind)).Int("status", apiErr.Status).Msg("registration failed")
		return false
	}
	s.logger.Info().Int("id", created.ID).Msg("registered")
	return true
}

// Refresh renews the access token. Concurrent callers holding the same
// refresh token share a single backend call. On failure the session is
// logged out and the error is set to the session expired message.
func (s *Session) Refresh(ctx context.Context) bool {
	refreshToken := s.refreshToken()
	if refreshToken == "" {
		s.logger.Debug().Msg("no refresh token available")
		_ = s.Logout(ctx)
		return false
	}
	result, _, shared := s.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), refreshToken), nil
	})
	if shared {
		s.logger.Debug().Msg("joined in-flight token refresh")
	}
	return result.(bool)
}

func (s *Session) refresh(ctx context.Context, refreshToken string) bool {
	response := &oauth2.Token{}
	request := s.Request(transport.WithSkipAuth(ctx)).SetBody(&schema.RefreshRequest{RefreshToken: refreshToken})
	err := Send(request, resty.MethodPost, RefreshPath, response)
	if err == nil && response.AccessToken == "" {
		err = schema.NewMalformedError(http.StatusOK, "", errors.New("refresh endpoint did not return access token"))
	}
	if err != nil {
		apiErr := asError(err)
		s.logger.Warn().Err(apiErr).Int("status", apiErr.Status).Msg("token refresh failed")
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.logger.Error().Err(logoutErr).Msg("failed to clear credentials")
		}
		s.fail(schema.NewSessionExpired(apiErr.Status, apiErr))
		return false
	}

	token := &oauth2.Token{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       tokenExpiry(response.AccessToken),
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	s.mu.Lock()
	// A logout or a new login while the refresh was in flight wins.
	if s.token == nil || s.token.RefreshToken != refreshToken {
		s.mu.Unlock()
		s.logger.Debug().Msg("credential changed during refresh, discarding refreshed token")
		return false
	}
	s.token = token
	s.mu.Unlock()
	s.persist(ctx)
	s.logger.Debug().Msg("token refreshed")
	return true
}

// Logout clears the credential, the user and any message, in memory and in the store.
// Calling it repeatedly has the same effect as calling it once.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.token != nil
	s.token = nil
	s.user = nil
	s.err = nil
	s.success = ""
	s.mu.Unlock()
	err := s.store.Clear(ctx)
	if wasAuthenticated {
		s.logger.Info().Msg("logged out")
	}
	s.changed()
	if err != nil {
		return fmt.Errorf("failed to clear credential store: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is present.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// AccessToken returns the current access token or an empty string.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

func (s *Session) refreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.RefreshToken
}

// User returns the logged in user when known.
func (s *Session) User() *schema.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// ExpiresAt returns the access token expiry claim; zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// Err returns the last recorded error or nil.
func (s *Session) Err() *schema.Error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) SuccessMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.success
}

// SetSuccessMessage records message and clears the error.
func (s *Session) SetSuccessMessage(message string) {
	s.mu.Lock()
	s.success = message
	s.err = nil
	s.mu.Unlock()
	s.changed()
}

func (s *Session) ClearMessages() {
	s.mu.Lock()
	s.success = ""
	s.err = nil
	s.mu.Unlock()
	s.changed()
}

// Loading reports whether login or registration is in progress.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := State{
		Authenticated:  s.token != nil && s.token.AccessToken != "",
		User:           s.user,
		Loading:        s.loading > 0,
		SuccessMessage: s.success,
	}
	if s.token != nil {
		ret.ExpiresAt = s.token.Expiry
	}
	if s.err != nil {
		ret.Error = s.err.Error()
	}
	return ret
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	return s.observers.Add(fn)
}

func (s *Session) changed() {
	state := s.State()
	for _, fn := range s.observers.Values() {
		fn(state)
	}
}

func (s *Session) begin() {
	s.mu.Lock()
	s.loading++
	s.err = nil
	s.success = ""
	s.mu.Unlock()
	s.changed()
}

func (s *Session) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
	s.changed()
}

func (s *Session) fail(err *schema.Error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.changed()
}

func (s *Session) persist(ctx context.Context) {
	s.mu.RLock()
	credentials := &store.Credentials{Token: s.token, User: s.user}
	s.mu.RUnlock()
	if err := s.store.Put(ctx, credentials); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist credentials")
	}
	s.changed()
}

func asError(err error) *schema.Error {
	var apiErr *schema.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return schema.NewNetworkError(err)
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

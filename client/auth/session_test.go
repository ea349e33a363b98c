package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kottesh/amuhacks/client/auth/mock"
	"github.com/kottesh/amuhacks/client/auth/store"
	"github.com/kottesh/amuhacks/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newSession(t *testing.T, opts ...mock.Option) (*Session, *mock.Service, store.Store) {
	t.Helper()
	server, service := mock.NewHTTPTestServer(opts...)
	t.Cleanup(server.Close)
	aStore := store.NewMemoryStore()
	session, err := New(context.Background(), mock.BaseURL(server), WithStore(aStore))
	require.NoError(t, err)
	return session, service, aStore
}

func TestSession_Login(t *testing.T) {
	var testCases = []struct {
		description   string
		identifier    string
		secret        string
		expect        bool
		expectKind    schema.ErrorKind
		expectMessage string
	}{
		{
			description: "valid credentials",
			identifier:  mock.DefaultEmail,
			secret:      mock.DefaultPassword,
			expect:      true,
		},
		{
			description:   "wrong password",
			identifier:    mock.DefaultEmail,
			secret:        "nope",
			expectKind:    schema.KindInvalidCredentials,
			expectMessage: "Incorrect email or password",
		},
		{
			description:   "missing field",
			identifier:    mock.DefaultEmail,
			expectKind:    schema.KindValidation,
			expectMessage: "username: field required",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			session, service, aStore := newSession(t)
			actual := session.Login(ctx, testCase.identifier, testCase.secret)
			assert.Equal(t, testCase.expect, actual)
			assert.Equal(t, testCase.expect, session.IsAuthenticated())
			assert.False(t, session.Loading())
			assert.Equal(t, 0, service.Calls(mock.RouteRefresh), "login must never trigger refresh")

			creds, err := aStore.Get(ctx)
			require.NoError(t, err)
			if !testCase.expect {
				require.NotNil(t, session.Err())
				assert.Equal(t, testCase.expectKind, session.Err().Kind)
				assert.Equal(t, testCase.expectMessage, session.Err().Error())
				assert.True(t, creds.IsEmpty(), "failed login must leave the store untouched")
				return
			}
			assert.Nil(t, session.Err())
			assert.NotEmpty(t, creds.AccessToken())
			assert.NotEmpty(t, creds.RefreshToken())
			assert.Equal(t, session.AccessToken(), creds.AccessToken())
			require.NotNil(t, session.User())
			assert.Equal(t, mock.DefaultEmail, session.User().Email)
			require.NotNil(t, creds.User)
			assert.Equal(t, mock.DefaultEmail, creds.User.Email)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), session.ExpiresAt(), time.Minute)
		})
	}
}

func TestSession_Login_NetworkFailure(t *testing.T) {
	server, _ := mock.NewHTTPTestServer()
	URL := mock.BaseURL(server)
	server.Close()

	session, err := New(context.Background(), URL)
	require.NoError(t, err)
	assert.False(t, session.Login(context.Background(), mock.DefaultEmail, mock.DefaultPassword))
	assert.False(t, session.IsAuthenticated())
	require.NotNil(t, session.Err())
	assert.True(t, errors.Is(session.Err(), schema.ErrNetwork))
	assert.NotEmpty(t, session.Err().Error())
}

func TestSession_Register(t *testing.T) {
	var testCases = []struct {
		description   string
		email         string
		password      string
		expect        bool
		expectMessage string
	}{
		{description: "new user", email: "ada@quid.app", password: "longenough", expect: true},
		{description: "short password", email: "ada@quid.app", password: "short", expectMessage: "password: ensure this value has at least 8 characters"},
		{description: "duplicate", email: mock.DefaultEmail, password: "longenough", expectMessage: "The user with this email already exists in the system."},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			session, service, _ := newSession(t)
			last := "Lovelace"
			actual := session.Register(context.Background(), testCase.email, testCase.password, "Ada", &last)
			assert.Equal(t, testCase.expect, actual)
			assert.False(t, session.IsAuthenticated(), "registration does not log in")
			if testCase.expect {
				assert.Nil(t, session.Err())
				require.NotNil(t, service.User(testCase.email))
				assert.Equal(t, "Ada", service.User(testCase.email).FirstName)
				return
			}
			require.NotNil(t, session.Err())
			assert.Equal(t, testCase.expectMessage, session.Err().Error())
		})
	}
}

func TestSession_RefreshAndRetry(t *testing.T) {
	ctx := context.Background()
	session, service, aStore := newSession(t)
	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	before, err := aStore.Get(ctx)
	require.NoError(t, err)

	service.ExpireAccessTokens()
	user := &schema.User{}
	require.NoError(t, Send(session.Request(ctx), resty.MethodGet, MePath, user))
	assert.Equal(t, mock.DefaultEmail, user.Email)
	assert.Equal(t, 1, service.Calls(mock.RouteRefresh))
	assert.Equal(t, 3, service.Calls(mock.RouteMe), "login fetch, rejected call and one replay")

	after, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken(), after.AccessToken())
	assert.NotEqual(t, before.RefreshToken(), after.RefreshToken(), "rotated refresh token must be persisted")
	assert.Equal(t, session.AccessToken(), after.AccessToken())
	assert.NotNil(t, after.User, "user survives refresh")
}

func TestSession_RefreshKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	session, service, aStore := newSession(t)
	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	before, _ := aStore.Get(ctx)

	service.Configure(func(b *mock.Behavior) { b.OmitRefreshToken = true })
	require.True(t, session.Refresh(ctx))
	after, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken(), after.AccessToken())
	assert.Equal(t, before.RefreshToken(), after.RefreshToken())
}

func TestSession_RefreshFailure(t *testing.T) {
	var testCases = []struct {
		description string
		configure   func(b *mock.Behavior)
	}{
		{description: "refresh rejected", configure: func(b *mock.Behavior) { b.FailRefresh = true }},
		{description: "refresh without access token", configure: func(b *mock.Behavior) { b.OmitAccessToken = true }},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			session, service, aStore := newSession(t)
			require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
			service.ExpireAccessTokens()
			service.Configure(testCase.configure)

			err := Send(session.Request(ctx), resty.MethodGet, "accounts/", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrUnauthorized), "original 401 is propagated")
			assert.Equal(t, 1, service.Calls(mock.RouteRefresh))
			assert.Equal(t, 1, service.Calls(mock.RouteListAccounts), "no retry after failed refresh")

			assert.False(t, session.IsAuthenticated())
			assert.Nil(t, session.User())
			require.NotNil(t, session.Err())
			assert.True(t, errors.Is(session.Err(), schema.ErrSessionExpired))
			assert.Equal(t, schema.MessageSessionExpired, session.State().Error)
			creds, err := aStore.Get(ctx)
			require.NoError(t, err)
			assert.True(t, creds.IsEmpty())
		})
	}
}

func TestSession_RefreshWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	server, service := mock.NewHTTPTestServer()
	defer server.Close()
	aStore := store.NewMemoryStore(&store.Credentials{Token: &oauth2.Token{AccessToken: "orphan"}})
	session, err := New(ctx, mock.BaseURL(server), WithStore(aStore))
	require.NoError(t, err)
	require.True(t, session.IsAuthenticated())

	assert.False(t, session.Refresh(ctx))
	assert.False(t, session.IsAuthenticated())
	assert.Equal(t, 0, service.Calls(mock.RouteRefresh), "no network call without refresh token")
}

func TestSession_ConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	session, service, _ := newSession(t)
	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	service.ExpireAccessTokens()
	service.Configure(func(b *mock.Behavior) { b.RefreshDelay = 200 * time.Millisecond })

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Send(session.Request(ctx), resty.MethodGet, MePath, &schema.User{})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, service.Calls(mock.RouteRefresh))
	assert.True(t, session.IsAuthenticated())
}

func TestSession_LogoutDuringRefresh(t *testing.T) {
	ctx := context.Background()
	session, service, aStore := newSession(t)
	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	service.ExpireAccessTokens()
	service.Configure(func(b *mock.Behavior) { b.RefreshDelay = 200 * time.Millisecond })

	done := make(chan error, 1)
	go func() {
		done <- Send(session.Request(ctx), resty.MethodGet, MePath, &schema.User{})
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, session.Logout(ctx))

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrUnauthorized))
	assert.Equal(t, 1, service.Calls(mock.RouteRefresh))
	assert.False(t, session.IsAuthenticated(), "logout must not be undone by the refresh")
	creds, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.True(t, creds.IsEmpty())
}

func TestSession_LoginWithRejectedCurrentUser(t *testing.T) {
	ctx := context.Background()
	session, service, aStore := newSession(t)
	service.Configure(func(b *mock.Behavior) { b.RejectCurrentUser = true })

	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	assert.True(t, session.IsAuthenticated())
	assert.Nil(t, session.User())
	assert.Equal(t, 1, service.Calls(mock.RouteMe))
	assert.Equal(t, 0, service.Calls(mock.RouteRefresh), "user lookup during login never refreshes")
	creds, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken(), creds.AccessToken())
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()
	session, _, aStore := newSession(t)
	require.True(t, session.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))
	session.SetSuccessMessage("Welcome back")

	var states []State
	cancel := session.Subscribe(func(state State) { states = append(states, state) })
	defer cancel()

	require.NoError(t, session.Logout(ctx))
	first := session.State()
	require.NoError(t, session.Logout(ctx))
	assert.Equal(t, first, session.State(), "logout twice equals once")

	assert.False(t, first.Authenticated)
	assert.Nil(t, first.User)
	assert.Empty(t, first.SuccessMessage)
	assert.Empty(t, first.Error)
	creds, err := aStore.Get(ctx)
	require.NoError(t, err)
	assert.True(t, creds.IsEmpty())
	require.NotEmpty(t, states)
	assert.False(t, states[len(states)-1].Authenticated)
}

func TestSession_Messages(t *testing.T) {
	session, _, _ := newSession(t)
	assert.False(t, session.Login(context.Background(), mock.DefaultEmail, "bad"))
	require.NotNil(t, session.Err())

	session.SetSuccessMessage("Registration successful! Please login.")
	assert.Nil(t, session.Err(), "success clears error")
	assert.Equal(t, "Registration successful! Please login.", session.SuccessMessage())

	session.ClearMessages()
	assert.Empty(t, session.SuccessMessage())
	assert.Nil(t, session.Err())
}

func TestSession_RestoresFromStore(t *testing.T) {
	ctx := context.Background()
	server, _ := mock.NewHTTPTestServer()
	defer server.Close()
	aStore := store.NewMemoryStore()

	first, err := New(ctx, mock.BaseURL(server), WithStore(aStore))
	require.NoError(t, err)
	require.True(t, first.Login(ctx, mock.DefaultEmail, mock.DefaultPassword))

	second, err := New(ctx, mock.BaseURL(server), WithStore(aStore))
	require.NoError(t, err)
	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, first.AccessToken(), second.AccessToken())
	require.NotNil(t, second.User())
	assert.Equal(t, mock.DefaultEmail, second.User().Email)
	assert.False(t, second.ExpiresAt().IsZero())

	resp, err := second.HTTPClient().Get(mock.BaseURL(server) + MePath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	mu        sync.Mutex
	token     string
	renewed   string
	succeed   bool
	refreshes int
}

func (f *fakeAuth) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAuth) Refresh(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if !f.succeed {
		return false
	}
	f.token = f.renewed
	return true
}

// backend accepts only the "good" bearer and echoes the request body.
func backend(t *testing.T, hits *[]string) *httptest.Server {
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*hits = append(*hits, r.URL.Path+" "+r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
}

func TestRoundTripper(t *testing.T) {
	var testCases = []struct {
		description   string
		auth          *fakeAuth
		path          string
		ctx           func() context.Context
		header        string
		expectStatus  int
		expectRefresh int
		expectHits    []string
	}{
		{
			description:   "valid token attached",
			auth:          &fakeAuth{token: "good"},
			path:          "/accounts/",
			expectStatus:  http.StatusOK,
			expectRefresh: 0,
			expectHits:    []string{"/accounts/ Bearer good"},
		},
		{
			description:   "expired token refreshed and replayed once",
			auth:          &fakeAuth{token: "stale", renewed: "good", succeed: true},
			path:          "/accounts/",
			expectStatus:  http.StatusOK,
			expectRefresh: 1,
			expectHits:    []string{"/accounts/ Bearer stale", "/accounts/ Bearer good"},
		},
		{
			description:   "failed refresh propagates original 401",
			auth:          &fakeAuth{token: "stale"},
			path:          "/accounts/",
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 1,
			expectHits:    []string{"/accounts/ Bearer stale"},
		},
		{
			description:   "renewed token still rejected is not retried again",
			auth:          &fakeAuth{token: "stale", renewed: "other", succeed: true},
			path:          "/accounts/",
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 1,
			expectHits:    []string{"/accounts/ Bearer stale", "/accounts/ Bearer other"},
		},
		{
			description:   "refresh endpoint never intercepted",
			auth:          &fakeAuth{token: "stale", renewed: "good", succeed: true},
			path:          "/api/v1/auth/refresh",
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 0,
			expectHits:    []string{"/api/v1/auth/refresh "},
		},
		{
			description:   "skip marker bypasses both hooks",
			auth:          &fakeAuth{token: "good", succeed: true},
			path:          "/auth/login",
			ctx:           func() context.Context { return WithSkipAuth(context.Background()) },
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 0,
			expectHits:    []string{"/auth/login "},
		},
		{
			description:   "already retried request not refreshed",
			auth:          &fakeAuth{token: "stale", renewed: "good", succeed: true},
			path:          "/accounts/",
			ctx:           func() context.Context { return WithRetried(context.Background()) },
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 0,
			expectHits:    []string{"/accounts/ Bearer stale"},
		},
		{
			description:   "explicit header preserved",
			auth:          &fakeAuth{token: "stale"},
			path:          "/accounts/",
			header:        "Bearer good",
			expectStatus:  http.StatusOK,
			expectRefresh: 0,
			expectHits:    []string{"/accounts/ Bearer good"},
		},
		{
			description:   "no token sends anonymously",
			auth:          &fakeAuth{},
			path:          "/accounts/",
			expectStatus:  http.StatusUnauthorized,
			expectRefresh: 1,
			expectHits:    []string{"/accounts/ "},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			var hits []string
			server := backend(t, &hits)
			defer server.Close()

			ctx := context.Background()
			if testCase.ctx != nil {
				ctx = testCase.ctx()
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+testCase.path, strings.NewReader(`{"name":"Checking"}`))
			require.NoError(t, err)
			if testCase.header != "" {
				req.Header.Set("Authorization", testCase.header)
			}
			client := &http.Client{Transport: New(testCase.auth)}
			resp, err := client.Do(req)
			require.NoError(t, err, testCase.description)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.EqualValues(t, testCase.expectStatus, resp.StatusCode, testCase.description)
			assert.EqualValues(t, testCase.expectRefresh, testCase.auth.refreshes, testCase.description)
			assert.EqualValues(t, testCase.expectHits, hits, testCase.description)
			if resp.StatusCode == http.StatusOK {
				assert.Equal(t, `{"name":"Checking"}`, string(body), "body must be replayed intact")
			} else {
				assert.Contains(t, string(body), "Could not validate credentials")
			}
		})
	}
}

func TestRoundTripper_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	URL := server.URL
	server.Close()

	auth := &fakeAuth{token: "good", succeed: true}
	client := &http.Client{Transport: New(auth)}
	resp, err := client.Get(URL + "/accounts/")
	if resp != nil {
		_ = resp.Body.Close()
	}
	assert.Error(t, err)
	assert.Equal(t, 0, auth.refreshes)
}

func TestPendingRequest_Request(t *testing.T) {
	req, err := http.NewRequest(http.MethodPut, "http://localhost/accounts/1", strings.NewReader("payload"))
	require.NoError(t, err)
	req.Header.Set("X-Trace", "1")
	pending, err := NewPendingRequest(req)
	require.NoError(t, err)

	first := pending.Request()
	first.Header.Set("Authorization", "Bearer a")
	second := pending.Request()
	assert.Empty(t, second.Header.Get("Authorization"), "clones must not share headers")
	assert.Equal(t, "1", second.Header.Get("X-Trace"))

	data, err := io.ReadAll(second.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.EqualValues(t, len("payload"), second.ContentLength)
	assert.False(t, IsRetried(second.Context()))

	pending.Retried = true
	assert.True(t, IsRetried(pending.Request().Context()))
}

func TestRoundTripper_RenewedWhileInFlight(t *testing.T) {
	auth := &fakeAuth{token: "stale", succeed: true, renewed: "unused"}
	var hits []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer good" {
			// another caller renews the credential before this 401 is seen
			auth.mu.Lock()
			auth.token = "good"
			auth.mu.Unlock()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := &http.Client{Transport: New(auth)}
	resp, err := client.Get(server.URL + "/transactions/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, auth.refreshes, "renewed credential must be reused without another refresh")
	assert.Equal(t, []string{"Bearer stale", "Bearer good"}, hits)
}

package transport

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshPath identifies the refresh endpoint.
const DefaultRefreshPath = "/auth/refresh"

// Authenticator supplies the current access token and renews it.
// Refresh must be safe to call from within RoundTrip.
type Authenticator interface {
	AccessToken() string
	Refresh(ctx context.Context) bool
}

type RoundTripper struct {
	auth        Authenticator
	transport   http.RoundTripper
	refreshPath string
	logger      zerolog.Logger
}

func New(auth Authenticator, options ...Option) *RoundTripper {
	ret := &RoundTripper{
		auth:        auth,
		transport:   http.DefaultTransport,
		refreshPath: DefaultRefreshPath,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	pending, err := NewPendingRequest(req)
	if err != nil {
		return nil, err
	}

	// 1) Pre-send: attach the current credential.
	r.authorize(pending)

	// 2) Send.
	resp, err := r.transport.RoundTrip(pending.Request())
	if err != nil {
		return nil, err
	}

	// 3) Post-receive: anything but a recoverable 401 passes through.
	if !r.recoverable(pending, resp) {
		return resp, nil
	}
	pending.Retried = true
	r.logger.Debug().Str("method", pending.Method).Str("path", pending.Path).
		Msg("access token rejected, attempting refresh")

	// A concurrent caller may have renewed the credential while this request was in flight.
	if current := r.auth.AccessToken(); pending.attached == "" || current == "" || current == pending.attached {
		if !r.auth.Refresh(pending.Context()) {
			r.logger.Warn().Str("path", pending.Path).Msg("token refresh failed, request cannot be retried")
			return resp, nil
		}
	}
	// Close the prior body so we don't leak.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	// 4) Replay once with the renewed credential.
	retry := pending.Request()
	if token := r.auth.AccessToken(); token != "" {
		retry.Header.Set("Authorization", "Bearer "+token)
	}
	r.logger.Debug().Str("method", pending.Method).Str("path", pending.Path).Msg("retrying request with refreshed token")
	return r.transport.RoundTrip(retry)
}

func (r *RoundTripper) authorize(pending *PendingRequest) {
	if IsSkipAuth(pending.Context()) || r.isRefresh(pending.Path) {
		return
	}
	if pending.Header.Get("Authorization") != "" {
		return
	}
	if token := r.auth.AccessToken(); token != "" {
		pending.Header.Set("Authorization", "Bearer "+token)
		pending.attached = token
	}
}

func (r *RoundTripper) recoverable(pending *PendingRequest, resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	return !pending.Retried && !IsSkipAuth(pending.Context()) && !r.isRefresh(pending.Path)
}

func (r *RoundTripper) isRefresh(path string) bool {
	if r.refreshPath == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(path, "/"), strings.TrimSuffix(r.refreshPath, "/"))
}

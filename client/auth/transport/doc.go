// Package transport implements the authenticated request pipeline as an
// http.RoundTripper.
//
// Every request passes through a fixed sequence: a pre-send hook attaches the
// current bearer token, the inner transport sends the request, and a
// post-receive hook recovers from a 401 Unauthorized by refreshing the
// credential and replaying the request exactly once.
//
// Calls that must not be intercepted (the refresh call itself, login) carry a
// skip marker on their context, see WithSkipAuth.
package transport

// Package auth owns the authenticated session of a Quid API client.
//
// A Session holds the current credential, performs login, registration,
// refresh and logout, and hands out resty requests that travel through the
// transport pipeline. When a request is rejected with 401 Unauthorized the
// pipeline asks the Session to refresh, and the call is transparently retried
// once with the renewed access token.
//
// Concurrent refresh attempts share a single round trip to the backend.
package auth

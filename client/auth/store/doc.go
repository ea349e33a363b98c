// Package store persists the credential of an authenticated session: the
// access token, the refresh token and the serialized user.
//
// All backends share one layout of three string keys which are written,
// read and cleared together. The in-memory store suits tests and short lived
// processes; the disk and file stores survive restarts.
package store

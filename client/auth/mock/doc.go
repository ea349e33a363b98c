// Package mock provides an in-memory fake of the Quid backend that
// facilitates testing of the client-side authentication flow and the domain
// calls built on top of it.
//
// The fake issues signed JWT access and refresh tokens, can expire or refuse
// them on demand, and serves users, accounts and transactions from memory.
package mock

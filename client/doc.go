// Package client provides typed calls to the Quid backend: the current user,
// accounts, transactions and free-text transaction parsing.
//
// Every call is built from an auth.Session request so it carries the current
// bearer credential and recovers from an expired access token transparently.
// Failures are returned as *schema.Error.
//
// Example:
//
//	session, _ := auth.New(ctx, "http://localhost:4321/api/v1/")
//	session.Login(ctx, "demo@quid.app", "password123")
//	cli := client.New(session)
//	accounts, _ := cli.ListAccounts(ctx)
package client

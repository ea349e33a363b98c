// Package cli implements the quid command line front end: login, registration,
// account and transaction listings, manual entry and free-text parsing. Every
// command is a guarded route; protected commands require a stored session.
package cli

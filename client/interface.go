package client

import (
	"context"

	"github.com/kottesh/amuhacks/schema"
)

// Interface defines the domain operations exposed by Client
type Interface interface {
	// Me returns the logged in user
	Me(ctx context.Context) (*schema.User, error)

	// ListAccounts lists the user's accounts
	ListAccounts(ctx context.Context) ([]schema.Account, error)

	// GetAccount gets an account
	GetAccount(ctx context.Context, id int) (*schema.Account, error)

	// CreateAccount creates an account
	CreateAccount(ctx context.Context, account *schema.AccountCreate) (*schema.Account, error)

	// UpdateAccount updates an account
	UpdateAccount(ctx context.Context, id int, update *schema.AccountUpdate) (*schema.Account, error)

	// ListTransactions lists transactions matching query
	ListTransactions(ctx context.Context, query *schema.TransactionQuery) ([]schema.Transaction, error)

	// GetTransaction gets a transaction
	GetTransaction(ctx context.Context, id int) (*schema.Transaction, error)

	// CreateTransaction creates a transaction
	CreateTransaction(ctx context.Context, transaction *schema.TransactionCreate) (*schema.Transaction, error)

	// UpdateTransaction updates a transaction
	UpdateTransaction(ctx context.Context, id int, update *schema.TransactionUpdate) (*schema.Transaction, error)

	// DeleteTransaction deletes a transaction
	DeleteTransaction(ctx context.Context, id int) (*schema.Transaction, error)

	// ParseTransactions extracts transactions from free text without saving them
	ParseTransactions(ctx context.Context, text string) ([]schema.ParsedTransaction, error)
}

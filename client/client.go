package client

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/kottesh/amuhacks/client/auth"
	"github.com/kottesh/amuhacks/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	accountsPath     = "accounts/"
	transactionsPath = "transactions/"
	parsePath        = "transactions/parse"
)

type Client struct {
	session *auth.Session
	logger  zerolog.Logger
}

// Session returns the underlying session.
func (c *Client) Session() *auth.Session {
	return c.session
}

func (c *Client) Me(ctx context.Context) (*schema.User, error) {
	return send[schema.User](ctx, c, resty.MethodGet, auth.MePath, nil, nil)
}

func (c *Client) ListAccounts(ctx context.Context) ([]schema.Account, error) {
	ret, err := send[[]schema.Account](ctx, c, resty.MethodGet, accountsPath, nil, nil)
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

func (c *Client) GetAccount(ctx context.Context, id int) (*schema.Account, error) {
	return send[schema.Account](ctx, c, resty.MethodGet, accountsPath+strconv.Itoa(id), nil, nil)
}

func (c *Client) CreateAccount(ctx context.Context, account *schema.AccountCreate) (*schema.Account, error) {
	return send[schema.Account](ctx, c, resty.MethodPost, accountsPath, account, nil)
}

func (c *Client) UpdateAccount(ctx context.Context, id int, update *schema.AccountUpdate) (*schema.Account, error) {
	return send[schema.Account](ctx, c, resty.MethodPut, accountsPath+strconv.Itoa(id), update, nil)
}

func (c *Client) ListTransactions(ctx context.Context, query *schema.TransactionQuery) ([]schema.Transaction, error) {
	ret, err := send[[]schema.Transaction](ctx, c, resty.MethodGet, transactionsPath, nil, query.Params())
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int) (*schema.Transaction, error) {
	return send[schema.Transaction](ctx, c, resty.MethodGet, transactionsPath+strconv.Itoa(id), nil, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, transaction *schema.TransactionCreate) (*schema.Transaction, error) {
	return send[schema.Transaction](ctx, c, resty.MethodPost, transactionsPath, transaction, nil)
}

func (c *Client) UpdateTransaction(ctx context.Context, id int, update *schema.TransactionUpdate) (*schema.Transaction, error) {
	return send[schema.Transaction](ctx, c, resty.MethodPut, transactionsPath+strconv.Itoa(id), update, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int) (*schema.Transaction, error) {
	return send[schema.Transaction](ctx, c, resty.MethodDelete, transactionsPath+strconv.Itoa(id), nil, nil)
}

func (c *Client) ParseTransactions(ctx context.Context, text string) ([]schema.ParsedTransaction, error) {
	ret, err := send[[]schema.ParsedTransaction](ctx, c, resty.MethodPost, parsePath, &schema.ParseRequest{Text: text}, nil)
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

func send[R any](ctx context.Context, c *Client, method, path string, body interface{}, query map[string]string) (*R, error) {
	request := c.session.Request(ctx)
	if body != nil {
		request.SetBody(body)
	}
	if len(query) > 0 {
		request.SetQueryParams(query)
	}
	var result R
	if err := auth.Send(request, method, path, &result); err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, err
	}
	return &result, nil
}

// New creates a client over session
func New(session *auth.Session, options ...Option) *Client {
	ret := &Client{session: session, logger: log.Logger}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var _ Interface = (*Client)(nil)

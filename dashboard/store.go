package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kottesh/amuhacks/client"
	"github.com/kottesh/amuhacks/client/auth"
	"github.com/kottesh/amuhacks/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRecentLimit is the number of transactions fetched for the recent list.
	DefaultRecentLimit = 30
	// RangeLimit caps chart and date-range fetches.
	RangeLimit = 1000
	// ChartDays is the chart window length including today.
	ChartDays = 7

	recentSort = "-transaction_date"
)

const (
	MessageNoTransactions  = "No transactions found in the text."
	MessageSelectAccount   = "Please select an account."
	messageAccounts        = "Failed to fetch accounts"
	messageRecent          = "Failed to fetch recent transactions"
	messageChart           = "Failed to fetch chart data"
	messageFiltered        = "Failed to fetch filtered transactions"
	messageCreateAccount   = "Failed to create account"
	messageParse           = "Failed to parse transactions"
	messageSaveTransaction = "Failed to save transaction"
)

var (
	// ErrNoTransactions is returned when parsing found nothing.
	ErrNoTransactions = errors.New(MessageNoTransactions)
	// ErrNoAccount is returned when saving a review item without a selected account.
	ErrNoAccount = errors.New(MessageSelectAccount)
	// ErrOutOfRange is returned for a review index that does not exist.
	ErrOutOfRange = errors.New("review item index out of range")
)

// Watcher publishes session changes.
type Watcher interface {
	Subscribe(fn func(auth.State)) (cancel func())
}

// Store holds dashboard data; it is safe for concurrent use.
// Network calls never run under the lock.
type Store struct {
	client client.Interface
	clock  clockwork.Clock
	logger zerolog.Logger

	mu           sync.RWMutex
	accounts     []schema.Account
	recent       []schema.Transaction
	filtered     []schema.Transaction
	chart        []schema.Transaction
	parsed       []*ReviewItem
	loading      int
	loadingChart int
	loadingParse int
	err          string
}

func New(cli client.Interface, options ...Option) *Store {
	ret := &Store{client: cli, clock: clockwork.NewRealClock(), logger: log.Logger}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Watch clears the store whenever the session reports it is no longer authenticated.
func (s *Store) Watch(watcher Watcher) (cancel func()) {
	return watcher.Subscribe(func(state auth.State) {
		if !state.Authenticated {
			s.ClearData()
		}
	})
}

// FetchAccounts replaces the account list; on failure the list is emptied.
func (s *Store) FetchAccounts(ctx context.Context) error {
	s.setError("")
	return s.fetchAccounts(ctx)
}

func (s *Store) fetchAccounts(ctx context.Context) error {
	s.track(&s.loading, 1)
	defer s.track(&s.loading, -1)
	accounts, err := s.client.ListAccounts(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.accounts = nil
		s.err = message(err, messageAccounts)
		return err
	}
	s.accounts = accounts
	return nil
}

// FetchRecentTransactions replaces the recent list with the newest limit transactions.
func (s *Store) FetchRecentTransactions(ctx context.Context, limit int) error {
	s.setError("")
	return s.fetchRecent(ctx, limit)
}

func (s *Store) fetchRecent(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	transactions, err := s.client.ListTransactions(ctx, &schema.TransactionQuery{Limit: limit, Sort: recentSort})
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.recent = nil
		s.err = message(err, messageRecent)
		return err
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.ID > b.ID
	})
	s.recent = transactions
	return nil
}

// ChartWindow returns the start of the day six days ago and the end of today, in UTC.
func (s *Store) ChartWindow() (time.Time, time.Time) {
	now := s.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(ChartDays - 1))
	end := today.Add(24*time.Hour - time.Second)
	return start, end
}

// FetchChartData replaces the chart list with the transactions of the chart window.
func (s *Store) FetchChartData(ctx context.Context) error {
	s.setError("")
	return s.fetchChart(ctx)
}

func (s *Store) fetchChart(ctx context.Context) error {
	s.track(&s.loadingChart, 1)
	defer s.track(&s.loadingChart, -1)
	s.mu.Lock()
	s.chart = nil
	s.mu.Unlock()

	start, end := s.ChartWindow()
	transactions, err := s.client.ListTransactions(ctx, &schema.TransactionQuery{StartDate: start, EndDate: end, Limit: RangeLimit})
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = message(err, messageChart)
		return err
	}
	s.chart = transactions
	return nil
}

// FetchTransactionsByDateRange replaces the filtered list.
func (s *Store) FetchTransactionsByDateRange(ctx context.Context, start, end time.Time) error {
	s.track(&s.loading, 1)
	defer s.track(&s.loading, -1)
	s.mu.Lock()
	s.err = ""
	s.filtered = nil
	s.mu.Unlock()

	transactions, err := s.client.ListTransactions(ctx, &schema.TransactionQuery{StartDate: start, EndDate: end, Limit: RangeLimit})
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = message(err, messageFiltered)
		return err
	}
	s.filtered = transactions
	return nil
}

// FetchInitialData loads accounts, recent transactions and chart data in parallel.
// Every fetch runs to completion; the first error is returned.
func (s *Store) FetchInitialData(ctx context.Context) error {
	s.track(&s.loading, 1)
	defer s.track(&s.loading, -1)
	s.setError("")
	return s.refreshAll(ctx)
}

func (s *Store) refreshAll(ctx context.Context) error {
	var group errgroup.Group
	group.Go(func() error { return s.fetchAccounts(ctx) })
	group.Go(func() error { return s.fetchRecent(ctx, DefaultRecentLimit) })
	group.Go(func() error { return s.fetchChart(ctx) })
	return group.Wait()
}

// AddAccount creates an account and re-fetches the account list.
func (s *Store) AddAccount(ctx context.Context, account *schema.AccountCreate) error {
	s.track(&s.loading, 1)
	defer s.track(&s.loading, -1)
	s.setError("")

	created, err := s.client.CreateAccount(ctx, account)
	if err != nil {
		s.setError(message(err, messageCreateAccount))
		return err
	}
	s.logger.Debug().Int("id", created.ID).Msg("account created")
	return s.fetchAccounts(ctx)
}

// ParseTransactions sends text to the parser and replaces the review list.
// An empty result is reported as ErrNoTransactions.
func (s *Store) ParseTransactions(ctx context.Context, text string) error {
	s.track(&s.loadingParse, 1)
	defer s.track(&s.loadingParse, -1)
	s.mu.Lock()
	s.err = ""
	s.parsed = nil
	s.mu.Unlock()

	parsed, err := s.client.ParseTransactions(ctx, text)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = message(err, messageParse)
		return err
	}
	if len(parsed) == 0 {
		s.err = MessageNoTransactions
		return ErrNoTransactions
	}
	items := make([]*ReviewItem, 0, len(parsed))
	for _, item := range parsed {
		items = append(items, newReviewItem(item))
	}
	s.parsed = items
	return nil
}

// CreateTransaction saves transaction then refreshes recent, accounts and chart data.
func (s *Store) CreateTransaction(ctx context.Context, transaction *schema.TransactionCreate) error {
	s.setError("")
	created, err := s.client.CreateTransaction(ctx, transaction)
	if err != nil {
		s.setError(message(err, messageSaveTransaction))
		return err
	}
	s.logger.Debug().Int("id", created.ID).Msg("transaction created")
	return s.refreshAll(ctx)
}

// SaveParsedTransaction saves the review item at index to its selected account
// and removes it from the review list. On failure the item keeps a save error.
func (s *Store) SaveParsedTransaction(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.parsed) {
		s.mu.Unlock()
		return ErrOutOfRange
	}
	item := s.parsed[index]
	if item.AccountID == 0 {
		item.SaveError = MessageSelectAccount
		s.mu.Unlock()
		return ErrNoAccount
	}
	item.Saving = true
	item.SaveError = ""
	request, err := item.toCreate()
	if err != nil {
		item.Saving = false
		item.SaveError = err.Error()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	created, err := s.client.CreateTransaction(ctx, request)
	if err != nil {
		text := message(err, messageSaveTransaction)
		s.mu.Lock()
		item.Saving = false
		item.SaveError = text
		s.err = text
		s.mu.Unlock()
		return err
	}
	s.logger.Debug().Int("id", created.ID).Str("tempID", item.TempID).Msg("parsed transaction saved")
	s.mu.Lock()
	for i, candidate := range s.parsed {
		if candidate.TempID == item.TempID {
			s.parsed = append(s.parsed[:i], s.parsed[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return s.refreshAll(ctx)
}

func (s *Store) ClearParsedTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parsed = nil
}

// RemoveParsedTransaction drops the review item at index, ignoring invalid indexes.
func (s *Store) RemoveParsedTransaction(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.parsed) {
		s.parsed = append(s.parsed[:index], s.parsed[index+1:]...)
	}
}

func (s *Store) SetParsedTransactionStatus(index int, status Status) {
	s.updateItem(index, func(item *ReviewItem) {
		if status.Saving != nil {
			item.Saving = *status.Saving
		}
		if status.SaveError != nil {
			item.SaveError = *status.SaveError
		}
	})
}

func (s *Store) SetParsedTransactionAccount(index int, accountID int) {
	s.updateItem(index, func(item *ReviewItem) {
		item.AccountID = accountID
		if item.SaveError == MessageSelectAccount {
			item.SaveError = ""
		}
	})
}

func (s *Store) SetParsedTransactionDateFormatted(index int, formatted string) {
	s.updateItem(index, func(item *ReviewItem) {
		item.DateFormatted = formatted
	})
}

func (s *Store) updateItem(index int, fn func(item *ReviewItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.parsed) {
		fn(s.parsed[index])
	}
}

func (s *Store) ClearFilteredTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered = nil
}

// ClearData drops every list, the error and the loading flags.
func (s *Store) ClearData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.recent = nil
	s.filtered = nil
	s.chart = nil
	s.parsed = nil
	s.err = ""
	s.loading, s.loadingChart, s.loadingParse = 0, 0, 0
}

func (s *Store) Accounts() []schema.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.Account(nil), s.accounts...)
}

func (s *Store) RecentTransactions() []schema.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.Transaction(nil), s.recent...)
}

func (s *Store) FilteredTransactions() []schema.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.Transaction(nil), s.filtered...)
}

func (s *Store) ChartTransactions() []schema.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.Transaction(nil), s.chart...)
}

// ParsedTransactions returns copies of the review items.
func (s *Store) ParsedTransactions() []ReviewItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]ReviewItem, 0, len(s.parsed))
	for _, item := range s.parsed {
		ret = append(ret, *item)
	}
	return ret
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

func (s *Store) LoadingChart() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingChart > 0
}

func (s *Store) LoadingParse() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingParse > 0
}

// Err returns the last error message or an empty string.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) setError(text string) {
	s.mu.Lock()
	s.err = text
	s.mu.Unlock()
}

func (s *Store) track(counter *int, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter += delta
	if *counter < 0 {
		*counter = 0
	}
}

func message(err error, fallback string) string {
	var apiErr *schema.Error
	if errors.As(err, &apiErr) {
		return apiErr.WithDefault(fallback).Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/kottesh/amuhacks/client"
	"github.com/kottesh/amuhacks/client/auth"
	"github.com/kottesh/amuhacks/dashboard"
	"github.com/kottesh/amuhacks/guard"
	"github.com/kottesh/amuhacks/schema"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
)

const appName = "quid"

// Prompter reads a value from the user; mask hides the input.
type Prompter func(label string, mask bool) (string, error)

func promptSecret(label string, mask bool) (string, error) {
	prompt := promptui.Prompt{Label: label}
	if mask {
		prompt.Mask = '*'
	}
	return prompt.Run()
}

// App executes one command against a session.
type App struct {
	options   *Options
	session   *auth.Session
	client    *client.Client
	dashboard *dashboard.Store
	guard     *guard.Guard
	out       io.Writer
	prompt    Prompter
	logger    zerolog.Logger
}

// Execute runs the named command once the guard admits it.
func (a *App) Execute(ctx context.Context, command string) error {
	if err := a.guard.Enter(command); err != nil {
		var redirect *guard.RedirectError
		if errors.As(err, &redirect) && redirect.Decision.Redirect == guard.RouteLogin {
			return fmt.Errorf("%w, run '%v login' first", err, appName)
		}
		return err
	}
	switch command {
	case "login":
		return a.login(ctx)
	case "register":
		return a.register(ctx)
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status()
	case "accounts":
		return a.accounts(ctx)
	case "add-account":
		return a.addAccount(ctx)
	case "transactions":
		return a.transactions(ctx)
	case "add":
		return a.add(ctx)
	case "parse":
		return a.parse(ctx)
	case "dashboard":
		return a.overview(ctx)
	}
	return fmt.Errorf("unsupported command: %v", command)
}

func (a *App) login(ctx context.Context) error {
	cmd := a.options.Login
	var err error
	if cmd.Email == "" {
		if cmd.Email, err = a.prompt("Email", false); err != nil {
			return err
		}
	}
	if cmd.Password == "" {
		if cmd.Password, err = a.prompt("Password", true); err != nil {
			return err
		}
	}
	if !a.session.Login(ctx, cmd.Email, cmd.Password) {
		return a.sessionErr()
	}
	_, err = fmt.Fprintf(a.out, "Logged in as %v\n", a.displayName())
	return err
}

func (a *App) register(ctx context.Context) error {
	cmd := a.options.Register
	if cmd.Password == "" {
		var err error
		if cmd.Password, err = a.prompt("Password", true); err != nil {
			return err
		}
	}
	var lastName *string
	if cmd.LastName != "" {
		lastName = &cmd.LastName
	}
	if !a.session.Register(ctx, cmd.Email, cmd.Password, cmd.FirstName, lastName) {
		return a.sessionErr()
	}
	a.session.SetSuccessMessage("Registration successful! Please login.")
	_, err := fmt.Fprintln(a.out, a.session.SuccessMessage())
	return err
}

func (a *App) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "Logged out")
	return err
}

func (a *App) status() error {
	state := a.session.State()
	if !state.Authenticated {
		_, err := fmt.Fprintln(a.out, "Not logged in")
		return err
	}
	table := newTable(a.out, "Field", "Value")
	table.Append([]string{"User", a.displayName()})
	if state.User != nil {
		table.Append([]string{"Email", state.User.Email})
	}
	expires := "unknown"
	if !state.ExpiresAt.IsZero() {
		expires = state.ExpiresAt.UTC().Format(time.RFC3339)
	}
	table.Append([]string{"Access expires", expires})
	table.Append([]string{"API", a.session.BaseURL()})
	table.Render()
	return nil
}

func (a *App) accounts(ctx context.Context) error {
	if err := a.dashboard.FetchAccounts(ctx); err != nil {
		return a.dashboardErr(err)
	}
	renderAccounts(a.out, a.dashboard.Accounts())
	return nil
}

func (a *App) addAccount(ctx context.Context) error {
	cmd := a.options.AddAccount
	request := &schema.AccountCreate{Name: cmd.Name, Type: cmd.Type, Balance: cmd.Balance}
	if err := a.dashboard.AddAccount(ctx, request); err != nil {
		return a.dashboardErr(err)
	}
	renderAccounts(a.out, a.dashboard.Accounts())
	return nil
}

func (a *App) transactions(ctx context.Context) error {
	cmd := a.options.Transactions
	query := &schema.TransactionQuery{
		Skip:      cmd.Skip,
		Limit:     cmd.Limit,
		AccountID: cmd.Account,
		Category:  cmd.Category,
		Sort:      "-transaction_date",
	}
	var err error
	if cmd.Type != "" {
		if query.Type, err = schema.ParseTransactionType(cmd.Type); err != nil {
			return err
		}
	}
	if cmd.From != "" {
		if query.StartDate, err = parseDate(cmd.From); err != nil {
			return err
		}
	}
	if cmd.To != "" {
		if query.EndDate, err = parseDate(cmd.To); err != nil {
			return err
		}
		query.EndDate = query.EndDate.Add(24*time.Hour - time.Second)
	}
	transactions, err := a.client.ListTransactions(ctx, query)
	if err != nil {
		return err
	}
	renderTransactions(a.out, transactions)
	return nil
}

func (a *App) add(ctx context.Context) error {
	cmd := a.options.Add
	kind, err := schema.ParseTransactionType(cmd.Type)
	if err != nil {
		return err
	}
	request := &schema.TransactionCreate{
		Amount:      cmd.Amount,
		Type:        kind,
		Category:    optional(cmd.Category),
		Description: optional(cmd.Description),
		AccountID:   cmd.Account,
	}
	if cmd.Date != "" {
		date, err := parseDate(cmd.Date)
		if err != nil {
			return err
		}
		value := schema.NewTime(date)
		request.Date = &value
	}
	if err := a.dashboard.CreateTransaction(ctx, request); err != nil {
		return a.dashboardErr(err)
	}
	renderTransactions(a.out, a.dashboard.RecentTransactions())
	return nil
}

func (a *App) parse(ctx context.Context) error {
	cmd := a.options.Parse
	text := strings.TrimSpace(strings.Join(cmd.Args.Text, " "))
	if text == "" {
		return errors.New("text is required")
	}
	if err := a.dashboard.ParseTransactions(ctx, text); err != nil {
		return a.dashboardErr(err)
	}
	renderReview(a.out, a.dashboard.ParsedTransactions())
	if !cmd.Save {
		return nil
	}
	if cmd.Account == 0 {
		return dashboard.ErrNoAccount
	}
	saved := 0
	for len(a.dashboard.ParsedTransactions()) > 0 {
		a.dashboard.SetParsedTransactionAccount(0, cmd.Account)
		if err := a.dashboard.SaveParsedTransaction(ctx, 0); err != nil {
			renderReview(a.out, a.dashboard.ParsedTransactions())
			return fmt.Errorf("saved %v, then: %v", saved, a.dashboard.Err())
		}
		saved++
	}
	_, err := fmt.Fprintf(a.out, "Saved %v transaction(s)\n", saved)
	return err
}

func (a *App) overview(ctx context.Context) error {
	if err := a.dashboard.FetchInitialData(ctx); err != nil {
		return a.dashboardErr(err)
	}
	_, _ = fmt.Fprintf(a.out, "Welcome, %v\n\n", a.displayName())
	renderAccounts(a.out, a.dashboard.Accounts())
	_, _ = fmt.Fprintln(a.out)
	renderTransactions(a.out, a.dashboard.RecentTransactions())
	_, _ = fmt.Fprintln(a.out)
	start, _ := a.dashboard.ChartWindow()
	renderChart(a.out, start, a.dashboard.ChartTransactions())
	return nil
}

func (a *App) displayName() string {
	if user := a.session.User(); user != nil {
		return user.DisplayName()
	}
	return "unknown user"
}

func (a *App) sessionErr() error {
	if err := a.session.Err(); err != nil {
		return err
	}
	return errors.New("request failed")
}

// dashboardErr prefers the message the dashboard recorded for err.
func (a *App) dashboardErr(err error) error {
	if text := a.dashboard.Err(); text != "" {
		return errors.New(text)
	}
	return err
}

func printVersion(out io.Writer) error {
	banner := figure.NewFigure(appName, "cybermedium", true)
	_, err := fmt.Fprintf(out, "%v\n%v %v\n", banner.String(), appName, Version)
	return err
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func renderAccounts(out io.Writer, accounts []schema.Account) {
	table := newTable(out, "ID", "Name", "Type", "Balance")
	total := 0.0
	for _, account := range accounts {
		total += account.Balance
		table.Append([]string{strconv.Itoa(account.ID), account.Name, account.Type, money(account.Balance)})
	}
	table.SetFooter([]string{"", "", "Total", money(total)})
	table.Render()
}

func renderTransactions(out io.Writer, transactions []schema.Transaction) {
	table := newTable(out, "ID", "Date", "Type", "Amount", "Category", "Description", "Account")
	for _, transaction := range transactions {
		table.Append([]string{
			strconv.Itoa(transaction.ID),
			transaction.Date.Date(),
			string(transaction.Type),
			money(transaction.Amount),
			deref(transaction.Category),
			deref(transaction.Description),
			strconv.Itoa(transaction.AccountID),
		})
	}
	table.Render()
}

func renderReview(out io.Writer, items []dashboard.ReviewItem) {
	table := newTable(out, "#", "Date", "Type", "Amount", "Category", "Description", "Status")
	for i, item := range items {
		date := item.DateText
		if item.DateFormatted != "" {
			date = item.DateFormatted
		}
		status := "pending"
		switch {
		case item.Saving:
			status = "saving"
		case item.SaveError != "":
			status = item.SaveError
		}
		table.Append([]string{
			strconv.Itoa(i),
			date,
			string(item.Type),
			money(item.Amount),
			deref(item.Category),
			deref(item.Description),
			status,
		})
	}
	table.Render()
}

// renderChart prints daily income and expense totals from start over the chart window.
func renderChart(out io.Writer, start time.Time, transactions []schema.Transaction) {
	type totals struct{ income, expense float64 }
	days := map[string]*totals{}
	var keys []string
	for i := 0; i < dashboard.ChartDays; i++ {
		key := start.AddDate(0, 0, i).Format(schema.DateLayout)
		days[key] = &totals{}
		keys = append(keys, key)
	}
	for _, transaction := range transactions {
		day, ok := days[transaction.Date.UTC().Format(schema.DateLayout)]
		if !ok {
			continue
		}
		switch transaction.Type {
		case schema.Income:
			day.income += transaction.Amount
		case schema.Expense:
			day.expense += transaction.Amount
		}
	}
	sort.Strings(keys)
	table := newTable(out, "Day", "Income", "Expense")
	for _, key := range keys {
		table.Append([]string{key, money(days[key].income), money(days[key].expense)})
	}
	table.Render()
}

func parseDate(value string) (time.Time, error) {
	ret, err := time.ParseInLocation(schema.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return ret, nil
}

func money(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package cli

// Options holds the global flags and one struct per command.
type Options struct {
	Config  string `short:"c" long:"config" description:"TOML config file"`
	BaseURL string `long:"base-url" description:"API base URL, overrides config"`
	Storage string `long:"storage" description:"credential storage: disk, file or memory"`
	Verbose bool   `short:"v" long:"verbose" description:"debug logging"`

	Login         LoginCommand        `command:"login" description:"log in and store the session"`
	Register      RegisterCommand     `command:"register" description:"create a new user"`
	Logout        EmptyCommand        `command:"logout" description:"drop the stored session"`
	Status        EmptyCommand        `command:"status" description:"show the session"`
	Accounts      EmptyCommand        `command:"accounts" description:"list accounts"`
	AddAccount    AddAccountCommand   `command:"add-account" description:"create an account"`
	Transactions  TransactionsCommand `command:"transactions" description:"list transactions"`
	Add           AddCommand          `command:"add" description:"add a transaction"`
	Parse         ParseCommand        `command:"parse" description:"extract transactions from free text"`
	Dashboard     EmptyCommand        `command:"dashboard" description:"show balances, recent transactions and the last seven days"`
	Version       EmptyCommand        `command:"version" description:"print version"`
	ExampleConfig EmptyCommand        `command:"example-config" description:"print a sample config file"`
}

type (
	EmptyCommand struct{}

	LoginCommand struct {
		Email    string `short:"u" long:"email" description:"user email"`
		Password string `short:"p" long:"password" description:"password, prompted when omitted"`
	}

	RegisterCommand struct {
		Email     string `short:"u" long:"email" description:"user email" required:"true"`
		Password  string `short:"p" long:"password" description:"password, prompted when omitted"`
		FirstName string `short:"f" long:"first-name" description:"first name" required:"true"`
		LastName  string `short:"l" long:"last-name" description:"last name"`
	}

	AddAccountCommand struct {
		Name    string  `short:"n" long:"name" description:"account name" required:"true"`
		Type    string  `short:"t" long:"type" description:"account type" default:"bank"`
		Balance float64 `short:"b" long:"balance" description:"opening balance"`
	}

	TransactionsCommand struct {
		Account  int    `short:"a" long:"account" description:"account id"`
		From     string `long:"from" description:"start date YYYY-MM-DD"`
		To       string `long:"to" description:"end date YYYY-MM-DD, inclusive"`
		Category string `long:"category" description:"category"`
		Type     string `long:"type" description:"INCOME, EXPENSE or TRANSFER"`
		Limit    int    `short:"n" long:"limit" description:"max rows" default:"30"`
		Skip     int    `long:"skip" description:"rows to skip"`
	}

	AddCommand struct {
		Account     int     `short:"a" long:"account" description:"account id" required:"true"`
		Amount      float64 `short:"m" long:"amount" description:"amount" required:"true"`
		Type        string  `short:"t" long:"type" description:"INCOME, EXPENSE or TRANSFER" default:"EXPENSE"`
		Category    string  `long:"category" description:"category"`
		Description string  `short:"d" long:"description" description:"description"`
		Date        string  `long:"date" description:"date YYYY-MM-DD, today when omitted"`
	}

	ParseCommand struct {
		Save    bool `long:"save" description:"save every parsed transaction"`
		Account int  `short:"a" long:"account" description:"account id used with --save"`
		Args    struct {
			Text []string `positional-arg-name:"text"`
		} `positional-args:"yes"`
	}
)

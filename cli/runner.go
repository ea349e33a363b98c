package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/kottesh/amuhacks/client"
	"github.com/kottesh/amuhacks/client/auth"
	"github.com/kottesh/amuhacks/client/auth/store"
	"github.com/kottesh/amuhacks/dashboard"
	"github.com/kottesh/amuhacks/guard"
	"github.com/kottesh/amuhacks/internal/config"
	"github.com/rs/zerolog"
)

// Version is reported by the version command.
var Version = "0.1.0"

// Run parses args and executes the selected command.
func Run(args []string) error {
	return run(context.Background(), args, os.Stdout, os.Stderr, promptSecret)
}

func run(ctx context.Context, args []string, out, errOut io.Writer, prompt Prompter) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "quid"
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			_, _ = fmt.Fprintln(out, flagsErr.Message)
			return nil
		}
		return err
	}
	command := parser.Active.Name
	switch command {
	case "version":
		return printVersion(out)
	case "example-config":
		_, err := fmt.Fprint(out, config.ExampleConfig())
		return err
	}

	conf, err := config.Load(options.Config)
	if err != nil {
		return err
	}
	if options.BaseURL != "" {
		conf.API.BaseURL = options.BaseURL
	}
	if options.Storage != "" {
		conf.Storage.Type = options.Storage
	}
	if err := conf.CheckAndSetDefaults(); err != nil {
		return err
	}
	logger := newLogger(errOut, conf.Log.Severity, options.Verbose)

	aStore, err := newStore(conf)
	if err != nil {
		return err
	}
	session, err := auth.New(ctx, conf.API.BaseURL,
		auth.WithStore(aStore),
		auth.WithTimeout(conf.API.RequestTimeout()),
		auth.WithLogger(logger))
	if err != nil {
		return err
	}
	api := client.New(session, client.WithLogger(logger))
	board := dashboard.New(api, dashboard.WithLogger(logger))
	cancel := board.Watch(session)
	defer cancel()

	app := &App{
		options:   options,
		session:   session,
		client:    api,
		dashboard: board,
		guard:     newGuard(session),
		out:       out,
		prompt:    prompt,
		logger:    logger,
	}
	return app.Execute(ctx, command)
}

func newLogger(w io.Writer, severity string, verbose bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(severity)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(level).With().Timestamp().Logger()
}

func newStore(conf *config.Config) (store.Store, error) {
	switch conf.Storage.Type {
	case config.StorageMemory:
		return store.NewMemoryStore(), nil
	case config.StorageFile:
		return store.NewFileStore(filepath.Join(conf.Storage.Dir, "credentials.json")), nil
	case config.StorageDisk:
		return store.NewDiskStore(filepath.Join(conf.Storage.Dir, "credentials")), nil
	}
	return nil, fmt.Errorf("unsupported storage: %v", conf.Storage.Type)
}

func newGuard(session guard.Authenticated) *guard.Guard {
	ret := guard.New(session, guard.DefaultRoutes()...)
	for _, name := range []string{"accounts", "add-account", "transactions", "add", "parse"} {
		ret.Register(&guard.Route{Name: name, RequiresAuth: true})
	}
	for _, name := range []string{"logout", "status"} {
		ret.Register(&guard.Route{Name: name})
	}
	return ret
}

// Package commands implements payrollctl, a command line client that works
// directly on the configured data backend.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"payroll/internal/assistant"
	"payroll/internal/cli"
	"payroll/internal/config"
	"payroll/internal/core"
	"payroll/internal/ledger"
	applog "payroll/internal/log"
)

// App is what every subcommand works against.
type App struct {
	Store  *ledger.Store
	Bridge *assistant.Bridge
	Now    func() time.Time
	Close  func() error
}

// Opener builds the App once flags are parsed.
type Opener func(ctx context.Context) (*App, error)

// Execute runs payrollctl against the backend named by the environment.
func Execute() error {
	return NewRootCmd(openFromEnv, os.Stdout).Execute()
}

var verbose bool

func openFromEnv(ctx context.Context) (*App, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := cli.SetupLogger(level, applog.ComponentCLI, os.Stderr)
	if err := cli.LoadEnvFile(); err != nil {
		return nil, err
	}
	cfg, err := cli.LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		return nil, err
	}
	res, err := cli.OpenBackend(ctx, logger, cfg, cfg.AMQPEnabled())
	if err != nil {
		return nil, err
	}
	return &App{
		Store:  res.Store,
		Bridge: cli.NewAssistant(ctx, logger.WithComponent(applog.ComponentAssistant), cfg),
		Now:    time.Now,
		Close:  res.Close,
	}, nil
}

// NewRootCmd assembles the command tree. open is called lazily by the
// subcommands that need the ledger.
func NewRootCmd(open Opener, out io.Writer) *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:          "payrollctl",
		Short:        "Manage employees, salary withdrawals and monthly reports",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app != nil && app.Close != nil {
				return app.Close()
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	get := func() *App { return app }
	root.AddCommand(
		employeeCmd(get),
		withdrawalCmd(get),
		dashboardCmd(get),
		reportCmd(get),
		askCmd(get),
		sheetsAuthCmd(),
	)
	return root
}

func addPeriodFlags(cmd *cobra.Command, year, month *int) {
	cmd.Flags().IntVar(year, "year", 0, "report year (default: current)")
	cmd.Flags().IntVar(month, "month", 0, "report month 1-12 (default: current)")
}

func periodFrom(now time.Time, year, month int) (core.Period, error) {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return core.NewPeriod(year, month)
}

func parseAmountFlag(name, value string) (core.Money, error) {
	m, err := core.ParseAmount(value)
	if err != nil {
		return core.Money{}, fmt.Errorf("--%s %q: %w", name, value, err)
	}
	return m, nil
}

package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitranim/sqlbind/internal/pgexec"
	"github.com/spf13/cobra"
)

// Opens a runner for the configured database. The returned function releases
// it.
type connectFunc func(ctx context.Context, cfg Config) (pgexec.Runner, func(), error)

func connectPool(ctx context.Context, cfg Config) (pgexec.Runner, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return pgexec.Pool{Pool: pool}, pool.Close, nil
}

// runE is the body of a command that needs a database.
type runE func(cmd *cobra.Command, app *App) error

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(connectPool)
}

func newRootCmd(connect connectFunc) *cobra.Command {
	var cfg Config

	// Connects for the duration of one command.
	withApp := func(fun runE) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			log, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Pretty)
			if err != nil {
				return err
			}

			runner, release, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()

			return fun(cmd, &App{
				Runner: runner,
				Log:    log,
				Config: cfg,
				Faker:  NewFaker(seedOf(time.Now().UnixNano())),
			})
		}
	}

	rootCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Insert and select fake contacts through sqlbind",
		Long: `Benchmark program for sqlbind. Without a subcommand, creates the contacts
table, inserts --count contacts concurrently, then selects all of them
--iterations times, reporting timings.

Settings may also be given as environment variables with the ` + EnvPrefix + ` prefix.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = LoadConfig(cmd.Root().PersistentFlags())
			return err
		},
		RunE: withApp(func(cmd *cobra.Command, app *App) error {
			if err := app.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := runInsert(cmd, app); err != nil {
				return err
			}
			return runSelect(cmd, app)
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ensure-schema",
		Short: "Create the contacts table and empty it",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App) error {
			return app.EnsureSchema(cmd.Context())
		}),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "insert",
		Short: "Insert --count contacts, one statement each",
		Args:  cobra.NoArgs,
		RunE:  withApp(runInsert),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "bulk",
		Short: "Insert --count contacts, --batch-size rows per statement",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App) error {
			stats, err := app.Bulk(cmd.Context(), app.Config.Count, app.Config.BatchSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v (%d statements)\n", stats, stats.Statements)
			return nil
		}),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "select",
		Short: "Select all contacts --iterations times",
		Args:  cobra.NoArgs,
		RunE:  withApp(runSelect),
	})

	return rootCmd
}

func runInsert(cmd *cobra.Command, app *App) error {
	stats, err := app.Insert(cmd.Context(), app.Config.Count)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), stats)
	return nil
}

func runSelect(cmd *cobra.Command, app *App) error {
	stats, err := app.Select(cmd.Context(), app.Config.Iterations)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), stats)
	return nil
}

func seedOf(n int64) (seed [32]byte) {
	for i := range 8 {
		seed[i] = byte(n >> (8 * i))
	}
	return
}

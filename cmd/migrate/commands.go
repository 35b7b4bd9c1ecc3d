package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/migration"
)

type cliOptions struct {
	dir      string
	logLevel string
	table    string
	verbose  bool
}

// app is what every database subcommand runs against
type app struct {
	log      *zap.Logger
	migrator *migration.Migrator
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and author database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.table, "table", "", "bookkeeping table (default schema_migrations)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every applied file")

	root.AddCommand(
		upCmd(opts),
		downCmd(opts),
		stepsCmd(opts),
		gotoCmd(opts),
		versionCmd(opts),
		forceCmd(opts),
		createCmd(opts),
		listCmd(opts),
	)
	return root
}

func upCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(a *app) error { return a.migrator.Up() })
		},
	}
}

func downCmd(opts *cliOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("down drops every table; rerun with --yes to confirm")
			}
			return withMigrator(opts, func(a *app) error { return a.migrator.Down() })
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the full rollback")
	return cmd
}

func stepsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back when N is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return withMigrator(opts, func(a *app) error { return a.migrator.Steps(n) })
		},
	}
}

func gotoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goto VERSION",
		Short: "Migrate up or down to VERSION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(a *app) error { return a.migrator.GoTo(uint(v)) })
		},
	}
}

func versionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(a *app) error {
				v, dirty, err := a.migrator.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}
}

func forceCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(a *app) error { return a.migrator.Force(v) })
		},
	}
}

func createCmd(opts *cliOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Write an empty up/down pair with the next version number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(sourceDir(opts), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "comment written at the top of the up file")
	return cmd
}

func listCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations found in --dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(sourceDir(opts))
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

// sourceDir is where create and list operate; the embedded set lives in ./migrations
func sourceDir(opts *cliOptions) string {
	if opts.dir != "" {
		return opts.dir
	}
	return "migrations"
}

func withMigrator(opts *cliOptions, fn func(*app) error) error {
	log, err := logger.New(&logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres; driver %q is auto-migrated by the server", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, log, migration.Options{Dir: opts.dir, Table: opts.table, Verbose: opts.verbose})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn("Closing migrator failed", zap.Error(cerr))
		}
	}()

	log.Info("Migration CLI started", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))
	return fn(&app{log: log, migrator: m})
}

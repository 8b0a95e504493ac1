package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type schema interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Steps(ctx context.Context, n int) error
	Status() (migration.Status, error)
	Force(version int) error
	Close() error
}

type schemaOpener func(ctx context.Context, log *zap.Logger) (schema, error)

func newRootCmd(open schemaOpener) *cobra.Command {
	var (
		path     string
		logLevel string
		log      = zap.NewNop()
	)

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the GST ledger database schema",
		Long: `migrate applies the SQL migrations embedded in this binary to the database
configured by config.toml or LEDGER_DATABASE_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&path, "path", "migrations", "migrations directory for create and list")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// withSchema opens the database for one command and closes it after
	withSchema := func(fn func(cmd *cobra.Command, args []string, s schema) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			s, err := open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, s.Close()) }()
			return fn(cmd, args, s)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withSchema(func(cmd *cobra.Command, _ []string, s schema) error {
				return s.Up(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: withSchema(func(cmd *cobra.Command, _ []string, s schema) error {
				return s.Down(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations, or roll back -n",
			Args:  cobra.ExactArgs(1),
			RunE: withSchema(func(cmd *cobra.Command, args []string, s schema) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return s.Steps(cmd.Context(), n)
			}),
		},
		&cobra.Command{
			Use:     "status",
			Aliases: []string{"version"},
			Short:   "Show the applied version and pending migrations",
			Args:    cobra.NoArgs,
			RunE: withSchema(func(cmd *cobra.Command, _ []string, s schema) error {
				st, err := s.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if st.Version == 0 {
					fmt.Fprintf(out, "no migrations applied, %d pending\n", st.Pending)
					return nil
				}
				fmt.Fprintf(out, "version %d of %d, %d pending", st.Version, st.Latest, st.Pending)
				if st.Dirty {
					fmt.Fprint(out, " (dirty: fix the failed migration, then force)")
				}
				fmt.Fprintln(out)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark version as applied and clean without running it",
			Args:  cobra.ExactArgs(1),
			RunE: withSchema(func(cmd *cobra.Command, args []string, s schema) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return s.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create an empty up/down pair under --path",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				desc := ""
				if len(args) == 2 {
					desc = args[1]
				}
				mf, err := migration.CreateMigration(path, args[0], desc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
				fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List migrations under --path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.ListMigrations(path)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
	)
	return root
}

package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/bootstrap"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type stockService interface {
	Balance(ctx context.Context, productID uuid.UUID) (int64, error)
	History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.StockMovement, error)
	Reconcile(ctx context.Context, productID uuid.UUID) (*ledger.ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]ledger.ReconcileResult, error)
}

type archive interface {
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

type jobRunner interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// session is what a subcommand works with once the ledger is open
type session struct {
	stock   stockService
	jobs    jobRunner
	archive archive
	logger  *zap.Logger
	close   func(ctx context.Context) error
}

type opener func(ctx context.Context) (*session, error)

// openLedger loads configuration and opens the real ledger
func openLedger(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := &session{stock: app.Gateway.Stock(), logger: app.Logger, close: app.Close}
	if app.Jobs != nil {
		s.jobs = app.Jobs
	}
	if app.Archive != nil {
		s.archive = app.Archive
	}
	return s, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openLedger, os.Stdout)
}

func newRootCmdWith(open opener, out io.Writer) *cobra.Command {
	var sess *session

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Maintenance commands for the GST ledger",
		Long: `ledgerctl operates on the ledger database configured by config.toml or
LEDGER_* environment variables.

The stock ledger is authoritative; each product's cached quantity is a
projection of it. reconcile compares the two and repairs drift.`,
		Version:       bootstrap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			sess = s
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if sess == nil || sess.close == nil {
				return nil
			}
			return sess.close(context.Background())
		},
	}
	root.SetOut(out)

	current := func() *session { return sess }
	root.AddCommand(
		newReconcileCmd(current),
		newBalanceCmd(current),
		newHistoryCmd(current),
	)
	return root
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/export"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReconcileCmd(sess func() *session) *cobra.Command {
	var product string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute stock from the movement ledger and repair drift",
		Example: `  # Check every product
  ledgerctl reconcile

  # Check one product
  ledgerctl reconcile --product 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sess()
			var productID uuid.UUID
			if product != "" {
				id, err := uuid.Parse(product)
				if err != nil {
					return fmt.Errorf("invalid product id %q: %w", product, err)
				}
				productID = id
			}

			var results []ledger.ReconcileResult
			run := func(ctx context.Context) error {
				if productID != uuid.Nil {
					r, err := s.stock.Reconcile(ctx, productID)
					if err != nil {
						return err
					}
					results = []ledger.ReconcileResult{*r}
					return nil
				}
				var err error
				results, err = s.stock.ReconcileAll(ctx)
				return err
			}

			var err error
			if s.jobs != nil {
				err = s.jobs.Run(cmd.Context(), ledger.ReconcileJobName, run)
			} else {
				err = run(cmd.Context())
			}
			if errors.Is(err, cache.ErrJobLocked) {
				return errors.New("reconciliation is already running on another instance")
			}
			if err != nil {
				return err
			}

			repaired := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tCACHED\tLEDGER\tREPAIRED")
			for _, r := range results {
				if r.Repaired {
					repaired++
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", r.ProductID, r.Cached, r.Ledger, r.Repaired)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d products, repaired %d\n", len(results), repaired)
			if s.logger != nil && repaired > 0 {
				s.logger.Warn("Stock drift repaired", zap.Int("products", repaired))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "Only reconcile this product id")
	return cmd
}

func newBalanceCmd(sess func() *session) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <product-id>",
		Short: "Print a product's on-hand quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}
			qty, err := sess().stock.Balance(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), qty)
			return nil
		},
	}
}

func newHistoryCmd(sess func() *session) *cobra.Command {
	var from, to, out string
	var archived bool
	cmd := &cobra.Command{
		Use:   "history <product-id>",
		Short: "Print or export a product's stock movements",
		Example: `  ledgerctl history 6f1c... --from 2026-04-01 --to 2026-04-30
  ledgerctl history 6f1c... --out april.xlsx
  ledgerctl history 6f1c... --archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}
			filter := inventory.HistoryFilter{ProductID: id}
			if from != "" {
				if filter.From, err = time.Parse("2006-01-02", from); err != nil {
					return fmt.Errorf("invalid --from date: %w", err)
				}
			}
			if to != "" {
				day, err := time.Parse("2006-01-02", to)
				if err != nil {
					return fmt.Errorf("invalid --to date: %w", err)
				}
				filter.To = day.AddDate(0, 0, 1).Add(-1)
			}

			entries, err := sess().stock.History(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if archived {
				return archiveHistory(cmd, sess(), id, entries)
			}

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := export.WriteStockHistory(f, entries); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d movements to %s\n", len(entries), out)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tSEQ\tREASON\tDELTA\tBALANCE\tSOURCE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\t%+d\t%d\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Sequence, e.Reason, e.Delta, e.BalanceAfter, e.SourceType)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write an .xlsx file instead of printing")
	cmd.Flags().BoolVar(&archived, "archive", false, "Upload the .xlsx to object storage and print a download link")
	cmd.MarkFlagsMutuallyExclusive("out", "archive")
	return cmd
}

func archiveHistory(cmd *cobra.Command, s *session, productID uuid.UUID, entries []inventory.StockMovement) error {
	if s.archive == nil {
		return errors.New("object storage is not configured (storage.enabled)")
	}
	var buf bytes.Buffer
	if err := export.WriteStockHistory(&buf, entries); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := s.archive.EnsureBucket(ctx); err != nil {
		return err
	}
	key := export.StockHistoryKey(productID, time.Now())
	if err := s.archive.Upload(ctx, key, buf.Bytes(), export.XLSXContentType); err != nil {
		return err
	}
	link, expires, err := s.archive.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "archived %d movements as %s\n%s\n(link expires %s)\n",
		len(entries), key, link, expires.Format(time.RFC3339))
	return nil
}

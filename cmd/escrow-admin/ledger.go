package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/target/escrow-api/internal/data"
	"github.com/target/escrow-api/internal/domain/model"
)

const ledgerPageSize = 500

var (
	paymentColumns = []string{
		"ID", "Intent", "Type", "Job", "Milestone", "Payer", "Payee",
		"Amount", "Currency", "Status", "Failure", "Created", "Updated",
	}
	transferColumns = []string{
		"ID", "Transfer", "Account", "Intent", "Job", "Milestone",
		"Amount", "Currency", "Status", "Failure", "Created", "Updated",
	}
)

func newLedgerCmd(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the payment and transfer ledger",
	}
	cmd.AddCommand(newLedgerExportCmd(cmdCtx))
	return cmd
}

func newLedgerExportCmd(cmdCtx *commandContext) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write payments and transfers to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := connectDB(cmdCtx)
			if err != nil {
				return err
			}
			defer closeQuietly(cmdCtx.Logger, "database", db)

			payments, err := collectPages(cmd.Context(), data.NewPaymentRepo(db).ListAll)
			if err != nil {
				return fmt.Errorf("list payments: %w", err)
			}
			transfers, err := collectPages(cmd.Context(), data.NewTransferRepo(db).ListAll)
			if err != nil {
				return fmt.Errorf("list transfers: %w", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := writeLedgerWorkbook(f, payments, transfers); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			return writef(cmd.OutOrStdout(), "wrote %d payments and %d transfers to %s\n",
				len(payments), len(transfers), out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "ledger.xlsx", "output file")
	return cmd
}

func collectPages[T any](ctx context.Context, list func(context.Context, int, int) ([]*T, error)) ([]*T, error) {
	var all []*T
	for offset := 0; ; offset += ledgerPageSize {
		page, err := list(ctx, ledgerPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < ledgerPageSize {
			return all, nil
		}
	}
}

func writeLedgerWorkbook(w io.Writer, payments []*model.Payment, transfers []*model.Transfer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	paymentRows := make([][]any, 0, len(payments))
	for _, p := range payments {
		paymentRows = append(paymentRows, []any{
			p.ID, p.PaymentIntentID, string(p.PaymentType), p.JobID, p.MilestoneID, p.PayerID, p.PayeeID,
			p.Amount.InexactFloat64(), p.Currency, string(p.Status), deref(p.FailureReason),
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		})
	}
	if err := writeSheet(f, "Payments", paymentColumns, paymentRows); err != nil {
		return err
	}

	transferRows := make([][]any, 0, len(transfers))
	for _, t := range transfers {
		transferRows = append(transferRows, []any{
			t.ID, deref(t.TransferID), t.AccountID, deref(t.PaymentIntentID), t.JobID, t.SourceID,
			t.Amount.InexactFloat64(), t.Currency, string(t.Status), deref(t.FailureReason),
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		})
	}
	if err := writeSheet(f, "Transfers", transferColumns, transferRows); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	for col, name := range header {
		if err := setCell(f, sheet, col+1, 1, name); err != nil {
			return err
		}
	}
	for i, row := range rows {
		for col, v := range row {
			if err := setCell(f, sheet, col+1, i+2, v); err != nil {
				return err
			}
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 22)
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Package export renders ledger reads as spreadsheet downloads.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of files written by this package
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StockHistorySheet is the sheet holding the movement rows
const StockHistorySheet = "Stock History"

var stockHistoryHeader = []any{
	"Date", "Sequence", "Reason", "Delta", "Balance After", "Source Type", "Source Document", "Note",
}

// WriteStockHistory writes entries, in the given order, as one xlsx sheet
func WriteStockHistory(w io.Writer, entries []inventory.StockMovement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockHistorySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(StockHistorySheet, "A1", &stockHistoryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		source := ""
		if e.SourceDocumentID != nil {
			source = e.SourceDocumentID.String()
		}
		row := []any{
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.Sequence,
			string(e.Reason),
			e.Delta,
			e.BalanceAfter,
			e.SourceType,
			source,
			e.Note,
		}
		if err := f.SetSheetRow(StockHistorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(StockHistorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// StockHistoryFilename names the download for a product
func StockHistoryFilename(sku string) string {
	if sku == "" {
		sku = "product"
	}
	return fmt.Sprintf("stock-history-%s.xlsx", sku)
}

// StockHistoryKey is the object key an archived export is stored under
func StockHistoryKey(productID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("stock-history/%s/%s.xlsx", productID, at.UTC().Format("20060102T150405Z"))
}

// Package export renders stored receipts as spreadsheet files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/scanledger/scanledger/internal/entity"
	"github.com/scanledger/scanledger/internal/repository"
)

// Service is a small façade over the repository that produces XLSX or CSV
// bytes for exports.
type Service struct {
	receipts repository.ReceiptRepository
	logger   *slog.Logger
}

func NewService(repo repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: repo, logger: logger}
}

var headers = []string{
	"Purchase Date",
	"Merchant",
	"Item",
	"Qty",
	"Unit Price",
	"Line Total",
	"Receipt Subtotal",
	"Receipt Tax",
	"Receipt Total",
}

// ExportXLSX returns an XLSX workbook for receipts inside the date window,
// one row per line item. Nil bounds mean an open end.
func (s *Service) ExportXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	recs, err := s.receipts.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		for _, line := range receiptRows(r) {
			for col, v := range line {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"receipts", len(recs),
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportCSV returns the same table as CSV.
func (s *Service) ExportCSV(ctx context.Context, from, to *time.Time) ([]byte, error) {
	recs, err := s.receipts.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, r := range recs {
		for _, line := range receiptRows(r) {
			record := make([]string, len(line))
			for i, v := range line {
				record[i] = fmt.Sprint(v)
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	s.logger.Info("export.csv.ok", "receipts", len(recs))
	return buf.Bytes(), nil
}

// receiptRows flattens a receipt into one row per item; a receipt with no
// items still gets a single row carrying its totals.
func receiptRows(r *entity.Receipt) [][]any {
	meta := []any{money(r.Subtotal), money(r.Tax), money(r.Total)}
	if len(r.Items) == 0 {
		return [][]any{append([]any{r.PurchaseDateTime, r.MerchantName, "", "", "", ""}, meta...)}
	}
	out := make([][]any, 0, len(r.Items))
	for _, it := range r.Items {
		row := []any{
			r.PurchaseDateTime,
			r.MerchantName,
			it.Description,
			number(it.Qty),
			money(it.UnitPrice),
			money(it.LineTotal),
		}
		out = append(out, append(row, meta...))
	}
	return out
}

func money(v *float64) any {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func number(v *float64) any {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

// Package export produces the XLSX summary for batch runs.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

// BatchRow is one processed document in a batch run.
type BatchRow struct {
	Document   string
	HashHex    string
	JobID      string
	Status     string
	Problems   string // "field: message" pairs, semicolon-joined
	OutputPath string // path of the populated contract, empty otherwise
	Duration   time.Duration
}

// Service produces XLSX bytes for batch summaries.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BatchSummaryXLSX returns an XLSX workbook (as bytes) summarizing one
// batch run, one row per document in processing order.
func (s *Service) BatchSummaryXLSX(rows []BatchRow) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Batch"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Content Hash",
		"Job ID",
		"Status",
		"Problems",
		"Output Path",
		"Duration (ms)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for n, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, n+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.Document)
		write(2, r.HashHex)
		write(3, r.JobID)
		write(4, r.Status)
		write(5, truncate(r.Problems, 140))
		write(6, r.OutputPath)
		write(7, r.Duration.Milliseconds())
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // document
	_ = f.SetColWidth(sheet, "B", "B", 20) // hash
	_ = f.SetColWidth(sheet, "C", "C", 38) // job id
	_ = f.SetColWidth(sheet, "D", "D", 18) // status
	_ = f.SetColWidth(sheet, "E", "E", 48) // problems
	_ = f.SetColWidth(sheet, "F", "F", 60) // output path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// Package report exports tool policy decisions for operators as a workbook or CSV.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat indicates an output path without a .xlsx or .csv extension.
var ErrUnsupportedFormat = errors.New("report: unsupported output format")

// Sheet names used in workbook output.
const (
	DecisionsSheet = "Decisions"
	SummarySheet   = "Summary"
)

// Header is the column layout shared by both formats.
var Header = []string{"tool", "removed", "reasons", "scopes", "failure"}

// Rows flattens a report into table rows, one per declared tool.
func Rows(rep registry.Report) [][]string {
	failures := make(map[string]string, len(rep.Failures))
	for _, f := range rep.Failures {
		msg := f.Stage + ": " + f.Err.Error()
		if prev, ok := failures[f.Tool]; ok {
			msg = prev + "; " + msg
		}
		failures[f.Tool] = msg
	}

	rows := make([][]string, 0, len(rep.Decisions))
	for _, d := range rep.Decisions {
		reasons := make([]string, len(d.Reasons))
		for i, r := range d.Reasons {
			reasons[i] = string(r)
		}
		rows = append(rows, []string{
			d.Tool,
			fmt.Sprint(d.Removed),
			strings.Join(reasons, ","),
			strings.Join(d.Scopes, " "),
			failures[d.Tool],
		})
	}
	return rows
}

// Write exports rep to path, choosing the format from the extension.
func Write(path string, rep registry.Report) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, rep)
	case ".csv":
		return WriteCSV(path, rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// WriteCSV writes the decision table as CSV.
func WriteCSV(path string, rep registry.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("report: close %q: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	if err := w.WriteAll(Rows(rep)); err != nil {
		return fmt.Errorf("report: write rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a Decisions sheet and a Summary sheet.
func WriteXLSX(path string, rep registry.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DecisionsSheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(DecisionsSheet, "A1", &Header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for i, row := range Rows(rep) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: cell name: %w", err)
		}
		if err := f.SetSheetRow(DecisionsSheet, cell, &row); err != nil {
			return fmt.Errorf("report: write row %d: %w", i+2, err)
		}
	}
	if err := f.AutoFilter(DecisionsSheet, fmt.Sprintf("A1:E%d", len(rep.Decisions)+1), nil); err != nil {
		return fmt.Errorf("report: autofilter: %w", err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("report: add summary sheet: %w", err)
	}
	enabled := "all"
	if rep.EnabledCount >= 0 {
		enabled = fmt.Sprint(rep.EnabledCount)
	}
	summary := [][]any{
		{"mode", rep.Mode},
		{"oauth21", rep.ModernAuth},
		{"enabled", enabled},
		{"declared", rep.Declared},
		{"removed", len(rep.Removed)},
		{"failures", len(rep.Failures)},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("report: write summary: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %q: %w", path, err)
	}
	return nil
}

// Package sheet reads drawing lists from spreadsheets.
//
// Each worksheet is a table whose first row holds the headers. Headers are
// trimmed and lower-cased, every cell is read as a string, and rows with a
// blank value in any required column are dropped.
package sheet

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// ErrOpen indicates the workbook could not be read.
var ErrOpen = errors.New("open workbook")

// MissingColumnError reports required columns absent from a sheet.
type MissingColumnError struct {
	Sheet   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet %q: missing required columns: %s", e.Sheet, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return drafterrors.ErrInvalidFormat
}

// Options controls [Read].
type Options struct {
	// Sheets limits reading to the named sheets. Empty reads every sheet.
	Sheets []string
	// Required columns must be present and non-blank.
	Required []string
}

// Workbook is the parsed content of a spreadsheet file.
type Workbook struct {
	Path   string
	Sheets []Sheet
}

// Sheet is one worksheet.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Read parses the workbook at path.
func Read(path string, opts Options) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("close workbook", slog.String("path", path), slog.Any("err", err))
		}
	}()

	wb, err := ReadFile(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	wb.Path = path

	return wb, nil
}

// ReadFile parses an open workbook.
func ReadFile(f *excelize.File, opts Options) (*Workbook, error) {
	names := f.GetSheetList()
	if len(opts.Sheets) > 0 {
		for _, want := range opts.Sheets {
			if !slices.Contains(names, want) {
				return nil, fmt.Errorf("%w: sheet %q", drafterrors.ErrNotFound, want)
			}
		}
		names = opts.Sheets
	}

	required := make([]string, len(opts.Required))
	for i, r := range opts.Required {
		required[i] = normalizeHeader(r)
	}

	wb := &Workbook{}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", ErrOpen, name, err)
		}
		s, err := parseSheet(name, rows, required)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, s)
	}

	return wb, nil
}

func parseSheet(name string, rows [][]string, required []string) (Sheet, error) {
	s := Sheet{Name: name}
	if len(rows) == 0 {
		if len(required) > 0 {
			return s, &MissingColumnError{Sheet: name, Columns: required}
		}

		return s, nil
	}

	// Column index for each usable header; blank and repeated headers are
	// skipped.
	var cols []int
	for i, h := range rows[0] {
		h = normalizeHeader(h)
		if h == "" || slices.Contains(s.Headers, h) {
			continue
		}
		s.Headers = append(s.Headers, h)
		cols = append(cols, i)
	}

	var missing []string
	for _, r := range required {
		if !slices.Contains(s.Headers, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return s, &MissingColumnError{Sheet: name, Columns: missing}
	}

	for i, raw := range rows[1:] {
		values := make([]string, len(cols))
		empty := true
		for j, c := range cols {
			if c < len(raw) {
				values[j] = strings.TrimSpace(raw[c])
			}
			if values[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		row := newRow(i, name, s.Headers, values)
		if blank := row.blank(required); blank != "" {
			slog.Debug("dropping row with blank required column",
				slog.String("sheet", name),
				slog.Int("row", i),
				slog.String("column", blank),
			)

			continue
		}
		s.Rows = append(s.Rows, row)
	}

	return s, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Package catalog places spreadsheet rows into the cells of a drawing
// catalog.
//
// A catalog template is a grid of cell blocks laid out in two columns. The
// cells are read in column order: the left column top to bottom, then the
// right column top to bottom. Row k of the input is written into cell k.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrCountMismatch indicates more rows than cells.
var ErrCountMismatch = errors.New("catalog rows do not fit the cells")

// Point is a cell position in drawing units.
type Point struct {
	X, Y float64
}

// Cell is a writable catalog cell.
type Cell interface {
	// Position returns the cell's insertion point.
	Position() Point
	// SetAttributes writes the given tag values. Tags not in values are left
	// as they are.
	SetAttributes(values map[string]string) error
	// ClearAttributes blanks every attribute.
	ClearAttributes() error
}

// Order returns the cells in reading order: sorted by X, split into a left
// half and a right half at len/2 (an odd extra cell goes right), and each
// half sorted from top to bottom. Sorts are stable, so cells sharing a
// coordinate keep their relative order.
func Order[C Cell](cells []C) []C {
	sorted := slices.Clone(cells)
	slices.SortStableFunc(sorted, func(a, b C) int {
		return cmp.Compare(a.Position().X, b.Position().X)
	})

	mid := len(sorted) / 2
	byYDesc := func(a, b C) int {
		return cmp.Compare(b.Position().Y, a.Position().Y)
	}
	slices.SortStableFunc(sorted[:mid], byYDesc)
	slices.SortStableFunc(sorted[mid:], byYDesc)

	return sorted
}

// Report summarizes a placement.
type Report struct {
	// Cells and Rows are the input sizes.
	Cells int
	Rows  int
	// Written cells received a row; Blanked cells had no row.
	Written int
	Blanked int
	// Dropped rows had no cell.
	Dropped int
	// OddSplit is set when the halves had different sizes, which usually
	// means the template's grid is irregular.
	OddSplit bool
}

// MismatchError reports rows that did not fit.
type MismatchError struct {
	Cells int
	Rows  int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %d rows for %d cells, %d rows dropped", ErrCountMismatch, e.Rows, e.Cells, e.Rows-e.Cells)
}

func (e *MismatchError) Unwrap() error {
	return ErrCountMismatch
}

// Place writes rows[k] into the k-th ordered cell and blanks the remaining
// cells. When there are more rows than cells, the rows that fit are written
// and a [*MismatchError] is returned with the report.
func Place[C Cell](cells []C, rows []Row, tags *TagMap) (Report, error) {
	ordered := Order(cells)
	rep := Report{
		Cells:    len(cells),
		Rows:     len(rows),
		OddSplit: len(cells)%2 == 1,
	}

	for k, c := range ordered {
		if k >= len(rows) {
			if err := c.ClearAttributes(); err != nil {
				return rep, fmt.Errorf("blank cell %d: %w", k, err)
			}
			rep.Blanked++

			continue
		}
		if err := c.SetAttributes(tags.Resolve(rows[k])); err != nil {
			return rep, fmt.Errorf("write cell %d: %w", k, err)
		}
		rep.Written++
	}

	if len(rows) > len(cells) {
		rep.Dropped = len(rows) - len(cells)

		return rep, &MismatchError{Cells: len(cells), Rows: len(rows)}
	}

	return rep, nil
}

package sheet

import (
	"fmt"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// Group is a set of rows sharing a key, in input order.
type Group struct {
	Key  string
	Rows []Row
}

// GroupBy collects the rows of every sheet by the value of column. Groups
// are returned in order of first appearance. Each row gains a
// [SubProjectColumn] holding its sheet name.
func GroupBy(sheets []Sheet, column string) ([]Group, error) {
	var groups []Group
	index := map[string]int{}

	for _, s := range sheets {
		for _, r := range s.Rows {
			key, ok := r.Get(column)
			if !ok {
				return nil, fmt.Errorf("%w: sheet %q has no column %q", drafterrors.ErrInvalidFormat, s.Name, column)
			}
			r = r.With(SubProjectColumn, s.Name)

			i, seen := index[key]
			if !seen {
				i = len(groups)
				index[key] = i
				groups = append(groups, Group{Key: key})
			}
			groups[i].Rows = append(groups[i].Rows, r)
		}
	}

	return groups, nil
}

// AllRows returns the rows of every sheet in order.
func (w *Workbook) AllRows() []Row {
	var out []Row
	for _, s := range w.Sheets {
		out = append(out, s.Rows...)
	}

	return out
}

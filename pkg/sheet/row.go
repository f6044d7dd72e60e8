package sheet

import (
	"maps"
	"slices"
)

// SubProjectColumn is added to grouped rows and holds the sheet name.
const SubProjectColumn = "sub_project"

// Row is one data row of a sheet. Headers are lower-case, so lookups are
// case-insensitive.
type Row struct {
	values  map[string]string
	Sheet   string
	headers []string
	// Index is the 0-based position among the sheet's data rows, counted
	// before any rows were dropped.
	Index int
}

func newRow(index int, sheet string, headers, values []string) Row {
	r := Row{
		Index:   index,
		Sheet:   sheet,
		headers: headers,
		values:  make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		r.values[h] = values[i]
	}

	return r
}

// NewRow builds a row from a header to value map, for callers that do not
// read spreadsheets.
func NewRow(sheet string, values map[string]string) Row {
	headers := slices.Sorted(maps.Keys(values))
	vals := make([]string, len(headers))
	normalized := make([]string, len(headers))
	for i, h := range headers {
		vals[i] = values[h]
		normalized[i] = normalizeHeader(h)
	}

	return newRow(0, sheet, normalized, vals)
}

// Get returns the value for a header.
func (r Row) Get(header string) (string, bool) {
	v, ok := r.values[normalizeHeader(header)]

	return v, ok
}

// Value returns the value for a header, or the empty string.
func (r Row) Value(header string) string {
	v, _ := r.Get(header)

	return v
}

// Headers returns the row's headers in column order.
func (r Row) Headers() []string {
	return slices.Clone(r.headers)
}

// Values returns a copy of the header to value map.
func (r Row) Values() map[string]string {
	return maps.Clone(r.values)
}

// With returns a copy of the row with header set to value.
func (r Row) With(header, value string) Row {
	h := normalizeHeader(header)
	out := r
	out.values = maps.Clone(r.values)
	if _, ok := out.values[h]; !ok {
		out.headers = append(slices.Clone(r.headers), h)
	}
	out.values[h] = value

	return out
}

// blank returns the first required header whose value is empty.
func (r Row) blank(required []string) string {
	for _, h := range required {
		if r.values[h] == "" {
			return h
		}
	}

	return ""
}

package catalog

import (
	"slices"

	"golang.org/x/text/cases"
)

// Row is one input record with case-insensitive header lookup.
type Row interface {
	Get(header string) (string, bool)
	Headers() []string
}

// Values is a map-backed [Row].
type Values map[string]string

func (v Values) Get(header string) (string, bool) {
	if s, ok := v[header]; ok {
		return s, true
	}
	fold := cases.Fold()
	want := fold.String(header)
	for k, s := range v {
		if fold.String(k) == want {
			return s, true
		}
	}

	return "", false
}

func (v Values) Headers() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	slices.Sort(out)

	return out
}

// TagMap pairs attribute tags with row headers. Keys are case-folded tags.
type TagMap struct {
	headers map[string]string
	tags    []string
}

// NewTagMap pairs each tag with the header that matches it
// case-insensitively. Overrides map a tag to a header explicitly; an empty
// header removes the pairing.
func NewTagMap(tags, headers []string, overrides map[string]string) *TagMap {
	fold := cases.Fold()

	byFolded := make(map[string]string, len(headers))
	for _, h := range headers {
		f := fold.String(h)
		if _, ok := byFolded[f]; !ok {
			byFolded[f] = h
		}
	}

	m := &TagMap{headers: map[string]string{}}
	for _, t := range tags {
		f := fold.String(t)
		if slices.Contains(m.tags, f) {
			continue
		}
		m.tags = append(m.tags, f)
		if h, ok := byFolded[f]; ok {
			m.headers[f] = h
		}
	}
	for t, h := range overrides {
		f := fold.String(t)
		if h == "" {
			delete(m.headers, f)

			continue
		}
		m.headers[f] = h
		if !slices.Contains(m.tags, f) {
			m.tags = append(m.tags, f)
		}
	}

	return m
}

// Header returns the header mapped to tag.
func (m *TagMap) Header(tag string) (string, bool) {
	h, ok := m.headers[cases.Fold().String(tag)]

	return h, ok
}

// Len returns the number of mapped tags.
func (m *TagMap) Len() int {
	return len(m.headers)
}

// Unmapped returns the folded tags without a header, in tag order.
func (m *TagMap) Unmapped() []string {
	var out []string
	for _, t := range m.tags {
		if _, ok := m.headers[t]; !ok {
			out = append(out, t)
		}
	}

	return out
}

// Resolve returns the row's value for every mapped tag whose header the row
// has. Keys are case-folded tags.
func (m *TagMap) Resolve(row Row) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.headers))
	for t, h := range m.headers {
		if v, ok := row.Get(h); ok {
			out[t] = v
		}
	}

	return out
}

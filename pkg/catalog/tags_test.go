package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/draftkit/pkg/catalog"
)

func TestTagMapMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	m := catalog.NewTagMap([]string{"NAME", "DWG_NO", "REV"}, []string{"name", "dwg_no", "date"}, nil)

	h, ok := m.Header("NAME")
	assert.True(t, ok)
	assert.Equal(t, "name", h)

	h, ok = m.Header("dwg_no")
	assert.True(t, ok)
	assert.Equal(t, "dwg_no", h)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"rev"}, m.Unmapped())

	got := m.Resolve(catalog.Values{"name": "Plan", "dwg_no": "A-1", "date": "today"})
	assert.Equal(t, map[string]string{"name": "Plan", "dwg_no": "A-1"}, got)
}

func TestTagMapOverrides(t *testing.T) {
	t.Parallel()

	m := catalog.NewTagMap(
		[]string{"TITLE", "NO", "SCALE"},
		[]string{"title", "number", "scale"},
		map[string]string{"no": "number", "Scale": ""},
	)

	h, ok := m.Header("NO")
	assert.True(t, ok)
	assert.Equal(t, "number", h)

	_, ok = m.Header("SCALE")
	assert.False(t, ok, "empty override removes the pairing")

	got := m.Resolve(catalog.Values{"title": "T", "number": "7", "scale": "1:100"})
	assert.Equal(t, map[string]string{"title": "T", "no": "7"}, got)
}

func TestValuesGet(t *testing.T) {
	t.Parallel()

	v := catalog.Values{"Name": "x"}

	s, ok := v.Get("NAME")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = v.Get("other")
	assert.False(t, ok)

	assert.Equal(t, []string{"Name"}, v.Headers())
}

package drafting_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/automation/automationtest"
	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/cad/cadtest"
	"github.com/macropower/draftkit/pkg/catalog"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/drafting"
	"github.com/macropower/draftkit/pkg/sheet"
	"github.com/macropower/draftkit/pkg/templatestore"
	"github.com/macropower/draftkit/pkg/wildcard"
)

type templates map[string]string

func (t templates) Materialize(_ context.Context, kind templatestore.Kind, name string) (string, error) {
	path, ok := t[string(kind)+"/"+name]
	if !ok {
		return "", templatestore.ErrTemplateNotFound
	}

	return path, nil
}

type recorder struct {
	items   map[string]int
	failed  map[string]int
	written int
	blanked int
	dropped int
	plots   int
	mu      sync.Mutex
}

func newRecorder() *recorder {
	return &recorder{items: map[string]int{}, failed: map[string]int{}}
}

func (r *recorder) Placed(written, blanked, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.written += written
	r.blanked += blanked
	r.dropped += dropped
}

func (r *recorder) Plotted(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		r.plots++
	}
}

func (r *recorder) ItemDone(command string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[command]++
	if err != nil {
		r.failed[command]++
	}
}

type fixture struct {
	engine  *cadtest.Engine
	config  *config.Config
	rec     *recorder
	runner  *drafting.Runner
	dir     string
	events  []any
	eventMu sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	engine := cadtest.NewEngine()
	engine.RegisterFragment("catalog",
		cadtest.BlockDef{Children: []cadtest.Child{
			{Block: "cell", At: automation.Point{X: 300, Y: 100}},
			{Block: "cell", At: automation.Point{X: 10, Y: 100}},
			{Block: "cell", At: automation.Point{X: 300, Y: 200}},
			{Block: "cell", At: automation.Point{X: 10, Y: 200}},
		}},
		cadtest.BlockDef{Name: "cell", Attributes: []string{"DWG_NO", "NAME"}},
	)
	engine.RegisterFragment("frame")

	cfg := config.Default()
	cfg.Project.Path = dir
	cfg.CatalogStyles["catalog"] = config.CatalogStyle{Size: "A1", TableBlockName: "table", CellBlockName: "cell"}
	cfg.BorderStyles["frame"] = config.BorderStyle{Size: "A1", BorderBlockName: "frame", SignatureBlockName: "stamp"}
	cfg.Catalog.Style = "catalog"
	cfg.Catalog.TargetFile = "catalog.dwg"
	cfg.Catalog.Prefix = "CAT-"

	f := &fixture{
		engine: engine,
		config: cfg,
		rec:    newRecorder(),
		dir:    dir,
	}

	tpl := templates{
		"catalog/catalog": filepath.Join(dir, "templates", "catalog.dwg"),
		"border/frame":    filepath.Join(dir, "templates", "frame.dwg"),
	}

	f.runner = drafting.NewRunner(cfg, drafting.StaticConnector(engine.Application()),
		drafting.WithTemplates(tpl),
		drafting.WithRecorder(f.rec),
	)
	f.runner.Subscribe(func(evt any) {
		f.eventMu.Lock()
		defer f.eventMu.Unlock()

		f.events = append(f.events, evt)
	})

	return f
}

func (f *fixture) Events() []any {
	f.eventMu.Lock()
	defer f.eventMu.Unlock()

	return append([]any(nil), f.events...)
}

func catalogSheet(name string, rows ...[2]string) sheet.Sheet {
	s := sheet.Sheet{Name: name, Headers: []string{"dwg_no", "name"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, sheet.NewRow(name, map[string]string{"dwg_no": r[0], "name": r[1]}))
	}

	return s
}

// textAt returns an attribute of the reference inserted at x,y.
func textAt(t *testing.T, refs []*automationtest.Object, x, y float64, tag string) string {
	t.Helper()

	for _, ref := range refs {
		pt, _ := ref.Prop("InsertionPoint").([]any)
		if pt[0] == x && pt[1] == y {
			return cadtest.AttributeText(ref, tag)
		}
	}
	require.Failf(t, "no reference", "at %v,%v", x, y)

	return ""
}

func TestLayoutName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		replace        map[string]string
		prefix, suffix string
		input, want    string
	}{
		"plain": {
			input: "Building A",
			want:  "Building A",
		},
		"prefix and suffix": {
			prefix: "CAT-",
			suffix: "-01",
			input:  "B",
			want:   "CAT-B-01",
		},
		"replacements": {
			replace: map[string]string{"Building": "Bldg", " ": "_"},
			input:   "Building A",
			want:    "Bldg_A",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.Catalog.LayoutReplace = tc.replace
			cfg.Catalog.Prefix = tc.prefix
			cfg.Catalog.Suffix = tc.suffix

			r := drafting.NewRunner(cfg, nil)
			assert.Equal(t, tc.want, r.LayoutName(tc.input))
		})
	}
}

func TestCreateCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	sheets := []sheet.Sheet{
		catalogSheet("Building A", [2]string{"A-1", "Plan"}, [2]string{"A-2", "Section"}, [2]string{"A-3", "Roof"}),
		catalogSheet("Building B", [2]string{"B-1", "Site"}),
	}

	require.NoError(t, f.runner.CreateCatalog(t.Context(), sheets))

	d := f.engine.Drawing(filepath.Join(f.dir, "catalog.dwg"))
	require.NotNil(t, d, "catalog drawing is created at the target")
	assert.Equal(t, []string{"Model", "CAT-Building A", "CAT-Building B"}, d.LayoutNames())

	refs := d.References("CAT-Building A", "cell")
	require.Len(t, refs, 4)
	assert.Equal(t, "A-1", textAt(t, refs, 10, 200, "DWG_NO"))
	assert.Equal(t, "A-2", textAt(t, refs, 10, 100, "DWG_NO"))
	assert.Equal(t, "A-3", textAt(t, refs, 300, 200, "DWG_NO"))
	assert.Equal(t, "Roof", textAt(t, refs, 300, 200, "NAME"))
	assert.Empty(t, textAt(t, refs, 300, 100, "DWG_NO"))

	refs = d.References("CAT-Building B", "cell")
	require.Len(t, refs, 4)
	assert.Equal(t, "Site", textAt(t, refs, 10, 200, "NAME"))

	assert.False(t, d.HasBlock("catalog"), "template block is removed")
	assert.Empty(t, d.References("Model", "catalog"))
	assert.Positive(t, d.Saves)
	assert.Positive(t, d.Regens)

	assert.Equal(t, 4, f.rec.written)
	assert.Equal(t, 4, f.rec.blanked)
	assert.Equal(t, 2, f.rec.items["catalog"])

	assert.Equal(t, []any{
		drafting.EventSetTotal(2),
		drafting.EventStarted("CAT-Building A"),
		drafting.EventFinished{Name: "CAT-Building A"},
		drafting.EventStarted("CAT-Building B"),
		drafting.EventFinished{Name: "CAT-Building B"},
		drafting.EventDone{},
	}, f.Events())
}

func TestCreateCatalogTooManyRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	s := catalogSheet("A",
		[2]string{"1", "a"}, [2]string{"2", "b"}, [2]string{"3", "c"},
		[2]string{"4", "d"}, [2]string{"5", "e"},
	)

	err := f.runner.CreateCatalog(t.Context(), []sheet.Sheet{s})
	require.ErrorIs(t, err, catalog.ErrCountMismatch)

	var mm *catalog.MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, 5, mm.Rows)
	assert.Equal(t, 4, mm.Cells)

	d := f.engine.Drawing(filepath.Join(f.dir, "catalog.dwg"))
	require.NotNil(t, d)
	refs := d.References("CAT-A", "cell")
	assert.Equal(t, "4", textAt(t, refs, 300, 100, "DWG_NO"), "rows that fit are still written")
	assert.Positive(t, d.Saves, "drawing is saved despite the mismatch")
	assert.Equal(t, 1, f.rec.dropped)
	assert.Equal(t, 1, f.rec.failed["catalog"])
}

func TestCreateCatalogRebuild(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		update    bool
		wantStale bool
		wantPurge int
	}{
		"update keeps layouts": {
			update:    true,
			wantStale: true,
		},
		"rebuild replaces layouts": {
			update:    false,
			wantPurge: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.config.Catalog.Update = tc.update

			d := f.engine.AddDrawing(filepath.Join(f.dir, "catalog.dwg"), "CAT-A", "Other")
			d.DefineBlock(cadtest.BlockDef{Name: "cell", Attributes: []string{"DWG_NO", "NAME"}})
			d.DefineBlock(cadtest.BlockDef{Name: "note"})
			_, err := d.Place("CAT-A", "cell", automation.Point{X: 10, Y: 200})
			require.NoError(t, err)
			_, err = d.Place("CAT-A", "note", automation.Point{X: 50, Y: 50})
			require.NoError(t, err)

			s := catalogSheet("A", [2]string{"1", "a"})
			require.NoError(t, f.runner.CreateCatalog(t.Context(), []sheet.Sheet{s}))

			assert.Equal(t, tc.wantStale, len(d.References("CAT-A", "note")) == 1)
			assert.Equal(t, tc.wantPurge, d.Purges)
			assert.Contains(t, d.LayoutNames(), "Other")

			refs := d.References("CAT-A", "cell")
			if tc.update {
				require.Len(t, refs, 1)
			} else {
				require.Len(t, refs, 4)
			}
			assert.Equal(t, "1", textAt(t, refs, 10, 200, "DWG_NO"))
		})
	}
}

func TestCreateCatalogErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate func(f *fixture)
		want   error
	}{
		"no target": {
			mutate: func(f *fixture) { f.config.Catalog.TargetFile = "" },
			want:   drafterrors.ErrInvalidArguments,
		},
		"unknown style": {
			mutate: func(f *fixture) { f.config.Catalog.Style = "missing" },
			want:   drafterrors.ErrStyleNotFound,
		},
		"unknown paper size": {
			mutate: func(f *fixture) {
				f.config.CatalogStyles["catalog"] = config.CatalogStyle{Size: "B9", TableBlockName: "t", CellBlockName: "cell"}
			},
			want: drafterrors.ErrNotFound,
		},
		"template not stored": {
			mutate: func(f *fixture) {
				f.config.CatalogStyles["other"] = config.CatalogStyle{Size: "A1", TableBlockName: "t", CellBlockName: "cell"}
				f.config.Catalog.Style = "other"
			},
			want: templatestore.ErrTemplateNotFound,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tc.mutate(f)

			err := f.runner.CreateCatalog(t.Context(), []sheet.Sheet{catalogSheet("A")})
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.engine.OpenDocuments())
		})
	}
}

func TestCreateCatalogNoTemplates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := drafting.NewRunner(f.config, drafting.StaticConnector(f.engine.Application()))

	var done []drafting.EventDone
	r.Subscribe(func(evt any) {
		if e, ok := evt.(drafting.EventDone); ok {
			done = append(done, e)
		}
	})

	err := r.CreateCatalog(t.Context(), []sheet.Sheet{catalogSheet("A")})
	require.ErrorIs(t, err, drafting.ErrNoTemplates)
	require.Len(t, done, 1, "failures before connecting still finish the command")
	require.ErrorIs(t, done[0].Err, drafting.ErrNoTemplates)
}

func TestCreateCatalogTableBlock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.engine.RegisterFragment("tabled",
		cadtest.BlockDef{Children: []cadtest.Child{
			{Block: "table", At: automation.Point{X: 100, Y: 0}},
		}},
		cadtest.BlockDef{Name: "table", Children: []cadtest.Child{
			{Block: "cell", At: automation.Point{X: 10, Y: 200}},
			{Block: "cell", At: automation.Point{X: 10, Y: 100}},
		}},
		cadtest.BlockDef{Name: "cell", Attributes: []string{"DWG_NO", "NAME"}},
	)
	f.config.CatalogStyles["tabled"] = config.CatalogStyle{Size: "A1", TableBlockName: "table", CellBlockName: "cell"}
	f.config.Catalog.Style = "tabled"

	r := drafting.NewRunner(f.config, drafting.StaticConnector(f.engine.Application()),
		drafting.WithTemplates(templates{
			"catalog/tabled": filepath.Join(f.dir, "templates", "tabled.dwg"),
		}),
	)

	sheets := []sheet.Sheet{catalogSheet("A", [2]string{"A-1", "Plan"}, [2]string{"A-2", "Section"})}
	require.NoError(t, r.CreateCatalog(t.Context(), sheets))

	d := f.engine.Drawing(filepath.Join(f.dir, "catalog.dwg"))
	require.NotNil(t, d)

	assert.Empty(t, d.References("CAT-A", "table"), "table references are exploded away")

	refs := d.References("CAT-A", "cell")
	require.Len(t, refs, 2)
	assert.Equal(t, "A-1", textAt(t, refs, 110, 200, "DWG_NO"))
	assert.Equal(t, "Section", textAt(t, refs, 110, 100, "NAME"))
}

func TestConnectFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("application not installed")
	f := newFixture(t)
	r := drafting.NewRunner(f.config, func() (*cad.Application, io.Closer, error) {
		return nil, nil, cause
	})

	var done drafting.EventDone
	r.Subscribe(func(evt any) {
		if e, ok := evt.(drafting.EventDone); ok {
			done = e
		}
	})

	err := r.FreezeLayers(t.Context(), nil, config.FreezeRule{Include: "*"})
	require.ErrorIs(t, err, drafting.ErrConnect)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, done.Err, cause)
}

func borderSheet(rows ...[3]string) []sheet.Sheet {
	s := sheet.Sheet{Name: "Sub1", Headers: drafting.BorderColumns}
	for _, r := range rows {
		s.Rows = append(s.Rows, sheet.NewRow("Sub1", map[string]string{
			drafting.ColumnFile:        r[0],
			drafting.ColumnLayout:      r[1],
			drafting.ColumnBorderStyle: r[2],
		}))
	}

	return []sheet.Sheet{s}
}

func TestInsertBorders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.config.Border.Close = true

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1", "L2")
	d.DefineBlock(cadtest.BlockDef{Name: "frame"})
	_, err := d.Place("L1", "frame", automation.Point{X: 5, Y: 5})
	require.NoError(t, err)

	err = f.runner.InsertBorders(t.Context(), borderSheet(
		[3]string{"a.dwg", "L1", "frame"},
		[3]string{"missing.dwg", "L1", "frame"},
		[3]string{"a.dwg", "L2", "frame"},
	))
	require.ErrorIs(t, err, cadtest.ErrNoSuchFile)
	assert.Contains(t, err.Error(), "missing.dwg")

	for _, layout := range []string{"L1", "L2"} {
		refs := d.References(layout, "frame")
		require.Len(t, refs, 1, layout)
		assert.Equal(t, []any{0.0, 0.0, 0.0}, refs[0].Prop("InsertionPoint"))
		assert.Equal(t, "0", refs[0].Prop("Layer"))
	}
	assert.Equal(t, 1, d.Saves)
	assert.True(t, d.Closed)

	assert.Equal(t, 2, f.rec.items["border"])
	assert.Equal(t, 1, f.rec.failed["border"])

	events := f.Events()
	assert.Equal(t, drafting.EventSetTotal(2), events[0])
	assert.Equal(t, drafting.EventStarted("a.dwg"), events[1])
}

func TestInsertBordersRemovesOlderBorders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	style := f.config.BorderStyles["frame"]
	style.BorderBlockName = "legacy"
	f.config.BorderStyles["frame"] = style

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1")
	d.DefineBlock(cadtest.BlockDef{Name: "legacy"})
	_, err := d.Place("L1", "legacy", automation.Point{X: 5, Y: 5})
	require.NoError(t, err)

	require.NoError(t, f.runner.InsertBorders(t.Context(), borderSheet([3]string{"a.dwg", "L1", "frame"})))

	assert.Empty(t, d.References("L1", "legacy"))
	assert.Len(t, d.References("L1", "frame"), 1)
}

func TestInsertBordersUnknownStyle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1")

	err := f.runner.InsertBorders(t.Context(), borderSheet([3]string{"a.dwg", "L1", "nope"}))
	require.ErrorIs(t, err, drafterrors.ErrStyleNotFound)
	assert.Empty(t, d.References("L1", "frame"))
	assert.False(t, d.Closed, "drawing stays open without border.close")
}

func titleSheet(rows ...map[string]string) []sheet.Sheet {
	s := sheet.Sheet{Name: "Sub1"}
	for _, r := range rows {
		s.Rows = append(s.Rows, sheet.NewRow("Sub1", r))
	}

	return []sheet.Sheet{s}
}

func TestUpdateTitleBlocks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.config.Plot.NamedTemplate = "<dwg_no>_<name>.pdf"

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1", "L2")
	d.DefineBlock(cadtest.BlockDef{Name: "stamp", Attributes: []string{"DWG_NO", "NAME", "DATE"}})
	old, err := d.Place("L1", "stamp", automation.Origin)
	require.NoError(t, err)
	cadtest.SetAttributeText(old, "DATE", "2019-01-01")
	_, err = d.Place("L2", "stamp", automation.Origin)
	require.NoError(t, err)

	err = f.runner.UpdateTitleBlocks(t.Context(), titleSheet(
		map[string]string{"file": "a.dwg", "layout": "L1", "border_style": "frame", "dwg_no": "A-1", "name": "Plan"},
		map[string]string{"file": "notes.txt", "layout": "L1", "border_style": "frame", "dwg_no": "X", "name": "X"},
		map[string]string{"file": "a.dwg", "layout": "L2", "border_style": "frame", "dwg_no": "A-2", "name": "Section"},
	), true)
	require.NoError(t, err)

	l1 := d.References("L1", "stamp")
	require.Len(t, l1, 1)
	assert.Equal(t, "A-1", cadtest.AttributeText(l1[0], "DWG_NO"))
	assert.Equal(t, "Plan", cadtest.AttributeText(l1[0], "NAME"))
	assert.Empty(t, cadtest.AttributeText(l1[0], "DATE"), "attributes without a column are cleared")

	l2 := d.References("L2", "stamp")
	require.Len(t, l2, 1)
	assert.Equal(t, "Section", cadtest.AttributeText(l2[0], "NAME"))

	assert.Equal(t, []string{
		filepath.Join(f.dir, "print", "A-1_Plan.pdf"),
		filepath.Join(f.dir, "print", "A-2_Section.pdf"),
	}, d.Plotted)
	assert.Equal(t, int32(0), d.Variable("BACKGROUNDPLOT"))
	assert.DirExists(t, filepath.Join(f.dir, "print"))
	assert.True(t, d.Closed)
	assert.Equal(t, 2, f.rec.plots)

	assert.Contains(t, f.Events(), drafting.EventSkipped{Name: "notes.txt", Reason: drafterrors.ErrNotDrawing.Error()})
}

func TestUpdateTitleBlocksMixedHeaders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	stamp := cadtest.BlockDef{Name: "stamp", Attributes: []string{"DWG_NO", "NAME"}}
	a := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1")
	b := f.engine.AddDrawing(filepath.Join(f.dir, "b.dwg"), "L1")
	for _, d := range []*cadtest.Drawing{a, b} {
		d.DefineBlock(stamp)
		_, err := d.Place("L1", "stamp", automation.Origin)
		require.NoError(t, err)
	}

	sheets := []sheet.Sheet{
		{Name: "Sub1", Rows: []sheet.Row{sheet.NewRow("Sub1", map[string]string{
			"file": "a.dwg", "layout": "L1", "border_style": "frame", "dwg_no": "A-1",
		})}},
		{Name: "Sub2", Rows: []sheet.Row{sheet.NewRow("Sub2", map[string]string{
			"file": "b.dwg", "layout": "L1", "border_style": "frame", "name": "Section",
		})}},
	}

	require.NoError(t, f.runner.UpdateTitleBlocks(t.Context(), sheets, false))

	refs := a.References("L1", "stamp")
	require.Len(t, refs, 1)
	assert.Equal(t, "A-1", cadtest.AttributeText(refs[0], "DWG_NO"))

	refs = b.References("L1", "stamp")
	require.Len(t, refs, 1)
	assert.Equal(t, "Section", cadtest.AttributeText(refs[0], "NAME"), "each sheet maps its own columns")
	assert.Empty(t, cadtest.AttributeText(refs[0], "DWG_NO"))
}

func TestUpdateTitleBlocksWithoutPlot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.config.Plot.Close = false

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1")
	d.DefineBlock(cadtest.BlockDef{Name: "signature", Attributes: []string{"DWG_NO"}})
	_, err := d.Place("L1", "signature", automation.Origin)
	require.NoError(t, err)

	// No border_style column: the default style's signature block is used.
	err = f.runner.UpdateTitleBlocks(t.Context(), titleSheet(
		map[string]string{"file": "a.dwg", "layout": "L1", "dwg_no": "A-9"},
	), false)
	require.NoError(t, err)

	refs := d.References("L1", "signature")
	assert.Equal(t, "A-9", cadtest.AttributeText(refs[0], "DWG_NO"))
	assert.Empty(t, d.Plotted)
	assert.Equal(t, 1, d.Saves)
	assert.False(t, d.Closed)
}

func TestUpdateTitleBlocksPlotFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"), "L1", "L2")
	d.DefineBlock(cadtest.BlockDef{Name: "stamp", Attributes: []string{"DWG_NO"}})
	for _, l := range []string{"L1", "L2"} {
		_, err := d.Place(l, "stamp", automation.Origin)
		require.NoError(t, err)
	}
	d.FailPlots()

	err := f.runner.UpdateTitleBlocks(t.Context(), titleSheet(
		map[string]string{"file": "a.dwg", "layout": "L1", "border_style": "frame", "dwg_no": "A-1"},
		map[string]string{"file": "a.dwg", "layout": "L2", "border_style": "frame", "dwg_no": "A-2"},
	), true)
	require.ErrorIs(t, err, cad.ErrPlotFailed)
	assert.Contains(t, err.Error(), `layout "L1"`)
	assert.Contains(t, err.Error(), `layout "L2"`)

	refs := d.References("L2", "stamp")
	assert.Equal(t, "A-2", cadtest.AttributeText(refs[0], "DWG_NO"), "later layouts are still processed")
	assert.Equal(t, 1, d.Saves)
	assert.Zero(t, f.rec.plots)
	assert.Equal(t, 1, f.rec.failed["plot"])
}

func TestPlotTarget(t *testing.T) {
	t.Parallel()

	row := sheet.NewRow("Sub1", map[string]string{
		"layout":      "L1",
		"dwg_no":      "A-1",
		"name":        "Plan",
		"sub_project": "Sub1",
	})

	tcs := map[string]struct {
		template  string
		printPath string
		project   string
		want      string
	}{
		"default template": {
			printPath: "/out",
			want:      filepath.Join("/out", "a_L1.pdf"),
		},
		"placeholders": {
			template:  "<dwg_no>_<name>_<sub_project>.pdf",
			printPath: "/out",
			want:      filepath.Join("/out", "A-1_Plan_Sub1.pdf"),
		},
		"unknown placeholder is blank": {
			template:  "<dwg_no><rev>.pdf",
			printPath: "/out",
			want:      filepath.Join("/out", "A-1.pdf"),
		},
		"relative print path": {
			template:  "<DWG_NO>.pdf",
			printPath: "print",
			project:   "/proj",
			want:      filepath.Join("/proj", "print", "A-1.pdf"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.Plot.NamedTemplate = tc.template
			cfg.Plot.PrintPath = tc.printPath
			cfg.Project.Path = tc.project

			r := drafting.NewRunner(cfg, nil)
			assert.Equal(t, tc.want, r.PlotTarget(row, "/drawings/a.dwg"))
		})
	}
}

func layerFixture(t *testing.T) (*fixture, *cadtest.Drawing) {
	t.Helper()

	f := newFixture(t)
	f.config.Layers.Close = true

	d := f.engine.AddDrawing(filepath.Join(f.dir, "a.dwg"))
	d.AddLayer("TEXT", false)
	d.AddLayer("A-TEXT-2", false)
	d.AddLayer("OLD_KEEP", true)
	d.AddLayer("xref|WALL", true)
	d.AddLayer("WINDOW", false)
	d.AddLayer("PUB_HATCH", false)
	d.AddLayer("COLUMN", false)

	return f, d
}

func TestFreezeLayers(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		unfreeze bool
		want     map[string]bool
	}{
		"freeze only": {
			want: map[string]bool{
				"0": false, "TEXT": true, "A-TEXT-2": true, "OLD_KEEP": true,
				"xref|WALL": true, "WINDOW": false,
			},
		},
		"unfreeze others": {
			unfreeze: true,
			want: map[string]bool{
				"0": false, "TEXT": true, "A-TEXT-2": true, "OLD_KEEP": false,
				"xref|WALL": false, "WINDOW": false,
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, d := layerFixture(t)

			err := f.runner.FreezeLayers(t.Context(), []string{"a.dwg"}, config.FreezeRule{
				Include:  "*text*|old*",
				Exclude:  "old_keep",
				Unfreeze: tc.unfreeze,
			})
			require.NoError(t, err)

			for layer, frozen := range tc.want {
				assert.Equal(t, frozen, d.Layer(layer).Prop("Freeze"), layer)
			}
			assert.Equal(t, 1, d.Saves)
			assert.True(t, d.Closed)
			assert.Equal(t, 1, f.rec.items["layer"])
		})
	}
}

func TestFreezeLayersActiveDocument(t *testing.T) {
	t.Parallel()

	f, d := layerFixture(t)
	_, err := f.engine.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	require.NoError(t, f.runner.FreezeLayers(t.Context(), nil, config.FreezeRule{Include: "TEXT"}))

	assert.Equal(t, true, d.Layer("TEXT").Prop("Freeze"))
	assert.Equal(t, false, d.Layer("A-TEXT-2").Prop("Freeze"))
	assert.Zero(t, d.Saves, "the active drawing is left unsaved")
	assert.False(t, d.Closed)

	assert.Equal(t, []any{
		drafting.EventSetTotal(1),
		drafting.EventStarted(d.Path()),
		drafting.EventFinished{Name: d.Path()},
		drafting.EventDone{},
	}, f.Events())
}

func TestFreezeLayersInvalidPattern(t *testing.T) {
	t.Parallel()

	f, _ := layerFixture(t)

	err := f.runner.FreezeLayers(t.Context(), []string{"a.dwg"}, config.FreezeRule{Include: "wall("})
	require.ErrorIs(t, err, wildcard.ErrInvalidPattern)

	events := f.Events()
	require.Len(t, events, 1, "only the outcome is reported for an invalid rule")
	done, ok := events[0].(drafting.EventDone)
	require.True(t, ok)
	require.ErrorIs(t, done.Err, wildcard.ErrInvalidPattern)
}

func TestSetLayerProperty(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		pattern string
		prop    string
		value   any
		want    map[string]any
	}{
		"lineweight": {
			pattern: "*text*",
			prop:    "Lineweight",
			value:   int32(50),
			want: map[string]any{
				"TEXT": int32(50), "A-TEXT-2": int32(50), "WINDOW": int32(cad.LineweightDefault),
			},
		},
		"freeze alternatives": {
			pattern: "window|column",
			prop:    "Freeze",
			value:   true,
			want: map[string]any{
				"WINDOW": true, "COLUMN": true, "TEXT": false,
			},
		},
		"new property": {
			pattern: "*wall",
			prop:    "Color",
			value:   int32(1),
			want: map[string]any{
				"xref|WALL": int32(1), "WINDOW": nil,
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, d := layerFixture(t)

			require.NoError(t, f.runner.SetLayerProperty(t.Context(), []string{"a.dwg"}, tc.pattern, tc.prop, tc.value))

			for layer, v := range tc.want {
				assert.Equal(t, v, d.Layer(layer).Prop(tc.prop), layer)
			}
			assert.Equal(t, 1, d.Saves)
			assert.True(t, d.Closed)
			assert.Equal(t, 1, f.rec.items["layer"])
		})
	}
}

func TestSetLayerPropertyInvalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		pattern string
		prop    string
		want    error
	}{
		"empty pattern": {
			prop: "Color",
			want: drafterrors.ErrInvalidArguments,
		},
		"bad pattern": {
			pattern: "wall(",
			prop:    "Color",
			want:    wildcard.ErrInvalidPattern,
		},
		"no property": {
			pattern: "*",
			want:    drafterrors.ErrInvalidArguments,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, d := layerFixture(t)

			err := f.runner.SetLayerProperty(t.Context(), []string{"a.dwg"}, tc.pattern, tc.prop, 1)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, d.Saves)
		})
	}
}

func TestSetLineweights(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate func(r *config.LineweightRule)
		want   map[string]int32
	}{
		"defaults": {
			want: map[string]int32{
				"xref|WALL": 30, "COLUMN": 30, "WINDOW": 15,
				"PUB_HATCH": 5, "TEXT": 5, "0": 5,
			},
		},
		"reset unmatched": {
			mutate: func(r *config.LineweightRule) { r.Thin = "" },
			want: map[string]int32{
				"xref|WALL": 30, "WINDOW": 15,
				"TEXT": cad.LineweightDefault, "0": cad.LineweightDefault,
			},
		},
		"exclusions fall through": {
			mutate: func(r *config.LineweightRule) {
				r.HeavyExclude = "column"
				r.Thin = "text"
				r.ResetOthers = false
			},
			want: map[string]int32{
				"xref|WALL": 30, "COLUMN": cad.LineweightDefault, "TEXT": 5,
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, d := layerFixture(t)

			rule := config.Default().Layers.Lineweight
			if tc.mutate != nil {
				tc.mutate(&rule)
			}

			require.NoError(t, f.runner.SetLineweights(t.Context(), []string{"a.dwg"}, rule))

			for layer, w := range tc.want {
				assert.Equal(t, w, d.Layer(layer).Prop("Lineweight"), layer)
			}
		})
	}
}

func TestSetLineweightsMissingFile(t *testing.T) {
	t.Parallel()

	f, d := layerFixture(t)

	err := f.runner.SetLineweights(t.Context(), []string{"missing.dwg", "a.dwg"}, config.Default().Layers.Lineweight)
	require.ErrorIs(t, err, cadtest.ErrNoSuchFile)

	assert.Equal(t, int32(30), d.Layer("COLUMN").Prop("Lineweight"), "remaining files are processed")
	assert.Equal(t, 1, f.rec.failed["layer"])
	assert.Equal(t, 2, f.rec.items["layer"])
}

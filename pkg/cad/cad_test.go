package cad_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/cad/cadtest"
)

func TestOpenDocumentReusesOpenWritableDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.dwg")

	e := cadtest.NewEngine()
	e.AddDrawing(path, "Sheet1")
	app := e.Application()

	first, err := app.OpenDocument(path)
	require.NoError(t, err)
	second, err := app.OpenDocument(path)
	require.NoError(t, err)

	n1, err := first.FullName()
	require.NoError(t, err)
	n2, err := second.FullName()
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
	assert.Len(t, e.OpenDocuments(), 1)

	_, err = app.OpenDocument(filepath.Join(dir, "missing.dwg"))
	require.ErrorIs(t, err, cadtest.ErrNoSuchFile)
}

func TestOpenDocumentSkipsReadOnlyCopy(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.dwg")

	e := cadtest.NewEngine()
	d := e.AddDrawing(path)
	app := e.Application()

	_, err := app.OpenDocument(path)
	require.NoError(t, err)
	d.Doc.WithProp("ReadOnly", true)

	_, err = app.OpenDocument(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Doc.Attempts("ReadOnly"))
	assert.Zero(t, d.Doc.Attempts("Activate"), "read-only copies are not reused")
	assert.Len(t, e.OpenDocuments(), 1)
}

func TestNewDocumentSavesAtPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.dwg")

	e := cadtest.NewEngine()
	doc, err := e.Application().NewDocument(path)
	require.NoError(t, err)

	name, err := doc.FullName()
	require.NoError(t, err)
	assert.Equal(t, path, name)
	assert.FileExists(t, path)
	require.NotNil(t, e.Drawing(path))
}

func TestCreateLayoutAppliesPlotSettings(t *testing.T) {
	t.Parallel()

	e := cadtest.NewEngine()
	d := e.AddDrawing(filepath.Join(t.TempDir(), "a.dwg"))
	doc, err := e.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	_, err = doc.CreateLayout("Catalog-1", cad.PlotSettings{
		Device:     "DWG To PDF.pc3",
		Media:      "ISO full bleed A3 (420.00 x 297.00 MM)",
		StyleSheet: "monochrome.ctb",
	})
	require.NoError(t, err)

	ly := d.Layout("Catalog-1")
	require.NotNil(t, ly)
	assert.Equal(t, "DWG To PDF.pc3", ly.Prop("ConfigName"))
	assert.Equal(t, "ISO_full_bleed_A3_(420.00_x_297.00_MM)", ly.Prop("CanonicalMediaName"))
	assert.Equal(t, int32(1), ly.Prop("PaperUnits"))
	assert.Equal(t, "monochrome.ctb", ly.Prop("StyleSheet"))
	assert.Equal(t, int32(0), ly.Prop("PlotRotation"))
	assert.Equal(t, []any{1.0, 1.0}, ly.Prop("CustomScale"))
	assert.Equal(t, 1, d.Regens)
}

func TestBlockReferenceAttributes(t *testing.T) {
	t.Parallel()

	e := cadtest.NewEngine()
	d := e.AddDrawing(filepath.Join(t.TempDir(), "a.dwg"), "Sheet1")
	d.DefineBlock(cadtest.BlockDef{Name: "signature", Attributes: []string{"DWG_NO", "Title", "Date"}})
	ref, err := d.Place("Sheet1", "signature", automation.Point{X: 5, Y: 6})
	require.NoError(t, err)
	cadtest.SetAttributeText(ref, "Date", "2024-01-01")

	doc, err := e.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	tags, err := doc.AttributeTags("signature")
	require.NoError(t, err)
	assert.Equal(t, []string{"DWG_NO", "Title", "Date"}, tags)

	ly, err := doc.Layout("Sheet1")
	require.NoError(t, err)
	sp, err := ly.Block()
	require.NoError(t, err)
	refs, err := sp.BlockReferences("signature")
	require.NoError(t, err)
	require.Len(t, refs, 1)

	pt, err := refs[0].InsertionPoint()
	require.NoError(t, err)
	assert.Equal(t, automation.Point{X: 5, Y: 6}, pt)

	require.NoError(t, refs[0].SetAttributes(map[string]string{"dwg_no": "A-101", "TITLE": "Plan"}))
	assert.Equal(t, "A-101", cadtest.AttributeText(ref, "DWG_NO"))
	assert.Equal(t, "Plan", cadtest.AttributeText(ref, "Title"))
	assert.Equal(t, "2024-01-01", cadtest.AttributeText(ref, "Date"), "unmapped tags are untouched")

	require.NoError(t, refs[0].ClearAttributes())
	assert.Empty(t, cadtest.AttributeText(ref, "DWG_NO"))
	assert.Empty(t, cadtest.AttributeText(ref, "Date"))
}

func TestInsertExplodeAndDeleteBlock(t *testing.T) {
	t.Parallel()

	e := cadtest.NewEngine()
	e.RegisterFragment("A3",
		cadtest.BlockDef{Children: []cadtest.Child{
			{Block: "cell", At: automation.Point{X: 10, Y: 20}},
			{Block: "cell", At: automation.Point{X: 30, Y: 20}},
		}},
		cadtest.BlockDef{Name: "cell", Attributes: []string{"NO"}},
	)
	d := e.AddDrawing(filepath.Join(t.TempDir(), "a.dwg"), "Sheet1")

	doc, err := e.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	ly, err := doc.Layout("Sheet1")
	require.NoError(t, err)
	sp, err := ly.Block()
	require.NoError(t, err)

	ref, err := sp.InsertBlock(automation.Origin, "/templates/A3.dwg", 1, 0)
	require.NoError(t, err)
	name, err := ref.Name()
	require.NoError(t, err)
	assert.Equal(t, "A3", name)

	require.NoError(t, ref.Explode())
	cells, err := sp.BlockReferences("cell")
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	require.NoError(t, doc.DeleteBlock("A3"))
	assert.False(t, d.HasBlock("A3"))
	assert.Empty(t, d.References("Sheet1", "A3"))
	assert.Len(t, d.References("Sheet1", "cell"), 2)

	n, err := sp.DeleteBlockReferences("cell")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = doc.Block("missing")
	require.ErrorIs(t, err, cad.ErrBlockNotFound)
}

func TestPlotLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := cadtest.NewEngine()
	d := e.AddDrawing(filepath.Join(dir, "a.dwg"), "Sheet1")

	doc, err := e.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	target := filepath.Join(dir, "out", "a_Sheet1.pdf")
	require.NoError(t, doc.PlotLayout("Sheet1", target))
	assert.Equal(t, []string{target}, d.Plotted)
	assert.Equal(t, int32(0), d.Variable("BACKGROUNDPLOT"))
	assert.DirExists(t, filepath.Join(dir, "out"))
	assert.Same(t, d.Layout("Sheet1"), d.Doc.Prop("ActiveLayout"))

	d.FailPlots()
	err = doc.PlotLayout("Sheet1", target)
	require.ErrorIs(t, err, cad.ErrPlotFailed)
}

func TestLayers(t *testing.T) {
	t.Parallel()

	e := cadtest.NewEngine()
	d := e.AddDrawing(filepath.Join(t.TempDir(), "a.dwg"))
	d.AddLayer("walls", true)

	doc, err := e.Application().OpenDocument(d.Path())
	require.NoError(t, err)

	layers, err := doc.Layers()
	require.NoError(t, err)
	require.Len(t, layers, 2)

	frozen, err := layers[1].Frozen()
	require.NoError(t, err)
	assert.True(t, frozen)

	require.NoError(t, layers[1].SetFrozen(false))
	require.NoError(t, layers[1].SetLineweight(50))
	assert.Equal(t, false, d.Layer("walls").Prop("Freeze"))
	assert.Equal(t, int32(50), d.Layer("walls").Prop("Lineweight"))
}

func TestCanonicalMediaName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ISO_A1_(841.00_x_594.00_MM)", cad.CanonicalMediaName("ISO A1  (841.00 x 594.00 MM)"))
	assert.Equal(t, "A4", cad.CanonicalMediaName("A4"))
}

package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/catalog"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/sheet"
	"github.com/macropower/draftkit/pkg/templatestore"
)

const commandCatalog = "catalog"

// LayoutName returns the catalog layout name for a sheet: the configured
// replacements applied to the sheet name, between the prefix and suffix.
func (r *Runner) LayoutName(sheetName string) string {
	c := r.config.Catalog
	name := sheetName
	for _, from := range slices.Sorted(maps.Keys(c.LayoutReplace)) {
		name = strings.ReplaceAll(name, from, c.LayoutReplace[from])
	}

	return c.Prefix + name + c.Suffix
}

// CreateCatalog writes one catalog layout per sheet into the configured
// catalog drawing.
//
// The drawing is created when missing. Unless updating, layouts for the
// given sheets are deleted and rebuilt from the catalog style's template.
// Each layout's cells are then filled in reading order from the sheet's
// rows. Sheets with more rows than cells are written as far as they fit
// and reported in the returned error.
func (r *Runner) CreateCatalog(ctx context.Context, sheets []sheet.Sheet) (err error) {
	defer r.done(&err)

	cc := r.config.Catalog
	if cc.TargetFile == "" {
		return fmt.Errorf("%w: catalog.target_file is not set", drafterrors.ErrInvalidArguments)
	}

	style, err := r.config.CatalogStyle(cc.Style)
	if err != nil {
		return err
	}

	media, err := r.config.PaperSize(style.Size)
	if err != nil {
		return err
	}

	template, err := r.template(ctx, templatestore.KindCatalog, style.Name)
	if err != nil {
		return err
	}

	target := resolve(r.config.Project.Path, cc.TargetFile)
	logger := r.logger.With(slog.String("command", commandCatalog), slog.String("file", target))

	r.broadcastEvent(EventSetTotal(len(sheets)))

	return r.session(func(app *cad.Application) error {
		var doc *cad.Document
		if fileExists(target) {
			doc, err = app.OpenDocument(target)
		} else {
			logger.Info("creating catalog drawing")
			doc, err = app.NewDocument(target)
		}
		if err != nil {
			return err
		}

		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = r.LayoutName(s.Name)
		}

		if !cc.Update {
			if err := deleteLayouts(doc, names); err != nil {
				return err
			}
		}

		settings := cad.PlotSettings{
			Device:     r.config.Plot.Device,
			Media:      media,
			StyleSheet: r.config.Plot.StyleSheet,
		}
		if err := buildLayouts(doc, names, template, style.TableBlockName, settings, logger); err != nil {
			return err
		}

		tags, err := r.cellTagMap(doc, style, sheets)
		if err != nil {
			return err
		}

		var merr error
		for i, s := range sheets {
			if err := ctx.Err(); err != nil {
				return err
			}

			r.broadcastEvent(EventStarted(names[i]))

			rep, err := fillLayout(doc, names[i], style.CellBlockName, s.Rows, tags)
			r.recorder.Placed(rep.Written, rep.Blanked, rep.Dropped)
			r.recorder.ItemDone(commandCatalog, err)
			r.broadcastEvent(EventFinished{Name: names[i], Err: err})

			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("layout %q: %w", names[i], err))

				continue
			}

			logger.Info("filled catalog layout",
				slog.String("layout", names[i]),
				slog.Int("written", rep.Written),
				slog.Int("blanked", rep.Blanked),
			)
			if rep.OddSplit {
				logger.Warn("catalog has an odd number of cells, the extra cell was placed in the right column",
					slog.String("layout", names[i]),
					slog.Int("cells", rep.Cells),
				)
			}
		}

		if err := doc.Save(); err != nil {
			return multierror.Append(merr, err)
		}
		if cc.Close {
			if err := doc.Close(false); err != nil {
				return multierror.Append(merr, err)
			}
		}

		return merr
	})
}

// deleteLayouts removes the named layouts and purges what they left behind.
func deleteLayouts(doc *cad.Document, names []string) error {
	layouts, err := doc.Layouts()
	if err != nil {
		return err
	}
	for _, ly := range layouts {
		name, err := ly.Name()
		if err != nil {
			return err
		}
		if !slices.Contains(names, name) {
			continue
		}
		if err := ly.Delete(); err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}
	}

	return doc.PurgeAll()
}

// buildLayouts creates the missing layouts with an exploded copy of the
// template, then removes the template block from the drawing. A table
// block nested in the template is exploded as well so its cells sit
// directly on the layout.
func buildLayouts(doc *cad.Document, names []string, template, table string, settings cad.PlotSettings, logger *slog.Logger) error {
	existing, err := doc.LayoutNames()
	if err != nil {
		return err
	}

	ms, err := doc.ModelSpace()
	if err != nil {
		return err
	}

	ref, err := ms.InsertBlock(automation.Origin, template, 1, 0)
	if err != nil {
		return err
	}

	block, err := ref.Name()
	if err != nil {
		return err
	}

	for _, name := range names {
		if slices.Contains(existing, name) {
			continue
		}

		ly, err := doc.CreateLayout(name, settings)
		if err != nil {
			return err
		}

		sp, err := ly.Block()
		if err != nil {
			return err
		}

		b, err := sp.InsertBlock(automation.Origin, block, 1, 0)
		if err != nil {
			return err
		}
		if err := b.Explode(); err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}
		if err := explodeTables(sp, table); err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}

		existing = append(existing, name)
		logger.Debug("created catalog layout", slog.String("layout", name))
	}

	if err := doc.DeleteBlock(block); err != nil {
		return err
	}

	return doc.Regen(cad.RegenAllViewports)
}

func explodeTables(sp *cad.Space, table string) error {
	if table == "" {
		return nil
	}

	refs, err := sp.BlockReferences(table)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := ref.Explode(); err != nil {
			return fmt.Errorf("table %q: %w", table, err)
		}
		if err := ref.Delete(); err != nil {
			return fmt.Errorf("table %q: %w", table, err)
		}
	}

	return nil
}

// cellTagMap pairs the cell block's attribute tags with the headers of
// every sheet.
func (r *Runner) cellTagMap(doc *cad.Document, style config.CatalogStyle, sheets []sheet.Sheet) (*catalog.TagMap, error) {
	tags, err := doc.AttributeTags(style.CellBlockName)
	if err != nil {
		return nil, err
	}

	var headers []string
	for _, s := range sheets {
		for _, h := range s.Headers {
			if !slices.Contains(headers, h) {
				headers = append(headers, h)
			}
		}
	}

	m := catalog.NewTagMap(tags, headers, r.config.Catalog.AttributeMap)
	if unmapped := m.Unmapped(); len(unmapped) > 0 {
		r.logger.Debug("cell tags without a column", slog.Any("tags", unmapped))
	}

	return m, nil
}

func fillLayout(doc *cad.Document, layout, cellBlock string, rows []sheet.Row, tags *catalog.TagMap) (catalog.Report, error) {
	ly, err := doc.Layout(layout)
	if err != nil {
		return catalog.Report{}, err
	}

	sp, err := ly.Block()
	if err != nil {
		return catalog.Report{}, err
	}

	refs, err := sp.BlockReferences(cellBlock)
	if err != nil {
		return catalog.Report{}, err
	}

	cells, err := newCells(refs)
	if err != nil {
		return catalog.Report{}, err
	}

	data := make([]catalog.Row, len(rows))
	for i, row := range rows {
		data[i] = row
	}

	return catalog.Place(cells, data, tags)
}

// cell adapts a block reference to [catalog.Cell]. The position is read
// once, up front.
type cell struct {
	ref *cad.BlockReference
	pos catalog.Point
}

func newCells(refs []*cad.BlockReference) ([]cell, error) {
	out := make([]cell, len(refs))
	for i, ref := range refs {
		p, err := ref.InsertionPoint()
		if err != nil {
			return nil, err
		}
		out[i] = cell{ref: ref, pos: catalog.Point{X: p.X, Y: p.Y}}
	}

	return out, nil
}

func (c cell) Position() catalog.Point {
	return c.pos
}

func (c cell) SetAttributes(values map[string]string) error {
	return c.ref.SetAttributes(values)
}

func (c cell) ClearAttributes() error {
	return c.ref.ClearAttributes()
}

package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/catalog"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/sheet"
)

const (
	commandPlot           = "plot"
	defaultSignatureBlock = "signature"
)

// TitleBlockColumns are the columns [Runner.UpdateTitleBlocks] requires.
var TitleBlockColumns = []string{ColumnFile, ColumnLayout}

var placeholder = regexp.MustCompile(`<([^<>]+)>`)

// UpdateTitleBlocks fills the title block of every listed layout from its
// row and, when plot is set, plots the layout to PDF.
//
// The title block is the signature block of the row's border style. Its
// attributes are cleared and then set from the row; tags are paired with
// columns once per block for the whole run. Drawings that are not .dwg
// files are skipped with a warning. Failures are collected per layout and
// do not stop the remaining layouts.
func (r *Runner) UpdateTitleBlocks(ctx context.Context, sheets []sheet.Sheet, plot bool) (err error) {
	defer r.done(&err)

	groups, err := sheet.GroupBy(sheets, ColumnFile)
	if err != nil {
		return err
	}

	r.broadcastEvent(EventSetTotal(len(groups)))

	tagMaps := map[string]*catalog.TagMap{}

	return r.session(func(app *cad.Application) error {
		var merr error
		for _, g := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := resolve(r.config.Project.Path, g.Key)
			if !strings.EqualFold(filepath.Ext(path), ".dwg") {
				r.logger.Warn("skipping file that is not a drawing", slog.String("file", path))
				r.broadcastEvent(EventSkipped{Name: g.Key, Reason: drafterrors.ErrNotDrawing.Error()})

				continue
			}

			r.broadcastEvent(EventStarted(g.Key))

			err := r.updateDrawing(app, path, g.Rows, tagMaps, plot)
			r.recorder.ItemDone(commandPlot, err)
			r.broadcastEvent(EventFinished{Name: g.Key, Err: err})

			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", g.Key, err))
			}
		}

		return merr
	})
}

func (r *Runner) updateDrawing(app *cad.Application, path string, rows []sheet.Row, tagMaps map[string]*catalog.TagMap, plot bool) error {
	doc, err := app.OpenDocument(path)
	if err != nil {
		return err
	}

	var merr error
	for _, row := range rows {
		layout := row.Value(ColumnLayout)
		logger := r.logger.With(slog.String("file", path), slog.String("layout", layout))

		if err := r.updateTitleBlock(doc, layout, row, tagMaps); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("layout %q: %w", layout, err))

			continue
		}
		logger.Debug("updated title block")

		if !plot {
			continue
		}

		target := r.PlotTarget(row, path)
		err := doc.PlotLayout(layout, target)
		r.recorder.Plotted(err)
		if err != nil {
			logger.Warn("plot failed", slog.String("target", target), slog.Any("err", err))
			merr = multierror.Append(merr, fmt.Errorf("layout %q: %w", layout, err))
		}
	}

	if err := doc.Save(); err != nil {
		return multierror.Append(merr, err)
	}
	if r.config.Plot.Close {
		if err := doc.Close(false); err != nil {
			return multierror.Append(merr, err)
		}
	}

	return merr
}

func (r *Runner) updateTitleBlock(doc *cad.Document, layout string, row sheet.Row, tagMaps map[string]*catalog.TagMap) error {
	block, err := r.signatureBlock(row.Value(ColumnBorderStyle))
	if err != nil {
		return err
	}

	// Sheets may order or name their columns differently, so a tag map
	// only serves rows with the same headers.
	headers := row.Headers()
	key := block + "\x00" + strings.Join(headers, "\x00")
	tags, ok := tagMaps[key]
	if !ok {
		defTags, err := doc.AttributeTags(block)
		if err != nil {
			return err
		}
		tags = catalog.NewTagMap(defTags, headers, r.config.Plot.AttributeMap)
		tagMaps[key] = tags
	}

	ly, err := doc.Layout(layout)
	if err != nil {
		return err
	}

	sp, err := ly.Block()
	if err != nil {
		return err
	}

	refs, err := sp.BlockReferences(block)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		r.logger.Warn("layout has no title block",
			slog.String("layout", layout),
			slog.String("block", block),
		)
	}

	values := tags.Resolve(row)
	for _, ref := range refs {
		if err := ref.ClearAttributes(); err != nil {
			return err
		}
		if err := ref.SetAttributes(values); err != nil {
			return err
		}
	}

	return nil
}

// signatureBlock returns the title block name of a border style. Rows
// without a style use the default style, or "signature" when there is none.
func (r *Runner) signatureBlock(style string) (string, error) {
	name := style
	if name == "" {
		name = config.DefaultStyle
	}

	bs, err := r.config.BorderStyle(name)
	if err != nil {
		if style == "" {
			return defaultSignatureBlock, nil
		}

		return "", err
	}

	return bs.SignatureBlockName, nil
}

// PlotTarget returns the output file for a layout. Placeholders such as
// <dwg_no> in the configured name template are replaced by the row's
// values; without a template the name is <drawing>_<layout>.pdf. Relative
// print paths are taken from the project path.
func (r *Runner) PlotTarget(row sheet.Row, drawing string) string {
	pc := r.config.Plot

	var name string
	if pc.NamedTemplate != "" {
		name = placeholder.ReplaceAllStringFunc(pc.NamedTemplate, func(m string) string {
			return row.Value(strings.TrimSpace(m[1 : len(m)-1]))
		})
	} else {
		base := strings.TrimSuffix(filepath.Base(drawing), filepath.Ext(drawing))
		name = base + "_" + row.Value(ColumnLayout) + ".pdf"
	}

	dir := pc.PrintPath
	if !filepath.IsAbs(dir) && r.config.Project.Path != "" {
		dir = filepath.Join(r.config.Project.Path, dir)
	}

	return filepath.Join(dir, name)
}

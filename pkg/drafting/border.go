package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/sheet"
	"github.com/macropower/draftkit/pkg/templatestore"
)

const commandBorder = "border"

// Columns read from the drawing list.
const (
	ColumnFile        = "file"
	ColumnLayout      = "layout"
	ColumnBorderStyle = "border_style"
)

// BorderColumns are the columns [Runner.InsertBorders] requires.
var BorderColumns = []string{ColumnFile, ColumnLayout, ColumnBorderStyle}

// InsertBorders places the border of each row's style on the row's layout,
// replacing any border of the same style already there. Rows are grouped
// by drawing; a failing drawing does not stop the others.
func (r *Runner) InsertBorders(ctx context.Context, sheets []sheet.Sheet) (err error) {
	defer r.done(&err)

	groups, err := sheet.GroupBy(sheets, ColumnFile)
	if err != nil {
		return err
	}

	r.broadcastEvent(EventSetTotal(len(groups)))

	return r.session(func(app *cad.Application) error {
		var merr error
		for _, g := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}

			r.broadcastEvent(EventStarted(g.Key))

			err := r.insertBorders(ctx, app, g)
			r.recorder.ItemDone(commandBorder, err)
			r.broadcastEvent(EventFinished{Name: g.Key, Err: err})

			if err != nil {
				r.logger.Error("insert borders",
					slog.String("file", g.Key),
					slog.Any("err", err),
				)
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", g.Key, err))
			}
		}

		return merr
	})
}

func (r *Runner) insertBorders(ctx context.Context, app *cad.Application, g sheet.Group) error {
	root := r.config.Border.TargetPath
	if root == "" {
		root = r.config.Project.Path
	}

	doc, err := app.OpenDocument(resolve(root, g.Key))
	if err != nil {
		return err
	}

	for _, row := range g.Rows {
		layout := row.Value(ColumnLayout)

		style, err := r.config.BorderStyle(row.Value(ColumnBorderStyle))
		if err != nil {
			return fmt.Errorf("layout %q: %w", layout, err)
		}

		template, err := r.template(ctx, templatestore.KindBorder, style.Name)
		if err != nil {
			return err
		}

		if err := placeBorder(doc, layout, template, style.BorderBlockName); err != nil {
			return fmt.Errorf("layout %q: %w", layout, err)
		}

		r.logger.Debug("inserted border",
			slog.String("file", g.Key),
			slog.String("layout", layout),
			slog.String("style", style.Name),
		)
	}

	if !r.config.Border.Close {
		return nil
	}
	if err := doc.Save(); err != nil {
		return err
	}

	return doc.Close(false)
}

// placeBorder deletes the layout's references to the template's block and
// to the style's border block, then inserts the template at the origin on
// layer 0.
func placeBorder(doc *cad.Document, layout, template, borderBlock string) error {
	ly, err := doc.Layout(layout)
	if err != nil {
		return err
	}

	sp, err := ly.Block()
	if err != nil {
		return err
	}

	block := strings.TrimSuffix(filepath.Base(template), filepath.Ext(template))
	names := []string{block}
	if borderBlock != "" && !strings.EqualFold(borderBlock, block) {
		names = append(names, borderBlock)
	}
	for _, name := range names {
		if _, err := sp.DeleteBlockReferences(name); err != nil {
			return err
		}
	}

	ref, err := sp.InsertBlock(automation.Origin, template, 1, 0)
	if err != nil {
		return err
	}

	return ref.SetLayer("0")
}

package drafting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/wildcard"
)

const commandLayers = "layer"

// LayerReport counts the layers a rule changed.
type LayerReport struct {
	Frozen    int
	Thawed    int
	Heavy     int
	Middle    int
	Thin      int
	Reset     int
	Changed   int
	Untouched int
}

// FreezeLayers freezes the layers selected by rule in each file, or in the
// active drawing when no files are given. Layer names are matched in full.
// With rule.Unfreeze, frozen layers that are not selected are thawed.
func (r *Runner) FreezeLayers(ctx context.Context, files []string, rule config.FreezeRule) (err error) {
	defer r.done(&err)

	sel, err := wildcard.NewRule(rule.Include, rule.Exclude)
	if err != nil {
		return err
	}

	return r.eachDocument(ctx, files, func(doc *cad.Document) (LayerReport, error) {
		return freezeLayers(doc, sel, rule.Unfreeze)
	})
}

// SetLineweights assigns heavy, middle and thin lineweights by matching
// the last segment of each layer name, checking heavy first. Layers matched
// by no rule are reset to the default lineweight when rule.ResetOthers is
// set.
func (r *Runner) SetLineweights(ctx context.Context, files []string, rule config.LineweightRule) (err error) {
	defer r.done(&err)

	lw, err := newLineweights(rule)
	if err != nil {
		return err
	}

	return r.eachDocument(ctx, files, func(doc *cad.Document) (LayerReport, error) {
		return lw.apply(doc)
	})
}

// SetLayerProperty sets the named property to value on every layer whose
// full name matches pattern.
func (r *Runner) SetLayerProperty(ctx context.Context, files []string, pattern, name string, value any) (err error) {
	defer r.done(&err)

	sel, err := wildcard.Compile(pattern)
	if err != nil {
		return err
	}
	if sel.Empty() {
		return fmt.Errorf("%w: empty layer pattern", drafterrors.ErrInvalidArguments)
	}
	if name == "" {
		return fmt.Errorf("%w: empty property name", drafterrors.ErrInvalidArguments)
	}

	return r.eachDocument(ctx, files, func(doc *cad.Document) (LayerReport, error) {
		return setLayerProperty(doc, sel, name, value)
	})
}

func (r *Runner) eachDocument(ctx context.Context, files []string, fn func(doc *cad.Document) (LayerReport, error)) error {
	total := len(files)
	if total == 0 {
		total = 1
	}
	r.broadcastEvent(EventSetTotal(total))

	return r.session(func(app *cad.Application) error {
		if len(files) == 0 {
			doc, err := app.ActiveDocument()
			if err != nil {
				return err
			}

			name, err := doc.FullName()
			if err != nil {
				return err
			}

			r.broadcastEvent(EventStarted(name))
			rep, err := fn(doc)
			r.finishLayers(name, rep, err)

			return err
		}

		var merr error
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}

			r.broadcastEvent(EventStarted(f))

			err := r.layersInFile(app, resolve(r.config.Project.Path, f), fn)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", f, err))
			}
		}

		return merr
	})
}

func (r *Runner) layersInFile(app *cad.Application, path string, fn func(doc *cad.Document) (LayerReport, error)) (err error) {
	var rep LayerReport
	defer func() {
		r.finishLayers(path, rep, err)
	}()

	doc, err := app.OpenDocument(path)
	if err != nil {
		return err
	}

	rep, err = fn(doc)
	if err != nil {
		return err
	}

	if err := doc.Save(); err != nil {
		return err
	}
	if r.config.Layers.Close {
		return doc.Close(false)
	}

	return nil
}

func (r *Runner) finishLayers(name string, rep LayerReport, err error) {
	r.recorder.ItemDone(commandLayers, err)
	r.broadcastEvent(EventFinished{Name: name, Err: err})
	if err == nil {
		r.logger.Info("updated layers",
			slog.String("file", name),
			slog.Int("frozen", rep.Frozen),
			slog.Int("thawed", rep.Thawed),
			slog.Int("heavy", rep.Heavy),
			slog.Int("middle", rep.Middle),
			slog.Int("thin", rep.Thin),
			slog.Int("reset", rep.Reset),
			slog.Int("changed", rep.Changed),
		)
	}
}

func freezeLayers(doc *cad.Document, sel wildcard.Rule, unfreeze bool) (LayerReport, error) {
	var rep LayerReport

	layers, err := doc.Layers()
	if err != nil {
		return rep, err
	}

	for _, ly := range layers {
		name, err := ly.Name()
		if err != nil {
			return rep, err
		}

		if sel.Match(name) {
			if err := ly.SetFrozen(true); err != nil {
				return rep, fmt.Errorf("layer %q: %w", name, err)
			}
			rep.Frozen++

			continue
		}

		if !unfreeze {
			rep.Untouched++

			continue
		}

		frozen, err := ly.Frozen()
		if err != nil {
			return rep, err
		}
		if !frozen {
			rep.Untouched++

			continue
		}
		if err := ly.SetFrozen(false); err != nil {
			return rep, fmt.Errorf("layer %q: %w", name, err)
		}
		rep.Thawed++
	}

	return rep, nil
}

func setLayerProperty(doc *cad.Document, sel wildcard.Pattern, prop string, value any) (LayerReport, error) {
	var rep LayerReport

	layers, err := doc.Layers()
	if err != nil {
		return rep, err
	}

	for _, ly := range layers {
		name, err := ly.Name()
		if err != nil {
			return rep, err
		}
		if !sel.Match(name) {
			rep.Untouched++

			continue
		}
		if err := ly.SetProperty(prop, value); err != nil {
			return rep, fmt.Errorf("layer %q: %w", name, err)
		}
		rep.Changed++
	}

	return rep, nil
}

type lineweights struct {
	heavy, middle, thin wildcard.Rule
	rule                config.LineweightRule
}

func newLineweights(rule config.LineweightRule) (*lineweights, error) {
	heavy, err := wildcard.NewRule(rule.Heavy, rule.HeavyExclude)
	if err != nil {
		return nil, err
	}

	middle, err := wildcard.NewRule(rule.Middle, rule.MiddleExclude)
	if err != nil {
		return nil, err
	}

	thin, err := wildcard.NewRule(rule.Thin, rule.ThinExclude)
	if err != nil {
		return nil, err
	}

	return &lineweights{heavy: heavy, middle: middle, thin: thin, rule: rule}, nil
}

// weight returns the lineweight for a layer name and whether any rule
// applies.
func (lw *lineweights) weight(name string, rep *LayerReport) (int, bool) {
	seg := wildcard.LastSegment(name)

	switch {
	case lw.heavy.Match(seg):
		rep.Heavy++

		return lw.rule.HeavyWeight, true
	case lw.middle.Match(seg):
		rep.Middle++

		return lw.rule.MiddleWeight, true
	case lw.thin.Match(seg):
		rep.Thin++

		return lw.rule.ThinWeight, true
	case lw.rule.ResetOthers:
		rep.Reset++

		return cad.LineweightDefault, true
	}

	rep.Untouched++

	return 0, false
}

func (lw *lineweights) apply(doc *cad.Document) (LayerReport, error) {
	var rep LayerReport

	layers, err := doc.Layers()
	if err != nil {
		return rep, err
	}

	for _, ly := range layers {
		name, err := ly.Name()
		if err != nil {
			return rep, err
		}

		w, ok := lw.weight(name, &rep)
		if !ok {
			continue
		}
		if err := ly.SetLineweight(w); err != nil {
			return rep, fmt.Errorf("layer %q: %w", name, err)
		}
	}

	return rep, nil
}

package cad

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/macropower/draftkit/pkg/automation"
)

// RegenType selects which viewports a regeneration covers.
type RegenType int32

const (
	RegenActiveViewport RegenType = 0
	RegenAllViewports   RegenType = 1
)

const (
	paperUnitsMillimeters int32 = 1
	plotRotation0         int32 = 0
)

// Document is an open drawing.
type Document struct {
	p *automation.Proxy
}

func (d *Document) FullName() (string, error) {
	s, err := d.p.GetString("FullName")
	if err != nil {
		return "", fmt.Errorf("get document name: %w", err)
	}

	return s, nil
}

func (d *Document) ReadOnly() (bool, error) {
	b, err := d.p.GetBool("ReadOnly")
	if err != nil {
		return false, fmt.Errorf("get read-only flag: %w", err)
	}

	return b, nil
}

func (d *Document) Activate() error {
	if _, err := d.p.Call("Activate"); err != nil {
		return fmt.Errorf("activate document: %w", err)
	}

	return nil
}

func (d *Document) Save() error {
	if _, err := d.p.Call("Save"); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	return nil
}

func (d *Document) SaveAs(path string) error {
	if _, err := d.p.Call("SaveAs", path); err != nil {
		return fmt.Errorf("save document as %q: %w", path, err)
	}

	return nil
}

// Close closes the document, saving it first when save is true.
func (d *Document) Close(save bool) error {
	if _, err := d.p.Call("Close", save); err != nil {
		return fmt.Errorf("close document: %w", err)
	}

	return nil
}

// PurgeAll removes unreferenced named objects.
func (d *Document) PurgeAll() error {
	if _, err := d.p.Call("PurgeAll"); err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	return nil
}

func (d *Document) Regen(which RegenType) error {
	if _, err := d.p.Call("Regen", int32(which)); err != nil {
		return fmt.Errorf("regen: %w", err)
	}

	return nil
}

// SetVariable sets a system variable.
func (d *Document) SetVariable(name string, value any) error {
	if _, err := d.p.Call("SetVariable", name, value); err != nil {
		return fmt.Errorf("set variable %s: %w", name, err)
	}

	return nil
}

// ModelSpace returns the model space entity container.
func (d *Document) ModelSpace() (*Space, error) {
	p, err := d.p.GetObject("ModelSpace")
	if err != nil {
		return nil, fmt.Errorf("get model space: %w", err)
	}

	return &Space{p: p}, nil
}

// Layouts returns every layout, model included.
func (d *Document) Layouts() ([]*Layout, error) {
	coll, err := d.p.GetObject("Layouts")
	if err != nil {
		return nil, fmt.Errorf("get layouts: %w", err)
	}
	items, err := coll.Items()
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	out := make([]*Layout, len(items))
	for i, item := range items {
		out[i] = &Layout{p: item}
	}

	return out, nil
}

// LayoutNames returns the names of every layout.
func (d *Document) LayoutNames() ([]string, error) {
	layouts, err := d.Layouts()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(layouts))
	for _, ly := range layouts {
		n, err := ly.Name()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}

	return names, nil
}

// Layout returns the layout with the given name.
func (d *Document) Layout(name string) (*Layout, error) {
	coll, err := d.p.GetObject("Layouts")
	if err != nil {
		return nil, fmt.Errorf("get layouts: %w", err)
	}
	p, err := coll.ItemObject(name)
	if err != nil {
		return nil, fmt.Errorf("get layout %q: %w", name, err)
	}

	return &Layout{p: p}, nil
}

// SetActiveLayout makes ly the current layout.
func (d *Document) SetActiveLayout(ly *Layout) error {
	if err := d.p.Set("ActiveLayout", ly.p); err != nil {
		return fmt.Errorf("activate layout: %w", err)
	}

	return nil
}

// CreateLayout adds a paper space layout set up for PDF output on the given
// media, at 1:1 scale in millimeters.
func (d *Document) CreateLayout(name string, s PlotSettings) (*Layout, error) {
	coll, err := d.p.GetObject("Layouts")
	if err != nil {
		return nil, fmt.Errorf("get layouts: %w", err)
	}
	p, err := coll.CallObject("Add", name)
	if err != nil {
		return nil, fmt.Errorf("add layout %q: %w", name, err)
	}
	ly := &Layout{p: p}
	if err := ly.ConfigurePlot(s); err != nil {
		return nil, fmt.Errorf("layout %q: %w", name, err)
	}
	if err := d.Regen(RegenActiveViewport); err != nil {
		return nil, err
	}

	return ly, nil
}

func (d *Document) blocks() (*automation.Proxy, error) {
	p, err := d.p.GetObject("Blocks")
	if err != nil {
		return nil, fmt.Errorf("get blocks: %w", err)
	}

	return p, nil
}

// Block returns a block definition by name.
func (d *Document) Block(name string) (*Space, error) {
	coll, err := d.blocks()
	if err != nil {
		return nil, err
	}
	p, err := coll.ItemObject(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBlockNotFound, name, err)
	}

	return &Space{p: p}, nil
}

// AttributeTags returns the attribute definition tags of a block
// definition, in definition order.
func (d *Document) AttributeTags(block string) ([]string, error) {
	def, err := d.Block(block)
	if err != nil {
		return nil, err
	}
	entities, err := def.Entities()
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, e := range entities {
		kind, err := e.ObjectName()
		if err != nil {
			return nil, err
		}
		if kind != ObjectAttributeDefinition {
			continue
		}
		tag, err := e.p.GetString("TagString")
		if err != nil {
			return nil, fmt.Errorf("get attribute tag: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

// BlockReferences returns the references to a block across every layout.
func (d *Document) BlockReferences(block string) ([]*BlockReference, error) {
	layouts, err := d.Layouts()
	if err != nil {
		return nil, err
	}
	var refs []*BlockReference
	for _, ly := range layouts {
		sp, err := ly.Block()
		if err != nil {
			return nil, err
		}
		r, err := sp.BlockReferences(block)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}

	return refs, nil
}

// DeleteBlock removes every reference to a block and then its definition.
func (d *Document) DeleteBlock(block string) error {
	refs, err := d.BlockReferences(block)
	if err != nil {
		return err
	}
	for _, r := range refs {
		if err := r.Delete(); err != nil {
			return err
		}
	}
	def, err := d.Block(block)
	if err != nil {
		return err
	}
	if _, err := def.p.Call("Delete"); err != nil {
		return fmt.Errorf("delete block %q: %w", block, err)
	}
	slog.Debug("deleted block", slog.String("block", block), slog.Int("references", len(refs)))

	return nil
}

// Layers returns every layer.
func (d *Document) Layers() ([]*Layer, error) {
	coll, err := d.p.GetObject("Layers")
	if err != nil {
		return nil, fmt.Errorf("get layers: %w", err)
	}
	items, err := coll.Items()
	if err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	out := make([]*Layer, len(items))
	for i, item := range items {
		out[i] = &Layer{p: item}
	}

	return out, nil
}

// PlotLayout plots a layout to target in the foreground.
func (d *Document) PlotLayout(layout, target string) error {
	ly, err := d.Layout(layout)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}
	if err := d.SetActiveLayout(ly); err != nil {
		return err
	}
	if err := d.SetVariable("BACKGROUNDPLOT", int32(0)); err != nil {
		return err
	}
	plot, err := d.p.GetObject("Plot")
	if err != nil {
		return fmt.Errorf("get plot: %w", err)
	}
	v, err := plot.Call("PlotToFile", target)
	if err != nil {
		return fmt.Errorf("plot %q: %w", layout, err)
	}
	if ok, err := automation.ToBool(v); err != nil || !ok {
		return fmt.Errorf("%w: %q to %s", ErrPlotFailed, layout, target)
	}
	slog.Info("plotted layout", slog.String("layout", layout), slog.String("file", target))

	return nil
}

// PlotSettings describes a layout's page setup.
type PlotSettings struct {
	Device     string
	Media      string
	StyleSheet string
}

var whitespace = regexp.MustCompile(`\s+`)

// CanonicalMediaName converts a display media name like "ISO A1
// (841.00 x 594.00 MM)" into the form the engine accepts.
func CanonicalMediaName(media string) string {
	return whitespace.ReplaceAllString(media, "_")
}

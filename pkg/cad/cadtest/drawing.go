package cadtest

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/automation/automationtest"
	"github.com/macropower/draftkit/pkg/cad"
)

// Drawing is a fake document. Its exported objects may be inspected or
// primed with faults by tests.
type Drawing struct {
	engine     *Engine
	Doc        *automationtest.Object
	Layouts    *automationtest.Object
	Blocks     *automationtest.Object
	Layers     *automationtest.Object
	Plot       *automationtest.Object
	ModelSpace *automationtest.Object
	defs       map[string]BlockDef
	vars       map[string]any
	path       string
	Plotted    []string
	Saves      int
	Purges     int
	Regens     int
	plotFails  bool
	Closed     bool
	mu         sync.Mutex
}

func (e *Engine) newDrawing(name string) *Drawing {
	d := &Drawing{
		engine: e,
		defs:   map[string]BlockDef{},
		vars:   map[string]any{},
	}

	d.ModelSpace = d.newSpace("*Model_Space")
	d.Layouts = automationtest.NewObject("Layouts").
		WithMethod("Add", func(args ...any) (any, error) {
			name, _ := args[0].(string)

			return d.AddLayout(name), nil
		})
	d.Layouts.WithItems(d.newLayout("Model", d.ModelSpace))

	d.Blocks = automationtest.NewObject("Blocks")
	d.Layers = automationtest.NewObject("Layers").
		WithMethod("Add", func(args ...any) (any, error) {
			name, _ := args[0].(string)

			return d.AddLayer(name, false), nil
		})
	d.AddLayer("0", false)

	d.Plot = automationtest.NewObject("Plot").
		WithMethod("PlotToFile", func(args ...any) (any, error) {
			file, _ := args[0].(string)

			d.mu.Lock()
			defer d.mu.Unlock()

			if d.plotFails {
				return false, nil
			}
			d.Plotted = append(d.Plotted, file)

			return true, nil
		})

	d.Doc = automationtest.NewObject(name).
		WithProp("Name", name).
		WithProp("FullName", automationtest.Getter(func() any {
			d.mu.Lock()
			defer d.mu.Unlock()

			return d.path
		})).
		WithProp("ReadOnly", false).
		WithProp("Layouts", d.Layouts).
		WithProp("Blocks", d.Blocks).
		WithProp("Layers", d.Layers).
		WithProp("ModelSpace", d.ModelSpace).
		WithProp("Plot", d.Plot).
		WithMethod("Activate", func(...any) (any, error) {
			e.setActive(d)

			return nil, nil
		}).
		WithMethod("Save", func(...any) (any, error) {
			d.mu.Lock()
			d.Saves++
			d.mu.Unlock()
			e.register(d)

			return nil, nil
		}).
		WithMethod("SaveAs", func(args ...any) (any, error) {
			path, _ := args[0].(string)
			d.mu.Lock()
			d.path = path
			d.Saves++
			d.mu.Unlock()
			e.register(d)

			return nil, nil
		}).
		WithMethod("Close", func(args ...any) (any, error) {
			if save, _ := args[0].(bool); save {
				d.mu.Lock()
				d.Saves++
				d.mu.Unlock()
			}
			d.Closed = true
			e.documents.RemoveItem(d.Doc)

			return nil, nil
		}).
		WithMethod("PurgeAll", func(...any) (any, error) {
			d.mu.Lock()
			d.Purges++
			d.mu.Unlock()

			return nil, nil
		}).
		WithMethod("Regen", func(...any) (any, error) {
			d.mu.Lock()
			d.Regens++
			d.mu.Unlock()

			return nil, nil
		}).
		WithMethod("SetVariable", func(args ...any) (any, error) {
			name, _ := args[0].(string)
			d.mu.Lock()
			d.vars[name] = args[1]
			d.mu.Unlock()

			return nil, nil
		})

	return d
}

// Path returns the file the drawing is saved as.
func (d *Drawing) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.path
}

// Variable returns a system variable set through SetVariable.
func (d *Drawing) Variable(name string) any {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.vars[name]
}

// FailPlots makes PlotToFile report failure.
func (d *Drawing) FailPlots() {
	d.mu.Lock()
	d.plotFails = true
	d.mu.Unlock()
}

// AddLayout adds a paper space layout and returns it.
func (d *Drawing) AddLayout(name string) *automationtest.Object {
	ly := d.newLayout(name, d.newSpace("*Paper_Space_"+name))
	d.Layouts.WithItems(ly)

	return ly
}

// Layout returns the layout object with the given name, or nil.
func (d *Drawing) Layout(name string) *automationtest.Object {
	for _, item := range d.Layouts.Items() {
		obj, _ := item.(*automationtest.Object)
		if n, _ := obj.Prop("Name").(string); strings.EqualFold(n, name) {
			return obj
		}
	}

	return nil
}

// LayoutNames returns every layout name, model included.
func (d *Drawing) LayoutNames() []string {
	var names []string
	for _, item := range d.Layouts.Items() {
		obj, _ := item.(*automationtest.Object)
		n, _ := obj.Prop("Name").(string)
		names = append(names, n)
	}

	return names
}

// AddLayer adds a layer.
func (d *Drawing) AddLayer(name string, frozen bool) *automationtest.Object {
	l := automationtest.NewObject("layer " + name).
		WithProp("Name", name).
		WithProp("Freeze", frozen).
		WithProp("Lineweight", int32(cad.LineweightDefault))
	d.Layers.WithItems(l)

	return l
}

// Layer returns the layer object with the given name, or nil.
func (d *Drawing) Layer(name string) *automationtest.Object {
	for _, item := range d.Layers.Items() {
		obj, _ := item.(*automationtest.Object)
		if n, _ := obj.Prop("Name").(string); n == name {
			return obj
		}
	}

	return nil
}

// DefineBlock adds a block definition to the drawing.
func (d *Drawing) DefineBlock(def BlockDef) {
	d.mu.Lock()
	_, exists := d.defs[strings.ToLower(def.Name)]
	if !exists {
		d.defs[strings.ToLower(def.Name)] = def
	}
	d.mu.Unlock()

	if exists {
		return
	}

	obj := automationtest.NewObject("block " + def.Name).WithProp("Name", def.Name)
	for _, tag := range def.Attributes {
		obj.WithItems(automationtest.NewObject("attdef "+tag).
			WithProp("ObjectName", cad.ObjectAttributeDefinition).
			WithProp("TagString", tag))
	}
	for _, c := range def.Children {
		obj.WithItems(automationtest.NewObject("child "+c.Block).
			WithProp("ObjectName", cad.ObjectBlockReference).
			WithProp("Name", c.Block))
	}
	obj.WithMethod("Delete", func(...any) (any, error) {
		d.mu.Lock()
		delete(d.defs, strings.ToLower(def.Name))
		d.mu.Unlock()
		d.Blocks.RemoveItem(obj)

		return nil, nil
	})
	d.Blocks.WithItems(obj)
}

// HasBlock reports whether a block definition exists.
func (d *Drawing) HasBlock(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.defs[strings.ToLower(name)]

	return ok
}

// Place inserts a reference to a defined block into a layout ("Model" for
// model space) and returns it.
func (d *Drawing) Place(layout, block string, at automation.Point) (*automationtest.Object, error) {
	ly := d.Layout(layout)
	if ly == nil {
		return nil, fmt.Errorf("no layout %q", layout)
	}
	space, _ := ly.Prop("Block").(*automationtest.Object)

	return d.insert(space, at, block)
}

// References returns the references to block in a layout.
func (d *Drawing) References(layout, block string) []*automationtest.Object {
	ly := d.Layout(layout)
	if ly == nil {
		return nil
	}
	space, _ := ly.Prop("Block").(*automationtest.Object)

	var refs []*automationtest.Object
	for _, item := range space.Items() {
		obj, _ := item.(*automationtest.Object)
		if obj.Prop("ObjectName") == cad.ObjectBlockReference && obj.Prop("Name") == block {
			refs = append(refs, obj)
		}
	}

	return refs
}

// AttributeText returns the text of a reference's attribute by tag.
func AttributeText(ref *automationtest.Object, tag string) string {
	attrs, _ := ref.Prop("attributes").([]any)
	for _, a := range attrs {
		obj, _ := a.(*automationtest.Object)
		if t, _ := obj.Prop("TagString").(string); strings.EqualFold(t, tag) {
			s, _ := obj.Prop("TextString").(string)

			return s
		}
	}

	return ""
}

// SetAttributeText sets the text of a reference's attribute by tag.
func SetAttributeText(ref *automationtest.Object, tag, text string) {
	attrs, _ := ref.Prop("attributes").([]any)
	for _, a := range attrs {
		obj, _ := a.(*automationtest.Object)
		if t, _ := obj.Prop("TagString").(string); strings.EqualFold(t, tag) {
			obj.WithProp("TextString", text)
		}
	}
}

func (d *Drawing) newLayout(name string, space *automationtest.Object) *automationtest.Object {
	var ly *automationtest.Object
	ly = automationtest.NewObject("layout "+name).
		WithProp("Name", name).
		WithProp("Block", space).
		WithMethod("RefreshPlotDeviceInfo", func(...any) (any, error) { return nil, nil }).
		WithMethod("SetCustomScale", func(args ...any) (any, error) {
			ly.WithProp("CustomScale", args)

			return nil, nil
		}).
		WithMethod("Delete", func(...any) (any, error) {
			d.Layouts.RemoveItem(ly)

			return nil, nil
		})

	return ly
}

func (d *Drawing) newSpace(name string) *automationtest.Object {
	var space *automationtest.Object
	space = automationtest.NewObject(name).
		WithMethod("InsertBlock", func(args ...any) (any, error) {
			if len(args) < 2 {
				return nil, fmt.Errorf("InsertBlock: want at least 2 arguments, got %d", len(args))
			}
			at, err := automation.ToPoint(args[0])
			if err != nil {
				return nil, err
			}
			block, _ := args[1].(string)

			return d.insert(space, at, block)
		})

	return space
}

func isFilePath(block string) bool {
	return strings.ContainsAny(block, `/\`) || strings.EqualFold(filepath.Ext(block), ".dwg")
}

func (d *Drawing) insert(space *automationtest.Object, at automation.Point, block string) (*automationtest.Object, error) {
	if isFilePath(block) {
		defs, ok := d.engine.fragment(block)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, block)
		}
		for _, def := range defs {
			d.DefineBlock(def)
		}
		block = defs[0].Name
	}

	d.mu.Lock()
	def, ok := d.defs[strings.ToLower(block)]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchBlock, block)
	}

	attrs := make([]any, 0, len(def.Attributes))
	for _, tag := range def.Attributes {
		attrs = append(attrs, automationtest.NewObject("attribute "+tag).
			WithProp("TagString", tag).
			WithProp("TextString", ""))
	}

	var ref *automationtest.Object
	ref = automationtest.NewObject("reference "+def.Name).
		WithProp("ObjectName", cad.ObjectBlockReference).
		WithProp("Name", def.Name).
		WithProp("InsertionPoint", []any{at.X, at.Y, at.Z}).
		WithProp("HasAttributes", len(attrs) > 0).
		WithProp("Layer", "0").
		WithProp("attributes", attrs).
		WithMethod("GetAttributes", func(...any) (any, error) {
			return attrs, nil
		}).
		WithMethod("Delete", func(...any) (any, error) {
			space.RemoveItem(ref)

			return nil, nil
		}).
		WithMethod("Explode", func(...any) (any, error) {
			out := make([]any, 0, len(def.Children))
			for _, c := range def.Children {
				pt := automation.Point{X: at.X + c.At.X, Y: at.Y + c.At.Y, Z: at.Z + c.At.Z}
				child, err := d.insert(space, pt, c.Block)
				if err != nil {
					return nil, err
				}
				out = append(out, child)
			}

			return out, nil
		})
	space.WithItems(ref)

	return ref, nil
}

// Package cadtest provides an in-memory drawing engine that answers the
// calls made by package cad, for tests.
package cadtest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/automation/automationtest"
	"github.com/macropower/draftkit/pkg/cad"
)

var (
	// ErrNoSuchFile is returned when opening or inserting an unknown drawing.
	ErrNoSuchFile = errors.New("no such drawing file")

	// ErrNoSuchBlock is returned when inserting an undefined block.
	ErrNoSuchBlock = errors.New("no such block definition")
)

// BlockDef describes a block definition: its attribute definition tags and
// the nested block references it contains.
type BlockDef struct {
	Name       string
	Attributes []string
	Children   []Child
}

// Child is a nested block reference inside a [BlockDef].
type Child struct {
	Block string
	At    automation.Point
}

// Engine is a fake drawing application.
type Engine struct {
	App       *automationtest.Object
	documents *automationtest.Object
	active    *Drawing
	drawings  map[string]*Drawing
	fragments map[string][]BlockDef
	untitled  int
	mu        sync.Mutex
}

// NewEngine returns an engine with no drawings.
func NewEngine() *Engine {
	e := &Engine{
		drawings:  map[string]*Drawing{},
		fragments: map[string][]BlockDef{},
	}
	e.documents = automationtest.NewObject("Documents").
		WithMethod("Open", func(args ...any) (any, error) {
			path, _ := args[0].(string)

			return e.open(path)
		}).
		WithMethod("Add", func(...any) (any, error) {
			e.mu.Lock()
			e.untitled++
			n := e.untitled
			e.mu.Unlock()

			d := e.newDrawing(fmt.Sprintf("Drawing%d.dwg", n))
			e.documents.WithItems(d.Doc)
			e.setActive(d)

			return d.Doc, nil
		})
	e.App = automationtest.NewObject("Application").
		WithProp("Documents", e.documents).
		WithProp("ActiveDocument", automationtest.Getter(func() any {
			e.mu.Lock()
			defer e.mu.Unlock()

			if e.active == nil {
				return nil
			}

			return e.active.Doc
		}))

	return e
}

// Proxy returns the application wrapped for package cad, with a retry
// policy that does not sleep.
func (e *Engine) Proxy(opts ...automation.Option) *automation.Proxy {
	return automation.New(e.App, append([]automation.Option{automation.WithSleep(noSleep)}, opts...)...)
}

// Application returns a [cad.Application] driving the engine.
func (e *Engine) Application(opts ...automation.Option) *cad.Application {
	return cad.NewApplication(e.Proxy(opts...))
}

// RegisterFragment makes a drawing file named name (without directory or
// extension) insertable as a block. The first definition is the file's
// own block and is renamed to name; the rest are nested definitions it
// brings along.
func (e *Engine) RegisterFragment(name string, defs ...BlockDef) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(defs) == 0 {
		defs = []BlockDef{{}}
	}
	defs[0].Name = name
	e.fragments[strings.ToLower(name)] = defs
}

// AddDrawing registers a closed drawing file at path with the given paper
// space layouts. An empty placeholder is written to disk when the directory
// exists.
func (e *Engine) AddDrawing(path string, layouts ...string) *Drawing {
	abs, _ := filepath.Abs(path)
	d := e.newDrawing(filepath.Base(abs))
	d.path = abs
	for _, name := range layouts {
		d.AddLayout(name)
	}
	e.register(d)

	return d
}

// Drawing returns the drawing saved at path, or nil.
func (e *Engine) Drawing(path string) *Drawing {
	abs, _ := filepath.Abs(path)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.drawings[key(abs)]
}

// OpenDocuments returns the open drawings in open order.
func (e *Engine) OpenDocuments() []*Drawing {
	var out []*Drawing
	for _, item := range e.documents.Items() {
		obj, _ := item.(*automationtest.Object)
		e.mu.Lock()
		for _, d := range e.drawings {
			if d.Doc == obj {
				out = append(out, d)
			}
		}
		e.mu.Unlock()
	}

	return out
}

func (e *Engine) register(d *Drawing) {
	e.mu.Lock()
	e.drawings[key(d.path)] = d
	e.mu.Unlock()

	if st, err := os.Stat(filepath.Dir(d.path)); err == nil && st.IsDir() {
		if _, err := os.Stat(d.path); err != nil {
			_ = os.WriteFile(d.path, nil, 0o600)
		}
	}
}

func (e *Engine) setActive(d *Drawing) {
	e.mu.Lock()
	e.active = d
	e.mu.Unlock()
}

func (e *Engine) open(path string) (any, error) {
	e.mu.Lock()
	d, ok := e.drawings[key(path)]
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, path)
	}
	d.Closed = false
	e.documents.RemoveItem(d.Doc)
	e.documents.WithItems(d.Doc)
	e.setActive(d)

	return d.Doc, nil
}

func (e *Engine) fragment(path string) ([]BlockDef, bool) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	e.mu.Lock()
	defer e.mu.Unlock()

	defs, ok := e.fragments[strings.ToLower(name)]

	return defs, ok
}

func key(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

func noSleep(_ time.Duration) {}

package cad

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/macropower/draftkit/pkg/automation"
)

var (
	// ErrPlotFailed indicates the engine reported an unsuccessful plot.
	ErrPlotFailed = errors.New("plot failed")

	// ErrBlockNotFound indicates a block definition does not exist.
	ErrBlockNotFound = errors.New("block not found")
)

// Object type names reported by Entity.ObjectName.
const (
	ObjectBlockReference      = "AcDbBlockReference"
	ObjectAttributeDefinition = "AcDbAttributeDefinition"
)

// Application is the engine's root object.
type Application struct {
	p *automation.Proxy
}

// NewApplication wraps the root proxy returned by [automation.Dial].
func NewApplication(p *automation.Proxy) *Application {
	return &Application{p: p}
}

func (a *Application) documents() (*automation.Proxy, error) {
	docs, err := a.p.GetObject("Documents")
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	return docs, nil
}

// Documents returns every open document.
func (a *Application) Documents() ([]*Document, error) {
	docs, err := a.documents()
	if err != nil {
		return nil, err
	}
	items, err := docs.Items()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]*Document, len(items))
	for i, item := range items {
		out[i] = &Document{p: item}
	}

	return out, nil
}

// ActiveDocument returns the document that currently has focus.
func (a *Application) ActiveDocument() (*Document, error) {
	p, err := a.p.GetObject("ActiveDocument")
	if err != nil {
		return nil, fmt.Errorf("get active document: %w", err)
	}

	return &Document{p: p}, nil
}

// OpenDocument activates the document at path when it is already open and
// writable, and opens it otherwise.
func (a *Application) OpenDocument(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	open, err := a.Documents()
	if err != nil {
		return nil, err
	}
	for _, d := range open {
		name, err := d.FullName()
		if err != nil {
			return nil, err
		}
		if !samePath(abs, name) {
			continue
		}
		ro, err := d.ReadOnly()
		if err != nil {
			return nil, err
		}
		if ro {
			slog.Debug("document open read-only, opening another copy", slog.String("path", abs))

			continue
		}
		if err := d.Activate(); err != nil {
			return nil, err
		}

		return d, nil
	}

	docs, err := a.documents()
	if err != nil {
		return nil, err
	}
	p, err := docs.CallObject("Open", abs)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", abs, err)
	}
	slog.Debug("opened document", slog.String("path", abs))

	return &Document{p: p}, nil
}

// NewDocument creates a drawing and saves it at path.
func (a *Application) NewDocument(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	docs, err := a.documents()
	if err != nil {
		return nil, err
	}
	p, err := docs.CallObject("Add")
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}
	d := &Document{p: p}
	if err := d.SaveAs(abs); err != nil {
		return nil, err
	}

	return d, nil
}

// samePath compares drawing paths the way the engine's host file system
// does, ignoring case.
func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}

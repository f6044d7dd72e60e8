package cad

import (
	"fmt"

	"github.com/macropower/draftkit/pkg/automation"
)

// Layout is a model or paper space layout.
type Layout struct {
	p *automation.Proxy
}

func (l *Layout) Name() (string, error) {
	s, err := l.p.GetString("Name")
	if err != nil {
		return "", fmt.Errorf("get layout name: %w", err)
	}

	return s, nil
}

func (l *Layout) Delete() error {
	if _, err := l.p.Call("Delete"); err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}

	return nil
}

// Block returns the layout's entity container.
func (l *Layout) Block() (*Space, error) {
	p, err := l.p.GetObject("Block")
	if err != nil {
		return nil, fmt.Errorf("get layout block: %w", err)
	}

	return &Space{p: p}, nil
}

// ConfigurePlot applies the page setup.
func (l *Layout) ConfigurePlot(s PlotSettings) error {
	if _, err := l.p.Call("RefreshPlotDeviceInfo"); err != nil {
		return fmt.Errorf("refresh plot device info: %w", err)
	}
	props := []struct {
		value any
		name  string
	}{
		{name: "ConfigName", value: s.Device},
		{name: "CanonicalMediaName", value: CanonicalMediaName(s.Media)},
		{name: "PaperUnits", value: paperUnitsMillimeters},
	}
	for _, prop := range props {
		if err := l.p.Set(prop.name, prop.value); err != nil {
			return fmt.Errorf("set %s: %w", prop.name, err)
		}
	}
	if _, err := l.p.Call("SetCustomScale", 1.0, 1.0); err != nil {
		return fmt.Errorf("set custom scale: %w", err)
	}
	if err := l.p.Set("StyleSheet", s.StyleSheet); err != nil {
		return fmt.Errorf("set StyleSheet: %w", err)
	}
	if err := l.p.Set("PlotRotation", plotRotation0); err != nil {
		return fmt.Errorf("set PlotRotation: %w", err)
	}

	return nil
}

// Space is an entity container: model space, a layout's paper space, or a
// block definition.
type Space struct {
	p *automation.Proxy
}

// Entities returns every entity in the container.
func (s *Space) Entities() ([]*Entity, error) {
	items, err := s.p.Items()
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	out := make([]*Entity, len(items))
	for i, item := range items {
		out[i] = &Entity{p: item}
	}

	return out, nil
}

// BlockReferences returns the references to the named block.
func (s *Space) BlockReferences(block string) ([]*BlockReference, error) {
	entities, err := s.Entities()
	if err != nil {
		return nil, err
	}
	var refs []*BlockReference
	for _, e := range entities {
		kind, err := e.ObjectName()
		if err != nil {
			return nil, err
		}
		if kind != ObjectBlockReference {
			continue
		}
		name, err := e.Name()
		if err != nil {
			return nil, err
		}
		if name == block {
			refs = append(refs, &BlockReference{Entity: e})
		}
	}

	return refs, nil
}

// DeleteBlockReferences deletes every reference to the named block and
// returns how many were removed.
func (s *Space) DeleteBlockReferences(block string) (int, error) {
	refs, err := s.BlockReferences(block)
	if err != nil {
		return 0, err
	}
	for _, r := range refs {
		if err := r.Delete(); err != nil {
			return 0, err
		}
	}

	return len(refs), nil
}

// InsertBlock inserts a block at the point with uniform scale and rotation
// in radians. The block may be the name of a definition in the drawing or a
// path to a drawing file, which defines a block named after the file.
func (s *Space) InsertBlock(at automation.Point, block string, scale, rotation float64) (*BlockReference, error) {
	p, err := s.p.CallObject("InsertBlock", at, block, scale, scale, scale, rotation)
	if err != nil {
		return nil, fmt.Errorf("insert block %q: %w", block, err)
	}

	return &BlockReference{Entity: &Entity{p: p}}, nil
}

package cad

import (
	"fmt"

	"golang.org/x/text/cases"

	"github.com/macropower/draftkit/pkg/automation"
)

// Entity is a drawing object.
type Entity struct {
	p *automation.Proxy
}

// ObjectName returns the engine's class name, e.g. [ObjectBlockReference].
func (e *Entity) ObjectName() (string, error) {
	s, err := e.p.GetString("ObjectName")
	if err != nil {
		return "", fmt.Errorf("get object name: %w", err)
	}

	return s, nil
}

func (e *Entity) Name() (string, error) {
	s, err := e.p.GetString("Name")
	if err != nil {
		return "", fmt.Errorf("get entity name: %w", err)
	}

	return s, nil
}

func (e *Entity) InsertionPoint() (automation.Point, error) {
	pt, err := e.p.GetPoint("InsertionPoint")
	if err != nil {
		return automation.Point{}, fmt.Errorf("get insertion point: %w", err)
	}

	return pt, nil
}

// Explode copies the block's contents into the owning space. The reference
// itself is left in place.
func (e *Entity) Explode() error {
	if _, err := e.p.Call("Explode"); err != nil {
		return fmt.Errorf("explode: %w", err)
	}

	return nil
}

func (e *Entity) Delete() error {
	if _, err := e.p.Call("Delete"); err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}

	return nil
}

func (e *Entity) SetLayer(layer string) error {
	if err := e.p.Set("Layer", layer); err != nil {
		return fmt.Errorf("set layer: %w", err)
	}

	return nil
}

// BlockReference is an inserted block.
type BlockReference struct {
	*Entity
}

// Attributes returns the reference's attributes, or nil when it has none.
func (r *BlockReference) Attributes() ([]*Attribute, error) {
	has, err := r.p.GetBool("HasAttributes")
	if err != nil {
		return nil, fmt.Errorf("get has attributes: %w", err)
	}
	if !has {
		return nil, nil
	}
	v, err := r.p.Call("GetAttributes")
	if err != nil {
		return nil, fmt.Errorf("get attributes: %w", err)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: GetAttributes returned %T", automation.ErrUnexpectedType, v)
	}
	out := make([]*Attribute, 0, len(list))
	for _, item := range list {
		p, ok := item.(*automation.Proxy)
		if !ok {
			return nil, fmt.Errorf("%w: attribute is %T", automation.ErrUnexpectedType, item)
		}
		out = append(out, &Attribute{p: p})
	}

	return out, nil
}

// SetAttributes writes values keyed by tag, matched case-insensitively.
// Attributes whose tag is not in values are left as they are.
func (r *BlockReference) SetAttributes(values map[string]string) error {
	attrs, err := r.Attributes()
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return nil
	}
	fold := cases.Fold()
	folded := make(map[string]string, len(values))
	for k, v := range values {
		folded[fold.String(k)] = v
	}
	for _, a := range attrs {
		tag, err := a.Tag()
		if err != nil {
			return err
		}
		v, ok := folded[fold.String(tag)]
		if !ok {
			continue
		}
		if err := a.SetText(v); err != nil {
			return fmt.Errorf("attribute %s: %w", tag, err)
		}
	}

	return nil
}

// ClearAttributes sets every attribute to the empty string.
func (r *BlockReference) ClearAttributes() error {
	attrs, err := r.Attributes()
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if err := a.SetText(""); err != nil {
			return err
		}
	}

	return nil
}

// Attribute is an attribute value of a block reference.
type Attribute struct {
	p *automation.Proxy
}

func (a *Attribute) Tag() (string, error) {
	s, err := a.p.GetString("TagString")
	if err != nil {
		return "", fmt.Errorf("get attribute tag: %w", err)
	}

	return s, nil
}

func (a *Attribute) Text() (string, error) {
	s, err := a.p.GetString("TextString")
	if err != nil {
		return "", fmt.Errorf("get attribute text: %w", err)
	}

	return s, nil
}

func (a *Attribute) SetText(s string) error {
	if err := a.p.Set("TextString", s); err != nil {
		return fmt.Errorf("set attribute text: %w", err)
	}

	return nil
}

// LineweightDefault resets a layer to the drawing's default lineweight.
const LineweightDefault = -3

// Layer is a drawing layer.
type Layer struct {
	p *automation.Proxy
}

func (l *Layer) Name() (string, error) {
	s, err := l.p.GetString("Name")
	if err != nil {
		return "", fmt.Errorf("get layer name: %w", err)
	}

	return s, nil
}

func (l *Layer) Frozen() (bool, error) {
	b, err := l.p.GetBool("Freeze")
	if err != nil {
		return false, fmt.Errorf("get layer freeze: %w", err)
	}

	return b, nil
}

func (l *Layer) SetFrozen(frozen bool) error {
	if err := l.p.Set("Freeze", frozen); err != nil {
		return fmt.Errorf("set layer freeze: %w", err)
	}

	return nil
}

// SetLineweight sets the lineweight in hundredths of a millimeter, or
// [LineweightDefault].
func (l *Layer) SetLineweight(w int) error {
	if err := l.p.Set("Lineweight", int32(w)); err != nil {
		return fmt.Errorf("set layer lineweight: %w", err)
	}

	return nil
}

// SetProperty sets any layer property by name, such as "Color" or "Plottable".
func (l *Layer) SetProperty(name string, value any) error {
	if err := l.p.Set(name, value); err != nil {
		return fmt.Errorf("set layer %s: %w", name, err)
	}

	return nil
}

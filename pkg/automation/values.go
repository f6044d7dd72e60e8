package automation

import (
	"fmt"
	"math"
)

// GetObject reads an object-valued property.
func (p *Proxy) GetObject(name string, args ...any) (*Proxy, error) {
	v, err := p.Get(name, args...)
	if err != nil {
		return nil, err
	}

	return asProxy(name, v)
}

// CallObject invokes a method that returns an object.
func (p *Proxy) CallObject(name string, args ...any) (*Proxy, error) {
	v, err := p.Call(name, args...)
	if err != nil {
		return nil, err
	}

	return asProxy(name, v)
}

// ItemObject reads an object-valued collection element.
func (p *Proxy) ItemObject(key any) (*Proxy, error) {
	v, err := p.Item(key)
	if err != nil {
		return nil, err
	}

	return asProxy("Item", v)
}

func (p *Proxy) GetString(name string) (string, error) {
	v, err := p.Get(name)
	if err != nil {
		return "", err
	}

	return ToString(v)
}

func (p *Proxy) GetBool(name string) (bool, error) {
	v, err := p.Get(name)
	if err != nil {
		return false, err
	}

	return ToBool(v)
}

func (p *Proxy) GetInt(name string) (int, error) {
	v, err := p.Get(name)
	if err != nil {
		return 0, err
	}

	return ToInt(v)
}

func (p *Proxy) GetFloat(name string) (float64, error) {
	v, err := p.Get(name)
	if err != nil {
		return 0, err
	}

	return ToFloat(v)
}

func (p *Proxy) GetPoint(name string) (Point, error) {
	v, err := p.Get(name)
	if err != nil {
		return Point{}, err
	}

	return ToPoint(v)
}

// Count returns the collection's Count property.
func (p *Proxy) Count() (int, error) {
	return p.GetInt("Count")
}

// Items returns every element of a collection, read by index from 0 to
// Count-1.
func (p *Proxy) Items() ([]*Proxy, error) {
	n, err := p.Count()
	if err != nil {
		return nil, err
	}
	items := make([]*Proxy, 0, n)
	for i := range n {
		item, err := p.ItemObject(i)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Each calls fn for every element of a collection, stopping at the first
// error.
func (p *Proxy) Each(fn func(i int, item *Proxy) error) error {
	n, err := p.Count()
	if err != nil {
		return err
	}
	for i := range n {
		item, err := p.ItemObject(i)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

func asProxy(name string, v any) (*Proxy, error) {
	px, ok := v.(*Proxy)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T, want object", ErrUnexpectedType, name, v)
	}

	return px, nil
}

// ToString converts a remote value to a string. Nil is the empty string.
func ToString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %T, want string", ErrUnexpectedType, v)
	}
}

// ToBool converts a remote value to a bool. Integers are true when non-zero.
func ToBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	i, err := ToInt(v)
	if err != nil {
		return false, fmt.Errorf("%w: %T, want bool", ErrUnexpectedType, v)
	}

	return i != 0, nil
}

// ToInt converts a remote integer value. Floats are accepted when integral.
func ToInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int8:
		return int(t), nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint8:
		return int(t), nil
	case uint16:
		return int(t), nil
	case uint32:
		return int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int", ErrUnexpectedType, t)
		}

		return int(t), nil
	case float32, float64:
		f, _ := ToFloat(t)
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %v is not integral", ErrUnexpectedType, f)
		}

		return int(f), nil
	default:
		return 0, fmt.Errorf("%w: %T, want integer", ErrUnexpectedType, v)
	}
}

// ToFloat converts a remote numeric value.
func ToFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		i, err := ToInt(t)
		if err != nil {
			return 0, err
		}

		return float64(i), nil
	default:
		return 0, fmt.Errorf("%w: %T, want number", ErrUnexpectedType, v)
	}
}

// ToPoint converts a remote coordinate. Engines return points as arrays of
// two or three numbers.
func ToPoint(v any) (Point, error) {
	var coords []float64
	switch t := v.(type) {
	case Point:
		return t, nil
	case []float64:
		coords = t
	case []any:
		coords = make([]float64, 0, len(t))
		for _, c := range t {
			f, err := ToFloat(c)
			if err != nil {
				return Point{}, fmt.Errorf("point coordinate: %w", err)
			}
			coords = append(coords, f)
		}
	default:
		return Point{}, fmt.Errorf("%w: %T, want point", ErrUnexpectedType, v)
	}

	switch len(coords) {
	case 2:
		return Point{X: coords[0], Y: coords[1]}, nil
	case 3:
		return Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
	default:
		return Point{}, fmt.Errorf("%w: point with %d coordinates", ErrUnexpectedType, len(coords))
	}
}

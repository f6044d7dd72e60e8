// Package automationtest provides an in-memory [automation.Object] with
// fault injection, for tests.
package automationtest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/macropower/draftkit/pkg/automation"
)

var (
	// ErrUnknownMember is returned for members the object does not define.
	// It is a permanent error.
	ErrUnknownMember = errors.New("unknown member")

	// ErrNoSuchItem is returned for collection keys that do not exist.
	ErrNoSuchItem = errors.New("no such item")
)

// Method implements a remote method or parameterized property.
type Method func(args ...any) (any, error)

// Getter computes a property value on every read.
type Getter func() any

var _ automation.Object = (*Object)(nil)

// Object is a scriptable fake remote object. Properties, methods and
// collection items are configured with the With* methods. Failures queued
// with [Object.Fail] are returned, in order, by the next calls that touch
// the member.
type Object struct {
	props    map[string]any
	methods  map[string]Method
	setHooks map[string]func(any) error
	faults   map[string][]error
	attempts map[string]int
	name     string
	items    []any
	mu       sync.Mutex
}

// NewObject returns an empty object. The name is used in error messages and
// as its String form.
func NewObject(name string) *Object {
	return &Object{
		name:     name,
		props:    map[string]any{},
		methods:  map[string]Method{},
		setHooks: map[string]func(any) error{},
		faults:   map[string][]error{},
		attempts: map[string]int{},
	}
}

func (o *Object) String() string {
	return o.name
}

// WithProp sets a property. A [Getter] value is evaluated on each read.
func (o *Object) WithProp(name string, v any) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.props[name] = v

	return o
}

// WithMethod defines a method. Gets of the same name with arguments are
// routed to it too, like parameterized properties.
func (o *Object) WithMethod(name string, fn Method) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.methods[name] = fn

	return o
}

// OnSet runs fn before a property write is stored. A non-nil error
// rejects the write.
func (o *Object) OnSet(name string, fn func(any) error) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.setHooks[name] = fn

	return o
}

// WithItems appends collection items.
func (o *Object) WithItems(items ...any) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.items = append(o.items, items...)

	return o
}

// Fail queues errs for the member. Each access consumes one error until the
// queue is empty.
func (o *Object) Fail(member string, errs ...error) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.faults[member] = append(o.faults[member], errs...)

	return o
}

// Attempts returns how many times the member was accessed.
func (o *Object) Attempts(member string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.attempts[member]
}

// Prop reads a property directly, bypassing faults and counters.
func (o *Object) Prop(name string) any {
	o.mu.Lock()
	v := o.props[name]
	o.mu.Unlock()

	if g, ok := v.(Getter); ok {
		return g()
	}

	return v
}

// Items returns a copy of the collection items.
func (o *Object) Items() []any {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]any, len(o.items))
	copy(out, o.items)

	return out
}

// RemoveItem removes v from the collection and reports whether it was
// present.
func (o *Object) RemoveItem(v any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, item := range o.items {
		if item == v {
			o.items = append(o.items[:i], o.items[i+1:]...)

			return true
		}
	}

	return false
}

func (o *Object) attempt(member string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.attempts[member]++
	if q := o.faults[member]; len(q) > 0 {
		o.faults[member] = q[1:]

		return q[0]
	}

	return nil
}

func (o *Object) Get(name string, args ...any) (any, error) {
	if err := o.attempt(name); err != nil {
		return nil, err
	}

	o.mu.Lock()
	v, hasProp := o.props[name]
	m, hasMethod := o.methods[name]
	n := len(o.items)
	o.mu.Unlock()

	switch {
	case hasMethod && (len(args) > 0 || !hasProp):
		return m(args...)
	case hasProp:
		if g, ok := v.(Getter); ok {
			return g(), nil
		}

		return v, nil
	case name == "Count":
		return n, nil
	}

	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, o.name, name)
}

func (o *Object) Set(name string, value any) error {
	if err := o.attempt(name); err != nil {
		return err
	}

	o.mu.Lock()
	hook := o.setHooks[name]
	o.mu.Unlock()

	if hook != nil {
		if err := hook(value); err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.props[name] = value
	o.mu.Unlock()

	return nil
}

func (o *Object) Call(name string, args ...any) (any, error) {
	if err := o.attempt(name); err != nil {
		return nil, err
	}

	o.mu.Lock()
	m, ok := o.methods[name]
	o.mu.Unlock()

	if ok {
		return m(args...)
	}
	if name == "Item" && len(args) == 1 {
		return o.lookup(args[0])
	}

	return nil, fmt.Errorf("%w: %s.%s()", ErrUnknownMember, o.name, name)
}

// Item looks up an element by integer index, or by string key against the
// elements' Name property, case-insensitively.
func (o *Object) Item(key any) (any, error) {
	if err := o.attempt("Item"); err != nil {
		return nil, err
	}

	o.mu.Lock()
	m, ok := o.methods["Item"]
	o.mu.Unlock()

	if ok {
		return m(key)
	}

	return o.lookup(key)
}

func (o *Object) SetItem(key, value any) error {
	if err := o.attempt("Item"); err != nil {
		return err
	}

	i, err := automation.ToInt(key)
	if err != nil {
		return fmt.Errorf("%w: %s[%v]", ErrNoSuchItem, o.name, key)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if i < 0 || i >= len(o.items) {
		return fmt.Errorf("%w: %s[%d]", ErrNoSuchItem, o.name, i)
	}
	o.items[i] = value

	return nil
}

func (o *Object) lookup(key any) (any, error) {
	items := o.Items()

	if name, ok := key.(string); ok {
		for _, item := range items {
			obj, ok := item.(*Object)
			if !ok {
				continue
			}
			if n, ok := obj.Prop("Name").(string); ok && strings.EqualFold(n, name) {
				return obj, nil
			}
		}

		return nil, fmt.Errorf("%w: %s[%q]", ErrNoSuchItem, o.name, name)
	}

	i, err := automation.ToInt(key)
	if err != nil || i < 0 || i >= len(items) {
		return nil, fmt.Errorf("%w: %s[%v]", ErrNoSuchItem, o.name, key)
	}

	return items[i], nil
}

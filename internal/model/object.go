package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/modelkit/internal/model/event"
	"github.com/conduit-lang/modelkit/internal/util"
)

// Object is an instance of a Class. Its field set is fixed by the class: values
// are only reachable through Get and Set, which enforce visibility, read-only
// rules and validation, and fire change events through the embedded hub.
type Object struct {
	*event.Hub

	class        *Class
	id           string
	values       map[string]any
	constructing bool
	destroyed    bool
	tracker      *changeTracker
	privileged   *Self
}

// Self is the privileged handle on an Object. Methods, adjusters, validators
// and init receive it; it reads and writes private properties and calls
// private methods. Read-only properties stay read-only after construction.
type Self struct {
	obj *Object
}

// NewOption configures Class.New.
type NewOption func(*newOptions)

type newOptions struct {
	events map[string]event.Callback
}

// WithEvents subscribes callbacks before init runs, so they observe the
// changes init makes and the final "new" event.
func WithEvents(callbacks map[string]event.Callback) NewOption {
	return func(o *newOptions) {
		o.events = callbacks
	}
}

// New constructs an instance. Values are merged over the class defaults and
// written through the property setter in declaration order; the first
// validation failure is returned.
func (c *Class) New(values map[string]any, opts ...NewOption) (*Object, error) {
	var options newOptions
	for _, opt := range opts {
		opt(&options)
	}

	o := c.allocate()
	if err := o.fill(values); err != nil {
		return nil, err
	}

	if options.events != nil {
		o.OnMap(options.events)
	}

	if c.HasMethod(InitMethod) {
		if _, err := c.dispatch(o.self(), InitMethod, []any{values}, true); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.name, InitMethod, err)
		}
	}

	o.constructing = false
	o.tracker.commit(o.values)
	o.Trigger("new", o)
	return o, nil
}

// MustNew is like New but panics on error. It is intended for fixtures and
// package-level declarations.
func (c *Class) MustNew(values map[string]any, opts ...NewOption) *Object {
	o, err := c.New(values, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

func (c *Class) allocate() *Object {
	o := &Object{
		Hub:          event.New(),
		class:        c,
		id:           uuid.NewString(),
		values:       make(map[string]any, len(c.props)),
		constructing: true,
		tracker:      newChangeTracker(),
	}
	o.privileged = &Self{obj: o}
	return o
}

func (o *Object) fill(values map[string]any) error {
	for name := range values {
		if _, ok := o.class.propIndex[name]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, o.class.name, name)
		}
	}

	merged := make(map[string]any, len(values))
	for k, v := range values {
		merged[k] = v
	}
	merged = util.DefaultsFill(merged, o.freshDefaults())
	for _, p := range o.class.props {
		if err := o.set(p.spec.Name, merged[p.spec.Name], true); err != nil {
			return err
		}
	}
	return nil
}

// freshDefaults deep-copies defaults so instances never share mutable
// default maps or slices.
func (o *Object) freshDefaults() map[string]any {
	out := make(map[string]any, len(o.class.defaults))
	for k, v := range o.class.defaults {
		out[k] = util.DeepClone(v)
	}
	return out
}

func (o *Object) self() *Self {
	return o.privileged
}

// ID returns the unique instance id.
func (o *Object) ID() string { return o.id }

// Class returns the instance's class.
func (o *Object) Class() *Class { return o.class }

// IsDestroyed reports whether Destroy has been called.
func (o *Object) IsDestroyed() bool { return o.destroyed }

// InstanceOf reports whether the object's class is, or descends from, the
// class registered as name.
func (o *Object) InstanceOf(name string) bool {
	for cls := o.class; cls != nil; cls = cls.parent {
		if cls.name == name {
			return true
		}
	}
	return false
}

// Has reports whether name is a declared property.
func (o *Object) Has(name string) bool {
	_, ok := o.class.propIndex[name]
	return ok
}

// Get returns a property value. Private properties read as nil.
func (o *Object) Get(name string) any {
	return o.get(name, false)
}

// Set writes a property through the setter pipeline. Writes denied by
// visibility or read-only rules are logged and ignored; validation failures
// are returned.
func (o *Object) Set(name string, value any) error {
	return o.set(name, value, false)
}

// SetValues writes several properties in declaration order, stopping at the
// first error.
func (o *Object) SetValues(values map[string]any) error {
	for name := range values {
		if !o.Has(name) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, o.class.name, name)
		}
	}
	for _, p := range o.class.props {
		v, ok := values[p.spec.Name]
		if !ok {
			continue
		}
		if err := o.set(p.spec.Name, v, false); err != nil {
			return err
		}
	}
	return nil
}

// Call invokes a public method. Private methods are denied: a warning is
// logged and (nil, nil) returned.
func (o *Object) Call(method string, args ...any) (any, error) {
	return o.class.dispatch(o.self(), method, args, false)
}

// Destroy marks the object destroyed, fires "destroy" and detaches every
// listener. Properties stay writable.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.Trigger("destroy", o)
	o.Off("", nil, nil)
}

// Clone constructs a new instance of the same class from the current values,
// private ones included.
func (o *Object) Clone() (*Object, error) {
	values := make(map[string]any, len(o.values))
	for k, v := range o.values {
		values[k] = util.DeepClone(v)
	}
	return o.class.New(values)
}

// ToMap returns the public property values. Nested objects become maps; an
// object already being expanded further up is replaced by its ID.
func (o *Object) ToMap() map[string]any {
	out, _ := o.toMap(make(map[*Object]bool), false)
	return out
}

// ToJSON encodes the public property values. It fails with
// ErrCyclicReference when objects reference each other in a loop.
func (o *Object) ToJSON() ([]byte, error) {
	m, err := o.toMap(make(map[*Object]bool), true)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// MarshalJSON implements json.Marshaler
func (o *Object) MarshalJSON() ([]byte, error) {
	return o.ToJSON()
}

// toMap expands o. path holds the objects currently being expanded; shared
// references that do not loop are expanded each time they appear.
func (o *Object) toMap(path map[*Object]bool, strict bool) (map[string]any, error) {
	path[o] = true
	defer delete(path, o)

	out := make(map[string]any, len(o.class.props))
	for _, p := range o.class.props {
		if p.spec.Private {
			continue
		}
		v, err := plain(o.values[p.spec.Name], path, strict)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", o.class.name, p.spec.Name, err)
		}
		out[p.spec.Name] = v
	}
	return out, nil
}

// String implements fmt.Stringer
func (o *Object) String() string {
	return fmt.Sprintf("%s(%s)", o.class.name, o.id)
}

func plain(v any, path map[*Object]bool, strict bool) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Object:
		if path[val] {
			if strict {
				return nil, fmt.Errorf("%w: %s", ErrCyclicReference, val)
			}
			return val.id, nil
		}
		return val.toMap(path, strict)
	case time.Time:
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			p, err := plain(item, path, strict)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			p, err := plain(rv.Index(i).Interface(), path, strict)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}
	return v, nil
}

// Object returns the public view of the object.
func (s *Self) Object() *Object { return s.obj }

// Get reads any property, private ones included.
func (s *Self) Get(name string) any {
	return s.obj.get(name, true)
}

// Set writes any property, private ones included.
func (s *Self) Set(name string, value any) error {
	return s.obj.set(name, value, true)
}

// Call invokes any method, private ones included.
func (s *Self) Call(method string, args ...any) (any, error) {
	return s.obj.class.dispatch(s, method, args, true)
}

// Trigger fires an event on the object.
func (s *Self) Trigger(names string, args ...any) {
	s.obj.Trigger(names, args...)
}

// Constructing reports whether the object is still being constructed.
func (s *Self) Constructing() bool {
	return s.obj.constructing
}

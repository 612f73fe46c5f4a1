package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
)

// methodEntry is one slot of a class's dispatch table. super points at the
// entry this one overrides, forming the explicit base-call chain.
type methodEntry struct {
	name    string
	fn      Method
	owner   *Class
	private bool
	super   *methodEntry
}

// Class is the compiled, immutable metadata of a defined class.
type Class struct {
	name     string
	role     string
	parent   *Class
	registry *Registry

	props     []*Property
	propIndex map[string]int
	defaults  map[string]any

	methods    map[string]*methodEntry
	ownMethods map[string]bool

	statics    map[string]any
	staticInit func(c *Class)

	patchMu sync.RWMutex
	patches map[string][]Override
}

func newBaseClass(r *Registry) *Class {
	return &Class{
		name:       BaseClassName,
		registry:   r,
		propIndex:  make(map[string]int),
		defaults:   make(map[string]any),
		methods:    make(map[string]*methodEntry),
		ownMethods: make(map[string]bool),
		statics:    make(map[string]any),
		patches:    make(map[string][]Override),
	}
}

// Extend defines a subclass of c and registers it.
func (c *Class) Extend(def Definition) (*Class, error) {
	if err := checkDefinition(def); err != nil {
		return nil, err
	}
	if c.registry.Exists(def.Name) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, def.Name)
	}

	child := &Class{
		name:       def.Name,
		role:       def.Role,
		parent:     c,
		registry:   c.registry,
		propIndex:  make(map[string]int, len(c.props)+len(def.Properties)),
		defaults:   make(map[string]any),
		methods:    make(map[string]*methodEntry, len(c.methods)+len(def.Methods)),
		ownMethods: make(map[string]bool, len(def.Methods)),
		statics:    make(map[string]any, len(def.Statics)),
		staticInit: def.StaticInit,
		patches:    make(map[string][]Override),
	}
	if child.role == "" {
		child.role = c.role
	}

	if err := child.mergeProperties(c, def.Properties); err != nil {
		return nil, err
	}
	child.applyDefaults()
	child.mergeMethods(c, def.Methods)
	for k, v := range def.Statics {
		child.statics[k] = v
	}

	if err := c.registry.register(child); err != nil {
		return nil, err
	}

	for cls := child; cls != nil; cls = cls.parent {
		if cls.staticInit != nil {
			cls.staticInit(child)
		}
	}

	logging.L().Debug("class defined",
		zap.String("class", child.name),
		zap.String("parent", c.name),
		zap.Int("properties", len(child.props)),
		zap.Int("methods", len(child.methods)),
	)
	return child, nil
}

func checkDefinition(def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: class name is required", ErrInvalidDefinition)
	}
	if strings.ContainsAny(def.Name, " \t\n") || strings.HasPrefix(def.Name, ".") || strings.HasSuffix(def.Name, ".") {
		return fmt.Errorf("%w: malformed class name %q", ErrInvalidDefinition, def.Name)
	}

	seen := make(map[string]bool, len(def.Properties))
	for _, spec := range def.Properties {
		if seen[spec.Name] {
			return fmt.Errorf("%w: %s: duplicate property %q", ErrInvalidDefinition, def.Name, spec.Name)
		}
		seen[spec.Name] = true
	}
	for name, m := range def.Methods {
		if name == "" {
			return fmt.Errorf("%w: %s: method with empty name", ErrInvalidDefinition, def.Name)
		}
		if m.Fn == nil {
			return fmt.Errorf("%w: %s.%s: method has no body", ErrInvalidDefinition, def.Name, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s: %q is both a property and a method", ErrInvalidDefinition, def.Name, name)
		}
	}
	return nil
}

// mergeProperties keeps the parent's order, replaces same-named entries in
// place and appends new ones.
func (c *Class) mergeProperties(parent *Class, specs []PropertySpec) error {
	c.props = make([]*Property, len(parent.props), len(parent.props)+len(specs))
	copy(c.props, parent.props)
	for name, i := range parent.propIndex {
		c.propIndex[name] = i
	}

	for _, spec := range specs {
		p, err := compileProperty(c, spec)
		if err != nil {
			return err
		}
		if i, exists := c.propIndex[spec.Name]; exists {
			c.props[i] = p
			continue
		}
		c.propIndex[spec.Name] = len(c.props)
		c.props = append(c.props, p)
	}
	return nil
}

// applyDefaults collects declared defaults, then overlays the role table
// configured on the registry.
func (c *Class) applyDefaults() {
	for _, p := range c.props {
		if p.spec.Default != nil {
			c.defaults[p.spec.Name] = p.spec.Default
		}
	}
	if c.role == "" {
		return
	}
	for name, v := range c.registry.RoleDefaults(c.role) {
		if _, declared := c.propIndex[name]; declared {
			c.defaults[name] = v
		}
	}
}

func (c *Class) mergeMethods(parent *Class, specs map[string]MethodSpec) {
	for name, entry := range parent.methods {
		c.methods[name] = entry
	}
	for name, spec := range specs {
		c.methods[name] = &methodEntry{
			name:    name,
			fn:      spec.Fn,
			owner:   c,
			private: spec.Private,
			super:   parent.methods[name],
		}
		c.ownMethods[name] = true
	}
}

// Name returns the registered class name.
func (c *Class) Name() string { return c.name }

// Role returns the configuration role, inherited from the parent when the
// definition names none.
func (c *Class) Role() string { return c.role }

// Parent returns the superclass, or nil for the base class.
func (c *Class) Parent() *Class { return c.parent }

// Registry returns the registry the class belongs to.
func (c *Class) Registry() *Registry { return c.registry }

// IsA reports whether c is other or one of its descendants.
func (c *Class) IsA(other *Class) bool {
	if other == nil {
		return false
	}
	for cls := c; cls != nil; cls = cls.parent {
		if cls == other {
			return true
		}
	}
	return false
}

// Ancestors returns the superclass chain, nearest first.
func (c *Class) Ancestors() []*Class {
	var out []*Class
	for cls := c.parent; cls != nil; cls = cls.parent {
		out = append(out, cls)
	}
	return out
}

// Properties returns the property specs in declaration order.
func (c *Class) Properties() []PropertySpec {
	out := make([]PropertySpec, len(c.props))
	for i, p := range c.props {
		out[i] = p.spec
	}
	return out
}

// OwnProperties returns the specs c declares or overrides itself.
func (c *Class) OwnProperties() []PropertySpec {
	var out []PropertySpec
	for _, p := range c.props {
		if p.owner == c {
			out = append(out, p.spec)
		}
	}
	return out
}

// Property returns the spec of a declared property.
func (c *Class) Property(name string) (PropertySpec, bool) {
	p, ok := c.property(name)
	if !ok {
		return PropertySpec{}, false
	}
	return p.spec, true
}

func (c *Class) property(name string) (*Property, bool) {
	i, ok := c.propIndex[name]
	if !ok {
		return nil, false
	}
	return c.props[i], true
}

// Defaults returns a copy of the default values, role overrides included.
func (c *Class) Defaults() map[string]any {
	out := make(map[string]any, len(c.defaults))
	for k, v := range c.defaults {
		out[k] = v
	}
	return out
}

// HasMethod reports whether the dispatch table has name, public or private.
func (c *Class) HasMethod(name string) bool {
	_, ok := c.methods[name]
	return ok
}

// Methods returns the public method names, sorted.
func (c *Class) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name, entry := range c.methods {
		if !entry.private {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DefinesMethod reports whether c itself (not an ancestor) declares name.
func (c *Class) DefinesMethod(name string) bool {
	return c.ownMethods[name]
}

// Static looks a static value up on c, then on its ancestors.
func (c *Class) Static(name string) (any, bool) {
	for cls := c; cls != nil; cls = cls.parent {
		if v, ok := cls.statics[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolve finds the entry a top-level call dispatches to, together with the
// patch layers configured at the slot that serves it.
func (c *Class) resolve(name string) (*methodEntry, []Override) {
	entry := c.methods[name]
	for cls := c; cls != nil; cls = cls.parent {
		cls.patchMu.RLock()
		layers := cls.patches[name]
		cls.patchMu.RUnlock()

		if len(layers) > 0 {
			snapshot := make([]Override, len(layers))
			copy(snapshot, layers)
			return cls.methods[name], snapshot
		}
		if cls.ownMethods[name] {
			return entry, nil
		}
	}
	return entry, nil
}

// dispatch performs a top-level method call on self. Unprivileged calls to
// private methods are denied softly.
func (c *Class) dispatch(self *Self, name string, args []any, privileged bool) (any, error) {
	entry, layers := c.resolve(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.name, name)
	}
	if entry.private && !privileged && !self.obj.constructing {
		self.obj.deniedMethod(name)
		return nil, nil
	}

	call := &Call{Self: self, Args: args, Method: name, entry: entry}
	result, err := entry.fn(call)
	if err != nil {
		return nil, err
	}
	return applyPatches(call, result, layers)
}

func (o *Object) deniedMethod(name string) {
	logging.L().Warn("access denied",
		zap.String("class", o.class.name),
		zap.String("method", name),
		zap.String("op", "call"),
		zap.String("reason", "private method"),
	)
}

// String implements fmt.Stringer
func (c *Class) String() string {
	return c.name
}

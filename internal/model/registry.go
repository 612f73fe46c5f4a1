package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BaseClassName is the name of the root class of every registry.
const BaseClassName = "Model"

// Registry owns a class hierarchy: the base class, every class defined from
// it, the namespace tree of dotted class names and the role default tables.
type Registry struct {
	mu        sync.RWMutex
	base      *Class
	classes   map[string]*Class
	namespace map[string]*Class
	roles     map[string]map[string]any
}

// NewRegistry creates a registry holding only the base class.
func NewRegistry() *Registry {
	r := &Registry{
		classes:   make(map[string]*Class),
		namespace: make(map[string]*Class),
		roles:     make(map[string]map[string]any),
	}
	r.base = newBaseClass(r)
	r.classes[BaseClassName] = r.base
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Extend defines a direct subclass of the base class in the default registry.
func Extend(def Definition) (*Class, error) {
	return defaultRegistry.Extend(def)
}

// Extend defines a direct subclass of the registry's base class.
func (r *Registry) Extend(def Definition) (*Class, error) {
	return r.base.Extend(def)
}

// ExtendNamed defines a subclass of the class registered as parent.
func (r *Registry) ExtendNamed(parent string, def Definition) (*Class, error) {
	p, ok := r.Lookup(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, parent)
	}
	return p.Extend(def)
}

// Base returns the root class.
func (r *Registry) Base() *Class {
	return r.base
}

func (r *Registry) register(c *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[c.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, c.name)
	}
	r.classes[c.name] = c
	if strings.Contains(c.name, ".") {
		r.namespace[c.name] = c
	}
	return nil
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[name]
	return c, ok
}

// Exists checks if a class is registered under name
func (r *Registry) Exists(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Resolve looks a dotted path up in the namespace tree. Classes with
// un-dotted names are never found here.
func (r *Registry) Resolve(path string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.namespace[path]
	return c, ok
}

// Namespace returns the classes registered under a dotted prefix, sorted by
// name. Namespace("app") includes "app.Person" and "app.models.Pet".
func (r *Registry) Namespace(prefix string) []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix = strings.TrimSuffix(prefix, ".") + "."
	var out []*Class
	for name, c := range r.namespace {
		if strings.HasPrefix(name, prefix) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Names returns every registered class name, sorted, the base class
// included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered classes, the base class included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// IsInstance implements types.ClassResolver.
func (r *Registry) IsInstance(name string, v any) (bool, bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return false, false
	}
	o, isObject := v.(*Object)
	return isObject && o.class.IsA(c), true
}

// SetRoleDefaults installs default overrides for classes declaring role.
// Only classes defined afterwards see them.
func (r *Registry) SetRoleDefaults(role string, values map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	r.roles[role] = copied
}

// RoleDefaults returns a copy of the overrides configured for role.
func (r *Registry) RoleDefaults(role string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.roles[role]))
	for k, v := range r.roles[role] {
		out[k] = v
	}
	return out
}

// Clear removes every class except the base class and drops role tables
// (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes = map[string]*Class{BaseClassName: r.base}
	r.namespace = make(map[string]*Class)
	r.roles = make(map[string]map[string]any)
}

// Package introspect describes a model registry: class metadata as plain
// structs, and a read-only HTTP API serving them.
package introspect

import (
	"sort"

	"github.com/conduit-lang/modelkit/internal/model"
)

// ClassSummary is one entry of the class listing.
type ClassSummary struct {
	Name       string `json:"name"`
	Parent     string `json:"parent,omitempty"`
	Role       string `json:"role,omitempty"`
	Properties int    `json:"properties"`
	Methods    int    `json:"methods"`
}

// ClassInfo is the full description of a class. Private methods are not
// listed; private properties are, flagged as such.
type ClassInfo struct {
	Name       string               `json:"name"`
	Parent     string               `json:"parent,omitempty"`
	Ancestors  []string             `json:"ancestors"`
	Role       string               `json:"role,omitempty"`
	Properties []model.PropertySpec `json:"properties"`
	Defaults   map[string]any       `json:"defaults"`
	Methods    []string             `json:"methods"`
	Configured []string             `json:"configured,omitempty"`
}

// Summarize lists every class of r except the base class, sorted by name.
func Summarize(r *model.Registry) []ClassSummary {
	names := r.Names()
	out := make([]ClassSummary, 0, len(names))
	for _, name := range names {
		c, ok := r.Lookup(name)
		if !ok || c.Parent() == nil {
			continue
		}
		out = append(out, ClassSummary{
			Name:       c.Name(),
			Parent:     c.Parent().Name(),
			Role:       c.Role(),
			Properties: len(c.Properties()),
			Methods:    len(c.Methods()),
		})
	}
	return out
}

// Describe builds the description of c.
func Describe(c *model.Class) ClassInfo {
	info := ClassInfo{
		Name:       c.Name(),
		Role:       c.Role(),
		Properties: c.Properties(),
		Defaults:   c.Defaults(),
		Methods:    c.Methods(),
	}
	if p := c.Parent(); p != nil {
		info.Parent = p.Name()
	}
	info.Ancestors = make([]string, 0)
	for _, a := range c.Ancestors() {
		info.Ancestors = append(info.Ancestors, a.Name())
	}
	for _, m := range info.Methods {
		if c.Configured(m) {
			info.Configured = append(info.Configured, m)
		}
	}
	sort.Strings(info.Configured)

	// private defaults are not exposed
	for _, spec := range info.Properties {
		if spec.Private {
			delete(info.Defaults, spec.Name)
		}
	}
	for i := range info.Properties {
		if info.Properties[i].Private {
			info.Properties[i].Default = nil
		}
	}
	return info
}

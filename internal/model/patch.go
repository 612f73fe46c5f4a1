package model

import (
	"fmt"
	"sort"
)

// Override is one configured layer around a method. It runs after the
// implementation (and after older layers) with the call and the current
// result; a non-nil return replaces the result.
type Override func(c *Call, result any) (any, error)

// Configure pushes one layer per named method. Layers run oldest first; a
// method may be configured on a class that only inherits it.
func (c *Class) Configure(overrides map[string]Override) error {
	names := make([]string, 0, len(overrides))
	for name, fn := range overrides {
		if _, ok := c.methods[name]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.name, name)
		}
		if fn == nil {
			return fmt.Errorf("%w: %s.%s: nil override", ErrInvalidDefinition, c.name, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	c.patchMu.Lock()
	defer c.patchMu.Unlock()
	for _, name := range names {
		c.patches[name] = append(c.patches[name], overrides[name])
	}
	return nil
}

// Unconfigure removes every configured layer of c at once, restoring the
// declared methods.
func (c *Class) Unconfigure() {
	c.patchMu.Lock()
	defer c.patchMu.Unlock()
	c.patches = make(map[string][]Override)
}

// Configured reports whether name carries configured layers on c.
func (c *Class) Configured(name string) bool {
	c.patchMu.RLock()
	defer c.patchMu.RUnlock()
	return len(c.patches[name]) > 0
}

func applyPatches(call *Call, result any, layers []Override) (any, error) {
	for _, layer := range layers {
		replacement, err := layer(call, result)
		if err != nil {
			return nil, err
		}
		if replacement != nil {
			result = replacement
		}
	}
	return result, nil
}

package schemafile

import (
	"fmt"
	"strings"
)

// Order returns defs sorted so every class comes after the class it extends
// when both are in defs. Otherwise the input order is kept. An inheritance
// cycle is an error.
func Order(defs []ClassDef) ([]ClassDef, error) {
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		if _, dup := index[d.Name]; dup {
			return nil, fmt.Errorf("%s: class %s is defined twice", d.Source, d.Name)
		}
		index[d.Name] = i
	}

	ordered := make([]ClassDef, 0, len(defs))
	visited := make(map[string]bool, len(defs))
	onPath := make(map[string]bool)

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		if visited[name] {
			return nil
		}
		path = append(path, name)
		if onPath[name] {
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			return fmt.Errorf("%s: inheritance cycle %s", defs[index[name]].Source, strings.Join(path[start:], " -> "))
		}
		onPath[name] = true

		def := defs[index[name]]
		if _, local := index[def.Extends]; local {
			if err := visit(def.Extends, path); err != nil {
				return err
			}
		}

		onPath[name] = false
		visited[name] = true
		ordered = append(ordered, def)
		return nil
	}

	for _, d := range defs {
		if err := visit(d.Name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

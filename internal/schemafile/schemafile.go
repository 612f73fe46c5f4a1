// Package schemafile reads class definitions from YAML files.
//
// A file holds a list of classes. Properties are a mapping, so their order in
// the file is their declaration order:
//
//	classes:
//	  - name: app.Person
//	    properties:
//	      name: {type: string, required: true}
//	      age: 13                # shorthand: integer, default 13, auto adjusted
//	      tags: [a, b]           # shorthand: [any] with a default list
//	  - name: app.Employee
//	    extends: app.Person
//	    role: staff
//	    statics:
//	      table: employees
//
// Methods cannot be written in YAML; host programs attach them per class
// with WithMethods.
package schemafile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelkit/internal/model"
)

// ClassDef is one class read from a file.
type ClassDef struct {
	Name       string
	Extends    string
	Role       string
	Properties []model.PropertySpec
	Statics    map[string]any
	// Source is "<file>:<line>" of the class entry.
	Source string
}

// Definition converts the class to a model definition carrying methods.
func (d ClassDef) Definition(methods map[string]model.MethodSpec) model.Definition {
	return model.Definition{
		Name:       d.Name,
		Role:       d.Role,
		Properties: d.Properties,
		Methods:    methods,
		Statics:    d.Statics,
	}
}

type document struct {
	Classes []classNode `yaml:"classes"`
}

type classNode struct {
	Name       string         `yaml:"name"`
	Extends    string         `yaml:"extends"`
	Role       string         `yaml:"role"`
	Properties yaml.Node      `yaml:"properties"`
	Statics    map[string]any `yaml:"statics"`
}

var propertyKeys = map[string]bool{
	"type": true, "required": true, "readOnly": true, "private": true,
	"privateSetter": true, "autoAdjust": true, "defaultValue": true,
}

// ParseFile reads and parses one definition file.
func ParseFile(path string) ([]ClassDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse parses definition YAML. name is used in error messages and Source.
func Parse(name string, data []byte) ([]ClassDef, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var doc document
	if err := root.Content[0].Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	lines := classLines(root.Content[0])

	defs := make([]ClassDef, 0, len(doc.Classes))
	for i, cn := range doc.Classes {
		source := fmt.Sprintf("%s:%d", name, lines[i])
		if strings.TrimSpace(cn.Name) == "" {
			return nil, fmt.Errorf("%s: class without a name", source)
		}
		props, err := parseProperties(&cn.Properties)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", source, cn.Name, err)
		}
		defs = append(defs, ClassDef{
			Name:       cn.Name,
			Extends:    cn.Extends,
			Role:       cn.Role,
			Properties: props,
			Statics:    cn.Statics,
			Source:     source,
		})
	}
	return defs, nil
}

// classLines returns the line of every entry in the classes sequence.
func classLines(doc *yaml.Node) []int {
	var lines []int
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "classes" {
			continue
		}
		for _, entry := range doc.Content[i+1].Content {
			lines = append(lines, entry.Line)
		}
	}
	return lines
}

func parseProperties(node *yaml.Node) ([]model.PropertySpec, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}

	specs := make([]model.PropertySpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		spec, err := parseProperty(key.Value, value)
		if err != nil {
			return nil, fmt.Errorf("line %d: property %q: %w", key.Line, key.Value, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseProperty(name string, node *yaml.Node) (model.PropertySpec, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var unknown []string
		for i := 0; i < len(node.Content); i += 2 {
			if k := node.Content[i].Value; !propertyKeys[k] {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return model.PropertySpec{}, fmt.Errorf("unknown keys %s", strings.Join(unknown, ", "))
		}
		var spec model.PropertySpec
		if err := node.Decode(&spec); err != nil {
			return model.PropertySpec{}, err
		}
		spec.Name = name
		return spec, nil

	case yaml.SequenceNode:
		var list []any
		if err := node.Decode(&list); err != nil {
			return model.PropertySpec{}, err
		}
		return model.PropertySpec{Name: name, Type: "[any]", Default: list}, nil

	case yaml.ScalarNode:
		var literal any
		if err := node.Decode(&literal); err != nil {
			return model.PropertySpec{}, err
		}
		if literal == nil {
			return model.PropertySpec{Name: name, Type: "any"}, nil
		}
		return model.Literal(name, literal), nil
	}
	return model.PropertySpec{}, fmt.Errorf("unsupported property declaration")
}

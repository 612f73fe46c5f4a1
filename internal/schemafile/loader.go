package schemafile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model"
)

// Loader defines classes read from files in a registry.
type Loader struct {
	registry *model.Registry
	methods  map[string]map[string]model.MethodSpec
}

// Option configures a Loader.
type Option func(*Loader)

// WithMethods attaches methods to the class named class when it is loaded.
func WithMethods(class string, methods map[string]model.MethodSpec) Option {
	return func(l *Loader) {
		l.methods[class] = methods
	}
}

// NewLoader creates a loader defining classes in r.
func NewLoader(r *model.Registry, opts ...Option) *Loader {
	l := &Loader{
		registry: r,
		methods:  make(map[string]map[string]model.MethodSpec),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFiles parses every file, then defines all of their classes in
// dependency order, so a class may extend one declared in another file.
func (l *Loader) LoadFiles(paths ...string) ([]*model.Class, error) {
	var defs []ClassDef
	for _, path := range paths {
		fileDefs, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return l.Load(defs)
}

// Load defines defs in dependency order. Parents that are not in defs must
// already be registered; an empty Extends means the base class. Loading stops
// at the first failing class; classes defined before it stay registered.
func (l *Loader) Load(defs []ClassDef) ([]*model.Class, error) {
	ordered, err := Order(defs)
	if err != nil {
		return nil, err
	}

	classes := make([]*model.Class, 0, len(ordered))
	for _, def := range ordered {
		parent := l.registry.Base()
		if def.Extends != "" {
			p, ok := l.registry.Lookup(def.Extends)
			if !ok {
				return classes, fmt.Errorf("%s: %s extends %w: %s", def.Source, def.Name, model.ErrUnknownClass, def.Extends)
			}
			parent = p
		}

		cls, err := parent.Extend(def.Definition(l.methods[def.Name]))
		if err != nil {
			return classes, fmt.Errorf("%s: %w", def.Source, err)
		}
		classes = append(classes, cls)
	}

	logging.L().Info("definitions loaded", zap.Int("classes", len(classes)))
	return classes, nil
}

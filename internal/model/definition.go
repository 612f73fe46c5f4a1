package model

import (
	"time"

	"github.com/conduit-lang/modelkit/internal/model/types"
)

// PropertySpec declares one property of a class.
type PropertySpec struct {
	Name string `json:"name" yaml:"name"`
	// Type is a scalar type name, "any", a registered class name or "[T]".
	Type          string `json:"type" yaml:"type"`
	Required      bool   `json:"required,omitempty" yaml:"required"`
	ReadOnly      bool   `json:"readOnly,omitempty" yaml:"readOnly"`
	Private       bool   `json:"private,omitempty" yaml:"private"`
	PrivateSetter bool   `json:"privateSetter,omitempty" yaml:"privateSetter"`
	AutoAdjust    bool   `json:"autoAdjust,omitempty" yaml:"autoAdjust"`
	Default       any    `json:"defaultValue,omitempty" yaml:"defaultValue"`
}

// Literal is the shorthand for a property declared by a plain literal: the
// type is inferred from the literal, which also becomes the default, and
// auto adjustment is on.
func Literal(name string, value any) PropertySpec {
	return PropertySpec{
		Name:       name,
		Type:       InferType(value),
		Default:    value,
		AutoAdjust: true,
	}
}

// InferType returns the scalar type name for a literal value.
func InferType(value any) string {
	switch v := value.(type) {
	case string:
		return types.String
	case bool:
		return types.Boolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return types.Integer
	case float32:
		if types.IntegralFloat(float64(v)) {
			return types.Integer
		}
		return types.Double
	case float64:
		if types.IntegralFloat(v) {
			return types.Integer
		}
		return types.Double
	case time.Time:
		return types.Date
	case map[string]any:
		return types.Object
	}
	return types.Any
}

// Method is the body of a declared method. It runs with privileged access to
// the receiving object through c.Self.
type Method func(c *Call) (any, error)

// MethodSpec declares a method. Private methods can only be called through
// Self.Call.
type MethodSpec struct {
	Private bool
	Fn      Method
}

// Public wraps fn as a public method.
func Public(fn Method) MethodSpec {
	return MethodSpec{Fn: fn}
}

// Private wraps fn as a private method.
func Private(fn Method) MethodSpec {
	return MethodSpec{Private: true, Fn: fn}
}

// Definition is the declarative description of a class.
type Definition struct {
	// Name is the registered class name. Dotted names ("app.models.Person")
	// are also placed in the registry's namespace tree.
	Name string
	// Role selects a table of configured default overrides.
	Role       string
	Properties []PropertySpec
	Methods    map[string]MethodSpec
	Statics    map[string]any
	// StaticInit runs once when a class is defined, for the class itself and
	// for every descendant defined later.
	StaticInit func(c *Class)
}

// Conventional method-name prefixes consulted by the property setter.
const (
	AdjustPrefix   = "adjust"
	ValidatePrefix = "validate"
	// InitMethod is called at the end of construction.
	InitMethod = "init"
)

// SilentValue marks an assignment that must not fire change events.
type SilentValue struct {
	Value any
}

// Silent wraps v so that storing it fires no change events.
func Silent(v any) SilentValue {
	return SilentValue{Value: v}
}

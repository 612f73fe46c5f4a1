// Package types holds the named value validators and auto adjusters used by
// model properties.
//
// A type name is one of the registered scalar kinds ("integer", "double",
// "string", "boolean", "date", "object", "any"), an array type written "[T]",
// or the name of a registered model class.
package types

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Scalar type names.
const (
	Integer = "integer"
	Double  = "double"
	String  = "string"
	Boolean = "boolean"
	Date    = "date"
	Object  = "object"
	Any     = "any"
)

// Validator returns an empty string when v is acceptable and a message
// otherwise.
type Validator func(v any) string

// Adjuster rewrites an incoming value. It returns false when it has no
// replacement, in which case the original value is kept.
type Adjuster func(v any) (any, bool)

// ClassResolver answers class-reference checks for type names that are not
// scalar kinds.
type ClassResolver interface {
	// IsInstance reports whether v is an instance of the class registered as
	// name. known is false when no class is registered under that name.
	IsInstance(name string, v any) (ok bool, known bool)
}

type entry struct {
	validate Validator
	adjust   Adjuster
}

var (
	mu      sync.RWMutex
	scalars = map[string]entry{
		Integer: {validateInteger, adjustInteger},
		Double:  {validateDouble, adjustDouble},
		String:  {validateString, adjustString},
		Boolean: {validateBoolean, adjustBoolean},
		Date:    {validateDate, adjustDate},
		Object:  {validateObject, nil},
		Any:     {func(any) string { return "" }, nil},
	}
)

// builtinTags are matched structurally when a class-reference type has no
// registered class.
var builtinTags = map[string]func(v any) bool{
	"Date":     func(v any) bool { _, ok := v.(time.Time); return ok },
	"Object":   func(v any) bool { return reflect.ValueOf(v).Kind() == reflect.Map },
	"Array":    isList,
	"String":   func(v any) bool { _, ok := v.(string); return ok },
	"Number":   func(v any) bool { _, ok := toFloat(v); return ok },
	"Boolean":  func(v any) bool { _, ok := v.(bool); return ok },
	"Function": func(v any) bool { return reflect.ValueOf(v).Kind() == reflect.Func },
	"RegExp":   func(v any) bool { _, ok := v.(*regexp.Regexp); return ok },
	"Error":    func(v any) bool { _, ok := v.(error); return ok },
}

// Register adds or replaces a scalar type. It is meant to be called from init
// functions before classes using the type are defined.
func Register(name string, validate Validator, adjust Adjuster) {
	mu.Lock()
	defer mu.Unlock()
	scalars[name] = entry{validate: validate, adjust: adjust}
}

// Normalize trims a type name and corrects "number" to "integer".
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return Any
	}
	if IsArray(name) {
		return "[" + Normalize(ElementType(name)) + "]"
	}
	if name == "number" {
		return Integer
	}
	return name
}

// IsArray reports whether name is written "[T]".
func IsArray(name string) bool {
	return len(name) >= 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]")
}

// ElementType returns T for "[T]" and "" for non-array names.
func ElementType(name string) string {
	if !IsArray(name) {
		return ""
	}
	return strings.TrimSpace(name[1 : len(name)-1])
}

// Known reports whether name resolves without a class registry: a scalar, a
// built-in tag, or an array of those.
func Known(name string) bool {
	name = Normalize(name)
	if IsArray(name) {
		return Known(ElementType(name))
	}
	mu.RLock()
	_, ok := scalars[name]
	mu.RUnlock()
	if ok {
		return true
	}
	_, ok = builtinTags[name]
	return ok
}

// ValidatorFor returns the validator for a type name. Names that are neither
// scalars nor arrays are checked as class references through classes, which
// may be nil.
func ValidatorFor(name string, classes ClassResolver) Validator {
	name = Normalize(name)

	if IsArray(name) {
		elem := ElementType(name)
		if elem == Any {
			return func(any) string { return "" }
		}
		validateElem := ValidatorFor(elem, classes)
		return func(v any) string {
			if !isList(v) {
				return "must be an array"
			}
			rv := reflect.ValueOf(v)
			for i := 0; i < rv.Len(); i++ {
				if msg := validateElem(rv.Index(i).Interface()); msg != "" {
					return msg
				}
			}
			return ""
		}
	}

	mu.RLock()
	e, ok := scalars[name]
	mu.RUnlock()
	if ok {
		return e.validate
	}

	return func(v any) string {
		if classes != nil {
			if isInstance, known := classes.IsInstance(name, v); known {
				if isInstance {
					return ""
				}
				return fmt.Sprintf("%s is not an instance of %s", describe(v), name)
			}
		}
		if match, ok := builtinTags[name]; ok && match(v) {
			return ""
		}
		return fmt.Sprintf("%s is not an instance of %s", describe(v), name)
	}
}

// AdjusterFor returns the default adjuster for a type name, or nil when the
// type has none.
func AdjusterFor(name string) Adjuster {
	name = Normalize(name)

	if IsArray(name) {
		adjustElem := AdjusterFor(ElementType(name))
		if adjustElem == nil {
			return nil
		}
		return func(v any) (any, bool) {
			if !isList(v) {
				return nil, false
			}
			rv := reflect.ValueOf(v)
			out := make([]any, rv.Len())
			for i := range out {
				item := rv.Index(i).Interface()
				if adjusted, ok := adjustElem(item); ok {
					item = adjusted
				}
				out[i] = item
			}
			return out, true
		}
	}

	mu.RLock()
	defer mu.RUnlock()
	return scalars[name].adjust
}

// KindOf names the kind of v the way validation messages report it.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case time.Time:
		return "date"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Func:
		return "function"
	}
	return "object"
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// toFloat converts any Go number kind.
func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func mismatch(v any, want string) string {
	return fmt.Sprintf("%s is of type %s not %s", describe(v), KindOf(v), want)
}

func validateInteger(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return mismatch(v, "number")
	}
	if math.IsNaN(f) {
		return "NaN is not a number"
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Sprintf("%v is not an integer", v)
	}
	switch v.(type) {
	case float32, float64:
		if !IntegralFloat(f) {
			return fmt.Sprintf("%v is out of integer range", v)
		}
	}
	return ""
}

func validateDouble(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return mismatch(v, "number")
	}
	if math.IsNaN(f) {
		return "NaN is not a number"
	}
	return ""
}

func validateString(v any) string {
	if _, ok := v.(string); !ok {
		return mismatch(v, "string")
	}
	return ""
}

func validateBoolean(v any) string {
	if _, ok := v.(bool); !ok {
		return mismatch(v, "boolean")
	}
	return ""
}

func validateDate(v any) string {
	t, ok := v.(time.Time)
	if !ok {
		return mismatch(v, "date")
	}
	if t.IsZero() {
		return "invalid date"
	}
	return ""
}

func validateObject(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return mismatch(v, "object")
	}
	return ""
}

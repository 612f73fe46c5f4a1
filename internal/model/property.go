package model

import (
	"fmt"
	"reflect"
	"regexp"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model/types"
	strcase "github.com/conduit-lang/modelkit/internal/util/strings"
)

var typeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Property is a compiled property: its normalized spec plus the validator,
// adjuster and conventional method names the setter consults.
type Property struct {
	spec           PropertySpec
	owner          *Class
	validate       types.Validator
	adjust         types.Adjuster
	adjustMethod   string
	validateMethod string
}

// compileProperty normalizes spec and binds its validator to the registry of
// the owning class.
func compileProperty(owner *Class, spec PropertySpec) (*Property, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: %s: property with empty name", ErrInvalidDefinition, owner.name)
	}
	spec.Type = types.Normalize(spec.Type)
	if err := checkTypeName(spec.Type); err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDefinition, owner.name, spec.Name, err)
	}
	if types.IsArray(spec.Type) && spec.Default == nil {
		spec.Default = []any{}
	}

	p := &Property{
		spec:           spec,
		owner:          owner,
		validate:       types.ValidatorFor(spec.Type, owner.registry),
		adjustMethod:   AdjustPrefix + strcase.Capitalize(spec.Name),
		validateMethod: ValidatePrefix + strcase.Capitalize(spec.Name),
	}
	if spec.AutoAdjust {
		p.adjust = types.AdjusterFor(spec.Type)
	}
	return p, nil
}

func checkTypeName(name string) error {
	if types.IsArray(name) {
		elem := types.ElementType(name)
		if elem == "" {
			return fmt.Errorf("array type %q has no element type", name)
		}
		return checkTypeName(elem)
	}
	if !typeNamePattern.MatchString(name) {
		return fmt.Errorf("malformed type name %q", name)
	}
	return nil
}

// Spec returns the normalized specification.
func (p *Property) Spec() PropertySpec {
	return p.spec
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.spec.Name
}

// Owner returns the class that declared the property.
func (p *Property) Owner() *Class {
	return p.owner
}

func (p *Property) restrictsRead() bool {
	return p.spec.Private
}

func (p *Property) restrictsWrite() bool {
	return p.spec.Private || p.spec.PrivateSetter
}

// get returns the stored value. Unprivileged reads of private properties are
// denied softly: a warning is logged and nil returned.
func (o *Object) get(name string, privileged bool) any {
	p, ok := o.class.property(name)
	if !ok {
		return nil
	}
	if p.restrictsRead() && !privileged && !o.constructing {
		o.denied(name, "get", "private property")
		return nil
	}
	return o.values[name]
}

// set runs the write pipeline. Access denials are logged and return nil; only
// validation failures and user method errors are returned.
func (o *Object) set(name string, value any, privileged bool) error {
	p, ok := o.class.property(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, o.class.name, name)
	}

	if p.restrictsWrite() && !privileged && !o.constructing {
		o.denied(name, "set", "private setter")
		return nil
	}
	if p.spec.ReadOnly && !o.constructing {
		o.denied(name, "set", "read-only property")
		return nil
	}

	silent := false
	if sv, ok := value.(SilentValue); ok {
		value = sv.Value
		silent = true
	}

	value, err := o.adjustValue(p, value)
	if err != nil {
		return err
	}

	if err := o.checkValue(p, value); err != nil {
		return err
	}

	old := o.values[name]
	if sameValue(old, value) {
		return nil
	}
	o.values[name] = value
	o.tracker.record(name, value)

	if !silent {
		o.Trigger("change:"+name, value, old)
		o.Trigger("change", name, value, old)
	}
	return nil
}

// adjustValue applies the class's adjust<Name> method, or the type adjuster
// when the property auto adjusts.
func (o *Object) adjustValue(p *Property, value any) (any, error) {
	if o.class.HasMethod(p.adjustMethod) {
		replacement, err := o.class.dispatch(o.self(), p.adjustMethod, []any{value}, true)
		if err != nil {
			return nil, err
		}
		if replacement != nil {
			return replacement, nil
		}
		return value, nil
	}
	if p.adjust != nil {
		if replacement, ok := p.adjust(value); ok {
			return replacement, nil
		}
	}
	return value, nil
}

// checkValue runs the required, type and custom validator checks in order.
func (o *Object) checkValue(p *Property, value any) error {
	name := p.spec.Name

	if p.spec.Required && (value == nil || value == "") {
		return NewValidationError(name, "is required")
	}

	if value != nil {
		if msg := p.validate(value); msg != "" {
			return NewValidationError(name, msg)
		}
	}

	if o.class.HasMethod(p.validateMethod) {
		result, err := o.class.dispatch(o.self(), p.validateMethod, []any{value}, true)
		if err != nil {
			return NewValidationError(name, err.Error())
		}
		if msg, ok := result.(string); ok && msg != "" {
			return NewValidationError(name, msg)
		}
	}
	return nil
}

func (o *Object) denied(property, op, reason string) {
	logging.L().Warn("access denied",
		zap.String("class", o.class.name),
		zap.String("property", property),
		zap.String("op", op),
		zap.String("reason", reason),
	)
}

// sameValue is strict equality: == for comparable values, identity for maps,
// slices and functions.
func sameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		defer func() {
			if recover() != nil {
				same = false
			}
		}()
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

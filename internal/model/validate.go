package model

import "github.com/conduit-lang/modelkit/internal/util"

// Validate checks values against the class without constructing an instance
// or running init. Every failing property is reported; it returns nil or a
// *ValidationErrors.
func (c *Class) Validate(values map[string]any) error {
	errs := NewValidationErrors()
	o := c.allocate()

	for name := range values {
		if !o.Has(name) {
			errs.Add(name, "is not a declared property")
		}
	}

	merged := make(map[string]any, len(values))
	for k, v := range values {
		merged[k] = v
	}
	merged = util.DefaultsFill(merged, o.freshDefaults())

	for _, p := range c.props {
		if err := o.set(p.spec.Name, merged[p.spec.Name], true); err != nil {
			errs.AddError(p.spec.Name, err)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

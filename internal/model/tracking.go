package model

import "reflect"

// FieldChange is the change of one property since the last commit.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// changeTracker remembers the committed value of each property and which
// properties moved away from it.
type changeTracker struct {
	original map[string]any
	changes  map[string]*FieldChange
}

func newChangeTracker() *changeTracker {
	return &changeTracker{
		original: make(map[string]any),
		changes:  make(map[string]*FieldChange),
	}
}

// commit makes current the new baseline.
func (ct *changeTracker) commit(current map[string]any) {
	ct.original = make(map[string]any, len(current))
	for k, v := range current {
		ct.original[k] = v
	}
	ct.changes = make(map[string]*FieldChange)
}

// record updates the change status of field after a store.
func (ct *changeTracker) record(field string, value any) {
	oldValue, hadOldValue := ct.original[field]
	if !hadOldValue || !reflect.DeepEqual(oldValue, value) {
		ct.changes[field] = &FieldChange{Field: field, OldValue: oldValue, NewValue: value}
		return
	}
	// reverted to the committed value
	delete(ct.changes, field)
}

// Changed reports whether name differs from its committed value.
func (o *Object) Changed(name string) bool {
	_, ok := o.tracker.changes[name]
	return ok
}

// HasChanges reports whether any property differs from its committed value.
func (o *Object) HasChanges() bool {
	return len(o.tracker.changes) > 0
}

// ChangedFields returns the changed properties in declaration order.
func (o *Object) ChangedFields() []string {
	fields := make([]string, 0, len(o.tracker.changes))
	for _, p := range o.class.props {
		if _, ok := o.tracker.changes[p.spec.Name]; ok {
			fields = append(fields, p.spec.Name)
		}
	}
	return fields
}

// Changes returns the public changes since the last commit. Private
// properties are left out.
func (o *Object) Changes() map[string]FieldChange {
	out := make(map[string]FieldChange, len(o.tracker.changes))
	for name, change := range o.tracker.changes {
		if p, ok := o.class.property(name); ok && p.spec.Private {
			continue
		}
		out[name] = *change
	}
	return out
}

// Previous returns the committed value of a public property.
func (o *Object) Previous(name string) any {
	p, ok := o.class.property(name)
	if !ok {
		return nil
	}
	if p.spec.Private {
		o.denied(name, "previous", "private property")
		return nil
	}
	return o.tracker.original[name]
}

// CommitChanges makes the current values the new baseline for change
// tracking.
func (o *Object) CommitChanges() {
	o.tracker.commit(o.values)
}

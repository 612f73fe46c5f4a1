package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonScenario(t *testing.T) {
	r := NewRegistry()
	person := mustExtend(t, r.Base(), Definition{
		Name:       "Person",
		Properties: []PropertySpec{{Name: "age", Type: "integer", Default: 13}},
	})

	p := mustNew(t, person, nil)
	assert.Equal(t, 13, p.Get("age"))

	_, err := person.New(map[string]any{"age": "5"})
	require.Error(t, err)
	assert.EqualError(t, err, "age: 5 is of type string not number")

	adjusted := mustExtend(t, r.Base(), Definition{
		Name:       "AdjustedPerson",
		Properties: []PropertySpec{{Name: "age", Type: "integer", Default: 13, AutoAdjust: true}},
	})
	a := mustNew(t, adjusted, nil)
	require.NoError(t, a.Set("age", "5"))
	assert.Equal(t, 5, a.Get("age"))

	err = a.Set("age", "1e30")
	assert.EqualError(t, err, "age: 1e+30 is out of integer range")
	assert.Equal(t, 5, a.Get("age"))
}

func TestScalarTypeMismatchNamesProperty(t *testing.T) {
	tests := []struct {
		typeName string
		bad      any
	}{
		{"integer", "abc"},
		{"integer", 1.5},
		{"double", "1.5"},
		{"string", 42},
		{"boolean", "yes"},
		{"date", "2024-01-01"},
		{"object", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			r := NewRegistry()
			c := mustExtend(t, r.Base(), Definition{
				Name:       "Holder",
				Properties: []PropertySpec{{Name: "field", Type: tt.typeName}},
			})
			o := mustNew(t, c, nil)

			err := o.Set("field", tt.bad)
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "field", verr.Property)
			assert.True(t, strings.HasPrefix(err.Error(), "field: "))
			assert.Nil(t, o.Get("field"), "rejected value must not be stored")
		})
	}
}

func TestDefaultsAndOverrides(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name: "Settings",
		Properties: []PropertySpec{
			{Name: "theme", Type: "string", Default: "light"},
			{Name: "volume", Type: "double", Default: 0.5},
			{Name: "muted", Type: "boolean", Default: false},
			{Name: "tags", Type: "[string]", Default: []any{"a"}},
			{Name: "history", Type: "[integer]"},
		},
	})

	o := mustNew(t, c, nil)
	assert.Equal(t, "light", o.Get("theme"))
	assert.Equal(t, 0.5, o.Get("volume"))
	assert.Equal(t, false, o.Get("muted"))
	assert.Equal(t, []any{"a"}, o.Get("tags"))
	assert.Equal(t, []any{}, o.Get("history"), "array properties default to an empty list")

	override := mustNew(t, c, map[string]any{"theme": "dark", "muted": true})
	assert.Equal(t, "dark", override.Get("theme"))
	assert.Equal(t, true, override.Get("muted"))

	o.Get("tags").([]any)[0] = "mutated"
	fresh := mustNew(t, c, nil)
	assert.Equal(t, []any{"a"}, fresh.Get("tags"), "instances must not share default lists")
}

func TestSameValueFiresNoEvents(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name: "Counter",
		Properties: []PropertySpec{
			{Name: "count", Type: "integer", Default: 1},
			{Name: "meta", Type: "object"},
		},
	})
	o := mustNew(t, c, nil)
	rec := record(o)

	require.NoError(t, o.Set("count", 1))
	assert.Empty(t, rec.events)

	meta := map[string]any{"k": "v"}
	require.NoError(t, o.Set("meta", meta))
	rec.events = nil
	require.NoError(t, o.Set("meta", meta))
	assert.Empty(t, rec.events, "same map by identity")

	require.NoError(t, o.Set("meta", map[string]any{"k": "v"}))
	assert.Equal(t, []string{"change:meta", "change"}, rec.events, "equal content, different identity")
}

func TestChangeEvents(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Person",
		Properties: []PropertySpec{{Name: "age", Type: "integer", Default: 13}},
	})
	o := mustNew(t, c, nil)
	rec := record(o)

	require.NoError(t, o.Set("age", 14))

	assert.Equal(t, []string{"change:age", "change"}, rec.events)
	assert.Equal(t, []any{14, 13}, rec.args["change:age"])
	assert.Equal(t, []any{"age", 14, 13}, rec.args["change"])
}

func TestSilentValue(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Person",
		Properties: []PropertySpec{{Name: "age", Type: "integer", Default: 13}},
	})
	o := mustNew(t, c, nil)
	rec := record(o)

	require.NoError(t, o.Set("age", Silent(20)))
	assert.Equal(t, 20, o.Get("age"))
	assert.Empty(t, rec.events)

	assert.Error(t, o.Set("age", Silent("x")), "silent writes are still validated")
}

func TestRequired(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "User",
		Properties: []PropertySpec{{Name: "email", Type: "string", Required: true}},
	})

	_, err := c.New(nil)
	assert.EqualError(t, err, "email: is required")

	_, err = c.New(map[string]any{"email": ""})
	assert.EqualError(t, err, "email: is required")

	o := mustNew(t, c, map[string]any{"email": "a@b.io"})
	assert.EqualError(t, o.Set("email", nil), "email: is required")
	assert.Equal(t, "a@b.io", o.Get("email"))
}

func TestAdjusterAndValidatorMethods(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name: "Account",
		Properties: []PropertySpec{
			{Name: "name", Type: "string"},
			{Name: "age", Type: "integer", AutoAdjust: true},
		},
		Methods: map[string]MethodSpec{
			"adjustName": Private(func(c *Call) (any, error) {
				if s, ok := c.Arg(0).(string); ok {
					return strings.TrimSpace(s), nil
				}
				return nil, nil
			}),
			"validateName": Public(func(c *Call) (any, error) {
				if c.Arg(0) == "root" {
					return "is reserved", nil
				}
				return nil, nil
			}),
			"adjustAge": Public(func(c *Call) (any, error) {
				return nil, nil
			}),
			"validateAge": Public(func(c *Call) (any, error) {
				if n, ok := c.Arg(0).(int); ok && n < 0 {
					return nil, errors.New("must not be negative")
				}
				return nil, nil
			}),
		},
	})
	o := mustNew(t, c, nil)

	require.NoError(t, o.Set("name", "  ann "))
	assert.Equal(t, "ann", o.Get("name"))

	assert.EqualError(t, o.Set("name", "root"), "name: is reserved")
	assert.Equal(t, "ann", o.Get("name"))

	assert.EqualError(t, o.Set("age", -1), "age: must not be negative")

	err := o.Set("age", "5")
	assert.EqualError(t, err, "age: 5 is of type string not number", "the adjust method replaces the type adjuster")
}

func TestNumberTypeIsNormalized(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Box",
		Properties: []PropertySpec{{Name: "size", Type: "number"}},
	})

	spec, ok := c.Property("size")
	require.True(t, ok)
	assert.Equal(t, "integer", spec.Type)
}

func TestLiteralShorthand(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name: "Profile",
		Properties: []PropertySpec{
			Literal("nickname", "bob"),
			Literal("visits", 3),
			Literal("ratio", 0.25),
			Literal("active", true),
		},
	})

	for name, want := range map[string]string{"nickname": "string", "visits": "integer", "ratio": "double", "active": "boolean"} {
		spec, ok := c.Property(name)
		require.True(t, ok)
		assert.Equal(t, want, spec.Type, name)
		assert.True(t, spec.AutoAdjust, name)
	}

	o := mustNew(t, c, nil)
	assert.Equal(t, "bob", o.Get("nickname"))
	require.NoError(t, o.Set("nickname", 5))
	assert.Equal(t, "5", o.Get("nickname"))
	require.NoError(t, o.Set("visits", "7"))
	assert.Equal(t, 7, o.Get("visits"))

	assert.Equal(t, "double", InferType(1e30))
	assert.Equal(t, "integer", InferType(float32(4)))
}

func TestArrayProperties(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Post",
		Properties: []PropertySpec{{Name: "tags", Type: "[string]"}},
	})
	o := mustNew(t, c, nil)

	require.NoError(t, o.Set("tags", []string{"go", "models"}))
	assert.EqualError(t, o.Set("tags", []any{"a", 1}), "tags: 1 is of type number not string")
	assert.EqualError(t, o.Set("tags", "a"), "tags: must be an array")
}

func TestClassReferenceProperties(t *testing.T) {
	r := NewRegistry()

	// Owner refers to a class defined later.
	pet := mustExtend(t, r.Base(), Definition{
		Name:       "Pet",
		Properties: []PropertySpec{{Name: "owner", Type: "Person"}, {Name: "born", Type: "Date"}},
	})
	person := mustExtend(t, r.Base(), Definition{Name: "Person"})
	employee := mustExtend(t, person, Definition{Name: "Employee"})
	robot := mustExtend(t, r.Base(), Definition{Name: "Robot"})

	p := mustNew(t, pet, nil)
	require.NoError(t, p.Set("owner", mustNew(t, person, nil)))
	require.NoError(t, p.Set("owner", mustNew(t, employee, nil)), "subclass instances are accepted")
	require.NoError(t, p.Set("born", time.Now()))

	err := p.Set("owner", mustNew(t, robot, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an instance of Person")

	assert.Error(t, p.Set("born", "today"))
}

func TestReadOnly(t *testing.T) {
	logs := observeWarnings(t)
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Token",
		Properties: []PropertySpec{{Name: "value", Type: "string", ReadOnly: true}},
		Methods: map[string]MethodSpec{
			"rotate": Public(func(c *Call) (any, error) {
				return nil, c.Self.Set("value", "rotated")
			}),
		},
	})

	o := mustNew(t, c, map[string]any{"value": "initial"})
	assert.Equal(t, "initial", o.Get("value"), "construction-time writes succeed")

	require.NoError(t, o.Set("value", "changed"))
	assert.Equal(t, "initial", o.Get("value"))

	_, err := o.Call("rotate")
	require.NoError(t, err)
	assert.Equal(t, "initial", o.Get("value"), "read-only applies to methods too")

	assert.Equal(t, 2, logs.FilterMessage("access denied").Len())
}

func TestPrivateProperty(t *testing.T) {
	logs := observeWarnings(t)
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Vault",
		Properties: []PropertySpec{{Name: "pin", Type: "string", Private: true, Default: "0000"}},
		Methods: map[string]MethodSpec{
			"readPin": Public(func(c *Call) (any, error) { return c.Self.Get("pin"), nil }),
			"setPin":  Public(func(c *Call) (any, error) { return nil, c.Self.Set("pin", c.Arg(0)) }),
		},
	})
	v := mustNew(t, c, nil)

	assert.Nil(t, v.Get("pin"))
	assert.NoError(t, v.Set("pin", "1234"))
	got, err := v.Call("readPin")
	require.NoError(t, err)
	assert.Equal(t, "0000", got, "outside write must not mutate")
	assert.Equal(t, 2, logs.FilterMessage("access denied").Len())

	_, err = v.Call("setPin", "9999")
	require.NoError(t, err)
	got, err = v.Call("readPin")
	require.NoError(t, err)
	assert.Equal(t, "9999", got)

	withPin := mustNew(t, c, map[string]any{"pin": "4242"})
	got, _ = withPin.Call("readPin")
	assert.Equal(t, "4242", got, "constructor values may set private properties")
}

func TestPrivateSetter(t *testing.T) {
	logs := observeWarnings(t)
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{
		Name:       "Job",
		Properties: []PropertySpec{{Name: "status", Type: "string", PrivateSetter: true, Default: "queued"}},
		Methods: map[string]MethodSpec{
			"start": Public(func(c *Call) (any, error) { return nil, c.Self.Set("status", "running") }),
		},
	})
	j := mustNew(t, c, nil)

	assert.Equal(t, "queued", j.Get("status"))
	require.NoError(t, j.Set("status", "done"))
	assert.Equal(t, "queued", j.Get("status"))
	assert.Equal(t, 1, logs.FilterMessage("access denied").Len())

	_, err := j.Call("start")
	require.NoError(t, err)
	assert.Equal(t, "running", j.Get("status"))
}

func TestUnknownProperty(t *testing.T) {
	r := NewRegistry()
	c := mustExtend(t, r.Base(), Definition{Name: "Empty"})

	_, err := c.New(map[string]any{"ghost": 1})
	assert.ErrorIs(t, err, ErrUnknownProperty)

	o := mustNew(t, c, nil)
	assert.ErrorIs(t, o.Set("ghost", 1), ErrUnknownProperty)
	assert.Nil(t, o.Get("ghost"))
	assert.False(t, o.Has("ghost"))
}

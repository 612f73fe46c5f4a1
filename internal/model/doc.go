// Package model is the class-definition and property-access engine.
//
// A Definition declares typed properties, methods and statics. Extending a
// class compiles the definition into an immutable *Class: properties are
// merged with the parent's, every method entry keeps an explicit pointer to
// the implementation it overrides, and the class is registered so that other
// classes can use its name as a property type.
//
//	person, err := model.Extend(model.Definition{
//		Name: "app.Person",
//		Properties: []model.PropertySpec{
//			{Name: "name", Type: "string", Required: true},
//			{Name: "age", Type: "integer", Default: 13, AutoAdjust: true},
//			{Name: "secret", Type: "string", Private: true},
//		},
//		Methods: map[string]model.MethodSpec{
//			"greet": model.Public(func(c *model.Call) (any, error) {
//				return "hi " + c.Self.Get("name").(string), nil
//			}),
//		},
//	})
//
//	p, err := person.New(map[string]any{"name": "Ann"})
//	p.On("change:age", func(args ...any) { ... })
//	err = p.Set("age", "14") // adjusted to 14, fires change:age and change
//
// Visibility is enforced by capability rather than caller inspection: public
// code holds an *Object, while method bodies, adjusters, validators and init
// receive a *Self that may touch private properties and methods. Denied
// accesses are logged and ignored; invalid values are returned as
// ValidationError.
//
// Objects follow a single-threaded mutation model and are not safe for
// concurrent use. Registries are.
package model

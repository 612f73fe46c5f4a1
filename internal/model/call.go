package model

// Call is the invocation record handed to a Method.
type Call struct {
	// Self is the privileged handle of the receiving object.
	Self *Self
	// Args are the arguments the method was called with.
	Args []any
	// Method is the name the method was called by.
	Method string

	entry *methodEntry
}

// Arg returns the i-th argument, or nil when there are fewer arguments.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Class returns the class that declared the running method body.
func (c *Call) Class() *Class {
	if c.entry == nil {
		return nil
	}
	return c.entry.owner
}

// HasSuper reports whether the running method overrides a parent
// implementation.
func (c *Call) HasSuper() bool {
	return c.entry != nil && c.entry.super != nil
}

// Super invokes the parent implementation with the original arguments. It
// returns (nil, nil) when there is no parent implementation.
func (c *Call) Super() (any, error) {
	return c.SuperWith(c.Args...)
}

// SuperWith invokes the parent implementation with args in place of the
// original arguments.
func (c *Call) SuperWith(args ...any) (any, error) {
	if !c.HasSuper() {
		return nil, nil
	}
	parent := c.entry.super
	return parent.fn(&Call{Self: c.Self, Args: args, Method: c.Method, entry: parent})
}

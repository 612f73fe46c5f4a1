package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/modelkit/internal/logging"
)

// observeWarnings routes the process logger into an observer for the test.
func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	t.Cleanup(logging.SetLogger(zap.New(core)))
	return logs
}

func mustExtend(t *testing.T, parent *Class, def Definition) *Class {
	t.Helper()
	c, err := parent.Extend(def)
	require.NoError(t, err)
	return c
}

func mustNew(t *testing.T, c *Class, values map[string]any, opts ...NewOption) *Object {
	t.Helper()
	o, err := c.New(values, opts...)
	require.NoError(t, err)
	return o
}

// recorder collects triggered event names with their arguments.
type recorder struct {
	events []string
	args   map[string][]any
}

func record(o *Object) *recorder {
	r := &recorder{args: make(map[string][]any)}
	o.On("all", func(args ...any) {
		name := args[0].(string)
		r.events = append(r.events, name)
		r.args[name] = args[1:]
	})
	return r
}

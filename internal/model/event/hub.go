// Package event provides the per-instance publish/subscribe hub that model
// objects and collections embed.
//
// Dispatch is synchronous and runs in subscription order. A Hub is not safe
// for concurrent use; it follows the single-threaded mutation model of the
// objects that own it.
package event

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unsafe"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
)

// All is the wildcard event. Its subscribers receive every triggered event
// name as their first argument.
const All = "all"

// Callback receives the arguments passed to Trigger.
type Callback func(args ...any)

type listener struct {
	id    uint64
	name  string
	cb    Callback
	key   uintptr
	ctx   any
	once  bool
	group *onceGroup
}

// onceGroup ties together listeners registered by a single OnceMap call.
// The first of them to fire unregisters every member.
type onceGroup struct {
	fired     bool
	listeners []*listener
}

// Hub stores subscriptions keyed by event name. The zero value is ready to use.
type Hub struct {
	events map[string][]*listener
	nextID uint64
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{events: make(map[string][]*listener)}
}

// On subscribes cb to every space-separated event name in names. The optional
// context is only used to match subscriptions in Off.
func (h *Hub) On(names string, cb Callback, ctx ...any) *Hub {
	h.add(names, cb, contextArg(ctx), false, nil)
	return h
}

// OnMap subscribes every callback of the map, sharing the optional context.
func (h *Hub) OnMap(callbacks map[string]Callback, ctx ...any) *Hub {
	for _, name := range sortedNames(callbacks) {
		h.On(name, callbacks[name], ctx...)
	}
	return h
}

// Once subscribes cb so that it is removed after its first invocation.
func (h *Hub) Once(names string, cb Callback, ctx ...any) *Hub {
	h.add(names, cb, contextArg(ctx), true, nil)
	return h
}

// OnceMap subscribes all callbacks of the map as one firing group: the first
// event among the group that fires unregisters every callback of the group,
// including the ones whose events have not fired yet.
func (h *Hub) OnceMap(callbacks map[string]Callback, ctx ...any) *Hub {
	group := &onceGroup{}
	c := contextArg(ctx)
	for _, name := range sortedNames(callbacks) {
		h.add(name, callbacks[name], c, true, group)
	}
	return h
}

// Listen is like On but returns a handle that cancels exactly the
// subscriptions it created.
func (h *Hub) Listen(names string, cb Callback, ctx ...any) *Subscription {
	return &Subscription{hub: h, ids: h.add(names, cb, contextArg(ctx), false, nil)}
}

// Off removes subscriptions. An empty names removes from every event; a nil
// cb or ctx matches any callback or context. Off("", nil, nil) clears the hub.
// Callbacks are matched by func value identity: the same variable matches
// itself, while two closures built from one literal do not match each other.
// A method value such as obj.Handle is a new func value on every evaluation,
// so keep it in a variable or use Listen to be able to remove it.
func (h *Hub) Off(names string, cb Callback, ctx any) *Hub {
	if h.events == nil {
		return h
	}
	if names == "" && cb == nil && ctx == nil {
		h.events = make(map[string][]*listener)
		return h
	}

	var targets []string
	if names == "" {
		for name := range h.events {
			targets = append(targets, name)
		}
	} else {
		targets = strings.Fields(names)
	}

	key := funcKey(cb)
	for _, name := range targets {
		h.removeWhere(name, func(l *listener) bool {
			if cb != nil && l.key != key {
				return false
			}
			if ctx != nil && !sameContext(l.ctx, ctx) {
				return false
			}
			return true
		})
	}
	return h
}

// Trigger fires every space-separated event name in names. Subscribers of an
// event run first, then the wildcard subscribers. A panicking subscriber is
// logged and does not stop the remaining ones.
func (h *Hub) Trigger(names string, args ...any) *Hub {
	if len(h.events) == 0 {
		return h
	}
	for _, name := range strings.Fields(names) {
		if name != All {
			h.dispatch(name, h.events[name], args)
		}
		if all := h.events[All]; len(all) > 0 {
			wildcardArgs := make([]any, 0, len(args)+1)
			wildcardArgs = append(wildcardArgs, name)
			wildcardArgs = append(wildcardArgs, args...)
			h.dispatch(name, all, wildcardArgs)
		}
	}
	return h
}

// Count returns the number of subscriptions for name, or for every event when
// name is empty.
func (h *Hub) Count(name string) int {
	if name != "" {
		return len(h.events[name])
	}
	n := 0
	for _, ls := range h.events {
		n += len(ls)
	}
	return n
}

// HasListeners reports whether anything is subscribed to name or to the
// wildcard event.
func (h *Hub) HasListeners(name string) bool {
	return len(h.events[name]) > 0 || len(h.events[All]) > 0
}

func (h *Hub) add(names string, cb Callback, ctx any, once bool, group *onceGroup) []uint64 {
	if cb == nil {
		return nil
	}
	if h.events == nil {
		h.events = make(map[string][]*listener)
	}
	key := funcKey(cb)
	var ids []uint64
	for _, name := range strings.Fields(names) {
		h.nextID++
		l := &listener{id: h.nextID, name: name, cb: cb, key: key, ctx: ctx, once: once, group: group}
		if group != nil {
			group.listeners = append(group.listeners, l)
		}
		h.events[name] = append(h.events[name], l)
		ids = append(ids, l.id)
	}
	return ids
}

// dispatch works on a snapshot so subscriptions changed by a callback take
// effect on the next trigger.
func (h *Hub) dispatch(event string, listeners []*listener, args []any) {
	if len(listeners) == 0 {
		return
	}
	snapshot := make([]*listener, len(listeners))
	copy(snapshot, listeners)

	for _, l := range snapshot {
		if l.once {
			if l.group != nil {
				if l.group.fired {
					continue
				}
				l.group.fired = true
				for _, member := range l.group.listeners {
					h.removeID(member.name, member.id)
				}
			} else {
				if !h.removeID(l.name, l.id) {
					continue
				}
			}
		}
		h.invoke(event, l, args)
	}
}

func (h *Hub) invoke(event string, l *listener, args []any) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Error("event subscriber panicked",
				zap.String("event", event),
				zap.String("subscription", l.name),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	l.cb(args...)
}

func (h *Hub) removeID(name string, id uint64) bool {
	removed := false
	h.removeWhere(name, func(l *listener) bool {
		if l.id == id {
			removed = true
			return true
		}
		return false
	})
	return removed
}

func (h *Hub) removeWhere(name string, match func(*listener) bool) {
	current, ok := h.events[name]
	if !ok {
		return
	}
	kept := make([]*listener, 0, len(current))
	for _, l := range current {
		if !match(l) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(h.events, name)
		return
	}
	h.events[name] = kept
}

func contextArg(ctx []any) any {
	if len(ctx) == 0 {
		return nil
	}
	return ctx[0]
}

// funcKey identifies the func value itself rather than its code, so distinct
// closures over different variables get distinct keys.
func funcKey(cb Callback) uintptr {
	if cb == nil {
		return 0
	}
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&cb)))
}

func sameContext(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

func sortedNames(callbacks map[string]Callback) []string {
	names := make([]string, 0, len(callbacks))
	for name := range callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package collection provides an observable, optionally sorted list of model
// objects or plain values. It re-emits the events of every member object
// under the collection's name, so subscribers can watch a whole set of
// objects from one place.
package collection

import (
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model/event"
	"github.com/conduit-lang/modelkit/internal/util"
)

// Member is the part of a model object the collection relies on.
// *model.Object satisfies it.
type Member interface {
	Listen(names string, cb event.Callback, ctx ...any) *event.Subscription
	Destroy()
}

// Getter reads a named property. It is used to follow sort paths.
type Getter interface {
	Get(name string) any
}

// Comparator orders two items: negative when a sorts before b.
type Comparator func(a, b any) int

// Option configures a Collection.
type Option func(*Collection)

// WithComparator keeps the collection ordered by cmp.
func WithComparator(cmp Comparator) Option {
	return func(c *Collection) {
		c.compare = cmp
	}
}

// WithSortBy keeps the collection ordered by the value at path, a dotted
// property path such as "owner.name".
func WithSortBy(path string, desc bool) Option {
	return func(c *Collection) {
		c.sortPath = strings.Split(path, ".")
		c.sortDesc = desc
	}
}

// Collection is an ordered list of items that forwards member events as
// "<name>:<event>" with the member prepended to the arguments.
type Collection struct {
	*event.Hub

	name      string
	items     []any
	subs      map[Member]*event.Subscription
	compare   Comparator
	sortPath  []string
	sortDesc  bool
	destroyed bool
}

// New creates an empty collection. name prefixes every event it fires.
func New(name string, opts ...Option) *Collection {
	c := &Collection{
		Hub:  event.New(),
		name: name,
		subs: make(map[Member]*event.Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the event prefix.
func (c *Collection) Name() string { return c.name }

// Len returns the number of items.
func (c *Collection) Len() int { return len(c.items) }

// IsDestroyed reports whether Destroy has been called.
func (c *Collection) IsDestroyed() bool { return c.destroyed }

// Sorted reports whether the collection keeps an order.
func (c *Collection) Sorted() bool {
	return c.compare != nil || len(c.sortPath) > 0
}

// Add appends items, re-sorting a sorted collection, and fires "<name>:new"
// for each one. A member object that is already contained is skipped.
func (c *Collection) Add(items ...any) {
	added := make([]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(Member); ok {
			if _, exists := c.subs[m]; exists {
				continue
			}
			c.watch(m)
		}
		c.items = append(c.items, item)
		added = append(added, item)
	}
	if len(added) == 0 {
		return
	}
	c.sort()
	for _, item := range added {
		c.Trigger(c.event("new"), item)
	}
}

// Remove takes item out of the collection and fires "<name>:remove". It
// reports whether the item was contained.
func (c *Collection) Remove(item any) bool {
	i := c.IndexOf(item)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	if m, ok := item.(Member); ok {
		c.unwatch(m)
	}
	c.Trigger(c.event("remove"), item)
	return true
}

// At returns the item at index i, or nil when i is out of range.
func (c *Collection) At(i int) any {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// IndexOf returns the position of item, or -1. Objects match by identity,
// comparable values by equality.
func (c *Collection) IndexOf(item any) int {
	for i, it := range c.items {
		if same(it, item) {
			return i
		}
	}
	return -1
}

// Contains reports whether item is in the collection.
func (c *Collection) Contains(item any) bool {
	return c.IndexOf(item) >= 0
}

// GetData returns a copy of the items.
func (c *Collection) GetData() []any {
	out := make([]any, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the first item matching pred.
func (c *Collection) Find(pred func(item any) bool) (any, bool) {
	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	return nil, false
}

// Filter returns the items matching pred, in order.
func (c *Collection) Filter(pred func(item any) bool) []any {
	var out []any
	for _, it := range c.items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Each calls fn for every item in order until fn returns false. fn sees a
// snapshot, so it may add or remove items.
func (c *Collection) Each(fn func(i int, item any) bool) {
	for i, it := range c.GetData() {
		if !fn(i, it) {
			return
		}
	}
}

// Sort re-orders a sorted collection and fires "<name>:sort". It is a no-op
// for unsorted collections.
func (c *Collection) Sort() {
	if !c.Sorted() {
		return
	}
	c.sort()
	c.Trigger(c.event("sort"), c)
}

// Reset replaces every item and fires "<name>:reset" once.
func (c *Collection) Reset(items ...any) {
	for m, sub := range c.subs {
		sub.Cancel()
		delete(c.subs, m)
	}
	c.items = c.items[:0]
	for _, item := range items {
		if m, ok := item.(Member); ok {
			if _, exists := c.subs[m]; exists {
				continue
			}
			c.watch(m)
		}
		c.items = append(c.items, item)
	}
	c.sort()
	c.Trigger(c.event("reset"), c)
}

// Destroy destroys every member object, empties the collection, fires
// "destroy" and detaches all listeners.
func (c *Collection) Destroy() {
	if c.destroyed {
		return
	}
	members := make([]Member, 0, len(c.subs))
	for _, it := range c.items {
		if m, ok := it.(Member); ok {
			members = append(members, m)
		}
	}
	for m, sub := range c.subs {
		sub.Cancel()
		delete(c.subs, m)
	}
	for _, m := range members {
		m.Destroy()
	}

	logging.L().Debug("collection destroyed",
		zap.String("collection", c.name),
		zap.Int("members", len(members)),
	)

	c.items = nil
	c.destroyed = true
	c.Trigger("destroy", c)
	c.Off("", nil, nil)
}

func (c *Collection) event(name string) string {
	return c.name + ":" + name
}

// watch forwards every event of m. A destroyed member is removed after its
// destroy event has been forwarded.
func (c *Collection) watch(m Member) {
	c.subs[m] = m.Listen(event.All, func(args ...any) {
		name, _ := args[0].(string)
		forwarded := make([]any, 0, len(args))
		forwarded = append(forwarded, m)
		forwarded = append(forwarded, args[1:]...)
		c.Trigger(c.event(name), forwarded...)

		switch {
		case name == "destroy":
			c.Remove(m)
		case c.sortsOn(name):
			c.Sort()
		}
	})
}

func (c *Collection) unwatch(m Member) {
	if sub, ok := c.subs[m]; ok {
		sub.Cancel()
		delete(c.subs, m)
	}
}

// sortsOn reports whether a member event changes the sort key.
func (c *Collection) sortsOn(eventName string) bool {
	if len(c.sortPath) == 0 {
		return false
	}
	return eventName == "change:"+c.sortPath[0]
}

func (c *Collection) sort() {
	switch {
	case c.compare != nil:
		sort.SliceStable(c.items, func(i, j int) bool {
			return c.compare(c.items[i], c.items[j]) < 0
		})
	case len(c.sortPath) > 0:
		util.SortByCriterion(c.items, c.sortKey, c.sortDesc)
	}
}

// sortKey follows the sort path through objects and maps.
func (c *Collection) sortKey(item any) any {
	v := item
	for _, segment := range c.sortPath {
		switch cur := v.(type) {
		case Getter:
			v = cur.Get(segment)
		case map[string]any:
			v = cur[segment]
		default:
			return nil
		}
	}
	return v
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
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

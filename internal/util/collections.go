package util

import (
	"cmp"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"
)

// EachEntry calls fn for every entry of m in key order until fn returns false.
func EachEntry[K cmp.Ordered, V any](m map[K]V, fn func(key K, value V) bool) {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !fn(k, m[k]) {
			return
		}
	}
}

// SortByCriterion stable-sorts items by the value key extracts from each item,
// using Compare on the extracted values.
func SortByCriterion[T any](items []T, key func(T) any, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		c := Compare(key(items[i]), key(items[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Compare orders loosely typed values: nil sorts first, numbers compare
// numerically, strings lexically, times chronologically and booleans false
// before true. Values of different kinds compare by kind name.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(reflect.TypeOf(a).String(), reflect.TypeOf(b).String())
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// DefaultsFill sets every key of the sources that dst does not already hold.
// Earlier sources win over later ones. A nil dst is allocated.
func DefaultsFill(dst map[string]any, sources ...map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for _, src := range sources {
		for k, v := range src {
			if _, exists := dst[k]; !exists {
				dst[k] = v
			}
		}
	}
	return dst
}

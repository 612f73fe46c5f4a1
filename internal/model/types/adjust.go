package types

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IntegralFloat reports whether f is a whole number that fits in an int64.
func IntegralFloat(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < -math.MinInt64
}

// adjustInteger converts whole numbers to int. Values outside the int64 range
// stay floats so the validator rejects them.
func adjustInteger(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, false
		}
		if IntegralFloat(f) {
			return int(f), true
		}
		return f, true
	case float32, float64:
		f, _ := toFloat(val)
		if IntegralFloat(f) {
			return int(f), true
		}
	}
	return nil, false
}

func adjustDouble(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case float64:
		return nil, false
	}
	if f, ok := toFloat(v); ok {
		return f, true
	}
	return nil, false
}

func adjustString(v any) (any, bool) {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val), true
	case time.Time:
		return val.Format(time.RFC3339), true
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return nil, false
}

// adjustBoolean coerces by truthiness: nil, false, "", zero and NaN are false,
// everything else is true.
func adjustBoolean(v any) (any, bool) {
	return Truthy(v), true
}

func adjustDate(v any) (any, bool) {
	switch val := v.(type) {
	case time.Time:
		return nil, false
	case string:
		s := strings.TrimSpace(val)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return nil, false
	}
	if f, ok := toFloat(v); ok && f >= math.MinInt64 && f < -math.MinInt64 {
		return time.UnixMilli(int64(f)), true
	}
	return nil, false
}

// Truthy reports the truthiness of v.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

package query

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Match reports whether a record, given as a field map, satisfies every
// condition. Field names are looked up exactly, then ignoring case and
// underscores, so "created_at" finds a "CreatedAt" key.
func (f Filter) Match(fields map[string]any) bool {
	for _, c := range f {
		v, ok := lookup(fields, c.Field)
		if !ok {
			v = nil
		}
		if !c.Match(v) {
			return false
		}
	}
	return true
}

// Match evaluates the condition against a single value.
func (c Condition) Match(v any) bool {
	v = deref(v)
	switch c.Operator {
	case OpNull:
		return v == nil
	case OpNotNull:
		return v != nil
	}
	if v == nil {
		return false
	}

	switch c.Operator {
	case OpEq:
		if len(c.Values) > 0 {
			return anyEqual(v, c.Values)
		}
		return compare(v, c.Value) == 0
	case OpNeq:
		if len(c.Values) > 0 {
			return !anyEqual(v, c.Values)
		}
		return compare(v, c.Value) != 0
	case OpGt:
		return compare(v, c.Value) > 0
	case OpGte:
		return compare(v, c.Value) >= 0
	case OpLt:
		return compare(v, c.Value) < 0
	case OpLte:
		return compare(v, c.Value) <= 0
	case OpIn:
		return anyEqual(v, c.setValues())
	case OpNin:
		return !anyEqual(v, c.setValues())
	case OpLike:
		return strings.Contains(toString(v), c.Value)
	case OpIlike:
		return strings.Contains(strings.ToLower(toString(v)), strings.ToLower(c.Value))
	}
	return false
}

func (c Condition) setValues() []string {
	if len(c.Values) > 0 {
		return c.Values
	}
	if c.Value == "" {
		return nil
	}
	return strings.Split(c.Value, ",")
}

func anyEqual(v any, values []string) bool {
	return slices.ContainsFunc(values, func(s string) bool { return compare(v, s) == 0 })
}

func lookup(fields map[string]any, name string) (any, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	want := normalizeKey(name)
	for k, v := range fields {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// compare orders a record value against a filter literal. Numbers, bools and
// times compare by value when the literal parses as the same kind; anything
// else compares as text.
func compare(v any, lit string) int {
	switch x := v.(type) {
	case time.Time:
		if t, err := time.Parse(time.RFC3339Nano, lit); err == nil {
			return x.Compare(t)
		}
		if t, err := time.Parse(time.DateOnly, lit); err == nil {
			return x.Compare(t)
		}
	case bool:
		if b, err := strconv.ParseBool(lit); err == nil {
			return compareBool(x, b)
		}
	}
	if f, ok := toFloat(v); ok {
		if lf, err := strconv.ParseFloat(lit, 64); err == nil {
			switch {
			case f < lf:
				return -1
			case f > lf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(toString(v), lit)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func toFloat(v any) (float64, bool) {
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

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// CompareRecords orders two field maps by sorts, as the Order of a Query
// does. Missing and nil values sort first.
func CompareRecords(a, b map[string]any, sorts []Sort) int {
	for _, s := range sorts {
		av, _ := lookup(a, s.Field)
		bv, _ := lookup(b, s.Field)
		c := compareValues(deref(av), deref(bv))
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return compareBool(ba, bb)
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	return strings.Compare(toString(a), toString(b))
}

package memory

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/structs"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
)

// Store keeps records of a struct type T in insertion order and evaluates
// filters against their exported fields. It is safe for concurrent use.
type Store[T any] struct {
	mu      sync.RWMutex
	records []T
	fields  []map[string]any
	fail    map[string][]error
}

// New returns a store holding records.
func New[T any](records ...T) *Store[T] {
	s := &Store[T]{fail: map[string][]error{}}
	s.Insert(records...)
	return s
}

// Insert appends records.
func (s *Store[T]) Insert(records ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records = append(s.records, r)
		s.fields = append(s.fields, Fields(r))
	}
}

// Len returns the number of stored records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FailNext makes the next calls of op ("count" or "find") return errs, one
// per call, as STORE_ERROR. A nil entry lets its call succeed.
func (s *Store[T]) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = append(s.fail[op], errs...)
}

// Count returns the number of records matching where.
func (s *Store[T]) Count(ctx context.Context, where query.Filter) (int, error) {
	if err := s.check(ctx, "count"); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, f := range s.fields {
		if where.Match(f) {
			n++
		}
	}
	return n, nil
}

// Find returns the window of matching records. Without an order, records
// come back in insertion order.
func (s *Store[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	if err := s.check(ctx, "find"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idx []int
	for i, f := range s.fields {
		if q.Where.Match(f) {
			idx = append(idx, i)
		}
	}
	if sorts := q.Sorts(); len(sorts) > 0 {
		slices.SortStableFunc(idx, func(a, b int) int {
			return query.CompareRecords(s.fields[a], s.fields[b], sorts)
		})
	}

	if q.Skip >= len(idx) {
		return []T{}, nil
	}
	idx = idx[q.Skip:]
	if q.Limit > 0 && q.Limit < len(idx) {
		idx = idx[:q.Limit]
	}
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s.records[j]
	}
	return out, nil
}

// CheckHealth always reports the store as up.
func (s *Store[T]) CheckHealth(context.Context) observability.Health {
	return observability.Health{Name: "memory", Status: observability.HealthStatusUp}
}

func (s *Store[T]) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return errors.Canceled(err).WithDetail("operation", op)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if errs := s.fail[op]; len(errs) > 0 {
		s.fail[op] = errs[1:]
		if errs[0] != nil {
			return errors.StoreError(op, errs[0])
		}
	}
	return nil
}

// Fields flattens the exported fields of a struct into a map keyed by the
// json tag name, or the field name when there is none. Embedded structs,
// exported or not, are merged into the parent the way encoding/json
// promotes them, and fields of the parent win over promoted ones. Other
// values, time.Time included, are kept as is. Non-struct values yield an
// empty map.
func Fields(v any) map[string]any {
	out := map[string]any{}
	if !structs.IsStruct(v) {
		return out
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	for _, f := range structs.New(v).Fields() {
		name := jsonName(f.Tag("json"))
		if name == "-" {
			continue
		}
		if f.IsEmbedded() && name == "" {
			// structs reads embedded values through Interface, which
			// panics for unexported types, so promotion walks reflect.
			if promote(rv.FieldByName(f.Name()), out) {
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name()
		}
		out[name] = f.Value()
	}
	return out
}

var timeType = reflect.TypeFor[time.Time]()

// promote merges the fields of an embedded struct into out without
// overwriting keys already set. It reports false when fv is not a struct
// or a pointer to one. A nil pointer, or a pointer to an unexported type,
// is handled by contributing nothing.
func promote(fv reflect.Value, out map[string]any) bool {
	if fv.Kind() == reflect.Pointer {
		if fv.Type().Elem().Kind() != reflect.Struct {
			return false
		}
		// Pointers to unexported types stay read-only after Elem.
		if fv.IsNil() || !fv.CanInterface() {
			return true
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Struct || fv.Type() == timeType {
		return false
	}

	t := fv.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		name := jsonName(sf.Tag.Get("json"))
		if name == "-" {
			continue
		}
		// Field clears the embedded read-only flag, so exported
		// promoted fields can be read with Interface.
		ff := fv.Field(i)
		if sf.Anonymous && name == "" && promote(ff, out) {
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, set := out[name]; !set {
			out[name] = ff.Interface()
		}
	}
	return true
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

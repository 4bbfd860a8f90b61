// Package query describes the record window an iterator walks: a filter in
// PostgREST form, an ordering, and a skip/limit pair.
package query

import (
	"slices"
	"strings"

	"github.com/kbukum/pageiter/validation"
)

// Operator is a PostgREST filter operator.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpNin     Operator = "nin"
	OpLike    Operator = "like"
	OpIlike   Operator = "ilike"
	OpNull    Operator = "null"
	OpNotNull Operator = "notNull"
)

// AllOperators returns every supported operator.
func AllOperators() []Operator {
	return []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpIlike, OpNull, OpNotNull}
}

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	return slices.Contains(AllOperators(), o)
}

// Condition is one field predicate. Values is used by in, nin, and by eq/neq
// when matching against a set.
type Condition struct {
	Field    string
	Operator Operator
	Value    string
	Values   []string
}

// Filter is a conjunction of conditions. An empty filter matches every record.
type Filter []Condition

// And returns f extended with one condition. f itself is not modified.
func (f Filter) And(field string, op Operator, value string) Filter {
	out := slices.Clip(f)
	return append(out, Condition{Field: field, Operator: op, Value: value})
}

// AndIn returns f extended with a set condition.
func (f Filter) AndIn(field string, values ...string) Filter {
	out := slices.Clip(f)
	return append(out, Condition{Field: field, Operator: OpIn, Values: values})
}

// IsEmpty reports whether f has no conditions.
func (f Filter) IsEmpty() bool { return len(f) == 0 }

// Clone returns a deep copy.
func (f Filter) Clone() Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for i, c := range f {
		c.Values = slices.Clone(c.Values)
		out[i] = c
	}
	return out
}

// Sort is a parsed Order entry.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort parses "name", "name asc", "name desc" or "-name".
func ParseSort(s string) Sort {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return Sort{Field: strings.TrimSpace(rest), Desc: true}
	}
	field, dir, _ := strings.Cut(s, " ")
	return Sort{Field: field, Desc: strings.EqualFold(strings.TrimSpace(dir), "desc")}
}

// Query selects a window of records.
type Query struct {
	Where Filter
	Order []string
	// Skip is the number of leading matches to pass over.
	Skip int
	// Limit caps the number of records. Zero means no limit.
	Limit int
}

// Page returns a copy of q with the window replaced.
func (q Query) Page(skip, limit int) Query {
	return Query{
		Where: q.Where.Clone(),
		Order: slices.Clone(q.Order),
		Skip:  skip,
		Limit: limit,
	}
}

// Sorts parses Order.
func (q Query) Sorts() []Sort {
	out := make([]Sort, 0, len(q.Order))
	for _, o := range q.Order {
		if s := ParseSort(o); s.Field != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects negative windows, unknown operators and field names that
// are not plain identifiers.
func (q Query) Validate() error {
	v := validation.New().
		Min("skip", q.Skip, 0).
		Min("limit", q.Limit, 0)
	for _, c := range q.Where {
		v.Custom(IsIdentifier(c.Field), "where", "invalid field name "+quote(c.Field))
		v.Custom(c.Operator.IsValid(), "where", "unknown operator "+quote(string(c.Operator)))
	}
	for _, s := range q.Sorts() {
		v.Custom(IsIdentifier(s.Field), "order", "invalid field name "+quote(s.Field))
	}
	return v.Err()
}

// IsIdentifier reports whether s is a plain column name: letters, digits and
// underscores, optionally qualified once with a dot.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for part := range strings.SplitSeq(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return strings.Count(s, ".") <= 1
}

func quote(s string) string { return `"` + s + `"` }

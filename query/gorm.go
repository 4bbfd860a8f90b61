package query

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyToGorm adds f to db as WHERE clauses. Columns are quoted by the
// dialect; conditions on non-identifier fields are skipped.
func ApplyToGorm(db *gorm.DB, f Filter) *gorm.DB {
	for _, c := range f {
		if !IsIdentifier(c.Field) {
			continue
		}
		if expr := c.expression(); expr != nil {
			db = db.Where(expr)
		}
	}
	return db
}

// ApplyOrder adds ORDER BY clauses for order.
func ApplyOrder(db *gorm.DB, order []string) *gorm.DB {
	for _, o := range order {
		s := ParseSort(o)
		if !IsIdentifier(s.Field) {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: column(s.Field), Desc: s.Desc})
	}
	return db
}

// ApplyQuery applies the filter, ordering and window of q. A zero Limit
// leaves the result unbounded.
func ApplyQuery(db *gorm.DB, q Query) *gorm.DB {
	db = ApplyOrder(ApplyToGorm(db, q.Where), q.Order)
	if q.Skip > 0 {
		db = db.Offset(q.Skip)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db
}

func column(field string) clause.Column {
	if table, name, ok := strings.Cut(field, "."); ok {
		return clause.Column{Table: table, Name: name}
	}
	return clause.Column{Name: field}
}

func (c Condition) expression() clause.Expression {
	col := column(c.Field)
	switch c.Operator {
	case OpEq:
		if len(c.Values) > 0 {
			return clause.IN{Column: col, Values: toArgs(c.Values)}
		}
		return clause.Eq{Column: col, Value: c.Value}
	case OpNeq:
		if len(c.Values) > 0 {
			return clause.Not(clause.IN{Column: col, Values: toArgs(c.Values)})
		}
		return clause.Neq{Column: col, Value: c.Value}
	case OpGt:
		return clause.Gt{Column: col, Value: c.Value}
	case OpGte:
		return clause.Gte{Column: col, Value: c.Value}
	case OpLt:
		return clause.Lt{Column: col, Value: c.Value}
	case OpLte:
		return clause.Lte{Column: col, Value: c.Value}
	case OpIn:
		if values := c.setValues(); len(values) > 0 {
			return clause.IN{Column: col, Values: toArgs(values)}
		}
	case OpNin:
		if values := c.setValues(); len(values) > 0 {
			return clause.Not(clause.IN{Column: col, Values: toArgs(values)})
		}
	case OpLike:
		return clause.Like{Column: col, Value: "%" + c.Value + "%"}
	case OpIlike:
		return clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{col, "%" + strings.ToLower(c.Value) + "%"}}
	case OpNull:
		return clause.Eq{Column: col, Value: nil}
	case OpNotNull:
		return clause.Neq{Column: col, Value: nil}
	}
	return nil
}

func toArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

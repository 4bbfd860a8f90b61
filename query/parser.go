package query

import (
	"net/url"
	"slices"
	"strings"
)

// Reserved parameter names that are never treated as filter fields.
var reservedParams = []string{"filter", "order", "skip", "limit", "batch_size"}

// ParseFilter parses "status=eq.active&priority=gt.3". Parts without "=" or
// with a field that is not an identifier are skipped.
func ParseFilter(s string) Filter {
	var f Filter
	for part := range strings.SplitSeq(s, "&") {
		field, value, ok := strings.Cut(part, "=")
		if !ok || !IsIdentifier(field) {
			continue
		}
		f = append(f, parseCondition(field, value))
	}
	return f
}

// ParseFromValues builds a filter from URL query values: the "filter"
// parameter in ParseFilter form, plus every other parameter naming an
// allowed field ("status=eq.active"). An empty allowed list accepts any
// identifier that is not a reserved parameter.
func ParseFromValues(values url.Values, allowed []string) Filter {
	var f Filter
	for _, raw := range values["filter"] {
		for _, c := range ParseFilter(raw) {
			if fieldAllowed(c.Field, allowed) {
				f = append(f, c)
			}
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, field := range keys {
		if slices.Contains(reservedParams, field) || !IsIdentifier(field) || !fieldAllowed(field, allowed) {
			continue
		}
		for _, v := range values[field] {
			f = append(f, parseCondition(field, v))
		}
	}
	return f
}

// ParseOrder splits "name,-created_at" into Order entries.
func ParseOrder(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String renders f back in ParseFilter form.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		parts = append(parts, c.Field+"="+c.encode())
	}
	return strings.Join(parts, "&")
}

func (c Condition) encode() string {
	switch c.Operator {
	case OpNull:
		return "is.null"
	case OpNotNull:
		return "not.is.null"
	}
	if len(c.Values) > 0 {
		escaped := make([]string, len(c.Values))
		for i, v := range c.Values {
			escaped[i] = escapeValue(v, ",()")
		}
		return string(c.Operator) + ".(" + strings.Join(escaped, ",") + ")"
	}
	return string(c.Operator) + "." + escapeValue(c.Value, "")
}

func fieldAllowed(field string, allowed []string) bool {
	return len(allowed) == 0 || slices.Contains(allowed, field)
}

// parseCondition parses "op.value", "op.(a,b)", "is.null" or a bare value,
// which means eq.
func parseCondition(field, value string) Condition {
	switch value {
	case "is.null":
		return Condition{Field: field, Operator: OpNull}
	case "not.is.null":
		return Condition{Field: field, Operator: OpNotNull}
	}

	opStr, raw, ok := strings.Cut(value, ".")
	op := Operator(opStr)
	if !ok || !op.IsValid() {
		return Condition{Field: field, Operator: OpEq, Value: value}
	}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		return Condition{Field: field, Operator: op, Values: splitEscaped(raw[1 : len(raw)-1])}
	}
	return Condition{Field: field, Operator: op, Value: unescape(raw)}
}

// splitEscaped splits on commas not preceded by a backslash and trims
// each element. Empty elements are dropped.
func splitEscaped(inner string) []string {
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range inner {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
		escaped = false
	}
	return b.String()
}

func escapeValue(s, special string) string {
	if !strings.ContainsAny(s, special+`\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

package retrieval

import (
	"github.com/discoverymesh/discoverymesh/core"
)

// fieldCondition is one compiled constraint on a payload field. All set
// clauses must hold for the condition to match.
type fieldCondition struct {
	field    string
	match    any
	hasMatch bool
	gte      *float64
	lte      *float64
	anyOf    []any
	noneOf   []any
}

// Filter is a compiled conjunction of field constraints. All conditions
// are ANDed; an empty filter matches everything.
type Filter struct {
	conditions []fieldCondition
}

// CompileFilter turns the declarative field -> constraint mapping into a
// Filter. Supported constraint shapes per field:
//
//	{"match": v}                  exact equality
//	{"gte": n} / {"lte": n}       numeric range bounds (combinable)
//	{"range": {"gte": n, "lte": n}}
//	{"any": [v...]}               value in set
//	{"none": [v...]}              value not in set
//
// Unknown operators are a ValidationError, never a silent no-op.
func CompileFilter(filters map[string]any) (*Filter, error) {
	if len(filters) == 0 {
		return &Filter{}, nil
	}

	f := &Filter{conditions: make([]fieldCondition, 0, len(filters))}
	for field, raw := range filters {
		constraint, ok := raw.(map[string]any)
		if !ok {
			return nil, core.NewError(core.KindValidation, "retrieval.filter",
				"field %q: constraint must be an object, got %T", field, raw)
		}
		cond := fieldCondition{field: field}
		for op, val := range constraint {
			switch op {
			case "match":
				cond.match = val
				cond.hasMatch = true
			case "gte":
				n, ok := toFloat(val)
				if !ok {
					return nil, core.NewError(core.KindValidation, "retrieval.filter",
						"field %q: gte requires a number, got %T", field, val)
				}
				cond.gte = &n
			case "lte":
				n, ok := toFloat(val)
				if !ok {
					return nil, core.NewError(core.KindValidation, "retrieval.filter",
						"field %q: lte requires a number, got %T", field, val)
				}
				cond.lte = &n
			case "range":
				bounds, ok := val.(map[string]any)
				if !ok {
					return nil, core.NewError(core.KindValidation, "retrieval.filter",
						"field %q: range requires an object with gte/lte", field)
				}
				for bop, bval := range bounds {
					n, okNum := toFloat(bval)
					if !okNum {
						return nil, core.NewError(core.KindValidation, "retrieval.filter",
							"field %q: range bound %q requires a number", field, bop)
					}
					switch bop {
					case "gte":
						cond.gte = &n
					case "lte":
						cond.lte = &n
					default:
						return nil, core.NewError(core.KindValidation, "retrieval.filter",
							"field %q: unknown range bound %q", field, bop)
					}
				}
			case "any":
				vals, ok := toSlice(val)
				if !ok {
					return nil, core.NewError(core.KindValidation, "retrieval.filter",
						"field %q: any requires an array", field)
				}
				cond.anyOf = vals
			case "none":
				vals, ok := toSlice(val)
				if !ok {
					return nil, core.NewError(core.KindValidation, "retrieval.filter",
						"field %q: none requires an array", field)
				}
				cond.noneOf = vals
			default:
				return nil, core.NewError(core.KindValidation, "retrieval.filter",
					"field %q: unknown operator %q", field, op)
			}
		}
		f.conditions = append(f.conditions, cond)
	}
	return f, nil
}

// Matches reports whether the payload satisfies every condition.
func (f *Filter) Matches(payload map[string]any) bool {
	if f == nil {
		return true
	}
	for _, cond := range f.conditions {
		if !cond.matches(payload) {
			return false
		}
	}
	return true
}

// Empty reports whether the filter constrains nothing.
func (f *Filter) Empty() bool { return f == nil || len(f.conditions) == 0 }

func (c fieldCondition) matches(payload map[string]any) bool {
	value, present := payload[c.field]

	if c.hasMatch {
		if !present || !valuesEqual(value, c.match) {
			return false
		}
	}
	if c.gte != nil || c.lte != nil {
		n, ok := toFloat(value)
		if !present || !ok {
			return false
		}
		if c.gte != nil && n < *c.gte {
			return false
		}
		if c.lte != nil && n > *c.lte {
			return false
		}
	}
	if c.anyOf != nil {
		if !present || !containsValue(c.anyOf, value) {
			return false
		}
	}
	if c.noneOf != nil {
		// A missing field trivially satisfies "not in set".
		if present && containsValue(c.noneOf, value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func containsValue(set []any, v any) bool {
	for _, s := range set {
		if valuesEqual(v, s) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

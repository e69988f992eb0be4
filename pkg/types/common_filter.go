package types

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
	// CommonFilterOperatorOr matches when any of Filters does. Field and
	// Values are unused.
	CommonFilterOperatorOr CommonFilterOperator = "or"
)

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
	Filters  []CommonFilter       `json:"filters"`
}

// never is written for a filter that cannot be built, so a bad filter
// matches nothing instead of everything.
const never = "1=0"

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if f == nil || f.check() != nil {
		builder.WriteString(never)
		return
	}

	value := f.Values[0:1]
	switch f.Operator {
	case CommonFilterOperatorEq:
		// Handle JSON operator fields (containing -> or ->> operators)
		if strings.Contains(f.Field, "->") {
			clause.Expr{SQL: fmt.Sprintf("%s = ?", f.Field), Vars: value}.Build(builder)
		} else {
			clause.Eq{Column: f.Field, Value: value[0]}.Build(builder)
		}
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value[0]}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value[0]}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value[0]}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value[0]}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value[0]}.Build(builder)
	case CommonFilterOperatorRange:
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorDateRange:
		from, to, _ := dateRange(f.Values)
		clause.And(clause.Gte{Column: f.Field, Value: from}, clause.Lt{Column: f.Field, Value: to}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	case CommonFilterOperatorOr:
		builder.WriteByte('(')
		for i := range f.Filters {
			if i > 0 {
				builder.WriteString(" OR ")
			}
			builder.WriteByte('(')
			f.Filters[i].Build(builder)
			builder.WriteByte(')')
		}
		builder.WriteByte(')')
	}
}

// check validates the operator and its values, not the field name.
func (f *CommonFilter) check() error {
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq,
		CommonFilterOperatorLt, CommonFilterOperatorLte,
		CommonFilterOperatorGt, CommonFilterOperatorGte:
		if len(f.Values) != 1 {
			return fmt.Errorf("%s on %q needs exactly one value", f.Operator, f.Field)
		}
	case CommonFilterOperatorRange:
		if len(f.Values) != 2 {
			return fmt.Errorf("range on %q needs two values", f.Field)
		}
	case CommonFilterOperatorDateRange:
		if _, _, err := dateRange(f.Values); err != nil {
			return fmt.Errorf("date_range on %q: %w", f.Field, err)
		}
	case CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("in on %q needs at least one value", f.Field)
		}
	case CommonFilterOperatorOr:
		if len(f.Filters) == 0 {
			return fmt.Errorf("or needs at least one filter")
		}
	default:
		return fmt.Errorf("unknown filter operator %q", f.Operator)
	}
	return nil
}

// dateRange turns two YYYY-MM-DD days into a half-open [from, to+1d) interval.
func dateRange(values []any) (time.Time, time.Time, error) {
	if len(values) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("needs a start and an end day")
	}
	var days [2]time.Time
	for i, v := range values {
		switch t := v.(type) {
		case time.Time:
			days[i] = t
		case string:
			d, err := time.Parse(time.DateOnly, t)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("day %q is not YYYY-MM-DD", t)
			}
			days[i] = d
		default:
			return time.Time{}, time.Time{}, fmt.Errorf("day %v is not a string", v)
		}
	}
	if days[1].Before(days[0]) {
		return time.Time{}, time.Time{}, fmt.Errorf("end day before start day")
	}
	return days[0], days[1].AddDate(0, 0, 1), nil
}

// ValidateFields rejects nil filters, malformed operators and values, and
// filters on columns outside allowed, including nested ones.
func ValidateFields(filters []*CommonFilter, allowed []string) error {
	for _, f := range filters {
		if f == nil {
			return fmt.Errorf("empty filter")
		}
		if err := f.check(); err != nil {
			return err
		}
		if f.Operator == CommonFilterOperatorOr {
			nested := make([]*CommonFilter, 0, len(f.Filters))
			for i := range f.Filters {
				nested = append(nested, &f.Filters[i])
			}
			if err := ValidateFields(nested, allowed); err != nil {
				return err
			}
			continue
		}
		if !slices.Contains(allowed, f.Field) {
			return fmt.Errorf("filter on %q is not allowed", f.Field)
		}
		if len(f.Filters) > 0 {
			return fmt.Errorf("nested filters on %q need the or operator", f.Field)
		}
	}
	return nil
}

// FiltersAnd joins filters into one expression, "1=1" when empty.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

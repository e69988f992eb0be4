package types

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

// sqlBuilder renders expressions the way gorm does, with ? placeholders.
type sqlBuilder struct {
	strings.Builder
	vars []any
}

func (b *sqlBuilder) WriteQuoted(field interface{}) {
	fmt.Fprintf(&b.Builder, "%q", field)
}

func (b *sqlBuilder) AddVar(w clause.Writer, vars ...interface{}) {
	for i, v := range vars {
		if i > 0 {
			_, _ = w.WriteString(",")
		}
		_ = w.WriteByte('?')
		b.vars = append(b.vars, v)
	}
}

func (b *sqlBuilder) AddError(err error) error { return err }

func render(e clause.Expression) (string, []any) {
	b := &sqlBuilder{}
	e.Build(b)
	return b.String(), b.vars
}

func TestValidateFields(t *testing.T) {
	allowed := []string{"user_id", "source", "processed_at"}
	eq := func(field string, v any) *CommonFilter {
		return &CommonFilter{Field: field, Operator: CommonFilterOperatorEq, Values: []any{v}}
	}

	require.NoError(t, ValidateFields(nil, allowed))
	require.NoError(t, ValidateFields([]*CommonFilter{eq("user_id", "u")}, allowed))
	require.NoError(t, ValidateFields([]*CommonFilter{{
		Operator: CommonFilterOperatorOr,
		Filters:  []CommonFilter{*eq("source", "webhook"), *eq("user_id", "u")},
	}}, allowed))
	require.NoError(t, ValidateFields([]*CommonFilter{{
		Field: "processed_at", Operator: CommonFilterOperatorDateRange, Values: []any{"2025-06-01", "2025-06-30"},
	}}, allowed))

	cases := map[string][]*CommonFilter{
		"unknown column":     {eq("1=1; drop table users; --", 1)},
		"nil entry":          {eq("user_id", "u"), nil},
		"unknown operator":   {{Field: "source", Operator: "like", Values: []any{"web%"}}},
		"missing operator":   {{Field: "source", Values: []any{"webhook"}}},
		"no values":          {{Field: "source", Operator: CommonFilterOperatorEq}},
		"empty in":           {{Field: "source", Operator: CommonFilterOperatorIn, Values: []any{}}},
		"half range":         {{Field: "processed_at", Operator: CommonFilterOperatorRange, Values: []any{1}}},
		"bad day":            {{Field: "processed_at", Operator: CommonFilterOperatorDateRange, Values: []any{"June 1", "2025-06-30"}}},
		"reversed days":      {{Field: "processed_at", Operator: CommonFilterOperatorDateRange, Values: []any{"2025-06-30", "2025-06-01"}}},
		"empty or":           {{Operator: CommonFilterOperatorOr}},
		"bad column in or":   {{Operator: CommonFilterOperatorOr, Filters: []CommonFilter{*eq("payment_details->>'x'", 1)}}},
		"nested without or":  {{Field: "source", Operator: CommonFilterOperatorEq, Values: []any{"webhook"}, Filters: []CommonFilter{*eq("user_id", "u")}}},
	}
	for name, filters := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, ValidateFields(filters, allowed))
		})
	}
}

func TestFiltersAnd_Build(t *testing.T) {
	sql, vars := render(FiltersAnd(nil))
	require.Equal(t, "1=1", sql)
	require.Empty(t, vars)

	sql, vars = render(FiltersAnd{
		{Field: "source", Operator: CommonFilterOperatorEq, Values: []any{"webhook"}},
		{Field: "processed_at", Operator: CommonFilterOperatorDateRange, Values: []any{"2025-06-01", "2025-06-30"}},
	})
	require.Equal(t, `"source" = ? AND ("processed_at" >= ? AND "processed_at" < ?)`, sql)
	require.Equal(t, []any{
		"webhook",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}, vars)

	sql, vars = render(FiltersAnd{{
		Operator: CommonFilterOperatorOr,
		Filters: []CommonFilter{
			{Field: "source", Operator: CommonFilterOperatorEq, Values: []any{"webhook"}},
			{Field: "selected_years", Operator: CommonFilterOperatorIn, Values: []any{2, 3}},
		},
	}})
	require.Equal(t, `(("source" = ?) OR ("selected_years" IN (?,?)))`, sql)
	require.Equal(t, []any{"webhook", 2, 3}, vars)
}

func TestFiltersAnd_BuildFailsClosed(t *testing.T) {
	// Unvalidated input must never widen the result or leave a dangling AND.
	sql, _ := render(FiltersAnd{
		{Field: "source", Operator: CommonFilterOperatorEq, Values: []any{"webhook"}},
		nil,
		{Field: "source", Operator: "like", Values: []any{"w%"}},
		{Field: "processed_at", Operator: CommonFilterOperatorDateRange},
	})
	require.Equal(t, `"source" = ? AND 1=0 AND 1=0 AND 1=0`, sql)
}

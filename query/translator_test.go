// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"reflect"
	"testing"

	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type country struct {
	Continent  string
	Name       string
	Population int64
	Area       float64
	IsExists   bool
}

type countryView struct {
	Name string
	Area float64
}

var columns = filter.NameMapperFunc(func(member string) string {
	switch member {
	case "Continent":
		return "PartitionKey"
	case "Name":
		return "RowKey"
	}
	return member
})

func continentIs(name string) *expr.Lambda {
	return Pred[country](func(p *expr.Parameter) expr.Node {
		return expr.Eq(expr.Field(p, "Continent"), expr.Const(name))
	})
}

var countries = []country{
	{Continent: "Europe", Name: "Latvia", Population: 1900000, Area: 64589},
	{Continent: "Europe", Name: "Germany", Population: 83000000, Area: 357022},
	{Continent: "Africa", Name: "Chad", Population: 17000000, Area: 1284000},
}

func TestTranslator_ZeroOperators(t *testing.T) {
	res, err := NewTranslator().Translate(From[country]().Expression(), columns)
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.Equal(t, "Table<country>", From[country]().String())

	out, err := res.Apply(countries)
	require.NoError(t, err)
	assert.Equal(t, countries, out)
}

func TestTranslator_RowLimit(t *testing.T) {
	tests := []struct {
		name string
		q    *Query[country]
		top  int32
	}{
		{"Take", From[country]().Take(7), 7},
		{"First", From[country]().First(), 1},
		{"FirstOrDefault", From[country]().FirstOrDefault(), 1},
		{"Single", From[country]().Single(), 2},
		{"SingleOrDefault", From[country]().SingleOrDefault(), 2},
		{"Take then First keeps the smaller", From[country]().Take(5).First(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewTranslator().Translate(tt.q.Expression(), columns)
			require.NoError(t, err)
			require.NotNil(t, res.Top)
			assert.Equal(t, tt.top, *res.Top)
			assert.Nil(t, res.Filter)
		})
	}
}

func TestTranslator_Where(t *testing.T) {
	tr := NewTranslator()

	t.Run("single predicate", func(t *testing.T) {
		res, err := tr.Translate(From[country]().Where(continentIs("Europe")).Expression(), columns)
		require.NoError(t, err)
		require.NotNil(t, res.Filter)
		assert.Equal(t, "PartitionKey eq 'Europe'", *res.Filter)
		assert.Nil(t, res.PostProcess)
	})

	t.Run("successive predicates are combined with and", func(t *testing.T) {
		q := From[country]().
			Where(continentIs("Europe")).
			Where(Pred[country](func(p *expr.Parameter) expr.Node {
				return expr.Ge(expr.Field(p, "Population"), expr.Const(80000000))
			}))
		res, err := tr.Translate(q.Expression(), columns)
		require.NoError(t, err)
		assert.Equal(t, "(PartitionKey eq 'Europe') and (Population ge 80000000L)", *res.Filter)
	})

	t.Run("inline predicate of First", func(t *testing.T) {
		res, err := tr.Translate(From[country]().First(continentIs("Asia")).Expression(), columns)
		require.NoError(t, err)
		assert.Equal(t, "PartitionKey eq 'Asia'", *res.Filter)
		assert.Equal(t, int32(1), *res.Top)
	})

	t.Run("deterministic", func(t *testing.T) {
		q := From[country]().Where(continentIs("Europe")).Take(3)
		a, err := tr.Translate(q.Expression(), columns)
		require.NoError(t, err)
		b, err := tr.Translate(q.Expression(), columns)
		require.NoError(t, err)
		assert.Equal(t, *a.Filter, *b.Filter)
		assert.Equal(t, a.StorageQuery(), b.StorageQuery())
	})
}

func TestTranslator_SelectThenFirst(t *testing.T) {
	proj := Pred[country](func(p *expr.Parameter) expr.Node {
		return expr.Init(reflect.TypeFor[countryView](),
			expr.Bind("Name", expr.Field(p, "Name")),
			expr.Bind("Area", expr.Field(p, "Area")),
		)
	})
	q := From[country]().Where(continentIs("Europe")).Select(proj).First()

	res, err := NewTranslator().Translate(q.Expression(), columns)
	require.NoError(t, err)
	assert.Equal(t, []string{"RowKey", "Area"}, res.Select)
	assert.Equal(t, int32(1), *res.Top)

	sq := res.StorageQuery()
	assert.Equal(t, []string{"RowKey", "Area"}, sq.Select)

	out, err := res.Apply(countries)
	require.NoError(t, err)
	assert.Equal(t, countryView{Name: "Latvia", Area: 64589}, out)
}

func TestTranslator_SelectMember(t *testing.T) {
	proj := Pred[country](func(p *expr.Parameter) expr.Node { return expr.Field(p, "Name") })
	res, err := NewTranslator().Translate(From[country]().Select(proj).Take(2).Expression(), columns)
	require.NoError(t, err)
	assert.Equal(t, []string{"RowKey"}, res.Select)

	out, err := res.Apply(countries)
	require.NoError(t, err)
	assert.Equal(t, []string{"Latvia", "Germany"}, out)
}

func TestTranslator_Terminals(t *testing.T) {
	tr := NewTranslator()
	apply := func(q *Query[country], seq []country) (any, error) {
		res, err := tr.Translate(q.Expression(), columns)
		require.NoError(t, err)
		return res.Apply(seq)
	}

	_, err := apply(From[country]().First(), nil)
	assert.ErrorIs(t, err, ErrNoElements)

	out, err := apply(From[country]().FirstOrDefault(), []country{})
	require.NoError(t, err)
	assert.Equal(t, country{}, out)

	_, err = apply(From[country]().Single(), countries[:2])
	assert.ErrorIs(t, err, ErrMoreThanOneElement)

	out, err = apply(From[country]().Single(), countries[2:])
	require.NoError(t, err)
	assert.Equal(t, countries[2], out)

	out, err = apply(From[country]().SingleOrDefault(), []country{})
	require.NoError(t, err)
	assert.Equal(t, country{}, out)

	out, err = apply(From[country]().Take(2), countries)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestTranslator_Errors(t *testing.T) {
	tr := NewTranslator()

	t.Run("negative Take", func(t *testing.T) {
		_, err := tr.Translate(From[country]().Take(-1).Expression(), columns)
		assert.ErrorIs(t, err, ErrNegativeCount)
	})

	t.Run("unknown operator", func(t *testing.T) {
		n := expr.CallStatic("OrderBy", nil, From[country]().Expression())
		_, err := tr.Translate(n, columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
		assert.Contains(t, err.Error(), "Call(OrderBy)")
	})

	t.Run("Where with a non-lambda argument", func(t *testing.T) {
		n := expr.CallStatic(OpWhere, nil, From[country]().Expression(), expr.Const(true))
		_, err := tr.Translate(Of[country](n).Expression(), columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
		assert.Contains(t, err.Error(), "Call(Where)")
	})

	t.Run("Where with too many arguments", func(t *testing.T) {
		n := expr.CallStatic(OpWhere, nil, From[country]().Expression(), continentIs("a"), continentIs("b"))
		_, err := tr.Translate(n, columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
	})

	t.Run("filter after Select", func(t *testing.T) {
		proj := Pred[country](func(p *expr.Parameter) expr.Node { return expr.Field(p, "Name") })
		_, err := tr.Translate(From[country]().Select(proj).Where(continentIs("x")).Expression(), columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
	})

	t.Run("untranslatable predicate", func(t *testing.T) {
		pred := Pred[country](func(p *expr.Parameter) expr.Node {
			return expr.Gt(expr.Minus(expr.Field(p, "Area"), expr.Const(1.0)), expr.Const(2.0))
		})
		_, err := tr.Translate(From[country]().Where(pred).Expression(), columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
		assert.Contains(t, err.Error(), "Binary(Subtract)")
	})

	t.Run("source that is not a constant", func(t *testing.T) {
		_, err := tr.Translate(expr.Param[country]("x"), columns)
		assert.ErrorIs(t, err, expr.ErrUnsupportedExpression)
	})
}

func TestContinuation_Then(t *testing.T) {
	var calls []string
	step := func(name string) Continuation {
		return func(seq any) (any, error) {
			calls = append(calls, name)
			return seq, nil
		}
	}
	var c Continuation
	c = c.Then(step("a")).Then(nil).Then(step("b"))
	_, err := c(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)
}

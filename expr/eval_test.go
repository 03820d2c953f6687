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

package expr

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type country struct {
	Continent string
	Name      string
	Area      float64
	Address   *address
}

type address struct {
	City string
}

type holder struct {
	Name    string
	List    []string
	Nested  *holder
	Labels  map[string]string
	Created time.Time
}

func (h holder) Upper() string { return "UPPER:" + h.Name }

func (h *holder) Fail() (string, error) { return "", errors.New("boom") }

func (h holder) Prefix(p string) string { return p + h.Name }

func TestEvaluator_Reduce(t *testing.T) {
	ev := NewEvaluator()
	p := Param[country]("p")
	vars := &holder{
		Name:   "Germany",
		List:   []string{"Latvia", "Germany"},
		Nested: &holder{Name: "inner"},
		Labels: map[string]string{"env": "prod"},
	}

	t.Run("constant is returned as is", func(t *testing.T) {
		c := Const(42)
		got, err := ev.Reduce(c)
		require.NoError(t, err)
		assert.Same(t, c, got)
	})

	t.Run("column reference is left untouched", func(t *testing.T) {
		m := Field(p, "Name")
		got, err := ev.Reduce(m)
		require.NoError(t, err)
		assert.Same(t, m, got)
	})

	tests := []struct {
		name string
		node Node
		want any
	}{
		{"captured variable", Captured(vars, "Name"), "Germany"},
		{"nested field", Field(Captured(vars, "Nested"), "Name"), "inner"},
		{"map entry", Field(Captured(vars, "Labels"), "env"), "prod"},
		{"zero-arg method as member", Captured(vars, "Upper"), "UPPER:Germany"},
		{"method call", CallMethod(Const(*vars), "Prefix", Const("x-")), "x-Germany"},
		{"static call", CallStatic("Join", func(a, b string) string { return a + b }, Const("a"), Const("b")), "ab"},
		{"constructor", NewObject(uuid.MustParse, Const("0f8fad5b-d9cb-469f-a165-70867728950e")), uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")},
		{"constructor with error result", NewObject(uuid.Parse, Const("0f8fad5b-d9cb-469f-a165-70867728950e")), uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")},
		{"byte array", Bytes(Const(0xff), Const(0xee), Const(0xdd)), []byte{0xff, 0xee, 0xdd}},
		{"contains built-in", CallMethod(Captured(vars, "List"), "Contains", Const("Latvia")), true},
		{"compare built-in", CallStatic("Compare", nil, Const("a"), Const("b")), -1},
		{"conversion", ConvertTo(Const(5), reflect.TypeFor[int64]()), int64(5)},
		{"negation", Neg(Const(2.5)), -2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Reduce(tt.node)
			require.NoError(t, err)
			c, ok := got.(*Constant)
			require.True(t, ok, "expected constant, got %T", got)
			assert.Equal(t, tt.want, c.Value)
		})
	}
}

func TestEvaluator_Reduce_Errors(t *testing.T) {
	ev := NewEvaluator()
	p := Param[country]("p")
	vars := &holder{Name: "x"}

	t.Run("array of non-byte elements", func(t *testing.T) {
		_, err := ev.Reduce(NewArrayOf(reflect.TypeFor[int](), Const(1), Const(2)))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("binary arithmetic is not folded", func(t *testing.T) {
		_, err := ev.Reduce(Plus(Const(1), Const(2)))
		assert.ErrorIs(t, err, ErrUnsupportedExpression)
		assert.Contains(t, err.Error(), "Binary(Add)")
	})

	t.Run("subtree depending on the parameter", func(t *testing.T) {
		_, err := ev.Reduce(Field(Field(p, "Address"), "City"))
		assert.ErrorIs(t, err, ErrUnsupportedExpression)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := ev.Reduce(Captured(vars, "Missing"))
		assert.ErrorIs(t, err, ErrUnsupportedExpression)
		assert.Contains(t, err.Error(), "Missing")
	})

	t.Run("error result of a method", func(t *testing.T) {
		_, err := ev.Reduce(CallMethod(Const(vars), "Fail"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("member of nil pointer", func(t *testing.T) {
		_, err := ev.Reduce(Field(Captured(vars, "Nested"), "Name"))
		assert.ErrorIs(t, err, ErrUnsupportedExpression)
	})
}

func TestEvaluator_CachedAccessorSeesNewValues(t *testing.T) {
	ev := NewEvaluator()
	vars := &holder{Name: "first"}
	node := Captured(vars, "Name")

	got, err := ev.Reduce(node)
	require.NoError(t, err)
	assert.Equal(t, "first", got.(*Constant).Value)

	vars.Name = "second"
	got, err = ev.Reduce(node)
	require.NoError(t, err)
	assert.Equal(t, "second", got.(*Constant).Value)

	_, cached := ev.members.Load(node)
	assert.True(t, cached)
}

func TestEvaluator_Eval(t *testing.T) {
	ev := NewEvaluator()
	p := Param[country]("p")
	row := country{Continent: "Europe", Name: "Latvia", Area: 64589, Address: &address{City: "Riga"}}

	t.Run("projection into a struct", func(t *testing.T) {
		type view struct {
			Name string
			City string
		}
		init := Init(reflect.TypeFor[view](),
			Bind("Name", Field(p, "Name")),
			Bind("City", Field(Field(p, "Address"), "City")),
		)
		got, err := ev.Eval(init, Scope{p: row})
		require.NoError(t, err)
		assert.Equal(t, view{Name: "Latvia", City: "Riga"}, got)
	})

	t.Run("projection into a map", func(t *testing.T) {
		init := Init(nil, Bind("Name", Field(p, "Name")), Bind("Area", Field(p, "Area")))
		got, err := ev.Eval(init, Scope{p: row})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Name": "Latvia", "Area": 64589.0}, got)
	})

	t.Run("unbound parameter", func(t *testing.T) {
		_, err := ev.Eval(Field(p, "Name"), Scope{})
		assert.ErrorIs(t, err, ErrUnboundParameter)
	})
}

func TestCompareAndEqual(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		cmp  int
		ok   bool
	}{
		{"strings", "a", "b", -1, true},
		{"mixed ints", int32(5), int64(5), 0, true},
		{"int and float", 3, 2.5, 1, true},
		{"large uint", uint64(1 << 63), int64(1), 1, true},
		{"bools", false, true, -1, true},
		{"times", now, now.Add(time.Second), -1, true},
		{"incomparable", "a", 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, ok := Compare(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cmp, cmp)
		})
	}

	assert.True(t, SameValue([]byte{1, 2}, []byte{1, 2}))
	assert.True(t, SameValue(nil, nil))
	assert.False(t, SameValue(nil, "x"))
	assert.True(t, SameValue(uuid.Nil, uuid.Nil))
}

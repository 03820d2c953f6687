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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode_String(t *testing.T) {
	p := Param[country]("p")
	vars := &holder{}

	tests := []struct {
		node Node
		want string
	}{
		{Eq(Field(p, "Continent"), Const("Europe")), `(p.Continent == "Europe")`},
		{And(Ge(Field(p, "Area"), Const(10)), Negation(Field(p, "Name"))), `((p.Area >= 10) && !p.Name)`},
		{Captured(vars, "List"), "value(*expr.holder).List"},
		{CallMethod(Captured(vars, "List"), "Contains", Field(p, "Name")), "value(*expr.holder).List.Contains(p.Name)"},
		{Const(nil), "null"},
		{Fn(Eq(Field(p, "Name"), Const("x")), p), `p => (p.Name == "x")`},
		{Init(nil, Bind("Name", Field(p, "Name"))), "new {Name = p.Name}"},
		{Bytes(Const(1)), "new []uint8{1}"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.String())
		})
	}
}

func TestKindOfAndReferences(t *testing.T) {
	p := Param[country]("p")
	q := Param[country]("q")
	n := Or(Eq(Field(p, "Name"), Const("a")), CallStatic("Compare", nil, Const("a"), Const("b")))

	assert.Equal(t, "Binary(OrElse)", KindOf(n))
	assert.Equal(t, "Call(Compare)", KindOf(n.Right))
	assert.True(t, References(n, p))
	assert.False(t, References(n, q))
	assert.True(t, HasParameter(n))
	assert.False(t, HasParameter(n.Right))

	_, ok := IsParameterMember(Field(p, "Name"), nil)
	assert.True(t, ok)
	_, ok = IsParameterMember(Field(p, "Name"), q)
	assert.False(t, ok)
}

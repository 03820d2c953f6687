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

package rowfilter

import (
	"fmt"
	"strings"

	"github.com/raywall/fast-table-toolkit/filter"
)

// Node é uma expressão de filtro já parseada.
type Node interface {
	fmt.Stringer
	node()
}

// Op é um operador de comparação.
type Op string

const (
	Eq Op = "eq"
	Ne Op = "ne"
	Gt Op = "gt"
	Ge Op = "ge"
	Lt Op = "lt"
	Le Op = "le"
)

// Mirror devolve o operador equivalente com os operandos trocados.
func (o Op) Mirror() Op {
	switch o {
	case Gt:
		return Lt
	case Ge:
		return Le
	case Lt:
		return Gt
	case Le:
		return Ge
	}
	return o
}

// Logical junta duas expressões com "and" ou "or".
type Logical struct {
	Op    string
	Left  Node
	Right Node
}

// Not nega uma expressão.
type Not struct {
	Operand Node
}

// Comparison compara dois operandos, cada um *Ident ou *Literal.
type Comparison struct {
	Op    Op
	Left  Node
	Right Node
}

// Ident é uma referência de coluna.
type Ident struct {
	Name string
}

// Literal é uma constante tipada: string, bool, int32, int64, float64,
// uuid.UUID, []byte, time.Time ou nil.
type Literal struct {
	Value any
}

func (*Logical) node()    {}
func (*Not) node()        {}
func (*Comparison) node() {}
func (*Ident) node()      {}
func (*Literal) node()    {}

func (l *Logical) String() string {
	return "(" + l.Left.String() + " " + l.Op + " " + l.Right.String() + ")"
}

func (n *Not) String() string { return "not (" + n.Operand.String() + ")" }

func (c *Comparison) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

func (i *Ident) String() string { return i.Name }

func (l *Literal) String() string { return filter.FormatLiteral(l.Value) }

// Column devolve a comparação como coluna op valor, trocando os lados quando
// o literal vem à esquerda. ok é false para coluna contra coluna ou literal
// contra literal.
func (c *Comparison) Column() (column string, op Op, value any, ok bool) {
	li, lIsIdent := c.Left.(*Ident)
	ri, rIsIdent := c.Right.(*Ident)
	ll, lIsLit := c.Left.(*Literal)
	rl, rIsLit := c.Right.(*Literal)
	switch {
	case lIsIdent && rIsLit:
		return li.Name, c.Op, rl.Value, true
	case lIsLit && rIsIdent:
		return ri.Name, c.Op.Mirror(), ll.Value, true
	}
	return "", c.Op, nil, false
}

// Columns lista os identificadores usados em n, na ordem em que aparecem.
func Columns(n Node) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case *Logical:
			walk(t.Left)
			walk(t.Right)
		case *Not:
			walk(t.Operand)
		case *Comparison:
			walk(t.Left)
			walk(t.Right)
		case *Ident:
			if !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		}
	}
	walk(n)
	return out
}

func isKeyword(s string) bool {
	switch strings.ToLower(s) {
	case "and", "or", "not", "eq", "ne", "gt", "ge", "lt", "le", "true", "false", "null":
		return true
	}
	return false
}

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
	"fmt"
	"reflect"
)

// Node é um nó da árvore de expressão.
type Node interface {
	fmt.Stringer
	node()
}

// BinaryOp é o operador de um nó Binary.
type BinaryOp int

const (
	Equal BinaryOp = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	AndAlso
	OrElse
	Add
	Subtract
)

var binaryNames = [...]string{
	Equal:              "Equal",
	NotEqual:           "NotEqual",
	LessThan:           "LessThan",
	LessThanOrEqual:    "LessThanOrEqual",
	GreaterThan:        "GreaterThan",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	AndAlso:            "AndAlso",
	OrElse:             "OrElse",
	Add:                "Add",
	Subtract:           "Subtract",
}

var binarySymbols = [...]string{
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	AndAlso:            "&&",
	OrElse:             "||",
	Add:                "+",
	Subtract:           "-",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// Symbol devolve a grafia do operador como no código-fonte.
func (op BinaryOp) Symbol() string {
	if int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return "?"
}

// IsComparison informa se op é um dos seis operadores relacionais.
func (op BinaryOp) IsComparison() bool {
	return op >= Equal && op <= GreaterThanOrEqual
}

// IsLogical informa se op é AndAlso ou OrElse.
func (op BinaryOp) IsLogical() bool {
	return op == AndAlso || op == OrElse
}

// Mirror devolve o operador que mantém a comparação verdadeira com os
// operandos trocados (a < b  <=>  b > a).
func (op BinaryOp) Mirror() BinaryOp {
	switch op {
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	}
	return op
}

// UnaryOp é o operador de um nó Unary.
type UnaryOp int

const (
	Not UnaryOp = iota
	Negate
	Convert
)

func (op UnaryOp) String() string {
	switch op {
	case Not:
		return "Not"
	case Negate:
		return "Negate"
	case Convert:
		return "Convert"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// Binary aplica um operador binário a dois operandos.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Unary aplica um operador unário. Type é o tipo destino de Convert.
type Unary struct {
	Op      UnaryOp
	Operand Node
	Type    reflect.Type
}

// Member lê um campo, um método sem argumentos ou uma chave de mapa de Target.
type Member struct {
	Target Node
	Name   string
}

// Constant guarda um literal ou um objeto capturado.
type Constant struct {
	Value any
}

// Parameter é um parâmetro de lambda.
type Parameter struct {
	Name string
	Type reflect.Type
}

// Call invoca Method em Target. Target nil é chamada estática: Func, se
// houver, é a função chamada; senão Method é o nome de um built-in.
type Call struct {
	Target Node
	Method string
	Func   any
	Args   []Node
}

// New invoca o construtor Func com Args.
type New struct {
	Func any
	Args []Node
}

// NewArray monta um literal de array com elementos do tipo Elem.
type NewArray struct {
	Elem  reflect.Type
	Elems []Node
}

// Binding atribui Value ao Member num inicializador de objeto.
type Binding struct {
	Member string
	Value  Node
}

// MemberInit monta um valor de Type e atribui os membros. Type nil monta
// um map[string]any.
type MemberInit struct {
	Type     reflect.Type
	Bindings []Binding
}

// Lambda é um literal de função.
type Lambda struct {
	Params []*Parameter
	Body   Node
}

func (*Binary) node()     {}
func (*Unary) node()      {}
func (*Member) node()     {}
func (*Constant) node()   {}
func (*Parameter) node()  {}
func (*Call) node()       {}
func (*New) node()        {}
func (*NewArray) node()   {}
func (*MemberInit) node() {}
func (*Lambda) node()     {}

// KindOf dá o nome do tipo do nó, com o operador para Binary e Unary,
// ex.: "Binary(Add)".
func KindOf(n Node) string {
	switch t := n.(type) {
	case *Binary:
		return "Binary(" + t.Op.String() + ")"
	case *Unary:
		return "Unary(" + t.Op.String() + ")"
	case *Member:
		return "Member"
	case *Constant:
		return "Constant"
	case *Parameter:
		return "Parameter"
	case *Call:
		return "Call(" + t.Method + ")"
	case *New:
		return "New"
	case *NewArray:
		return "NewArray"
	case *MemberInit:
		return "MemberInit"
	case *Lambda:
		return "Lambda"
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T", n)
}

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

import "reflect"

// Param declara um parâmetro do tipo T.
func Param[T any](name string) *Parameter {
	return &Parameter{Name: name, Type: reflect.TypeFor[T]()}
}

// ParamOf declara um parâmetro de tipo explícito.
func ParamOf(name string, typ reflect.Type) *Parameter {
	return &Parameter{Name: name, Type: typ}
}

// Const embrulha um valor literal.
func Const(v any) *Constant { return &Constant{Value: v} }

// Field lê o membro name de target.
func Field(target Node, name string) *Member { return &Member{Target: target, Name: name} }

// Captured lê field de um objeto capturado, que é como uma variável de
// closure aparece num predicado. O campo é lido na hora da avaliação.
func Captured(holder any, field string) *Member {
	return &Member{Target: Const(holder), Name: field}
}

func Eq(l, r Node) *Binary  { return &Binary{Op: Equal, Left: l, Right: r} }
func Ne(l, r Node) *Binary  { return &Binary{Op: NotEqual, Left: l, Right: r} }
func Lt(l, r Node) *Binary  { return &Binary{Op: LessThan, Left: l, Right: r} }
func Le(l, r Node) *Binary  { return &Binary{Op: LessThanOrEqual, Left: l, Right: r} }
func Gt(l, r Node) *Binary  { return &Binary{Op: GreaterThan, Left: l, Right: r} }
func Ge(l, r Node) *Binary  { return &Binary{Op: GreaterThanOrEqual, Left: l, Right: r} }
func And(l, r Node) *Binary { return &Binary{Op: AndAlso, Left: l, Right: r} }
func Or(l, r Node) *Binary  { return &Binary{Op: OrElse, Left: l, Right: r} }

// Plus e Minus montam nós aritméticos.
func Plus(l, r Node) *Binary  { return &Binary{Op: Add, Left: l, Right: r} }
func Minus(l, r Node) *Binary { return &Binary{Op: Subtract, Left: l, Right: r} }

// Negation monta um NOT lógico.
func Negation(x Node) *Unary { return &Unary{Op: Not, Operand: x} }

// Neg monta uma negação aritmética.
func Neg(x Node) *Unary { return &Unary{Op: Negate, Operand: x} }

// ConvertTo monta uma conversão de tipo.
func ConvertTo(x Node, typ reflect.Type) *Unary { return &Unary{Op: Convert, Operand: x, Type: typ} }

// CallMethod chama method em target.
func CallMethod(target Node, method string, args ...Node) *Call {
	return &Call{Target: target, Method: method, Args: args}
}

// CallStatic chama fn com o rótulo method. Com fn nil vale o built-in de
// mesmo nome (Compare, CompareOrdinal, Contains).
func CallStatic(method string, fn any, args ...Node) *Call {
	return &Call{Method: method, Func: fn, Args: args}
}

// NewObject chama o construtor fn com args.
func NewObject(fn any, args ...Node) *New { return &New{Func: fn, Args: args} }

// NewArrayOf monta um literal de array de elem.
func NewArrayOf(elem reflect.Type, elems ...Node) *NewArray {
	return &NewArray{Elem: elem, Elems: elems}
}

// Bytes monta um literal de array de bytes.
func Bytes(elems ...Node) *NewArray {
	return NewArrayOf(reflect.TypeFor[byte](), elems...)
}

// Bind associa um membro ao seu valor num inicializador.
func Bind(member string, value Node) Binding { return Binding{Member: member, Value: value} }

// Init monta um inicializador de objeto do tipo typ.
func Init(typ reflect.Type, bindings ...Binding) *MemberInit {
	return &MemberInit{Type: typ, Bindings: bindings}
}

// Fn monta um literal de função (um *Lambda).
func Fn(body Node, params ...*Parameter) *Lambda {
	return &Lambda{Params: params, Body: body}
}

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
	"reflect"
	"sync"
)

// Scope associa parâmetros a valores durante a avaliação.
type Scope map[*Parameter]any

// Evaluator avalia árvores de expressão via reflection. Os acessores de
// membro são compilados uma vez por nó Member e tipo de receptor e ficam em
// cache: ler de novo a mesma variável capturada custa um lookup.
//
// Pode ser usado concorrentemente; compartilhe um por processo.
type Evaluator struct {
	members sync.Map // *Member -> *memberAccessor
}

// NewEvaluator cria um Evaluator com o cache de acessores vazio.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

type memberAccessor struct {
	typ  reflect.Type
	read func(reflect.Value) (reflect.Value, error)
}

// Reduce faz a avaliação parcial. Subárvore sem parâmetro vira *Constant.
// Membro lido direto do parâmetro é referência de coluna e volta intacto.
// Qualquer outra subárvore que usa parâmetro é erro.
func (e *Evaluator) Reduce(n Node) (Node, error) {
	switch t := n.(type) {
	case *Constant:
		return t, nil
	case *Member:
		if _, ok := t.Target.(*Parameter); ok {
			return t, nil
		}
	}
	if HasParameter(n) {
		return nil, Errorf(n, ErrUnsupportedExpression, "subtree depends on the query parameter")
	}
	v, err := e.eval(n, nil)
	if err != nil {
		return nil, err
	}
	return Const(valueOf(v)), nil
}

// Eval avalia n com os parâmetros de scope.
func (e *Evaluator) Eval(n Node, scope Scope) (any, error) {
	v, err := e.eval(n, scope)
	if err != nil {
		return nil, err
	}
	return valueOf(v), nil
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func (e *Evaluator) eval(n Node, scope Scope) (reflect.Value, error) {
	switch t := n.(type) {
	case *Constant:
		return settle(reflect.ValueOf(t.Value)), nil

	case *Parameter:
		v, ok := scope[t]
		if !ok {
			return reflect.Value{}, &Error{Node: t, Err: ErrUnboundParameter}
		}
		return settle(reflect.ValueOf(v)), nil

	case *Member:
		recv, err := e.eval(t.Target, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		return e.readMember(t, recv)

	case *Call:
		return e.evalCall(t, scope)

	case *New:
		args, err := e.evalArgs(t.Args, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		fn := reflect.ValueOf(t.Func)
		if fn.Kind() != reflect.Func {
			return reflect.Value{}, Errorf(t, ErrUnsupportedExpression, "constructor is %T, not a function", t.Func)
		}
		return callFunc(t, fn, args)

	case *NewArray:
		return e.evalArray(t, scope)

	case *MemberInit:
		return e.evalInit(t, scope)

	case *Unary:
		return e.evalUnary(t, scope)
	}
	return reflect.Value{}, Unsupported(n)
}

// evalUnary resolve conversões e negações de constantes. O Not lógico é
// operador de filtro e fica para o compilador.
func (e *Evaluator) evalUnary(u *Unary, scope Scope) (reflect.Value, error) {
	if u.Op == Not {
		return reflect.Value{}, Unsupported(u)
	}
	v, err := e.eval(u.Operand, scope)
	if err != nil {
		return reflect.Value{}, err
	}
	switch u.Op {
	case Convert:
		if u.Type == nil {
			return v, nil
		}
		return convertTo(u, v, u.Type)
	case Negate:
		if !v.IsValid() || !isNumber(v.Kind()) {
			return reflect.Value{}, Errorf(u, ErrUnsupportedType, "negation of %s", typeName(v))
		}
		out := reflect.New(v.Type()).Elem()
		switch {
		case isFloat(v.Kind()):
			out.SetFloat(-v.Float())
		case isUnsigned(v.Kind()):
			return reflect.Value{}, Errorf(u, ErrUnsupportedType, "negation of %v", v.Type())
		default:
			out.SetInt(-v.Int())
		}
		return out, nil
	}
	return reflect.Value{}, Unsupported(u)
}

func (e *Evaluator) evalArgs(nodes []Node, scope Scope) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(nodes))
	for i, a := range nodes {
		v, err := e.eval(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (e *Evaluator) readMember(m *Member, recv reflect.Value) (reflect.Value, error) {
	if !recv.IsValid() {
		return reflect.Value{}, Errorf(m, ErrUnsupportedExpression, "member %s of nil value", m.Name)
	}
	typ := recv.Type()
	if cached, ok := e.members.Load(m); ok {
		if acc := cached.(*memberAccessor); acc.typ == typ {
			return acc.read(recv)
		}
	}
	acc, err := compileMember(m, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	e.members.Store(m, acc)
	return acc.read(recv)
}

func compileMember(m *Member, typ reflect.Type) (*memberAccessor, error) {
	if method, ok := typ.MethodByName(m.Name); ok && isGetter(method.Type) {
		index := method.Index
		return &memberAccessor{typ: typ, read: func(v reflect.Value) (reflect.Value, error) {
			return callFunc(m, v.Method(index), nil)
		}}, nil
	}

	base, derefs := typ, 0
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
		derefs++
	}

	switch base.Kind() {
	case reflect.Struct:
		f, ok := base.FieldByName(m.Name)
		if !ok || !f.IsExported() {
			break
		}
		index := f.Index
		return &memberAccessor{typ: typ, read: func(v reflect.Value) (reflect.Value, error) {
			for i := 0; i < derefs; i++ {
				if v.IsNil() {
					return reflect.Value{}, Errorf(m, ErrUnsupportedExpression, "member %s of nil pointer", m.Name)
				}
				v = v.Elem()
			}
			fv, err := v.FieldByIndexErr(index)
			if err != nil {
				return reflect.Value{}, Errorf(m, ErrUnsupportedExpression, "%v", err)
			}
			return settle(fv), nil
		}}, nil

	case reflect.Map:
		if base.Key().Kind() != reflect.String {
			break
		}
		key := reflect.ValueOf(m.Name).Convert(base.Key())
		return &memberAccessor{typ: typ, read: func(v reflect.Value) (reflect.Value, error) {
			for i := 0; i < derefs; i++ {
				v = v.Elem()
			}
			return settle(v.MapIndex(key)), nil
		}}, nil
	}

	return nil, Errorf(m, ErrUnsupportedExpression, "type %v has no readable member %s", typ, m.Name)
}

// isGetter informa se um método obtido via reflect.Type não recebe nada
// além do receptor e devolve um valor (com ou sem error).
func isGetter(t reflect.Type) bool {
	if t.NumIn() != 1 {
		return false
	}
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	}
	return false
}

var errorType = reflect.TypeFor[error]()

func (e *Evaluator) evalCall(c *Call, scope Scope) (reflect.Value, error) {
	args, err := e.evalArgs(c.Args, scope)
	if err != nil {
		return reflect.Value{}, err
	}

	if c.Target == nil {
		if c.Func != nil {
			fn := reflect.ValueOf(c.Func)
			if fn.Kind() != reflect.Func {
				return reflect.Value{}, Errorf(c, ErrUnsupportedExpression, "%T is not a function", c.Func)
			}
			return callFunc(c, fn, args)
		}
		return callBuiltin(c, reflect.Value{}, args)
	}

	recv, err := e.eval(c.Target, scope)
	if err != nil {
		return reflect.Value{}, err
	}
	if recv.IsValid() {
		if method := recv.MethodByName(c.Method); method.IsValid() {
			return callFunc(c, method, args)
		}
	}
	return callBuiltin(c, recv, args)
}

func (e *Evaluator) evalArray(a *NewArray, scope Scope) (reflect.Value, error) {
	if a.Elem == nil || a.Elem.Kind() != reflect.Uint8 {
		return reflect.Value{}, Errorf(a, ErrUnsupportedType, "array literal of %v", a.Elem)
	}
	out := reflect.MakeSlice(reflect.SliceOf(a.Elem), len(a.Elems), len(a.Elems))
	for i, el := range a.Elems {
		v, err := e.eval(el, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		cv, err := convertTo(a, v, a.Elem)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(cv)
	}
	return out, nil
}

func (e *Evaluator) evalInit(m *MemberInit, scope Scope) (reflect.Value, error) {
	if m.Type == nil {
		out := make(map[string]any, len(m.Bindings))
		for _, b := range m.Bindings {
			v, err := e.eval(b.Value, scope)
			if err != nil {
				return reflect.Value{}, err
			}
			out[b.Member] = valueOf(v)
		}
		return reflect.ValueOf(out), nil
	}

	typ, ptr := m.Type, false
	if typ.Kind() == reflect.Pointer {
		typ, ptr = typ.Elem(), true
	}
	if typ.Kind() != reflect.Struct {
		return reflect.Value{}, Errorf(m, ErrUnsupportedType, "initializer of %v", m.Type)
	}

	obj := reflect.New(typ)
	for _, b := range m.Bindings {
		f, ok := typ.FieldByName(b.Member)
		if !ok || !f.IsExported() {
			return reflect.Value{}, Errorf(m, ErrUnsupportedExpression, "type %v has no settable member %s", typ, b.Member)
		}
		v, err := e.eval(b.Value, scope)
		if err != nil {
			return reflect.Value{}, err
		}
		cv, err := convertTo(m, v, f.Type)
		if err != nil {
			return reflect.Value{}, err
		}
		obj.Elem().FieldByIndex(f.Index).Set(cv)
	}
	if ptr {
		return obj, nil
	}
	return obj.Elem(), nil
}

// callFunc chama fn convertendo os argumentos para os tipos dos parâmetros.
// Um error no último retorno vira o erro da chamada.
func callFunc(n Node, fn reflect.Value, args []reflect.Value) (reflect.Value, error) {
	t := fn.Type()
	if (!t.IsVariadic() && len(args) != t.NumIn()) || (t.IsVariadic() && len(args) < t.NumIn()-1) {
		return reflect.Value{}, Errorf(n, ErrUnsupportedExpression, "expected %d arguments, got %d", t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(i)
		}
		cv, err := convertTo(n, a, pt)
		if err != nil {
			return reflect.Value{}, err
		}
		in[i] = cv
	}

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return reflect.Value{}, nil
	case 1:
		return settle(out[0]), nil
	case 2:
		if t.Out(1) == errorType {
			if err, _ := out[1].Interface().(error); err != nil {
				return reflect.Value{}, &Error{Node: n, Err: err}
			}
			return settle(out[0]), nil
		}
	}
	return reflect.Value{}, Errorf(n, ErrUnsupportedExpression, "function returns %d values", len(out))
}

func convertTo(n Node, v reflect.Value, typ reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		switch typ.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, Errorf(n, ErrUnsupportedType, "nil is not assignable to %v", typ)
	}
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	if v.Type().ConvertibleTo(typ) && sameFamily(v.Kind(), typ.Kind()) {
		return v.Convert(typ), nil
	}
	return reflect.Value{}, Errorf(n, ErrUnsupportedType, "cannot use %v as %v", v.Type(), typ)
}

// sameFamily barra conversões do reflect que mudam o sentido do valor, como
// um int virando uma string de uma runa.
func sameFamily(a, b reflect.Kind) bool {
	return isNumber(a) == isNumber(b) && (a == reflect.String) == (b == reflect.String)
}

// settle desembrulha interfaces para quem chama ver sempre o valor dinâmico.
func settle(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

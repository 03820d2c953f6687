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
	"fmt"
	"reflect"

	"github.com/raywall/fast-table-toolkit/expr"
)

func sequence(seq any) (reflect.Value, error) {
	v := reflect.ValueOf(seq)
	if v.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("query: continuation expects a sequence, got %T", seq)
	}
	return v, nil
}

// projection reaplica o lambda do Select a cada elemento materializado.
func projection(ev *expr.Evaluator, proj *expr.Lambda) Continuation {
	param := proj.Params[0]
	elem := resultType(proj)
	return func(seq any) (any, error) {
		in, err := sequence(seq)
		if err != nil {
			return nil, err
		}
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, in.Len())
		for i := 0; i < in.Len(); i++ {
			v, err := ev.Eval(proj.Body, expr.Scope{param: in.Index(i).Interface()})
			if err != nil {
				return nil, err
			}
			rv := reflect.ValueOf(v)
			if !rv.IsValid() {
				rv = reflect.Zero(elem)
			}
			if !rv.Type().AssignableTo(elem) {
				return nil, fmt.Errorf("query: projection produced %T, want %v", v, elem)
			}
			out = reflect.Append(out, rv)
		}
		return out.Interface(), nil
	}
}

// resultType é o tipo estático do corpo da projeção, ou any quando só se
// conhece depois de avaliar.
func resultType(proj *expr.Lambda) reflect.Type {
	switch b := proj.Body.(type) {
	case *expr.MemberInit:
		if b.Type != nil {
			return b.Type
		}
		return reflect.TypeFor[map[string]any]()
	case *expr.Member:
		if p, ok := b.Target.(*expr.Parameter); ok && p.Type != nil {
			t := p.Type
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if t.Kind() == reflect.Struct {
				if f, ok := t.FieldByName(b.Name); ok {
					return f.Type
				}
			}
		}
	case *expr.Parameter:
		if b.Type != nil {
			return b.Type
		}
	}
	return reflect.TypeFor[any]()
}

func limit(n int64) Continuation {
	return func(seq any) (any, error) {
		in, err := sequence(seq)
		if err != nil {
			return nil, err
		}
		if int64(in.Len()) <= n {
			return seq, nil
		}
		return in.Slice(0, int(n)).Interface(), nil
	}
}

func first(orDefault bool) func() Continuation {
	return func() Continuation {
		return func(seq any) (any, error) {
			in, err := sequence(seq)
			if err != nil {
				return nil, err
			}
			if in.Len() == 0 {
				if orDefault {
					return reflect.Zero(in.Type().Elem()).Interface(), nil
				}
				return nil, ErrNoElements
			}
			return in.Index(0).Interface(), nil
		}
	}
}

func single(orDefault bool) func() Continuation {
	return func() Continuation {
		return func(seq any) (any, error) {
			in, err := sequence(seq)
			if err != nil {
				return nil, err
			}
			switch in.Len() {
			case 0:
				if orDefault {
					return reflect.Zero(in.Type().Elem()).Interface(), nil
				}
				return nil, ErrNoElements
			case 1:
				return in.Index(0).Interface(), nil
			}
			return nil, ErrMoreThanOneElement
		}
	}
}

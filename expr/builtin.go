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
	"bytes"
	"reflect"
	"strings"
	"time"
)

// callBuiltin resolve os métodos que o avaliador conhece sem um método Go:
// Contains, CompareTo, Compare, CompareOrdinal e Equals.
func callBuiltin(c *Call, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
	static := c.Target == nil
	if static && len(args) > 0 {
		recv, args = args[0], args[1:]
	}

	switch c.Method {
	case "Contains":
		if len(args) != 1 {
			break
		}
		ok, err := containsValue(c, recv, args[0])
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(ok), nil

	case "CompareTo", "Compare", "CompareOrdinal":
		if len(args) != 1 || (c.Method == "CompareTo") == static {
			break
		}
		cmp, ok := Compare(valueOf(recv), valueOf(args[0]))
		if !ok {
			return reflect.Value{}, Errorf(c, ErrUnsupportedType, "cannot compare %s with %s", typeName(recv), typeName(args[0]))
		}
		return reflect.ValueOf(cmp), nil

	case "Equals":
		if len(args) != 1 {
			break
		}
		return reflect.ValueOf(SameValue(valueOf(recv), valueOf(args[0]))), nil
	}
	return reflect.Value{}, Unsupported(c)
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

func containsValue(c *Call, seq, v reflect.Value) (bool, error) {
	if !seq.IsValid() {
		return false, Errorf(c, ErrUnsupportedExpression, "Contains on nil collection")
	}
	switch seq.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < seq.Len(); i++ {
			if SameValue(valueOf(settle(seq.Index(i))), valueOf(v)) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		if !v.IsValid() || !v.Type().AssignableTo(seq.Type().Key()) {
			return false, nil
		}
		return seq.MapIndex(v).IsValid(), nil
	case reflect.String:
		if v.IsValid() && v.Kind() == reflect.String {
			return strings.Contains(seq.String(), v.String()), nil
		}
	}
	return false, Errorf(c, ErrUnsupportedType, "Contains on %v", seq.Type())
}

// Elements devolve os elementos de um slice ou array.
func Elements(seq any) ([]any, bool) {
	v := settle(reflect.ValueOf(seq))
	if !v.IsValid() {
		return nil, false
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	if v.Type().Elem().Kind() == reflect.Uint8 {
		// []byte é um valor binário escalar, não uma coleção
		return nil, false
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = valueOf(settle(v.Index(i)))
	}
	return out, true
}

// SameValue compara dois escalares; todos os tipos numéricos formam uma família só.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	if cmp, ok := Compare(a, b); ok {
		return cmp == 0
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Type() == bv.Type() && av.Comparable() {
		return av.Equal(bv)
	}
	return false
}

// Compare ordena dois escalares da mesma família (strings, números, bools
// ou datas). ok é false quando os valores não são comparáveis.
func Compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}

	av, bv := settle(reflect.ValueOf(a)), settle(reflect.ValueOf(b))
	if !av.IsValid() || !bv.IsValid() {
		return 0, false
	}
	switch {
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return strings.Compare(av.String(), bv.String()), true
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		x, y := av.Bool(), bv.Bool()
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case isNumber(av.Kind()) && isNumber(bv.Kind()):
		return compareNumbers(av, bv), true
	}
	return 0, false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func compareNumbers(a, b reflect.Value) int {
	if isFloat(a.Kind()) || isFloat(b.Kind()) {
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	if isUnsigned(a.Kind()) && isUnsigned(b.Kind()) {
		x, y := a.Uint(), b.Uint()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	// sinais mistos: um uint acima de MaxInt64 é maior que qualquer int
	if isUnsigned(a.Kind()) && a.Uint() > 1<<63-1 {
		return 1
	}
	if isUnsigned(b.Kind()) && b.Uint() > 1<<63-1 {
		return -1
	}
	x, y := toInt(a), toInt(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isFloat(v.Kind()):
		return v.Float()
	case isUnsigned(v.Kind()):
		return float64(v.Uint())
	}
	return float64(v.Int())
}

func toInt(v reflect.Value) int64 {
	if isUnsigned(v.Kind()) {
		return int64(v.Uint())
	}
	return v.Int()
}

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

package mapping

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/storage"
)

// Role é o papel do membro na linha.
type Role int

const (
	RoleProperty Role = iota
	RolePartitionKey
	RoleRowKey
	RoleTimestamp
	RoleETag
)

func (r Role) String() string {
	switch r {
	case RolePartitionKey:
		return "partitionkey"
	case RoleRowKey:
		return "rowkey"
	case RoleTimestamp:
		return "timestamp"
	case RoleETag:
		return "etag"
	}
	return "property"
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	uuidType  = reflect.TypeFor[uuid.UUID]()
	bytesType = reflect.TypeFor[[]byte]()
)

// Accessor lê e grava um membro da entidade. É compilado uma vez, na
// montagem do EntityType, e compartilhado por todas as conversões do tipo.
type Accessor struct {
	Name   string
	Column string
	Type   reflect.Type
	Edm    storage.EdmType
	Role   Role

	index []int
	get   func(reflect.Value) any
	set   func(reflect.Value, any) error
}

// Get devolve o membro de entity (um struct) no formato da linha.
func (a *Accessor) Get(entity reflect.Value) any {
	f, err := entity.FieldByIndexErr(a.index)
	if err != nil {
		// ponteiro embutido nil
		return nil
	}
	return a.get(f)
}

// Value é como Get, mas falha quando o membro não cabe no tipo Edm da
// coluna (uint/uint64 acima de MaxInt64 não tem representação Int64).
func (a *Accessor) Value(entity reflect.Value) (any, error) {
	f, err := entity.FieldByIndexErr(a.index)
	if err != nil {
		return nil, nil
	}
	for f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil, nil
		}
		f = f.Elem()
	}
	switch f.Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if f.Uint() > math.MaxInt64 {
			return nil, fmt.Errorf("mapping: column %s: value %d overflows %s", a.Column, f.Uint(), storage.EdmInt64)
		}
	}
	return a.Get(entity), nil
}

// Set atribui um valor da linha ao membro de entity, que precisa ser
// endereçável. Ponteiros embutidos no caminho são alocados.
func (a *Accessor) Set(entity reflect.Value, v any) error {
	f := entity
	for i, x := range a.index {
		if i > 0 && f.Kind() == reflect.Pointer {
			if f.IsNil() {
				f.Set(reflect.New(f.Type().Elem()))
			}
			f = f.Elem()
		}
		f = f.Field(x)
	}
	if err := a.set(f, v); err != nil {
		return fmt.Errorf("mapping: column %s: %w", a.Column, err)
	}
	return nil
}

func newAccessor(f reflect.StructField, column string, role Role) (*Accessor, error) {
	edm, ok := edmFor(f.Type)
	if !ok {
		return nil, ErrUnsupportedType
	}
	get, set := compile(f.Type)
	return &Accessor{
		Name:   f.Name,
		Column: column,
		Type:   f.Type,
		Edm:    edm,
		Role:   role,
		index:  f.Index,
		get:    get,
		set:    set,
	}, nil
}

// edmFor informa o tipo do serviço em que um tipo Go é gravado.
func edmFor(t reflect.Type) (storage.EdmType, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return storage.EdmDateTime, true
	case uuidType:
		return storage.EdmGuid, true
	case bytesType:
		return storage.EdmBinary, true
	}
	switch t.Kind() {
	case reflect.String:
		return storage.EdmString, true
	case reflect.Bool:
		return storage.EdmBoolean, true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return storage.EdmInt32, true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return storage.EdmInt64, true
	case reflect.Float32, reflect.Float64:
		return storage.EdmDouble, true
	}
	return "", false
}

type getter func(reflect.Value) any
type setter func(reflect.Value, any) error

// compile escolhe o par get/set de t. Membro ponteiro aceita nulo: nil vira
// propriedade ausente e valor ausente grava nil.
func compile(t reflect.Type) (getter, setter) {
	if t.Kind() == reflect.Pointer {
		get, set := compile(t.Elem())
		return func(v reflect.Value) any {
				if v.IsNil() {
					return nil
				}
				return get(v.Elem())
			}, func(v reflect.Value, x any) error {
				if x == nil {
					v.SetZero()
					return nil
				}
				p := reflect.New(t.Elem())
				if err := set(p.Elem(), x); err != nil {
					return err
				}
				v.Set(p)
				return nil
			}
	}

	get, set := scalar(t)
	return get, func(v reflect.Value, x any) error {
		if x == nil {
			v.SetZero()
			return nil
		}
		return set(v, x)
	}
}

func scalar(t reflect.Type) (getter, setter) {
	switch t {
	case timeType:
		return func(v reflect.Value) any { return v.Interface().(time.Time).UTC() },
			func(v reflect.Value, x any) error {
				switch tm := x.(type) {
				case time.Time:
					v.Set(reflect.ValueOf(tm))
				case string:
					parsed, err := time.Parse(time.RFC3339Nano, tm)
					if err != nil {
						return err
					}
					v.Set(reflect.ValueOf(parsed))
				default:
					return mismatch(x, t)
				}
				return nil
			}
	case uuidType:
		return func(v reflect.Value) any { return v.Interface().(uuid.UUID) },
			func(v reflect.Value, x any) error {
				switch id := x.(type) {
				case uuid.UUID:
					v.Set(reflect.ValueOf(id))
				case string:
					parsed, err := uuid.Parse(id)
					if err != nil {
						return err
					}
					v.Set(reflect.ValueOf(parsed))
				default:
					return mismatch(x, t)
				}
				return nil
			}
	case bytesType:
		return func(v reflect.Value) any {
				if v.IsNil() {
					return nil
				}
				return append([]byte(nil), v.Bytes()...)
			}, func(v reflect.Value, x any) error {
				b, ok := x.([]byte)
				if !ok {
					return mismatch(x, t)
				}
				v.SetBytes(append([]byte(nil), b...))
				return nil
			}
	}

	switch t.Kind() {
	case reflect.String:
		return func(v reflect.Value) any { return v.String() },
			func(v reflect.Value, x any) error {
				s, ok := x.(string)
				if !ok {
					return mismatch(x, t)
				}
				v.SetString(s)
				return nil
			}
	case reflect.Bool:
		return func(v reflect.Value) any { return v.Bool() },
			func(v reflect.Value, x any) error {
				b, ok := x.(bool)
				if !ok {
					return mismatch(x, t)
				}
				v.SetBool(b)
				return nil
			}
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return func(v reflect.Value) any { return int32(v.Int()) }, setInt(t)
	case reflect.Int, reflect.Int64:
		return func(v reflect.Value) any { return v.Int() }, setInt(t)
	case reflect.Uint8, reflect.Uint16:
		return func(v reflect.Value) any { return int32(v.Uint()) }, setUint(t)
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return func(v reflect.Value) any { return int64(v.Uint()) }, setUint(t)
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) any { return v.Float() },
			func(v reflect.Value, x any) error {
				var f float64
				switch n := x.(type) {
				case float64:
					f = n
				case int32:
					f = float64(n)
				case int64:
					f = float64(n)
				default:
					return mismatch(x, t)
				}
				if t.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
					return fmt.Errorf("value %v overflows %v", f, t)
				}
				v.SetFloat(f)
				return nil
			}
	}
	panic("mapping: no accessor for " + t.String())
}

func integer(x any) (int64, bool) {
	switch n := x.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func setInt(t reflect.Type) setter {
	return func(v reflect.Value, x any) error {
		n, ok := integer(x)
		if !ok {
			return mismatch(x, t)
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %v", n, t)
		}
		v.SetInt(n)
		return nil
	}
}

func setUint(t reflect.Type) setter {
	return func(v reflect.Value, x any) error {
		n, ok := integer(x)
		if !ok {
			return mismatch(x, t)
		}
		if n < 0 || v.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %v", n, t)
		}
		v.SetUint(uint64(n))
		return nil
	}
}

func mismatch(x any, t reflect.Type) error {
	return fmt.Errorf("cannot assign %T to %v", x, t)
}

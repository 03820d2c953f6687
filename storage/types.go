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

package storage

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// EdmType é o nome do tipo de uma propriedade no modelo de dados do serviço.
type EdmType string

const (
	EdmString   EdmType = "Edm.String"
	EdmBoolean  EdmType = "Edm.Boolean"
	EdmInt32    EdmType = "Edm.Int32"
	EdmInt64    EdmType = "Edm.Int64"
	EdmDouble   EdmType = "Edm.Double"
	EdmGuid     EdmType = "Edm.Guid"
	EdmBinary   EdmType = "Edm.Binary"
	EdmDateTime EdmType = "Edm.DateTime"
)

// Nomes reservados das colunas de sistema.
const (
	PartitionKeyColumn = "PartitionKey"
	RowKeyColumn       = "RowKey"
	TimestampColumn    = "Timestamp"
	ETagColumn         = "ETag"
)

// WildcardETag casa com qualquer versão da linha em escritas condicionais.
const WildcardETag = "*"

// EdmTypeOf devolve o EdmType de um valor já normalizado
// (string, bool, int32, int64, float64, uuid.UUID, []byte, time.Time).
func EdmTypeOf(v any) (EdmType, bool) {
	switch v.(type) {
	case string:
		return EdmString, true
	case bool:
		return EdmBoolean, true
	case int32:
		return EdmInt32, true
	case int64:
		return EdmInt64, true
	case float64:
		return EdmDouble, true
	case uuid.UUID:
		return EdmGuid, true
	case []byte:
		return EdmBinary, true
	case time.Time:
		return EdmDateTime, true
	}
	return "", false
}

// Normalize converte um valor Go para a forma canônica aceita em Properties.
// nil permanece nil (propriedade nula).
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string, bool, int32, int64, float64, uuid.UUID, []byte:
		return t, nil
	case time.Time:
		return t.UTC(), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return int32(rv.Int()), nil
	case reflect.Uint8, reflect.Uint16:
		return int32(rv.Uint()), nil
	case reflect.Int, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return nil, fmt.Errorf("storage: value %d overflows %s", rv.Uint(), EdmInt64)
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, fmt.Errorf("storage: unsupported property type %T", v)
}

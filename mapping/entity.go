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
	"reflect"
	"time"

	"github.com/raywall/fast-table-toolkit/storage"
)

// EntityType é o descritor imutável de um struct mapeado.
type EntityType struct {
	typ          reflect.Type
	partitionKey *Accessor
	rowKey       *Accessor
	timestamp    *Accessor
	etag         *Accessor
	properties   []*Accessor
	byMember     map[string]*Accessor
	remap        map[string]string
}

func (e *EntityType) slot(role Role) (**Accessor, string) {
	switch role {
	case RolePartitionKey:
		return &e.partitionKey, storage.PartitionKeyColumn
	case RoleRowKey:
		return &e.rowKey, storage.RowKeyColumn
	case RoleTimestamp:
		return &e.timestamp, storage.TimestampColumn
	case RoleETag:
		return &e.etag, storage.ETagColumn
	}
	panic("mapping: no slot for " + role.String())
}

func (e *EntityType) Type() reflect.Type      { return e.typ }
func (e *EntityType) PartitionKey() *Accessor { return e.partitionKey }
func (e *EntityType) RowKey() *Accessor       { return e.rowKey }

// Timestamp devolve o acessor do timestamp, ou nil se não houver.
func (e *EntityType) Timestamp() *Accessor { return e.timestamp }

// ETag devolve o acessor da tag de concorrência, ou nil se não houver.
func (e *EntityType) ETag() *Accessor { return e.etag }

// Properties devolve os membros comuns na ordem de declaração.
func (e *EntityType) Properties() []*Accessor {
	return append([]*Accessor(nil), e.properties...)
}

// Accessor devolve o acessor de member.
func (e *EntityType) Accessor(member string) (*Accessor, bool) {
	a, ok := e.byMember[member]
	return a, ok
}

// ColumnName traduz um membro para a coluna. Nome desconhecido volta como
// veio.
func (e *EntityType) ColumnName(member string) string {
	if c, ok := e.remap[member]; ok {
		return c
	}
	return member
}

// Remap devolve uma cópia da tabela membro -> coluna.
func (e *EntityType) Remap() map[string]string {
	out := make(map[string]string, len(e.remap))
	for k, v := range e.remap {
		out[k] = v
	}
	return out
}

// Columns devolve as colunas das propriedades na ordem de declaração.
func (e *EntityType) Columns() []string {
	out := make([]string, len(e.properties))
	for i, a := range e.properties {
		out[i] = a.Column
	}
	return out
}

func (e *EntityType) value(entity any) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, ErrNilEntity
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, ErrNilEntity
		}
		v = v.Elem()
	}
	if v.Type() != e.typ {
		return reflect.Value{}, fmt.Errorf("%w: %v is not %v", ErrTypeMismatch, v.Type(), e.typ)
	}
	return v, nil
}

// ToRow converte entity (valor ou ponteiro do tipo mapeado) em linha. Sem
// membro ETag mapeado a linha leva a tag curinga.
func (e *EntityType) ToRow(entity any) (*storage.Row, error) {
	v, err := e.value(entity)
	if err != nil {
		return nil, err
	}
	pk, _ := e.partitionKey.Get(v).(string)
	rk, _ := e.rowKey.Get(v).(string)
	row := storage.NewRow(pk, rk)
	if e.timestamp != nil {
		if ts, ok := e.timestamp.Get(v).(time.Time); ok {
			row.Timestamp = ts
		}
	}
	row.ETag = storage.WildcardETag
	if e.etag != nil {
		if tag, _ := e.etag.Get(v).(string); tag != "" {
			row.ETag = tag
		}
	}
	for _, a := range e.properties {
		x, err := a.Value(v)
		if err != nil {
			return nil, err
		}
		if x != nil {
			row.Properties.Set(a.Column, x)
		}
	}
	return row, nil
}

// FromRow monta uma entidade nova a partir de row e devolve um ponteiro do
// tipo mapeado.
func (e *EntityType) FromRow(row *storage.Row) (any, error) {
	ptr := reflect.New(e.typ)
	if err := e.fill(row, ptr.Elem()); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

// FromRowInto preenche dst, ponteiro não nil do tipo mapeado.
func (e *EntityType) FromRowInto(row *storage.Row, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return ErrNilEntity
	}
	if v.Elem().Type() != e.typ {
		return fmt.Errorf("%w: %v is not %v", ErrTypeMismatch, v.Elem().Type(), e.typ)
	}
	return e.fill(row, v.Elem())
}

func (e *EntityType) fill(row *storage.Row, v reflect.Value) error {
	if row == nil {
		return ErrNilRow
	}
	if err := e.partitionKey.Set(v, row.PartitionKey); err != nil {
		return err
	}
	if err := e.rowKey.Set(v, row.RowKey); err != nil {
		return err
	}
	if e.timestamp != nil && !row.Timestamp.IsZero() {
		if err := e.timestamp.Set(v, row.Timestamp); err != nil {
			return err
		}
	}
	if e.etag != nil {
		if err := e.etag.Set(v, row.ETag); err != nil {
			return err
		}
	}
	for _, a := range e.properties {
		x, ok := row.Properties.Get(a.Column)
		if !ok {
			continue
		}
		if err := a.Set(v, x); err != nil {
			return err
		}
	}
	return nil
}

// Decode converte row em T usando e.
func Decode[T any](e *EntityType, row *storage.Row) (T, error) {
	var out T
	if err := e.FromRowInto(row, &out); err != nil {
		return out, err
	}
	return out, nil
}

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
	"reflect"
	"sort"

	"github.com/raywall/fast-table-toolkit/storage"
)

// Mapper é implementado por tipos que descrevem o próprio mapeamento. O
// Registry prefere ele às tags.
type Mapper interface {
	MapEntity(b *Builder)
}

type roleAssignment struct {
	member string
	role   Role
}

// Builder é o rascunho de um EntityType. Os métodos só registram a intenção
// e devolvem o builder para encadear; a validação acontece uma vez, no Build.
type Builder struct {
	typ      reflect.Type
	roles    []roleAssignment
	columns  map[string]string
	explicit []string
	ignored  map[string]bool
	errs     []error
}

// NewMap inicia o mapeamento de T.
func NewMap[T any]() *Builder {
	return NewMapFor(reflect.TypeFor[T]())
}

// NewMapFor inicia o mapeamento de t. Ponteiro mapeia o elemento.
func NewMapFor(t reflect.Type) *Builder {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &Builder{
		typ:     t,
		columns: map[string]string{},
		ignored: map[string]bool{},
	}
}

func (b *Builder) assign(member string, role Role) *Builder {
	b.roles = append(b.roles, roleAssignment{member: member, role: role})
	return b
}

// PartitionKey define o membro da partition key (string).
func (b *Builder) PartitionKey(member string) *Builder { return b.assign(member, RolePartitionKey) }

// RowKey define o membro da row key (string).
func (b *Builder) RowKey(member string) *Builder { return b.assign(member, RoleRowKey) }

// Timestamp define o membro que recebe o timestamp do serviço.
func (b *Builder) Timestamp(member string) *Builder { return b.assign(member, RoleTimestamp) }

// ETag define o membro da tag de concorrência (string).
func (b *Builder) ETag(member string) *Builder { return b.assign(member, RoleETag) }

// Property grava member na coluna column em vez do próprio nome.
func (b *Builder) Property(member, column string) *Builder {
	if prev, ok := b.columns[member]; ok && prev != column {
		b.errs = append(b.errs, b.fail(member, ErrConflictingMember, "column "+prev+" and "+column))
		return b
	}
	if _, ok := b.columns[member]; !ok {
		b.explicit = append(b.explicit, member)
	}
	b.columns[member] = column
	return b
}

// Ignore deixa os membros fora do mapeamento.
func (b *Builder) Ignore(members ...string) *Builder {
	for _, m := range members {
		b.ignored[m] = true
	}
	return b
}

func (b *Builder) fail(member string, err error, detail string) *MappingError {
	return &MappingError{Type: b.typ, Member: member, Err: err, Detail: detail}
}

// Build valida as invariantes e mapeia automaticamente os membros exportados
// restantes que não foram ignorados. A primeira violação volta como
// *MappingError.
func (b *Builder) Build() (*EntityType, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.typ == nil || b.typ.Kind() != reflect.Struct {
		return nil, &MappingError{Type: b.typ, Err: ErrNotStruct}
	}

	fields := mappableFields(b.typ)
	for _, m := range sortedKeys(b.ignored) {
		if _, ok := fields[m]; !ok {
			return nil, b.fail(m, ErrUnknownMember, "ignored")
		}
	}
	e := &EntityType{
		typ:      b.typ,
		byMember: map[string]*Accessor{},
		remap:    map[string]string{},
	}
	used := map[string]string{} // column -> member

	lookup := func(member string) (reflect.StructField, error) {
		f, ok := fields[member]
		if !ok {
			return f, b.fail(member, ErrUnknownMember, "")
		}
		if b.ignored[member] {
			return f, b.fail(member, ErrConflictingMember, "member is both mapped and ignored")
		}
		return f, nil
	}
	add := func(a *Accessor) error {
		if prev, ok := used[a.Column]; ok {
			return b.fail(a.Name, ErrConflictingMember, "column "+a.Column+" already used by "+prev)
		}
		used[a.Column] = a.Name
		e.byMember[a.Name] = a
		e.remap[a.Name] = a.Column
		return nil
	}

	for _, ra := range b.roles {
		f, err := lookup(ra.member)
		if err != nil {
			return nil, err
		}
		if prev, ok := e.byMember[ra.member]; ok {
			return nil, b.fail(ra.member, ErrConflictingMember, "already the "+prev.Role.String())
		}
		if _, ok := b.columns[ra.member]; ok {
			return nil, b.fail(ra.member, ErrConflictingMember, "key members cannot be renamed")
		}
		slot, column := e.slot(ra.role)
		if *slot != nil {
			return nil, b.fail(ra.member, ErrDuplicateRole, ra.role.String()+" is already "+(*slot).Name)
		}
		if !roleAccepts(ra.role, f.Type) {
			return nil, b.fail(ra.member, ErrKeyType, ra.role.String()+" cannot be "+f.Type.String())
		}
		a, err := newAccessor(f, column, ra.role)
		if err != nil {
			return nil, b.fail(ra.member, err, f.Type.String())
		}
		if err := add(a); err != nil {
			return nil, err
		}
		*slot = a
	}

	if e.partitionKey == nil {
		return nil, b.fail("", ErrMissingPartitionKey, "")
	}
	if e.rowKey == nil {
		return nil, b.fail("", ErrMissingRowKey, "")
	}

	for _, member := range b.explicit {
		f, err := lookup(member)
		if err != nil {
			return nil, err
		}
		if err := e.addProperty(b, f, b.columns[member], add); err != nil {
			return nil, err
		}
	}
	for _, name := range orderedNames(fields) {
		if b.ignored[name] || e.byMember[name] != nil {
			continue
		}
		if err := e.addProperty(b, fields[name], name, add); err != nil {
			return nil, err
		}
	}

	// propriedades seguem a ordem de declaração, qualquer que seja a ordem do mapeamento
	sort.SliceStable(e.properties, func(i, j int) bool {
		return lessIndex(e.properties[i].index, e.properties[j].index)
	})
	return e, nil
}

func (e *EntityType) addProperty(b *Builder, f reflect.StructField, column string, add func(*Accessor) error) error {
	if reserved(column) {
		return b.fail(f.Name, ErrConflictingMember, "column "+column+" is reserved")
	}
	a, err := newAccessor(f, column, RoleProperty)
	if err != nil {
		return b.fail(f.Name, err, f.Type.String())
	}
	if err := add(a); err != nil {
		return err
	}
	e.properties = append(e.properties, a)
	return nil
}

func reserved(column string) bool {
	switch column {
	case storage.PartitionKeyColumn, storage.RowKeyColumn, storage.TimestampColumn, storage.ETagColumn:
		return true
	}
	return false
}

func roleAccepts(role Role, t reflect.Type) bool {
	switch role {
	case RolePartitionKey, RoleRowKey, RoleETag:
		return t.Kind() == reflect.String
	case RoleTimestamp:
		return t == timeType || t == reflect.PointerTo(timeType)
	}
	return true
}

// mappableFields devolve os membros exportados de t, inclusive os de structs
// embutidos exportados, indexados pelo nome.
func mappableFields(t reflect.Type) map[string]reflect.StructField {
	out := map[string]reflect.StructField{}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || !reachable(t, f.Index) {
			continue
		}
		if _, ok := t.FieldByName(f.Name); !ok {
			// ambíguo nessa profundidade
			continue
		}
		out[f.Name] = f
	}
	return out
}

func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		f := t.Field(i)
		if !f.IsExported() {
			return false
		}
		t = f.Type
	}
	return true
}

func orderedNames(fields map[string]reflect.StructField) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return lessIndex(fields[names[i]].Index, fields[names[j]].Index)
	})
	return names
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

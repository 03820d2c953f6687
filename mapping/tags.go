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
	"strings"
)

// TagName é a tag lida no modo por tags.
const TagName = "table"

var tagRoles = map[string]Role{
	"partitionkey": RolePartitionKey,
	"rowkey":       RoleRowKey,
	"timestamp":    RoleTimestamp,
	"etag":         RoleETag,
}

// FromTags monta o descritor de t a partir das tags `table`:
//
//	`table:"Column"`               gravado na coluna Column
//	`table:",partitionkey"`        partition key (idem rowkey, timestamp, etag)
//	`table:"-"`                    ignorado
//
// Membro exportado sem tag é gravado com o próprio nome.
func FromTags(t reflect.Type) (*EntityType, error) {
	b := NewMapFor(t)
	if b.typ == nil || b.typ.Kind() != reflect.Struct {
		return nil, &MappingError{Type: b.typ, Err: ErrNotStruct}
	}
	fields := mappableFields(b.typ)
	for _, name := range orderedNames(fields) {
		tag, ok := fields[name].Tag.Lookup(TagName)
		if !ok {
			continue
		}
		if tag == "-" {
			b.Ignore(name)
			continue
		}
		column, opts, _ := strings.Cut(tag, ",")
		keyed := false
		for _, opt := range strings.Split(opts, ",") {
			opt = strings.ToLower(strings.TrimSpace(opt))
			if opt == "" {
				continue
			}
			role, ok := tagRoles[opt]
			if !ok {
				return nil, b.fail(name, ErrInvalidTag, opt)
			}
			b.assign(name, role)
			keyed = true
		}
		// membros de chave sempre usam os nomes reservados
		if column != "" && !keyed {
			b.Property(name, column)
		}
	}
	return b.Build()
}

// FromTagsOf é FromTags para T.
func FromTagsOf[T any]() (*EntityType, error) {
	return FromTags(reflect.TypeFor[T]())
}

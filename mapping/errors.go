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
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrMissingPartitionKey = errors.New("no partition key member")
	ErrMissingRowKey       = errors.New("no row key member")
	ErrDuplicateRole       = errors.New("role assigned to more than one member")
	ErrKeyType             = errors.New("member type not allowed for its role")
	ErrUnknownMember       = errors.New("no such member")
	ErrUnsupportedType     = errors.New("member type not supported")
	ErrConflictingMember   = errors.New("member or column mapped twice")
	ErrNotStruct           = errors.New("entity type must be a struct")
	ErrInvalidTag          = errors.New("unknown table tag option")

	// ErrNilEntity e ErrNilRow são erros de conversão.
	ErrNilEntity = errors.New("mapping: nil entity")
	ErrNilRow    = errors.New("mapping: nil row")
	// ErrTypeMismatch: conversão de um valor de outro tipo.
	ErrTypeMismatch = errors.New("mapping: entity type mismatch")
	// ErrAlreadyRegistered: já existe outro descritor registrado para o
	// tipo.
	ErrAlreadyRegistered = errors.New("mapping: type already registered")
)

// MappingError é o único tipo de erro para mapeamento inválido, venha ele
// das tags ou de um Builder.
type MappingError struct {
	Type   reflect.Type
	Member string
	Err    error
	Detail string
}

func (e *MappingError) Error() string {
	msg := fmt.Sprintf("mapping: %v", e.Type)
	if e.Member != "" {
		msg += "." + e.Member
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *MappingError) Unwrap() error { return e.Err }

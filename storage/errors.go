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
	"errors"
	"fmt"
)

var (
	// ErrNoEntities é devolvido quando um lote é pedido sem nenhuma mutação.
	ErrNoEntities = errors.New("storage: no entities to process")
	// ErrNotFound indica que a linha alvo não existe.
	ErrNotFound = errors.New("storage: entity not found")
	// ErrEntityExists indica conflito de chave em um Insert.
	ErrEntityExists = errors.New("storage: entity already exists")
	// ErrPreconditionFailed indica que a ETag informada não confere.
	ErrPreconditionFailed = errors.New("storage: precondition failed")
	// ErrMixedPartitions indica um lote com mais de uma PartitionKey.
	ErrMixedPartitions = errors.New("storage: batch spans more than one partition")
	// ErrBatchTooLarge indica um lote acima de MaxBatchSize.
	ErrBatchTooLarge = errors.New("storage: batch exceeds maximum size")
)

// OperationError identifica qual operação de um lote falhou.
type OperationError struct {
	Index        int
	Type         OperationType
	PartitionKey string
	RowKey       string
	Err          error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("storage: operation %d (%s %s/%s) failed: %v",
		e.Index, e.Type, e.PartitionKey, e.RowKey, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

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
	"strings"
)

// MaxBatchSize é o limite fixo de operações por lote do serviço.
const MaxBatchSize = 100

// OperationType é o tipo de mutação aplicada a uma linha.
type OperationType int

const (
	Insert OperationType = iota
	InsertOrReplace
	InsertOrMerge
	Replace
	Merge
	Delete
)

var operationNames = map[OperationType]string{
	Insert:          "Insert",
	InsertOrReplace: "InsertOrReplace",
	InsertOrMerge:   "InsertOrMerge",
	Replace:         "Replace",
	Merge:           "Merge",
	Delete:          "Delete",
}

func (t OperationType) String() string {
	if name, ok := operationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OperationType(%d)", int(t))
}

// ParseOperationType converte o nome (sem diferenciar caixa) em OperationType.
func ParseOperationType(name string) (OperationType, error) {
	for t, n := range operationNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("storage: unknown operation %q", name)
}

// ConditionalOnETag informa se a operação exige conferência de ETag.
func (t OperationType) ConditionalOnETag() bool {
	return t == Replace || t == Merge || t == Delete
}

// Operation é uma mutação sobre uma linha materializada.
type Operation struct {
	Type OperationType
	Row  *Row
}

// Batch é uma sequência ordenada de operações submetida atomicamente.
type Batch []Operation

// PartitionKey devolve a chave da primeira operação do lote.
func (b Batch) PartitionKey() string {
	if len(b) == 0 || b[0].Row == nil {
		return ""
	}
	return b[0].Row.PartitionKey
}

// SinglePartition informa se todas as operações compartilham a mesma PartitionKey.
func (b Batch) SinglePartition() bool {
	pk := b.PartitionKey()
	for _, op := range b {
		if op.Row == nil || op.Row.PartitionKey != pk {
			return false
		}
	}
	return true
}

// Result é o resultado de uma operação individual de um lote.
type Result struct {
	Type         OperationType
	PartitionKey string
	RowKey       string
	ETag         string
}

// PartitionMode controla como as operações são agrupadas em lotes.
type PartitionMode int

const (
	// PartitionNone trata a entrada como um fluxo único, apenas fatiado por capacidade.
	PartitionNone PartitionMode = iota
	// PartitionSequential se comporta como PartitionNone; os lotes são executados em sequência.
	PartitionSequential
	// PartitionParallel agrupa por PartitionKey antes de fatiar; os lotes podem ser executados em paralelo.
	PartitionParallel
)

func (m PartitionMode) String() string {
	switch m {
	case PartitionNone:
		return "none"
	case PartitionSequential:
		return "sequential"
	case PartitionParallel:
		return "parallel"
	}
	return fmt.Sprintf("PartitionMode(%d)", int(m))
}

// Partition agrupa as operações em lotes de no máximo MaxBatchSize.
//
// Em PartitionParallel as operações são agrupadas por PartitionKey (na ordem
// em que cada chave aparece pela primeira vez, mantendo a ordem interna de
// cada grupo) e cada grupo é fatiado de forma independente. Nos demais modos
// a entrada é fatiada como um fluxo único.
func Partition(ops []Operation, mode PartitionMode) ([]Batch, error) {
	if len(ops) == 0 {
		return nil, ErrNoEntities
	}
	for i, op := range ops {
		if op.Row == nil {
			return nil, fmt.Errorf("storage: operation %d has no row", i)
		}
	}

	if mode != PartitionParallel {
		return chunk(ops), nil
	}

	var order []string
	groups := make(map[string][]Operation)
	for _, op := range ops {
		pk := op.Row.PartitionKey
		if _, ok := groups[pk]; !ok {
			order = append(order, pk)
		}
		groups[pk] = append(groups[pk], op)
	}

	var batches []Batch
	for _, pk := range order {
		batches = append(batches, chunk(groups[pk])...)
	}
	return batches, nil
}

func chunk(ops []Operation) []Batch {
	batches := make([]Batch, 0, (len(ops)+MaxBatchSize-1)/MaxBatchSize)
	for i := 0; i < len(ops); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(ops) {
			end = len(ops)
		}
		b := make(Batch, end-i)
		copy(b, ops[i:end])
		batches = append(batches, b)
	}
	return batches
}

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
	"context"
	"time"
)

// Row é a unidade de transporte do serviço: duas chaves string, o timestamp
// de sistema, a tag de concorrência opaca e as propriedades tipadas.
type Row struct {
	PartitionKey string
	RowKey       string
	Timestamp    time.Time
	ETag         string
	Properties   *Properties
}

// NewRow cria uma linha com o saco de propriedades inicializado.
func NewRow(partitionKey, rowKey string) *Row {
	return &Row{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		Properties:   NewProperties(),
	}
}

// Clone devolve uma cópia independente da linha.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	out := *r
	out.Properties = r.Properties.Clone()
	return &out
}

// Project devolve uma cópia contendo apenas as colunas pedidas. As colunas de
// sistema são sempre mantidas. Uma lista vazia devolve todas as propriedades.
func (r *Row) Project(columns []string) *Row {
	out := r.Clone()
	if len(columns) == 0 {
		return out
	}
	keep := make(map[string]bool, len(columns))
	for _, c := range columns {
		keep[c] = true
	}
	for _, k := range out.Properties.Keys() {
		if !keep[k] {
			out.Properties.Delete(k)
		}
	}
	return out
}

// Value devolve o valor de uma coluna, incluindo as colunas de sistema.
func (r *Row) Value(column string) (any, bool) {
	switch column {
	case PartitionKeyColumn:
		return r.PartitionKey, true
	case RowKeyColumn:
		return r.RowKey, true
	case TimestampColumn:
		if r.Timestamp.IsZero() {
			return nil, false
		}
		return r.Timestamp, true
	}
	return r.Properties.Get(column)
}

// Query é o que o executor de consultas recebe: filtro textual, colunas
// projetadas e limite de linhas. Campos nil significam "sem restrição".
type Query struct {
	Filter *string
	Select []string
	Top    *int32
}

// QueryExecutor executa uma consulta remota, segue os tokens de continuação
// internamente e devolve as linhas cruas.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, table string, q Query) ([]*Row, error)
}

// BatchExecutor submete um lote já particionado e devolve um Result por
// operação, na ordem de submissão.
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, table string, batch Batch) ([]Result, error)
}

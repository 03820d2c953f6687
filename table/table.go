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

package table

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/raywall/fast-table-toolkit/mapping"
	"github.com/raywall/fast-table-toolkit/pkg/metrics"
	"github.com/raywall/fast-table-toolkit/query"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// ErrNotSequence é devolvido por Find quando a consulta termina em um
// operador que não produz []T (Select, First, Single).
var ErrNotSequence = errors.New("table: query does not produce a sequence of entities")

// Table é uma tabela remota vista como uma coleção de T.
type Table[T any] struct {
	name    string
	queries storage.QueryExecutor
	batches storage.BatchExecutor
	entity  *mapping.EntityType
	settings
}

// New cria um Table para T. O mapeamento de T é resolvido aqui, então um
// mapeamento inválido falha na construção.
func New[T any](name string, queries storage.QueryExecutor, batches storage.BatchExecutor, opts ...Option) (*Table[T], error) {
	s := settings{
		registry: mapping.Default,
		log:      zerolog.Nop(),
		metrics:  metrics.Nop(),
		mode:     storage.PartitionSequential,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.translator == nil {
		s.translator = query.NewTranslator(query.WithLogger(s.log))
	}

	entity, err := mapping.For[T](s.registry)
	if err != nil {
		return nil, err
	}
	return &Table[T]{
		name:     name,
		queries:  queries,
		batches:  batches,
		entity:   entity,
		settings: s,
	}, nil
}

// Name devolve o nome da tabela.
func (t *Table[T]) Name() string { return t.name }

// EntityType devolve o descritor de T.
func (t *Table[T]) EntityType() *mapping.EntityType { return t.entity }

// Query inicia uma consulta sobre a tabela.
func (t *Table[T]) Query() *query.Query[T] { return query.From[T]() }

// Translate traduz q sem executá-la.
func (t *Table[T]) Translate(q *query.Query[T]) (*query.Result, error) {
	return t.translator.Translate(q.Expression(), t.entity)
}

// Execute traduz e executa q. O resultado é []T, um T, ou o formato
// produzido pelo Select da consulta.
func (t *Table[T]) Execute(ctx context.Context, q *query.Query[T]) (any, error) {
	if t.queries == nil {
		return nil, fmt.Errorf("table %s: no query executor", t.name)
	}
	res, err := t.Translate(q)
	if err != nil {
		return nil, err
	}

	tags := []string{"table:" + t.name}
	_ = t.metrics.Count("table.query.count", 1, tags)

	rows, err := t.queries.ExecuteQuery(ctx, t.name, res.StorageQuery())
	if err != nil {
		t.log.Error().Err(err).Str("table", t.name).Msg("query failed")
		return nil, fmt.Errorf("table %s: query failed: %w", t.name, err)
	}
	_ = t.metrics.Histogram("table.query.rows", float64(len(rows)), tags)

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := mapping.Decode[T](t.entity, row)
		if err != nil {
			return nil, fmt.Errorf("table %s: row %s/%s: %w", t.name, row.PartitionKey, row.RowKey, err)
		}
		items = append(items, item)
	}

	t.log.Debug().Str("table", t.name).Int("rows", len(rows)).Msg("query executed")
	return res.Apply(items)
}

// Find executa q e devolve as entidades encontradas.
func (t *Table[T]) Find(ctx context.Context, q *query.Query[T]) ([]T, error) {
	out, err := t.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	items, ok := out.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: got %v", ErrNotSequence, reflect.TypeOf(out))
	}
	return items, nil
}

func (t *Table[T]) Insert(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.Insert, entities...)
}

func (t *Table[T]) InsertOrReplace(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.InsertOrReplace, entities...)
}

func (t *Table[T]) InsertOrMerge(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.InsertOrMerge, entities...)
}

func (t *Table[T]) Replace(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.Replace, entities...)
}

func (t *Table[T]) Merge(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.Merge, entities...)
}

func (t *Table[T]) Delete(ctx context.Context, entities ...T) ([]storage.Result, error) {
	return t.Write(ctx, storage.Delete, entities...)
}

// Write converte as entidades, agrupa as operações em lotes e os executa.
// Os resultados voltam na ordem de submissão, seja qual for o modo.
func (t *Table[T]) Write(ctx context.Context, op storage.OperationType, entities ...T) ([]storage.Result, error) {
	if t.batches == nil {
		return nil, fmt.Errorf("table %s: no batch executor", t.name)
	}
	rows := make([]*storage.Row, len(entities))
	for i := range entities {
		row, err := t.entity.ToRow(&entities[i])
		if err != nil {
			return nil, fmt.Errorf("table %s: entity %d: %w", t.name, i, err)
		}
		rows[i] = row
	}
	return t.writer().Write(ctx, op, rows)
}

func (t *Table[T]) writer() *Writer {
	return &Writer{name: t.name, batches: t.batches, settings: t.settings}
}

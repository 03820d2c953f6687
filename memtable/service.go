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

package memtable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/rowfilter"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// ErrDuplicateRow é devolvido quando um lote altera a mesma linha duas vezes.
var ErrDuplicateRow = errors.New("memtable: row appears twice in the batch")

type key struct {
	pk, rk string
}

type table struct {
	rows map[key]*storage.Row
}

// Service guarda tabelas em memória. É seguro para uso concorrente.
type Service struct {
	mu              sync.RWMutex
	tables          map[string]*table
	singlePartition bool
	log             zerolog.Logger
	now             func() time.Time
}

// Option configura um Service.
type Option func(*Service)

// WithSinglePartition rejeita lotes com mais de uma PartitionKey, como o
// serviço real faz.
func WithSinglePartition() Option {
	return func(s *Service) { s.singlePartition = true }
}

// WithLogger define o logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock substitui o relógio usado no Timestamp das linhas.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New cria um Service vazio.
func New(opts ...Option) *Service {
	s := &Service{
		tables: map[string]*table{},
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tables devolve os nomes das tabelas existentes, em ordem.
func (s *Service) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DeleteTable remove a tabela e todas as suas linhas.
func (s *Service) DeleteTable(name string) {
	s.mu.Lock()
	delete(s.tables, name)
	s.mu.Unlock()
}

// Len devolve o número de linhas da tabela.
func (s *Service) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return len(t.rows)
	}
	return 0
}

// ExecuteQuery devolve as linhas que satisfazem o filtro, ordenadas por
// PartitionKey e RowKey, projetadas e limitadas. Uma tabela inexistente
// devolve zero linhas.
func (s *Service) ExecuteQuery(ctx context.Context, name string, q storage.Query) ([]*storage.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var node rowfilter.Node
	if q.Filter != nil {
		n, err := rowfilter.Parse(*q.Filter)
		if err != nil {
			return nil, fmt.Errorf("memtable: %w", err)
		}
		node = n
	}

	s.mu.RLock()
	var matched []*storage.Row
	if t, ok := s.tables[name]; ok {
		for _, row := range t.rows {
			if rowfilter.Match(node, row) {
				matched = append(matched, row)
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PartitionKey != matched[j].PartitionKey {
			return matched[i].PartitionKey < matched[j].PartitionKey
		}
		return matched[i].RowKey < matched[j].RowKey
	})
	if q.Top != nil && int(*q.Top) < len(matched) {
		matched = matched[:*q.Top]
	}

	out := make([]*storage.Row, len(matched))
	for i, row := range matched {
		out[i] = row.Project(q.Select)
	}
	s.log.Debug().Str("table", name).Int("rows", len(out)).Msg("query executed")
	return out, nil
}

// ExecuteBatch aplica o lote inteiro ou nada. Todas as operações são
// validadas antes de qualquer escrita.
func (s *Service) ExecuteBatch(ctx context.Context, name string, batch storage.Batch) ([]storage.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validate(batch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: map[key]*storage.Row{}}
	}

	staged := make(map[key]*storage.Row, len(batch))
	lookup := func(k key) (*storage.Row, bool) {
		if row, ok := staged[k]; ok {
			return row, row != nil
		}
		row, ok := t.rows[k]
		return row, ok
	}

	now := s.now().UTC()
	results := make([]storage.Result, len(batch))
	for i, op := range batch {
		k := key{op.Row.PartitionKey, op.Row.RowKey}
		current, exists := lookup(k)
		next, err := apply(op, current, exists)
		if err != nil {
			return nil, &storage.OperationError{
				Index:        i,
				Type:         op.Type,
				PartitionKey: op.Row.PartitionKey,
				RowKey:       op.Row.RowKey,
				Err:          err,
			}
		}
		results[i] = storage.Result{Type: op.Type, PartitionKey: k.pk, RowKey: k.rk}
		if next != nil {
			next.Timestamp = now
			next.ETag = newETag()
			results[i].ETag = next.ETag
		}
		staged[k] = next
	}

	for k, row := range staged {
		if row == nil {
			delete(t.rows, k)
			continue
		}
		t.rows[k] = row
	}
	s.tables[name] = t

	s.log.Debug().Str("table", name).Int("operations", len(batch)).Msg("batch applied")
	return results, nil
}

func (s *Service) validate(batch storage.Batch) error {
	if len(batch) == 0 {
		return storage.ErrNoEntities
	}
	if len(batch) > storage.MaxBatchSize {
		return fmt.Errorf("%w: %d operations", storage.ErrBatchTooLarge, len(batch))
	}
	if s.singlePartition && !batch.SinglePartition() {
		return storage.ErrMixedPartitions
	}
	seen := make(map[key]bool, len(batch))
	for i, op := range batch {
		if op.Row == nil {
			return fmt.Errorf("memtable: operation %d has no row", i)
		}
		k := key{op.Row.PartitionKey, op.Row.RowKey}
		if seen[k] {
			return &storage.OperationError{
				Index:        i,
				Type:         op.Type,
				PartitionKey: k.pk,
				RowKey:       k.rk,
				Err:          ErrDuplicateRow,
			}
		}
		seen[k] = true
	}
	return nil
}

// apply devolve a nova versão da linha, ou nil quando ela é removida.
func apply(op storage.Operation, current *storage.Row, exists bool) (*storage.Row, error) {
	if op.Type.ConditionalOnETag() {
		if !exists {
			return nil, storage.ErrNotFound
		}
		if tag := op.Row.ETag; tag != "" && tag != storage.WildcardETag && tag != current.ETag {
			return nil, storage.ErrPreconditionFailed
		}
	}

	switch op.Type {
	case storage.Insert:
		if exists {
			return nil, storage.ErrEntityExists
		}
		return op.Row.Clone(), nil
	case storage.InsertOrReplace, storage.Replace:
		return op.Row.Clone(), nil
	case storage.InsertOrMerge, storage.Merge:
		if !exists {
			return op.Row.Clone(), nil
		}
		merged := current.Clone()
		op.Row.Properties.Range(func(name string, value any) bool {
			merged.Properties.Set(name, value)
			return true
		})
		return merged, nil
	case storage.Delete:
		return nil, nil
	}
	return nil, fmt.Errorf("memtable: unsupported operation %s", op.Type)
}

func newETag() string {
	return `W/"` + uuid.NewString() + `"`
}

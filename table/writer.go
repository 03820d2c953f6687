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
	"fmt"

	"github.com/raywall/fast-table-toolkit/pkg/metrics"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Writer grava linhas já materializadas. Table usa um Writer para as
// entidades; ferramentas que lidam com linhas cruas o usam diretamente.
type Writer struct {
	name    string
	batches storage.BatchExecutor
	settings
}

// NewWriter cria um Writer para a tabela name. Opções de mapeamento e
// tradução são ignoradas.
func NewWriter(name string, batches storage.BatchExecutor, opts ...Option) *Writer {
	s := settings{
		log:     zerolog.Nop(),
		metrics: metrics.Nop(),
		mode:    storage.PartitionSequential,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Writer{name: name, batches: batches, settings: s}
}

// Write agrupa as linhas em lotes conforme o modo e os executa. Os
// resultados voltam na ordem de submissão.
func (w *Writer) Write(ctx context.Context, op storage.OperationType, rows []*storage.Row) ([]storage.Result, error) {
	if w.batches == nil {
		return nil, fmt.Errorf("table %s: no batch executor", w.name)
	}
	ops := make([]storage.Operation, len(rows))
	position := make(map[*storage.Row]int, len(rows))
	for i, row := range rows {
		ops[i] = storage.Operation{Type: op, Row: row}
		position[row] = i
	}

	batches, err := storage.Partition(ops, w.mode)
	if err != nil {
		return nil, err
	}

	tags := append(w.tags(), "op:"+op.String())
	_ = w.metrics.Count("table.batch.count", float64(len(batches)), tags)
	_ = w.metrics.Count("table.batch.operations", float64(len(ops)), tags)
	w.log.Debug().
		Str("table", w.name).
		Str("op", op.String()).
		Str("mode", w.mode.String()).
		Int("operations", len(ops)).
		Int("batches", len(batches)).
		Msg("writing batches")

	results := make([]storage.Result, len(ops))
	run := func(ctx context.Context, b storage.Batch) error {
		out, err := w.batches.ExecuteBatch(ctx, w.name, b)
		if err != nil {
			return fmt.Errorf("table %s: batch for partition %q: %w", w.name, b.PartitionKey(), err)
		}
		if len(out) != len(b) {
			return fmt.Errorf("table %s: batch returned %d results for %d operations", w.name, len(out), len(b))
		}
		for i, r := range out {
			results[position[b[i].Row]] = r
		}
		return nil
	}

	if w.mode != storage.PartitionParallel {
		for _, b := range batches {
			if err := run(ctx, b); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}
	for _, b := range batches {
		g.Go(func() error { return run(gctx, b) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (w *Writer) tags() []string {
	return []string{"table:" + w.name}
}

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

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raywall/fast-table-toolkit/pkg/metrics"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

// ErrReadOnly é devolvido por ExecuteBatch quando o executor decorado não
// aceita lotes.
var ErrReadOnly = errors.New("cache: underlying executor does not accept batches")

const defaultPrefix = "ftt"

// Executor é um storage.QueryExecutor com cache de leitura. Falhas do Store
// nunca quebram a consulta; apenas são registradas no log.
type Executor struct {
	next    storage.QueryExecutor
	store   Store
	ttl     time.Duration
	prefix  string
	log     zerolog.Logger
	metrics metrics.Provider
}

// Option configura o Executor.
type Option func(*Executor)

// WithPrefix define o prefixo das chaves.
func WithPrefix(p string) Option {
	return func(e *Executor) { e.prefix = p }
}

// WithLogger define o logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithMetrics define o provedor de métricas (cache.hit / cache.miss).
func WithMetrics(p metrics.Provider) Option {
	return func(e *Executor) { e.metrics = p }
}

// NewExecutor decora next. Se next também for um storage.BatchExecutor, os
// lotes passam adiante e invalidam a tabela.
func NewExecutor(next storage.QueryExecutor, store Store, ttl time.Duration, opts ...Option) *Executor {
	e := &Executor{
		next:    next,
		store:   store,
		ttl:     ttl,
		prefix:  defaultPrefix,
		log:     zerolog.Nop(),
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteQuery implementa storage.QueryExecutor.
func (e *Executor) ExecuteQuery(ctx context.Context, table string, q storage.Query) ([]*storage.Row, error) {
	tags := []string{"table:" + table}
	key, err := e.key(ctx, table, q)
	if err != nil {
		e.log.Warn().Err(err).Str("table", table).Msg("cache generation unavailable")
		return e.next.ExecuteQuery(ctx, table, q)
	}

	if data, err := e.store.Get(ctx, key); err == nil {
		var rows []*storage.Row
		if err := json.Unmarshal(data, &rows); err == nil {
			_ = e.metrics.Count("cache.hit", 1, tags)
			return rows, nil
		}
		e.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, ErrMiss) {
		e.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	_ = e.metrics.Count("cache.miss", 1, tags)

	rows, err := e.next.ExecuteQuery(ctx, table, q)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []*storage.Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		e.log.Warn().Err(err).Str("table", table).Msg("cache encode failed")
		return rows, nil
	}
	if err := e.store.Set(ctx, key, data, e.ttl); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return rows, nil
}

// ExecuteBatch implementa storage.BatchExecutor e invalida a tabela após
// um lote bem-sucedido.
func (e *Executor) ExecuteBatch(ctx context.Context, table string, batch storage.Batch) ([]storage.Result, error) {
	next, ok := e.next.(storage.BatchExecutor)
	if !ok {
		return nil, ErrReadOnly
	}
	results, err := next.ExecuteBatch(ctx, table, batch)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Incr(ctx, e.generationKey(table)); err != nil {
		e.log.Warn().Err(err).Str("table", table).Msg("cache invalidation failed")
	}
	return results, nil
}

func (e *Executor) generationKey(table string) string {
	return e.prefix + ":gen:" + table
}

func (e *Executor) key(ctx context.Context, table string, q storage.Query) (string, error) {
	gen := "0"
	data, err := e.store.Get(ctx, e.generationKey(table))
	switch {
	case err == nil:
		gen = string(data)
	case !errors.Is(err, ErrMiss):
		return "", err
	}
	return fmt.Sprintf("%s:q:%s:%s:%s", e.prefix, table, gen, Fingerprint(q)), nil
}

// Fingerprint devolve um hash estável da consulta. Filtro ausente e filtro
// vazio são distintos, assim como a ordem das colunas projetadas.
func Fingerprint(q storage.Query) string {
	var b strings.Builder
	if q.Filter != nil {
		b.WriteString("f=")
		b.WriteString(strconv.Quote(*q.Filter))
	}
	b.WriteString("|s=")
	b.WriteString(strconv.Quote(strings.Join(q.Select, "\x00")))
	if q.Top != nil {
		b.WriteString("|t=")
		b.WriteString(strconv.FormatInt(int64(*q.Top), 10))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

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
	"github.com/raywall/fast-table-toolkit/mapping"
	"github.com/raywall/fast-table-toolkit/pkg/metrics"
	"github.com/raywall/fast-table-toolkit/query"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/rs/zerolog"
)

type settings struct {
	registry    *mapping.Registry
	translator  *query.Translator
	log         zerolog.Logger
	metrics     metrics.Provider
	mode        storage.PartitionMode
	concurrency int
}

// Option configura um Table.
type Option func(*settings)

// WithRegistry define o registro de mapeamentos (padrão: mapping.Default).
func WithRegistry(r *mapping.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithTranslator compartilha um tradutor entre tabelas.
func WithTranslator(t *query.Translator) Option {
	return func(s *settings) { s.translator = t }
}

// WithLogger define o logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics define o provedor de métricas.
func WithMetrics(p metrics.Provider) Option {
	return func(s *settings) { s.metrics = p }
}

// WithPartitionMode define como as escritas são agrupadas em lotes.
func WithPartitionMode(m storage.PartitionMode) Option {
	return func(s *settings) { s.mode = m }
}

// WithConcurrency limita os lotes executados ao mesmo tempo em
// PartitionParallel. Zero ou negativo significa sem limite.
func WithConcurrency(n int) Option {
	return func(s *settings) { s.concurrency = n }
}

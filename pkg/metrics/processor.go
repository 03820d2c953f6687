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

package metrics

import (
	"fmt"
	"io"

	"github.com/raywall/fast-table-toolkit/pkg/config"
)

// Processor renomeia as métricas internas conforme as definições do YAML e
// acrescenta tags fixas antes de repassar ao Provider.
//
// Métricas sem definição seguem com o nome e o tipo originais.
type Processor struct {
	definitions map[string]MetricDefinition
	provider    Provider
	tags        []string
}

// NewProcessor cria um processador linkando IDs de configuração aos seus tipos reais.
func NewProcessor(conf []config.CustomMetricDefinition, provider Provider, tags ...string) *Processor {
	defs := make(map[string]MetricDefinition)
	for _, d := range conf {
		defs[d.ID] = MetricDefinition{
			Name: d.Name,
			Type: MetricType(d.Type),
		}
	}

	return &Processor{
		definitions: defs,
		provider:    provider,
		tags:        tags,
	}
}

func (p *Processor) Count(name string, value float64, tags []string) error {
	return p.emit(TypeCount, name, value, tags)
}

func (p *Processor) Gauge(name string, value float64, tags []string) error {
	return p.emit(TypeGauge, name, value, tags)
}

func (p *Processor) Histogram(name string, value float64, tags []string) error {
	return p.emit(TypeHistogram, name, value, tags)
}

func (p *Processor) emit(typ MetricType, name string, value float64, tags []string) error {
	// 1. Buscar definição da métrica (Nome e Tipo)
	if def, exists := p.definitions[name]; exists {
		name = def.Name
		if def.Type != "" {
			typ = def.Type
		}
	}

	// 2. Tags fixas primeiro
	finalTags := make([]string, 0, len(p.tags)+len(tags))
	finalTags = append(finalTags, p.tags...)
	finalTags = append(finalTags, tags...)

	// 3. Enviar para o Provider
	switch typ {
	case TypeCount:
		return p.provider.Count(name, value, finalTags)
	case TypeGauge:
		return p.provider.Gauge(name, value, finalTags)
	case TypeHistogram:
		return p.provider.Histogram(name, value, finalTags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", typ)
	}
}

// Close fecha o Provider de destino quando ele precisa de flush.
func (p *Processor) Close() error {
	if c, ok := p.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

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
	"testing"

	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider para verificar chamadas
type MockProvider struct {
	LastCallType string
	LastName     string
	LastValue    float64
	LastTags     []string
}

func (m *MockProvider) record(kind, name string, val float64, tags []string) error {
	m.LastCallType = kind
	m.LastName = name
	m.LastValue = val
	m.LastTags = tags
	return nil
}

func (m *MockProvider) Count(name string, val float64, tags []string) error {
	return m.record("count", name, val, tags)
}
func (m *MockProvider) Gauge(name string, val float64, tags []string) error {
	return m.record("gauge", name, val, tags)
}
func (m *MockProvider) Histogram(name string, val float64, tags []string) error {
	return m.record("histogram", name, val, tags)
}

func TestProcessor(t *testing.T) {
	provider := &MockProvider{}
	defs := []config.CustomMetricDefinition{
		{ID: "table.query.count", Name: "countries.queries"},
		{ID: "table.query.rows", Name: "countries.rows", Type: "gauge"},
	}
	processor := NewProcessor(defs, provider, "env:test")

	t.Run("renomeia mantendo o tipo", func(t *testing.T) {
		require.NoError(t, processor.Count("table.query.count", 1, []string{"table:Countries"}))
		assert.Equal(t, "count", provider.LastCallType)
		assert.Equal(t, "countries.queries", provider.LastName)
		assert.Equal(t, 1.0, provider.LastValue)
		assert.Equal(t, []string{"env:test", "table:Countries"}, provider.LastTags)
	})

	t.Run("troca o tipo", func(t *testing.T) {
		require.NoError(t, processor.Histogram("table.query.rows", 42, nil))
		assert.Equal(t, "gauge", provider.LastCallType)
		assert.Equal(t, "countries.rows", provider.LastName)
		assert.Equal(t, 42.0, provider.LastValue)
	})

	t.Run("sem definição", func(t *testing.T) {
		require.NoError(t, processor.Histogram("table.batch.operations", 7, nil))
		assert.Equal(t, "histogram", provider.LastCallType)
		assert.Equal(t, "table.batch.operations", provider.LastName)
	})
}

func TestNop(t *testing.T) {
	p := Nop()
	assert.NoError(t, p.Count("x", 1, nil))
	assert.NoError(t, p.Gauge("x", 1, nil))
	assert.NoError(t, p.Histogram("x", 1, nil))
}

type closingProvider struct {
	MockProvider
	closed bool
}

func (c *closingProvider) Close() error {
	c.closed = true
	return nil
}

func TestProcessor_Close(t *testing.T) {
	inner := &closingProvider{}
	require.NoError(t, NewProcessor(nil, inner).Close())
	assert.True(t, inner.closed)

	assert.NoError(t, NewProcessor(nil, &MockProvider{}).Close())
}

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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
version: "1.0"
backend:
  type: dynamodb
  region: sa-east-1
  table_prefix: dev-
  page_size: 200
tables:
  - name: Countries
    partition_mode: parallel
    concurrency: 4
    rules:
      - id: positive-area
        expr: "row.Area > 0"
        message: area must be positive
cache:
  enabled: true
  addr: ${env.TEST_REDIS_ADDR}
  ttl: 30s
logging:
  enabled: true
  level: debug
  format: json
metrics:
  datadog:
    enabled: false
    custom_definitions:
      - id: table.query.count
        name: countries.queries
`

func TestLoad(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")
	t.Setenv("AWS_REGION", "")

	path := filepath.Join(t.TempDir(), "tablectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "dynamodb", cfg.Backend.Type)
	assert.Equal(t, "dev-", cfg.Backend.TablePrefix)
	assert.Equal(t, int32(200), cfg.Backend.PageSize)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "row.Area > 0", cfg.Tables[0].Rules[0].Expr)
	assert.Equal(t, "countries.queries", cfg.Metrics.Datadog.CustomDefinitions[0].Name)
}

func TestLoad_EnvOverridesRegion(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")
	t.Setenv("AWS_REGION", "us-east-1")

	cfg, err := Parse(context.Background(), []byte(sample), nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Backend.Region)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = Parse(context.Background(), []byte("version: [unterminated"), nil)
	assert.ErrorContains(t, err, "parse yaml")

	_, err = Parse(context.Background(), []byte("version: \"1\"\nbackend:\n  type: emulator\n"), nil)
	assert.ErrorContains(t, err, "required_if")
}

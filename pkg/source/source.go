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

// Package source lê linhas de fontes externas para alimentar lotes:
// arquivos locais, objetos S3, consultas SQL (Postgres) e filas SQS.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raywall/fast-table-toolkit/storage"
	"gopkg.in/yaml.v3"
)

// ErrMissingKey indica um registro sem PartitionKey ou RowKey.
var ErrMissingKey = errors.New("source: record without PartitionKey or RowKey")

// Loader devolve as linhas de uma fonte.
type Loader interface {
	Load(ctx context.Context) ([]*storage.Row, error)
}

// Acker é implementado por fontes que precisam confirmar o consumo depois
// que as linhas foram gravadas.
type Acker interface {
	Ack(ctx context.Context) error
}

// FormatOf deduz o formato pela extensão (json, yaml, csv).
func FormatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".csv":
		return "csv"
	}
	return "json"
}

// Decode converte o conteúdo no formato informado.
//
// JSON usa o formato de linha do serviço (com dicas "@odata.type") e aceita
// um objeto ou uma lista. YAML e CSV viram registros chave/valor.
func Decode(data []byte, format string) ([]*storage.Row, error) {
	switch strings.ToLower(format) {
	case "json", "":
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			var row storage.Row
			if err := json.Unmarshal(data, &row); err != nil {
				return nil, fmt.Errorf("erro parse JSON: %w", err)
			}
			return []*storage.Row{&row}, nil
		}
		var rows []*storage.Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("erro parse JSON: %w", err)
		}
		return rows, nil

	case "yaml", "yml":
		var records []map[string]interface{}
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("erro parse YAML: %w", err)
		}
		rows := make([]*storage.Row, 0, len(records))
		for i, rec := range records {
			row, err := FromRecord(rec, sortedKeys(rec))
			if err != nil {
				return nil, fmt.Errorf("registro %d: %w", i, err)
			}
			rows = append(rows, row)
		}
		return rows, nil

	case "csv":
		reader := csv.NewReader(bytes.NewReader(data))
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("erro parse CSV: %w", err)
		}
		return parseCSV(records)
	}
	return nil, fmt.Errorf("source: formato desconhecido %q", format)
}

func parseCSV(records [][]string) ([]*storage.Row, error) {
	if len(records) < 1 {
		return nil, nil
	}
	headers := records[0]
	var rows []*storage.Row

	for n, record := range records[1:] {
		item := make(map[string]interface{}, len(headers))
		for i, val := range record {
			if i < len(headers) {
				item[headers[i]] = val
			}
		}
		row, err := FromRecord(item, headers)
		if err != nil {
			return nil, fmt.Errorf("linha %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FromRecord monta a linha a partir de um registro chave/valor, com as
// propriedades na ordem de order. PartitionKey e RowKey são obrigatórias.
func FromRecord(rec map[string]interface{}, order []string) (*storage.Row, error) {
	pk, okPK := rec[storage.PartitionKeyColumn].(string)
	rk, okRK := rec[storage.RowKeyColumn].(string)
	if !okPK || !okRK {
		return nil, ErrMissingKey
	}
	row := storage.NewRow(pk, rk)
	if etag, ok := rec[storage.ETagColumn].(string); ok {
		row.ETag = etag
	}

	for _, name := range order {
		switch name {
		case storage.PartitionKeyColumn, storage.RowKeyColumn, storage.ETagColumn, storage.TimestampColumn:
			continue
		}
		raw, ok := rec[name]
		if !ok {
			continue
		}
		v, err := storage.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("propriedade %s: %w", name, err)
		}
		row.Properties.Set(name, v)
	}
	return row, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

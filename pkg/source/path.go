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

package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/raywall/fast-table-toolkit/storage"
	"gopkg.in/yaml.v3"
)

// segment é uma parte do caminho: um campo ou um índice de lista.
type segment struct {
	field   string
	isIndex bool
	index   int
}

// Extract navega doc pelo caminho informado e devolve o valor encontrado.
// Exemplos de caminhos válidos:
//   - "" -> o documento inteiro
//   - "data" -> campo de primeiro nível
//   - "data.items" -> objetos aninhados
//   - "pages[1].rows" -> campo de um elemento da lista
func Extract(doc interface{}, path string) (interface{}, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return doc, nil
	}
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	current := doc
	for i, seg := range segments {
		if seg.isIndex {
			list, ok := current.([]interface{})
			if !ok {
				return nil, fmt.Errorf("source: esperada lista em '%s', encontrado %T", pathUntil(segments, i), current)
			}
			if seg.index < 0 || seg.index >= len(list) {
				return nil, fmt.Errorf("source: índice %d fora da lista em '%s'", seg.index, pathUntil(segments, i))
			}
			current = list[seg.index]
			continue
		}

		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("source: esperado objeto em '%s', encontrado %T", pathUntil(segments, i), current)
		}
		value, exists := obj[seg.field]
		if !exists {
			return nil, fmt.Errorf("source: campo '%s' não encontrado em '%s'", seg.field, pathUntil(segments, i+1))
		}
		current = value
	}
	return current, nil
}

// parsePath converte "a.b[0].c" em segmentos. Um colchete sem fechamento
// ou um índice não numérico é erro.
func parsePath(path string) ([]segment, error) {
	var segments []segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open == -1 {
				segments = append(segments, segment{field: part})
				break
			}
			if open > 0 {
				segments = append(segments, segment{field: part[:open]})
			}
			end := strings.IndexByte(part[open:], ']')
			if end == -1 {
				return nil, fmt.Errorf("source: colchete não fechado em %q", path)
			}
			idx, err := strconv.Atoi(part[open+1 : open+end])
			if err != nil {
				return nil, fmt.Errorf("source: índice inválido em %q", path)
			}
			segments = append(segments, segment{isIndex: true, index: idx})
			part = part[open+end+1:]
		}
	}
	return segments, nil
}

// pathUntil reconstrói o caminho até o segmento n (para mensagens de erro)
func pathUntil(segments []segment, n int) string {
	var b strings.Builder
	for i := 0; i < n && i < len(segments); i++ {
		if segments[i].isIndex {
			fmt.Fprintf(&b, "[%d]", segments[i].index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segments[i].field)
	}
	return b.String()
}

// DecodeAt decodifica apenas o trecho do documento apontado por root.
// CSV não tem hierarquia, então root precisa ser vazio.
func DecodeAt(data []byte, format, root string) ([]*storage.Row, error) {
	if strings.TrimSpace(root) == "" {
		return Decode(data, format)
	}

	switch strings.ToLower(format) {
	case "json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc interface{}
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("erro parse JSON: %w", err)
		}
		sub, err := Extract(doc, root)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(sub)
		if err != nil {
			return nil, err
		}
		return Decode(out, "json")

	case "yaml", "yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("erro parse YAML: %w", err)
		}
		sub, err := Extract(doc, root)
		if err != nil {
			return nil, err
		}
		out, err := yaml.Marshal(sub)
		if err != nil {
			return nil, err
		}
		return Decode(out, "yaml")
	}
	return nil, fmt.Errorf("source: formato %q não aceita root", format)
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	doc := map[string]interface{}{
		"name": "export",
		"pages": []interface{}{
			map[string]interface{}{"rows": []interface{}{"a"}},
			map[string]interface{}{"rows": []interface{}{"b", "c"}},
		},
		"meta": map[string]interface{}{"owner": "ops"},
	}

	tests := []struct {
		path    string
		want    interface{}
		wantErr string
	}{
		{path: "", want: doc},
		{path: "name", want: "export"},
		{path: "meta.owner", want: "ops"},
		{path: "pages[1].rows", want: []interface{}{"b", "c"}},
		{path: "pages[1].rows[0]", want: "b"},
		{path: "pages[5]", wantErr: "fora da lista"},
		{path: "meta.missing", wantErr: "não encontrado"},
		{path: "name.first", wantErr: "esperado objeto"},
		{path: "meta[0]", wantErr: "esperada lista"},
		{path: "pages[x]", wantErr: "índice inválido"},
		{path: "pages[0", wantErr: "colchete"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Extract(doc, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAt(t *testing.T) {
	t.Run("json root", func(t *testing.T) {
		data := `{"data": {"items": ` + jsonRows + `}}`
		rows, err := DecodeAt([]byte(data), "json", "data.items")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Latvia", rows[0].RowKey)
		v, ok := rows[0].Properties.Get("Population")
		require.True(t, ok)
		assert.Equal(t, int64(1883008), v)
	})

	t.Run("yaml root", func(t *testing.T) {
		data := "export:\n  rows:\n    - PartitionKey: Africa\n      RowKey: Chad\n      Capital: N'Djamena\n"
		rows, err := DecodeAt([]byte(data), "yaml", "export.rows")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Chad", rows[0].RowKey)
	})

	t.Run("csv rejects root", func(t *testing.T) {
		_, err := DecodeAt([]byte("PartitionKey,RowKey\na,b\n"), "csv", "rows")
		assert.Error(t, err)
	})

	t.Run("empty root", func(t *testing.T) {
		rows, err := DecodeAt([]byte(jsonRows), "json", " ")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

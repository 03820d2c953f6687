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

package emulator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/emulator"
	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/rowfilter"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.QueryExecutor = (*emulator.Client)(nil)
var _ storage.BatchExecutor = (*emulator.Client)(nil)

func country(pk, rk string, population int64) *storage.Row {
	row := storage.NewRow(pk, rk)
	row.Properties.Set("Population", population)
	row.Properties.Set("Id", uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"))
	return row
}

func setup(t *testing.T) (*emulator.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(emulator.NewServer(memtable.New()).Handler())
	t.Cleanup(srv.Close)
	return emulator.NewClient(srv.URL + "/"), srv
}

func seed(t *testing.T, c *emulator.Client) []storage.Result {
	t.Helper()
	results, err := c.ExecuteBatch(context.Background(), "Countries", storage.Batch{
		{Type: storage.Insert, Row: country("Europe", "Latvia", 1900000)},
		{Type: storage.Insert, Row: country("Europe", "Germany", 83000000)},
		{Type: storage.Insert, Row: country("Africa", "Egypt", 104000000)},
	})
	require.NoError(t, err)
	return results
}

func TestClient_RoundTrip(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	results := seed(t, c)
	require.Len(t, results, 3)
	assert.Equal(t, storage.Insert, results[0].Type)
	assert.Equal(t, "Latvia", results[0].RowKey)
	assert.NotEmpty(t, results[0].ETag)

	t.Run("consulta completa ordenada", func(t *testing.T) {
		rows, err := c.ExecuteQuery(ctx, "Countries", storage.Query{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Egypt", rows[0].RowKey)
		assert.Equal(t, "Germany", rows[1].RowKey)

		pop, _ := rows[2].Properties.Get("Population")
		assert.Equal(t, int64(1900000), pop)
		id, _ := rows[2].Properties.Get("Id")
		assert.Equal(t, uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"), id)
		assert.False(t, rows[2].Timestamp.IsZero())
		assert.Equal(t, results[0].ETag, rows[2].ETag)
	})

	t.Run("filtro, projeção e limite", func(t *testing.T) {
		filter := "PartitionKey eq 'Europe' and Population gt 1000000L"
		top := int32(1)
		rows, err := c.ExecuteQuery(ctx, "Countries", storage.Query{
			Filter: &filter,
			Select: []string{"Population"},
			Top:    &top,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Germany", rows[0].RowKey)
		assert.Equal(t, []string{"Population"}, rows[0].Properties.Keys())
	})

	t.Run("tabela inexistente", func(t *testing.T) {
		rows, err := c.ExecuteQuery(ctx, "Missing", storage.Query{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("filtro inválido", func(t *testing.T) {
		filter := "Population gt"
		_, err := c.ExecuteQuery(ctx, "Countries", storage.Query{Filter: &filter})
		require.Error(t, err)
		assert.ErrorIs(t, err, rowfilter.ErrSyntax)

		var remote *emulator.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusBadRequest, remote.Status)
	})

	t.Run("tabelas", func(t *testing.T) {
		tables, err := c.Tables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Countries"}, tables)

		require.NoError(t, c.DeleteTable(ctx, "Countries"))
		tables, err = c.Tables(ctx)
		require.NoError(t, err)
		assert.Empty(t, tables)
	})
}

func TestClient_BatchErrors(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	seed(t, c)

	tests := []struct {
		name   string
		batch  storage.Batch
		want   error
		status int
		index  int
	}{
		{
			name: "insert duplicado",
			batch: storage.Batch{
				{Type: storage.InsertOrReplace, Row: country("Asia", "Japan", 125000000)},
				{Type: storage.Insert, Row: country("Europe", "Latvia", 1)},
			},
			want:   storage.ErrEntityExists,
			status: http.StatusConflict,
			index:  1,
		},
		{
			name:   "replace de linha ausente",
			batch:  storage.Batch{{Type: storage.Replace, Row: country("Europe", "France", 1)}},
			want:   storage.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			name: "etag divergente",
			batch: storage.Batch{{Type: storage.Merge, Row: func() *storage.Row {
				r := country("Europe", "Latvia", 1)
				r.ETag = `W/"stale"`
				return r
			}()}},
			want:   storage.ErrPreconditionFailed,
			status: http.StatusPreconditionFailed,
		},
		{
			name: "linha repetida",
			batch: storage.Batch{
				{Type: storage.Delete, Row: country("Europe", "Latvia", 1)},
				{Type: storage.Delete, Row: country("Europe", "Latvia", 1)},
			},
			want:   memtable.ErrDuplicateRow,
			status: http.StatusBadRequest,
			index:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ExecuteBatch(ctx, "Countries", tt.batch)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var remote *emulator.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.status, remote.Status)

			var opErr *storage.OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, tt.index, opErr.Index)
			assert.Equal(t, tt.batch[tt.index].Type, opErr.Type)
			assert.Equal(t, tt.batch[tt.index].Row.RowKey, opErr.RowKey)
		})
	}

	// nada foi aplicado pelo lote que falhou
	rows, err := c.ExecuteQuery(ctx, "Countries", storage.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = c.ExecuteBatch(ctx, "Countries", storage.Batch{})
	assert.ErrorIs(t, err, storage.ErrNoEntities)
}

func TestServer_InvalidRequests(t *testing.T) {
	_, srv := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"top inválido", http.MethodGet, "/tables/Countries/rows?$top=abc", "", http.StatusBadRequest, "InvalidInput"},
		{"top negativo", http.MethodGet, "/tables/Countries/rows?$top=-1", "", http.StatusBadRequest, "InvalidInput"},
		{"json inválido", http.MethodPost, "/tables/Countries/batch", "{", http.StatusBadRequest, "InvalidInput"},
		{"operação desconhecida", http.MethodPost, "/tables/Countries/batch",
			`{"operations":[{"type":"Upsert","row":{"PartitionKey":"a","RowKey":"b"}}]}`, http.StatusBadRequest, "InvalidInput"},
		{"operação sem linha", http.MethodPost, "/tables/Countries/batch",
			`{"operations":[{"type":"Insert"}]}`, http.StatusBadRequest, "InvalidInput"},
		{"rota desconhecida", http.MethodGet, "/nope", "", http.StatusNotFound, "ResourceNotFound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestServer_CorrelationID(t *testing.T) {
	_, srv := setup(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/tables", nil)
	require.NoError(t, err)
	req.Header.Set("x-correlation-id", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get("x-correlation-id"))
}

func TestServer_BearerToken(t *testing.T) {
	srv := httptest.NewServer(emulator.NewServer(memtable.New(), emulator.WithBearerToken("s3cr3t")).Handler())
	defer srv.Close()
	ctx := context.Background()

	_, err := emulator.NewClient(srv.URL).ExecuteQuery(ctx, "Countries", storage.Query{})
	require.ErrorIs(t, err, emulator.ErrUnauthorized)

	wrong := emulator.NewClient(srv.URL, emulator.WithTokenSource(func(context.Context) (string, error) {
		return "guess", nil
	}))
	_, err = wrong.ExecuteQuery(ctx, "Countries", storage.Query{})
	require.ErrorIs(t, err, emulator.ErrUnauthorized)

	client := emulator.NewClient(srv.URL, emulator.WithTokenSource(func(context.Context) (string, error) {
		return "s3cr3t", nil
	}))
	rows, err := client.ExecuteQuery(ctx, "Countries", storage.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	failing := emulator.NewClient(srv.URL, emulator.WithTokenSource(func(context.Context) (string, error) {
		return "", errors.New("token expired")
	}))
	_, err = failing.ExecuteQuery(ctx, "Countries", storage.Query{})
	assert.ErrorContains(t, err, "token expired")
}

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
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Driver Postgres
	"github.com/raywall/fast-table-toolkit/storage"
)

// SQLLoader executa uma consulta e converte cada registro em linha. As
// colunas PartitionKey e RowKey (ou os aliases configurados) são obrigatórias.
type SQLLoader struct {
	DB    *sql.DB
	Query string
	Args  []interface{}

	// Colunas que alimentam as chaves (default: PartitionKey, RowKey).
	PartitionKeyColumn string
	RowKeyColumn       string
	Timeout            time.Duration
}

// OpenPostgres abre o pool com o driver lib/pq.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir conexão SQL: %w", err)
	}
	return db, nil
}

func (l *SQLLoader) Load(ctx context.Context) ([]*storage.Row, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctxDb, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := l.DB.QueryContext(ctxDb, l.Query, l.Args...)
	if err != nil {
		return nil, fmt.Errorf("erro na query SQL: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	order := make([]string, len(columns))
	for i, col := range columns {
		order[i] = l.rename(col)
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	var out []*storage.Row

	for rows.Next() {
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rec := make(map[string]interface{}, len(columns))
		for i, name := range order {
			v := values[i]
			if b, ok := v.([]byte); ok {
				// lib/pq devolve texto e numeric como []byte
				v = string(b)
			}
			rec[name] = v
		}
		row, err := FromRecord(rec, order)
		if err != nil {
			return nil, fmt.Errorf("registro %d: %w", len(out)+1, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *SQLLoader) rename(col string) string {
	switch {
	case l.PartitionKeyColumn != "" && col == l.PartitionKeyColumn:
		return storage.PartitionKeyColumn
	case l.RowKeyColumn != "" && col == l.RowKeyColumn:
		return storage.RowKeyColumn
	}
	return col
}

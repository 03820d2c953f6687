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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	table   string
	filter  string
	columns []string
	top     int32
}

func newQueryCmd(configPath *string) *cobra.Command {
	o := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "executa uma consulta e imprime as linhas em JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			q := storage.Query{Select: o.columns}
			if cmd.Flags().Changed("filter") {
				q.Filter = &o.filter
			}
			if cmd.Flags().Changed("top") {
				if o.top < 0 {
					return fmt.Errorf("--top deve ser positivo")
				}
				q.Top = &o.top
			}

			rows, err := a.store.ExecuteQuery(ctx, o.table, q)
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []*storage.Row{}
			}
			_ = a.metrics.Histogram("tablectl.query.rows", float64(len(rows)), []string{"table:" + o.table})
			a.log.Info().Str("table", o.table).Int("rows", len(rows)).Msg("query completed")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}

	cmd.Flags().StringVarP(&o.table, "table", "t", "", "nome da tabela")
	cmd.Flags().StringVarP(&o.filter, "filter", "f", "", "filtro textual (ex: \"PartitionKey eq 'Europe'\")")
	cmd.Flags().StringSliceVarP(&o.columns, "select", "s", nil, "colunas projetadas")
	cmd.Flags().Int32Var(&o.top, "top", 0, "limite de linhas")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

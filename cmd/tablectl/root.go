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
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("TABLECTL_CONFIG")
	if configPath == "" {
		configPath = "tablectl.yaml"
	}

	root := &cobra.Command{
		Use:     "tablectl",
		Short:   "Consulta e alimenta tabelas do fast-table-toolkit",
		Version: version,
		Long: `tablectl executa consultas e lotes contra o backend configurado
(DynamoDB, emulador HTTP ou memória) e serve o emulador local.`,
		Example: `  # Consultar com filtro, projeção e limite
  $ tablectl query -c tablectl.yaml -t Countries --filter "Population gt 1000000L" --select Name --top 10

  # Carregar um arquivo aplicando as regras da tabela
  $ tablectl batch -c tablectl.yaml -t Countries --op insert --file rows.json

  # Subir o emulador
  $ tablectl emulator --addr :10002`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "arquivo YAML de configuração (env TABLECTL_CONFIG)")

	root.AddCommand(newQueryCmd(&configPath))
	root.AddCommand(newBatchCmd(&configPath))
	root.AddCommand(newEmulatorCmd())
	return root
}

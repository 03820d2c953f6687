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

	"github.com/raywall/fast-table-toolkit/emulator"
	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/raywall/fast-table-toolkit/pkg/logger"
	"github.com/raywall/fast-table-toolkit/pkg/transport"
	"github.com/spf13/cobra"
)

type emulatorOptions struct {
	addr            string
	lambda          bool
	singlePartition bool
	token           string
	logLevel        string
	logFormat       string
}

// O emulador não lê o arquivo de configuração: ele é o backend.
func newEmulatorCmd() *cobra.Command {
	o := &emulatorOptions{}
	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "serve o emulador HTTP do serviço de tabelas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.ConfigureWriter(config.LoggingConf{
				Enabled: true,
				Level:   o.logLevel,
				Format:  o.logFormat,
			}, cmd.ErrOrStderr())

			opts := []memtable.Option{memtable.WithLogger(log)}
			if o.singlePartition {
				opts = append(opts, memtable.WithSinglePartition())
			}
			srvOpts := []emulator.Option{emulator.WithLogger(log)}
			if o.token != "" {
				srvOpts = append(srvOpts, emulator.WithBearerToken(o.token))
			}
			srv := emulator.NewServer(memtable.New(opts...), srvOpts...)

			if o.lambda {
				log.Info().Msg("emulator running on lambda")
				lambdaStarter(transport.NewLambdaHandler(srv.Handler()).Handle)
				return nil
			}
			return srv.ListenAndServe(cmd.Context(), o.addr)
		},
	}

	addr := os.Getenv("EMULATOR_ADDR")
	if addr == "" {
		addr = ":10002"
	}
	cmd.Flags().StringVar(&o.addr, "addr", addr, "endereço de escuta (env EMULATOR_ADDR)")
	cmd.Flags().BoolVar(&o.lambda, "lambda", os.Getenv("AWS_LAMBDA_RUNTIME_API") != "", "atende eventos do API Gateway via Lambda")
	cmd.Flags().BoolVar(&o.singlePartition, "single-partition", false, "rejeita lotes com mais de uma PartitionKey")
	cmd.Flags().StringVar(&o.token, "token", os.Getenv("EMULATOR_TOKEN"), "exige este bearer token (env EMULATOR_TOKEN)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "nível de log")
	cmd.Flags().StringVar(&o.logFormat, "log-format", "json", "json ou console")
	return cmd
}

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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/fast-table-toolkit/pkg/rules"
	"github.com/raywall/fast-table-toolkit/pkg/source"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/raywall/fast-table-toolkit/table"
	"github.com/spf13/cobra"
)

type batchOptions struct {
	table    string
	op       string
	file     string
	format   string
	root     string
	s3URI    string
	sqlQuery string
	dsn      string
	queue    string
	max      int
	wait     int32
	parallel bool
	dryRun   bool
}

type resultOutput struct {
	Type         string `json:"type"`
	PartitionKey string `json:"partitionKey"`
	RowKey       string `json:"rowKey"`
	ETag         string `json:"etag,omitempty"`
}

func newBatchCmd(configPath *string) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "grava linhas de um arquivo, objeto S3, consulta SQL ou fila SQS",
		Long: `Carrega as linhas da fonte escolhida, valida cada uma com as regras CEL
da tabela e grava tudo com a operação pedida, em lotes de até 100 operações.

Mensagens SQS só são removidas da fila depois que a escrita termina.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runBatch(ctx, cmd, a, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.table, "table", "t", "", "nome da tabela")
	f.StringVar(&o.op, "op", storage.InsertOrReplace.String(), "operação: insert, insertorreplace, insertormerge, replace, merge, delete")
	f.StringVar(&o.file, "file", "", "arquivo local (json, yaml ou csv)")
	f.StringVar(&o.format, "format", "", "força o formato do arquivo/objeto")
	f.StringVar(&o.root, "root", "", "caminho da lista dentro do documento (ex: data.items)")
	f.StringVar(&o.s3URI, "s3", "", "objeto s3://bucket/chave")
	f.StringVar(&o.sqlQuery, "sql", "", "consulta SQL (Postgres) cujas linhas serão gravadas")
	f.StringVar(&o.dsn, "dsn", "", "DSN do Postgres para --sql")
	f.StringVar(&o.queue, "queue", "", "URL da fila SQS")
	f.IntVar(&o.max, "max", 10, "máximo de mensagens lidas da fila")
	f.Int32Var(&o.wait, "wait", 0, "long polling da fila, em segundos")
	f.BoolVar(&o.parallel, "parallel", false, "agrupa por PartitionKey e grava os lotes em paralelo")
	f.BoolVar(&o.dryRun, "dry-run", false, "apenas carrega e valida as linhas")

	_ = cmd.MarkFlagRequired("table")
	cmd.MarkFlagsOneRequired("file", "s3", "sql", "queue")
	cmd.MarkFlagsMutuallyExclusive("file", "s3", "sql", "queue")
	cmd.MarkFlagsRequiredTogether("sql", "dsn")
	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, a *app, o *batchOptions) error {
	op, err := storage.ParseOperationType(o.op)
	if err != nil {
		return err
	}

	loader, closeLoader, err := newLoader(a, o)
	if err != nil {
		return err
	}
	defer closeLoader()

	start := time.Now()
	rows, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Str("table", o.table).Int("rows", len(rows)).Msg("rows loaded")

	tconf, _ := a.cfg.Table(o.table)
	rm, err := rules.NewRuleManager()
	if err != nil {
		return err
	}
	set, err := rm.Compile(tconf.Rules)
	if err != nil {
		return err
	}
	if err := set.CheckAll(rows); err != nil {
		_ = a.metrics.Count("tablectl.batch.rejected", 1, []string{"table:" + o.table})
		return err
	}

	out := make([]resultOutput, 0, len(rows))
	if len(rows) > 0 && !o.dryRun {
		w := table.NewWriter(o.table, a.store,
			table.WithLogger(a.log),
			table.WithMetrics(a.metrics),
			table.WithPartitionMode(partitionMode(tconf.PartitionMode, o.parallel)),
			table.WithConcurrency(tconf.Concurrency),
		)
		results, err := w.Write(ctx, op, rows)
		if err != nil {
			return err
		}
		for _, r := range results {
			out = append(out, resultOutput{
				Type:         r.Type.String(),
				PartitionKey: r.PartitionKey,
				RowKey:       r.RowKey,
				ETag:         r.ETag,
			})
		}
	}

	if acker, ok := loader.(source.Acker); ok && !o.dryRun {
		if err := acker.Ack(ctx); err != nil {
			return err
		}
	}

	_ = a.metrics.Histogram("tablectl.batch.duration_ms", float64(time.Since(start).Milliseconds()), []string{"table:" + o.table})
	a.log.Info().Str("table", o.table).Str("op", op.String()).Int("written", len(out)).Msg("batch completed")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// newLoader monta a fonte pedida. A função devolvida libera seus recursos.
func newLoader(a *app, o *batchOptions) (source.Loader, func(), error) {
	noop := func() {}
	switch {
	case o.file != "":
		return &source.FileLoader{Path: o.file, Format: o.format, Root: o.root}, noop, nil
	case o.s3URI != "":
		bucket, key, err := source.ParseS3URI(o.s3URI)
		if err != nil {
			return nil, noop, err
		}
		return &source.S3Loader{Client: s3.NewFromConfig(a.aws), Bucket: bucket, Key: key, Format: o.format, Root: o.root}, noop, nil
	case o.sqlQuery != "":
		db, err := source.OpenPostgres(o.dsn)
		if err != nil {
			return nil, noop, err
		}
		return &source.SQLLoader{DB: db, Query: o.sqlQuery}, func() { _ = db.Close() }, nil
	case o.queue != "":
		return &source.SQSLoader{
			Client:   sqs.NewFromConfig(a.aws),
			QueueURL: o.queue,
			Max:      o.max,
			Wait:     o.wait,
			Logger:   a.log,
		}, noop, nil
	}
	return nil, noop, fmt.Errorf("nenhuma fonte informada")
}

func partitionMode(configured string, parallel bool) storage.PartitionMode {
	if parallel {
		return storage.PartitionParallel
	}
	switch configured {
	case "none":
		return storage.PartitionNone
	case "parallel":
		return storage.PartitionParallel
	}
	return storage.PartitionSequential
}

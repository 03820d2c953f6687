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

// Package tabletoolkit reúne as peças para trabalhar com tabelas de entidades
// (PartitionKey + RowKey + propriedades tipadas) de forma tipada em Go.
//
// Visão Geral:
// O módulo traduz consultas construídas como árvores de expressão para o
// dialeto de filtro do serviço de tabelas e executa o resultado contra um
// backend plugável:
//  1. Modelo (storage): linhas, propriedades Edm, lotes e erros do serviço.
//  2. Mapeamento (mapping): struct Go <-> linha, por tags ou builder fluente.
//  3. Consultas (expr, filter, query): Where/Select/Take/First viram
//     $filter, $select e $top, com continuações locais para o que sobra.
//  4. Tabelas (table, repository): API tipada de leitura e escrita em lote,
//     com validação e hooks no repositório.
//  5. Backends: memtable (memória), emulator (HTTP) e dyndb (DynamoDB), com
//     cache opcional em Redis (cache).
//
// Sub-Pacotes de Infraestrutura:
//   - pkg/config: YAML com interpolação ${env.}, ${ssm.} e ${secret.}.
//   - pkg/logger, pkg/metrics, pkg/observability: zerolog e Datadog.
//   - pkg/source e pkg/rules: fontes de lotes (arquivo, S3, Postgres, SQS) e
//     regras CEL aplicadas antes da escrita.
//   - pkg/auth e pkg/transport: token OAuth2 do emulador, middleware HTTP e
//     adaptador Lambda.
//
// Exemplo de Início Rápido:
//
//	type Country struct {
//		Continent  string `table:",partitionkey"`
//		Name       string `table:",rowkey"`
//		Population int64
//	}
//
//	svc := memtable.New()
//	countries, _ := table.New[Country]("Countries", svc, svc)
//
//	q := countries.Query().
//		Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
//			return expr.Gt(expr.Field(p, "Population"), expr.Const(int64(1000000)))
//		})).
//		Take(10)
//	big, err := countries.Find(ctx, q)
//
// A CLI cmd/tablectl expõe as mesmas operações (query, batch, emulator).
package tabletoolkit

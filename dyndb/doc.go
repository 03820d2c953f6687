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

// Package dyndb implementa os executores de consulta e de lote do serviço de
// tabelas sobre o AWS DynamoDB Go SDK (v2).
//
// Cada linha vira um item com os atributos de chave (HashKey/SortKey),
// Timestamp, ETag e uma entrada por propriedade. Tipos que o DynamoDB não
// distingue sozinho (Int32, Int64, Double, Guid, DateTime, Binary) levam um
// atributo irmão "<nome>@type" com o EdmType.
//
// Consultas: o texto do filtro é lido por rowfilter e convertido para um
// expression.ConditionBuilder; o Scan pagina até esgotar a tabela ou atingir
// o Top pedido.
//
// Lotes: cada lote vira uma única chamada TransactWriteItems, com condições
// por operação:
//
//	Insert           attribute_not_exists(HashKey)
//	InsertOrReplace  sem condição
//	InsertOrMerge    sem condição (UpdateItem)
//	Replace, Merge   attribute_exists(HashKey) [AND ETag = :etag]
//	Delete           attribute_exists(HashKey) [AND ETag = :etag]
//
// Falhas de condição voltam como storage.ErrEntityExists, storage.ErrNotFound
// ou storage.ErrPreconditionFailed dentro de um *storage.OperationError.
//
// Exemplo:
//
//	awsCfg, _ := config.LoadDefaultConfig(ctx)
//	store := dyndb.New(dynamodb.NewFromConfig(awsCfg), dyndb.TableConfig{})
//	countries := table.New[Country]("Countries", store, store)
//
// Com TableConfig vazio a configuração é lida das variáveis DYNAMODB_*.
package dyndb

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

// Package storage define o contrato entre o toolkit e o serviço de tabelas
// particionado por PartitionKey/RowKey.
//
// Visão Geral:
// O serviço remoto é tratado como uma caixa-preta que expõe apenas duas
// operações: executar uma consulta contra uma tabela devolvendo linhas
// tipadas (QueryExecutor) e submeter um lote de mutações devolvendo o
// resultado de cada linha (BatchExecutor).
//
// O pacote também define a representação de linha (Row e Properties), o
// codec JSON no formato do serviço e o particionador de lotes (Partition),
// que agrupa mutações em lotes legais: no máximo 100 operações e, no modo
// paralelo, uma única PartitionKey por lote.
//
//	ops := []storage.Operation{
//		{Type: storage.Insert, Row: row1},
//		{Type: storage.Insert, Row: row2},
//	}
//	batches, err := storage.Partition(ops, storage.PartitionParallel)
package storage

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

// Package cache adiciona um cache de leitura na frente de um
// storage.QueryExecutor.
//
// O resultado de cada consulta é guardado, codificado em JSON, sob uma chave
// derivada da tabela e da consulta. Lotes executados pelo Executor avançam a
// geração da tabela, invalidando todas as consultas anteriores sobre ela.
package cache

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

// Package emulator expõe um serviço de tabelas local via HTTP.
//
// O Server publica as rotas abaixo sobre qualquer backend que implemente
// os executores de storage (normalmente um memtable.Service):
//
//	GET    /tables                      lista as tabelas
//	GET    /tables/{table}/rows         consulta ($filter, $select, $top)
//	POST   /tables/{table}/batch        aplica um lote atômico
//	DELETE /tables/{table}              remove a tabela
//
// O Client fala o mesmo protocolo e implementa storage.QueryExecutor e
// storage.BatchExecutor, permitindo usar o emulador como backend remoto.
package emulator

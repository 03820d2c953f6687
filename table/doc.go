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

// Package table liga o mapeamento de entidades, o tradutor de consultas e
// os executores de armazenamento em um Table[T] tipado.
//
//	countries, _ := table.New[Country]("countries", backend, backend)
//	rows, err := countries.Find(ctx, countries.Query().Where(pred).Take(10))
//	results, err := countries.InsertOrReplace(ctx, items...)
package table

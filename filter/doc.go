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

// Package filter compila árvores de predicado booleano para a gramática de
// filtro do serviço de tabelas e formata escalares como literais de filtro.
//
//	pred := expr.Fn(expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe")), p)
//	text, err := filter.NewCompiler(nil).Compile(pred, entityType)
//	// text == "PartitionKey eq 'Europe'"
package filter

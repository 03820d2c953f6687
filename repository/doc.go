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

/*
Package repository fornece uma camada de serviço genérica sobre table.Table.

O objetivo é reduzir o boilerplate de quem consome o toolkit, entregando:
  - Validação de entrada automática via struct tags (validator/v10).
  - Operações CRUD padronizadas com suporte a Generics.
  - Hooks executados antes de criações e atualizações.

Exemplo de uso:

	type Country struct {
		Continent string `table:",partitionkey" validate:"required"`
		Name      string `table:",rowkey" validate:"required"`
		ETag      string `table:",etag"`
		Capital   string `validate:"required"`
	}

	tbl, _ := table.New[Country]("Countries", svc, svc)
	repo := repository.New(tbl)
	err := repo.Create(ctx, &Country{Continent: "Europe", Name: "Latvia", Capital: "Riga"})
*/
package repository

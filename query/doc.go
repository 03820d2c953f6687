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

// Package query monta consultas encadeadas sobre uma tabela e as traduz em
// uma consulta de storage mais uma continuação do lado do cliente.
//
//	q := query.From[Country]().
//		Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
//			return expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe"))
//		})).
//		Take(10)
//
//	res, err := query.NewTranslator().Translate(q.Expression(), entityType)
//	// *res.Filter == "PartitionKey eq 'Europe'", *res.Top == 10
//
// Os operadores são traduzidos do mais interno para fora, por uma tabela de
// despacho indexada pelo nome. Where vira a string de filtro; Select reduz as
// colunas transferidas; Take, First e Single definem o limite de linhas.
// Operador que o serviço não expressa por inteiro registra também uma
// continuação em memória aplicada às linhas materializadas.
package query

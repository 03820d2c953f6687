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

// Package expr implementa a árvore de expressões, pequena e fechada, que o
// tradutor de consultas consome.
//
// Um predicado como
//
//	p => p.Continent == "Europe" && list.Contains(p.Name)
//
// é escrito com os construtores deste pacote:
//
//	p := expr.Param[Country]("p")
//	body := expr.And(
//		expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe")),
//		expr.CallMethod(expr.Captured(&vars, "List"), "Contains", expr.Field(p, "Name")),
//	)
//	pred := expr.Fn(body, p)
//
// O conjunto de nós é fechado: Binary, Unary, Member, Constant, Parameter,
// Call, New, NewArray, MemberInit e Lambda. Quem consome faz switch nesses
// tipos e trata qualquer outro como erro.
//
// Evaluator reduz a constantes as subárvores sem parâmetro (variáveis
// capturadas, campos aninhados, chamadas de método e construtor, literais
// de []byte) e avalia projeções sobre valores já materializados.
package expr

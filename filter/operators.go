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

package filter

import "github.com/raywall/fast-table-toolkit/expr"

// binaryOperators é a tabela fixa de operadores da gramática de filtro.
var binaryOperators = map[expr.BinaryOp]string{
	expr.Equal:              "eq",
	expr.NotEqual:           "ne",
	expr.LessThan:           "lt",
	expr.LessThanOrEqual:    "le",
	expr.GreaterThan:        "gt",
	expr.GreaterThanOrEqual: "ge",
	expr.AndAlso:            "and",
	expr.OrElse:             "or",
}

var unaryOperators = map[expr.UnaryOp]string{
	expr.Not: "not",
}

// needsGrouping: operadores cujos operandos ganham parênteses quando também
// são um desses operadores.
var needsGrouping = map[expr.BinaryOp]bool{
	expr.AndAlso: true,
	expr.OrElse:  true,
}

// Operator devolve a grafia de filtro de um operador binário.
func Operator(op expr.BinaryOp) (string, bool) {
	s, ok := binaryOperators[op]
	return s, ok
}

func isGrouped(n expr.Node) bool {
	b, ok := n.(*expr.Binary)
	return ok && needsGrouping[b.Op]
}

// compareMethods viram comparações diretas contra a coluna.
var compareMethods = map[string]bool{
	"CompareTo":      true,
	"Compare":        true,
	"CompareOrdinal": true,
}

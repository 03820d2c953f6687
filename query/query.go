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

package query

import (
	"reflect"

	"github.com/raywall/fast-table-toolkit/expr"
)

// Source é o nó mais interno da cadeia: as linhas da tabela como sequência
// do tipo do elemento.
type Source interface {
	ElementType() reflect.Type
}

type source[T any] struct{}

func (source[T]) ElementType() reflect.Type { return reflect.TypeFor[T]() }

func (source[T]) String() string { return "Table<" + reflect.TypeFor[T]().Name() + ">" }

// Query é uma cadeia imutável de operadores sobre linhas de T. Cada método
// devolve uma nova Query embrulhando a expressão anterior.
type Query[T any] struct {
	node expr.Node
}

// From inicia uma consulta sobre as linhas de T.
func From[T any]() *Query[T] {
	return &Query[T]{node: expr.Const(source[T]{})}
}

// Of embrulha uma árvore montada à mão.
func Of[T any](n expr.Node) *Query[T] {
	return &Query[T]{node: n}
}

// Pred monta um lambda de um parâmetro sobre T.
func Pred[T any](body func(p *expr.Parameter) expr.Node) *expr.Lambda {
	p := expr.Param[T]("p")
	return expr.Fn(body(p), p)
}

// Expression devolve a árvore da consulta.
func (q *Query[T]) Expression() expr.Node { return q.node }

func (q *Query[T]) String() string { return q.node.String() }

func (q *Query[T]) call(method string, args ...expr.Node) *Query[T] {
	return &Query[T]{node: expr.CallStatic(method, nil, append([]expr.Node{q.node}, args...)...)}
}

// Where filtra por um predicado. Chamadas seguidas são combinadas com and.
func (q *Query[T]) Where(pred *expr.Lambda) *Query[T] { return q.call(OpWhere, pred) }

// Select projeta as linhas; o corpo costuma ser um inicializador montado
// com expr.Init.
func (q *Query[T]) Select(proj *expr.Lambda) *Query[T] { return q.call(OpSelect, proj) }

// Take limita o resultado a n linhas.
func (q *Query[T]) Take(n int) *Query[T] { return q.call(OpTake, expr.Const(n)) }

// First devolve a primeira linha. O predicado opcional vale como um Where.
func (q *Query[T]) First(pred ...*expr.Lambda) *Query[T] {
	return q.call(OpFirst, lambdas(pred)...)
}

// FirstOrDefault é First devolvendo o valor zero quando nada casa.
func (q *Query[T]) FirstOrDefault(pred ...*expr.Lambda) *Query[T] {
	return q.call(OpFirstOrDefault, lambdas(pred)...)
}

// Single devolve a única linha; falha se não houver nenhuma ou houver várias.
func (q *Query[T]) Single(pred ...*expr.Lambda) *Query[T] {
	return q.call(OpSingle, lambdas(pred)...)
}

// SingleOrDefault é Single devolvendo o valor zero quando nada casa.
func (q *Query[T]) SingleOrDefault(pred ...*expr.Lambda) *Query[T] {
	return q.call(OpSingleOrDefault, lambdas(pred)...)
}

func lambdas(ls []*expr.Lambda) []expr.Node {
	out := make([]expr.Node, 0, len(ls))
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

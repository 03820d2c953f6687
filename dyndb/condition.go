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

package dyndb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/raywall/fast-table-toolkit/rowfilter"
	"github.com/raywall/fast-table-toolkit/storage"
)

// name devolve o atributo onde a coluna é gravada.
func (s *Store) name(column string) expression.NameBuilder {
	switch column {
	case storage.PartitionKeyColumn:
		return expression.Name(s.cfg.HashKey)
	case storage.RowKeyColumn:
		return expression.Name(s.cfg.SortKey)
	}
	return expression.Name(column)
}

// constant devolve uma condição sempre verdadeira ou sempre falsa. Todo item
// tem o atributo de hash.
func (s *Store) constant(v bool) expression.ConditionBuilder {
	if v {
		return expression.AttributeExists(expression.Name(s.cfg.HashKey))
	}
	return expression.AttributeNotExists(expression.Name(s.cfg.HashKey))
}

// condition converte a árvore do filtro para o builder do SDK. Comparações
// com colunas ausentes são falsas, inclusive "ne".
func (s *Store) condition(n rowfilter.Node) (expression.ConditionBuilder, error) {
	switch t := n.(type) {
	case *rowfilter.Logical:
		left, err := s.condition(t.Left)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		right, err := s.condition(t.Right)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		if t.Op == "and" {
			return left.And(right), nil
		}
		return left.Or(right), nil

	case *rowfilter.Not:
		inner, err := s.condition(t.Operand)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		return expression.Not(inner), nil

	case *rowfilter.Literal:
		b, _ := t.Value.(bool)
		return s.constant(b), nil

	case *rowfilter.Comparison:
		return s.comparison(t)
	}
	return expression.ConditionBuilder{}, fmt.Errorf("dyndb: unsupported filter node %T", n)
}

func (s *Store) comparison(c *rowfilter.Comparison) (expression.ConditionBuilder, error) {
	if column, op, value, ok := c.Column(); ok {
		name := s.name(column)
		if value == nil {
			switch op {
			case rowfilter.Eq:
				return expression.AttributeNotExists(name), nil
			case rowfilter.Ne:
				return expression.AttributeExists(name), nil
			}
			return s.constant(false), nil
		}
		p, _ := plain(value)
		return compare(op, name, expression.Value(p))
	}

	left, lok := c.Left.(*rowfilter.Ident)
	right, rok := c.Right.(*rowfilter.Ident)
	if lok && rok {
		cond, err := compare(c.Op, s.name(left.Name), s.name(right.Name))
		if err != nil {
			return cond, err
		}
		return expression.AttributeExists(s.name(right.Name)).And(cond), nil
	}

	// literal contra literal tem valor fixo
	return s.constant(rowfilter.Match(c, storage.NewRow("", ""))), nil
}

func compare(op rowfilter.Op, left expression.NameBuilder, right expression.OperandBuilder) (expression.ConditionBuilder, error) {
	switch op {
	case rowfilter.Eq:
		return expression.Equal(left, right), nil
	case rowfilter.Ne:
		return expression.AttributeExists(left).And(expression.NotEqual(left, right)), nil
	case rowfilter.Gt:
		return expression.GreaterThan(left, right), nil
	case rowfilter.Ge:
		return expression.GreaterThanEqual(left, right), nil
	case rowfilter.Lt:
		return expression.LessThan(left, right), nil
	case rowfilter.Le:
		return expression.LessThanEqual(left, right), nil
	}
	return expression.ConditionBuilder{}, fmt.Errorf("dyndb: unsupported operator %q", op)
}

// projection inclui sempre as colunas de sistema e as dicas de tipo.
func (s *Store) projection(columns []string) (expression.ProjectionBuilder, bool) {
	if len(columns) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	proj := expression.NamesList(
		expression.Name(s.cfg.HashKey),
		expression.Name(s.cfg.SortKey),
		expression.Name(timestampAttr),
		expression.Name(etagAttr),
	)
	for _, c := range columns {
		switch c {
		case storage.PartitionKeyColumn, storage.RowKeyColumn, storage.TimestampColumn, storage.ETagColumn:
			continue
		}
		proj = proj.AddNames(expression.Name(c), expression.Name(c+typeSuffix))
	}
	return proj, true
}

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

package rowfilter

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/storage"
)

// Match informa se row satisfaz n. Node nil aceita qualquer linha.
// Comparar com coluna que a linha não tem dá false, assim como comparar
// valores de tipos incompatíveis.
func Match(n Node, row *storage.Row) bool {
	switch t := n.(type) {
	case nil:
		return true
	case *Logical:
		if t.Op == "and" {
			return Match(t.Left, row) && Match(t.Right, row)
		}
		return Match(t.Left, row) || Match(t.Right, row)
	case *Not:
		return !Match(t.Operand, row)
	case *Literal:
		b, _ := t.Value.(bool)
		return b
	case *Comparison:
		left, ok := operandValue(t.Left, row)
		if !ok {
			return false
		}
		right, ok := operandValue(t.Right, row)
		if !ok {
			return false
		}
		return compare(t.Op, left, right)
	}
	return false
}

func operandValue(n Node, row *storage.Row) (any, bool) {
	switch t := n.(type) {
	case *Literal:
		return t.Value, true
	case *Ident:
		return row.Value(t.Name)
	}
	return nil, false
}

func compare(op Op, a, b any) bool {
	if a == nil || b == nil {
		switch op {
		case Eq:
			return a == nil && b == nil
		case Ne:
			return (a == nil) != (b == nil)
		}
		return false
	}
	cmp, ok := order(a, b)
	if !ok {
		return false
	}
	switch op {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	}
	return false
}

func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x[:], y[:]), true
	case []byte:
		y, ok := b.([]byte)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x, y), true
	}
	return expr.Compare(a, b)
}

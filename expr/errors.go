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

package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedExpression: formato de nó que não pode ser avaliado
	// nem traduzido.
	ErrUnsupportedExpression = errors.New("expression not supported")
	// ErrUnsupportedType: literal de array com elemento diferente de byte
	// ou valor que não pode ser convertido.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrUnboundParameter: a avaliação encontrou um parâmetro sem valor
	// no escopo.
	ErrUnboundParameter = errors.New("unbound parameter")
)

// Error associa uma falha ao nó que a causou.
type Error struct {
	Node   Node
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("expr: %v: %s %s", e.Err, KindOf(e.Node), str(e.Node))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf monta um *Error para n embrulhando err com um detalhe formatado.
func Errorf(n Node, err error, format string, args ...any) *Error {
	return &Error{Node: n, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Unsupported monta um erro ErrUnsupportedExpression para n.
func Unsupported(n Node) *Error {
	return &Error{Node: n, Err: ErrUnsupportedExpression}
}

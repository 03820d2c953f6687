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
	"errors"
	"fmt"
	"math"

	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/filter"
	"github.com/rs/zerolog"
)

// Nomes de operadores que o tradutor entende.
const (
	OpWhere           = "Where"
	OpSelect          = "Select"
	OpTake            = "Take"
	OpFirst           = "First"
	OpFirstOrDefault  = "FirstOrDefault"
	OpSingle          = "Single"
	OpSingleOrDefault = "SingleOrDefault"
)

var (
	// ErrNoElements: First ou Single sem nenhuma linha.
	ErrNoElements = errors.New("query: sequence contains no elements")
	// ErrMoreThanOneElement: Single com mais de uma linha.
	ErrMoreThanOneElement = errors.New("query: sequence contains more than one element")
	// ErrNegativeCount: Take com valor negativo.
	ErrNegativeCount = errors.New("query: Take count must not be negative")
)

type handler func(t *Translator, st *state, call *expr.Call) error

// state acumula uma tradução.
type state struct {
	res       *Result
	names     filter.NameMapper
	projected bool
	columns   map[string]bool
}

// Translator transforma consultas em Results. Não guarda estado entre
// chamadas e pode ser usado concorrentemente.
type Translator struct {
	eval     *expr.Evaluator
	compiler *filter.Compiler
	handlers map[string]handler
	log      zerolog.Logger
}

// Option configura um Translator.
type Option func(*Translator)

// WithEvaluator compartilha um Evaluator (e o cache de acessores) com o
// tradutor.
func WithEvaluator(ev *expr.Evaluator) Option {
	return func(t *Translator) { t.eval = ev }
}

// WithLogger define o logger. Toda tradução é logada em debug.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Translator) { t.log = l }
}

// NewTranslator cria um Translator com a tabela padrão de operadores.
func NewTranslator(opts ...Option) *Translator {
	t := &Translator{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	if t.eval == nil {
		t.eval = expr.NewEvaluator()
	}
	t.compiler = filter.NewCompiler(t.eval, filter.WithLogger(t.log))
	t.handlers = map[string]handler{
		OpWhere:           (*Translator).where,
		OpSelect:          (*Translator).project,
		OpTake:            (*Translator).take,
		OpFirst:           terminal(1, first(false)),
		OpFirstOrDefault:  terminal(1, first(true)),
		OpSingle:          terminal(2, single(false)),
		OpSingleOrDefault: terminal(2, single(true)),
	}
	return t
}

// Evaluator devolve o avaliador usado pelo tradutor.
func (t *Translator) Evaluator() *expr.Evaluator { return t.eval }

// Translate percorre a cadeia do operador mais interno para fora. names
// traduz membros para colunas; nil mantém os nomes.
func (t *Translator) Translate(n expr.Node, names filter.NameMapper) (*Result, error) {
	st := &state{res: &Result{}, names: names, columns: map[string]bool{}}
	if err := t.visit(st, n); err != nil {
		t.log.Debug().Err(err).Str("expression", n.String()).Msg("query translation failed")
		return nil, err
	}

	ev := t.log.Debug().Str("expression", n.String())
	if st.res.Filter != nil {
		ev = ev.Str("filter", *st.res.Filter)
	}
	if len(st.res.Select) > 0 {
		ev = ev.Strs("select", st.res.Select)
	}
	if st.res.Top != nil {
		ev = ev.Int32("top", *st.res.Top)
	}
	ev.Msg("query translated")
	return st.res, nil
}

func (t *Translator) visit(st *state, n expr.Node) error {
	switch node := n.(type) {
	case *expr.Constant:
		// origem mais interna: a própria tabela ou uma sequência já materializada
		return nil
	case *expr.Call:
		h, ok := t.handlers[node.Method]
		if !ok || node.Target != nil || len(node.Args) == 0 {
			return expr.Unsupported(node)
		}
		if err := t.visit(st, node.Args[0]); err != nil {
			return err
		}
		return h(t, st, node)
	}
	return expr.Unsupported(n)
}

func lambdaArg(call *expr.Call, i int) (*expr.Lambda, error) {
	if len(call.Args) <= i {
		return nil, expr.Errorf(call, expr.ErrUnsupportedExpression, "missing argument %d", i)
	}
	l, ok := call.Args[i].(*expr.Lambda)
	if !ok || len(l.Params) != 1 {
		return nil, expr.Errorf(call, expr.ErrUnsupportedExpression, "argument %d must be a single-parameter lambda", i)
	}
	return l, nil
}

func (t *Translator) where(st *state, call *expr.Call) error {
	if len(call.Args) != 2 {
		return expr.Errorf(call, expr.ErrUnsupportedExpression, "Where takes one predicate")
	}
	pred, err := lambdaArg(call, 1)
	if err != nil {
		return err
	}
	return t.applyWhere(st, call, pred)
}

func (t *Translator) applyWhere(st *state, call *expr.Call, pred *expr.Lambda) error {
	if st.projected {
		return expr.Errorf(call, expr.ErrUnsupportedExpression, "filter after Select")
	}
	text, err := t.compiler.Compile(pred, st.names)
	if err != nil {
		return err
	}
	if st.res.Filter != nil {
		text = "(" + *st.res.Filter + ") and (" + text + ")"
	}
	st.res.Filter = &text
	return nil
}

func (t *Translator) project(st *state, call *expr.Call) error {
	if len(call.Args) != 2 {
		return expr.Errorf(call, expr.ErrUnsupportedExpression, "Select takes one projection")
	}
	proj, err := lambdaArg(call, 1)
	if err != nil {
		return err
	}
	if st.projected {
		return expr.Errorf(call, expr.ErrUnsupportedExpression, "multiple Select operators")
	}
	st.projected = true

	param := proj.Params[0]
	expr.Inspect(proj.Body, func(n expr.Node) bool {
		m, ok := expr.IsParameterMember(n, param)
		if !ok {
			return true
		}
		col := m.Name
		if st.names != nil {
			col = st.names.ColumnName(m.Name)
		}
		if !st.columns[col] {
			st.columns[col] = true
			st.res.Select = append(st.res.Select, col)
		}
		return false
	})
	st.res.PostProcess = st.res.PostProcess.Then(projection(t.eval, proj))
	return nil
}

func (t *Translator) take(st *state, call *expr.Call) error {
	if len(call.Args) != 2 {
		return expr.Errorf(call, expr.ErrUnsupportedExpression, "Take takes one count")
	}
	reduced, err := t.eval.Reduce(call.Args[1])
	if err != nil {
		return err
	}
	c, ok := reduced.(*expr.Constant)
	if !ok {
		return expr.Unsupported(call)
	}
	n, err := count(c.Value)
	if err != nil {
		return &expr.Error{Node: call, Err: err}
	}
	setTop(st, int32(n))
	st.res.PostProcess = st.res.PostProcess.Then(limit(n))
	return nil
}

func count(v any) (int64, error) {
	var n int64
	switch c := v.(type) {
	case int:
		n = int64(c)
	case int32:
		n = int64(c)
	case int64:
		n = c
	default:
		return 0, fmt.Errorf("query: Take count of type %T: %w", v, expr.ErrUnsupportedType)
	}
	if n < 0 {
		return 0, ErrNegativeCount
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return n, nil
}

// terminal monta o handler dos operadores tipo First e Single: predicado
// opcional, limite de linhas e o passo final em memória.
func terminal(top int32, step func() Continuation) handler {
	return func(t *Translator, st *state, call *expr.Call) error {
		switch len(call.Args) {
		case 1:
		case 2:
			pred, err := lambdaArg(call, 1)
			if err != nil {
				return err
			}
			if err := t.applyWhere(st, call, pred); err != nil {
				return err
			}
		default:
			return expr.Errorf(call, expr.ErrUnsupportedExpression, "%s takes at most one predicate", call.Method)
		}
		setTop(st, top)
		st.res.PostProcess = st.res.PostProcess.Then(step())
		return nil
	}
}

// setTop fica com o menor limite; um Take posterior não amplia o anterior.
func setTop(st *state, n int32) {
	if st.res.Top == nil || n < *st.res.Top {
		st.res.Top = &n
	}
}

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

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/rs/zerolog"
)

// ErrEmptyCollection: Contains sobre coleção vazia. A gramática não tem
// literal para um predicado sempre falso.
var ErrEmptyCollection = errors.New("filter: Contains over an empty collection")

// NameMapper traduz nomes de membros do objeto para nomes de coluna do serviço.
type NameMapper interface {
	ColumnName(member string) string
}

// NameMapperFunc adapta uma função a NameMapper.
type NameMapperFunc func(member string) string

func (f NameMapperFunc) ColumnName(member string) string { return f(member) }

// Compiler transforma lambdas de predicado em strings de filtro. Não guarda
// estado por chamada e pode ser compartilhado.
type Compiler struct {
	eval *expr.Evaluator
	log  zerolog.Logger
}

// CompilerOption configura um Compiler.
type CompilerOption func(*Compiler)

// WithLogger define o logger usado no trace.
func WithLogger(l zerolog.Logger) CompilerOption {
	return func(c *Compiler) { c.log = l }
}

// NewCompiler cria um Compiler. Sem evaluator, cria um privado.
func NewCompiler(ev *expr.Evaluator, opts ...CompilerOption) *Compiler {
	if ev == nil {
		ev = expr.NewEvaluator()
	}
	c := &Compiler{eval: ev, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile gera o filtro do corpo de um predicado de um parâmetro. Com names
// nil os nomes dos membros viram os nomes das colunas.
func (c *Compiler) Compile(pred *expr.Lambda, names NameMapper) (string, error) {
	if pred == nil || len(pred.Params) != 1 {
		return "", expr.Errorf(pred, expr.ErrUnsupportedExpression, "predicate must take exactly one parameter")
	}
	if names == nil {
		names = NameMapperFunc(func(m string) string { return m })
	}
	s := &session{Compiler: c, param: pred.Params[0], names: names}
	out, err := s.predicate(pred.Body)
	if err != nil {
		return "", err
	}
	c.log.Trace().Str("predicate", pred.String()).Str("filter", out).Msg("predicate compiled")
	return out, nil
}

type session struct {
	*Compiler
	param *expr.Parameter
	names NameMapper
}

// operand é um lado da comparação: coluna ou valor literal.
type operand struct {
	column string
	typ    reflect.Type
	value  any
	isCol  bool
}

func (s *session) predicate(n expr.Node) (string, error) {
	switch t := n.(type) {
	case *expr.Binary:
		if needsGrouping[t.Op] {
			return s.logical(t)
		}
		if t.Op.IsComparison() {
			return s.comparison(t)
		}
		return "", expr.Unsupported(t)

	case *expr.Unary:
		switch t.Op {
		case expr.Not:
			return s.not(t)
		case expr.Convert:
			return s.predicate(t.Operand)
		}
		return "", expr.Unsupported(t)

	case *expr.Call:
		if t.Method == "Contains" {
			return s.contains(t, false)
		}

	case *expr.Member:
		if col, ok, err := s.column(t); err != nil {
			return "", err
		} else if ok {
			if col.typ == nil || col.typ.Kind() != reflect.Bool {
				return "", expr.Errorf(t, expr.ErrUnsupportedExpression, "column %s is not boolean", col.column)
			}
			return col.column + " eq true", nil
		}
	}

	if !expr.HasParameter(n) {
		v, err := s.constant(n)
		if err != nil {
			return "", err
		}
		if b, ok := v.(bool); ok {
			return FormatLiteral(b), nil
		}
		return "", expr.Errorf(n, expr.ErrUnsupportedExpression, "predicate is not boolean")
	}
	return "", expr.Unsupported(n)
}

func (s *session) logical(b *expr.Binary) (string, error) {
	left, err := s.predicate(b.Left)
	if err != nil {
		return "", err
	}
	right, err := s.predicate(b.Right)
	if err != nil {
		return "", err
	}
	if isGrouped(b.Left) {
		left = "(" + left + ")"
	}
	if isGrouped(b.Right) {
		right = "(" + right + ")"
	}
	return left + " " + binaryOperators[b.Op] + " " + right, nil
}

// not traduz uma negação. Formatos emitidos:
//   - coluna booleana: "Col eq false" (sem o prefixo not)
//   - Contains negado: "(Col ne 'a' or Col ne 'b')", ou "Col ne 'a'" com um só item
//   - qualquer outro predicado X: "not (X)"
func (s *session) not(u *expr.Unary) (string, error) {
	op, ok := unaryOperators[u.Op]
	if !ok {
		return "", expr.Unsupported(u)
	}
	inner := u.Operand
	if cv, ok := inner.(*expr.Unary); ok && cv.Op == expr.Convert {
		inner = cv.Operand
	}
	switch t := inner.(type) {
	case *expr.Member:
		col, ok, err := s.column(t)
		if err != nil {
			return "", err
		}
		if ok && col.typ != nil && col.typ.Kind() == reflect.Bool {
			return col.column + " eq false", nil
		}
	case *expr.Call:
		if t.Method == "Contains" {
			return s.contains(t, true)
		}
	}
	body, err := s.predicate(inner)
	if err != nil {
		return "", err
	}
	return op + " (" + body + ")", nil
}

func (s *session) comparison(b *expr.Binary) (string, error) {
	b, err := s.unwrapCompare(b)
	if err != nil {
		return "", err
	}
	left, err := s.operand(b.Left)
	if err != nil {
		return "", err
	}
	right, err := s.operand(b.Right)
	if err != nil {
		return "", err
	}

	op := b.Op
	switch {
	case left.isCol && right.isCol:
		return "", expr.Errorf(b, expr.ErrUnsupportedExpression, "comparison between two columns")
	case !left.isCol && !right.isCol:
		return "", expr.Errorf(b, expr.ErrUnsupportedExpression, "comparison does not reference a column")
	case right.isCol:
		left, right, op = right, left, op.Mirror()
	}

	value, err := coerce(b, right.value, left.typ)
	if err != nil {
		return "", err
	}
	return left.column + " " + binaryOperators[op] + " " + FormatLiteral(value), nil
}

// unwrapCompare reescreve a.CompareTo(b) op 0, Compare(a, b) op 0 e as formas
// espelhadas como a op b.
func (s *session) unwrapCompare(b *expr.Binary) (*expr.Binary, error) {
	call, zero, mirrored := asCompareCall(b.Left), b.Right, false
	if call == nil {
		call, zero, mirrored = asCompareCall(b.Right), b.Left, true
	}
	if call == nil {
		return b, nil
	}

	z, err := s.constant(zero)
	if err != nil {
		return nil, err
	}
	if cmp, ok := expr.Compare(z, 0); !ok || cmp != 0 {
		return nil, expr.Errorf(b, expr.ErrUnsupportedExpression, "%s result must be compared with 0", call.Method)
	}

	var x, y expr.Node
	switch {
	case call.Target != nil && len(call.Args) == 1:
		x, y = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		x, y = call.Args[0], call.Args[1]
	default:
		return nil, expr.Unsupported(call)
	}

	op := b.Op
	if mirrored {
		op = op.Mirror()
	}
	return &expr.Binary{Op: op, Left: x, Right: y}, nil
}

func asCompareCall(n expr.Node) *expr.Call {
	if c, ok := n.(*expr.Call); ok && compareMethods[c.Method] {
		return c
	}
	return nil
}

func (s *session) operand(n expr.Node) (operand, error) {
	if u, ok := n.(*expr.Unary); ok && u.Op == expr.Convert && expr.References(u, s.param) {
		n = u.Operand
	}
	if m, ok := n.(*expr.Member); ok {
		col, isCol, err := s.column(m)
		if err != nil || isCol {
			return col, err
		}
	}
	if expr.References(n, s.param) {
		return operand{}, expr.Errorf(n, expr.ErrUnsupportedExpression, "only direct column references are supported")
	}
	v, err := s.constant(n)
	if err != nil {
		return operand{}, err
	}
	return operand{value: v}, nil
}

// column resolve m quando ele lê um membro direto do parâmetro. Acesso mais
// fundo (p.Address.City) é erro.
func (s *session) column(m *expr.Member) (operand, bool, error) {
	if _, ok := expr.IsParameterMember(m, s.param); !ok {
		if expr.References(m, s.param) {
			return operand{}, false, expr.Errorf(m, expr.ErrUnsupportedExpression, "nested member access on the query parameter")
		}
		return operand{}, false, nil
	}
	return operand{
		column: s.names.ColumnName(m.Name),
		typ:    memberType(s.param.Type, m.Name),
		isCol:  true,
	}, true, nil
}

func (s *session) constant(n expr.Node) (any, error) {
	reduced, err := s.eval.Reduce(n)
	if err != nil {
		return nil, err
	}
	c, ok := reduced.(*expr.Constant)
	if !ok {
		return nil, expr.Unsupported(n)
	}
	return c.Value, nil
}

// contains expande colecao.Contains(p.Col) numa disjunção de comparações
// eq. Negado, vira uma disjunção de comparações ne.
func (s *session) contains(call *expr.Call, negated bool) (string, error) {
	var seq, item expr.Node
	switch {
	case call.Target != nil && len(call.Args) == 1:
		seq, item = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		seq, item = call.Args[0], call.Args[1]
	default:
		return "", expr.Unsupported(call)
	}

	col, err := s.operand(item)
	if err != nil {
		return "", err
	}
	if !col.isCol {
		return "", expr.Errorf(call, expr.ErrUnsupportedExpression, "Contains argument must be a column")
	}
	if expr.References(seq, s.param) {
		return "", expr.Errorf(call, expr.ErrUnsupportedExpression, "Contains on a column is not supported")
	}
	v, err := s.constant(seq)
	if err != nil {
		return "", err
	}
	elems, ok := expr.Elements(v)
	if !ok {
		return "", expr.Errorf(call, expr.ErrUnsupportedType, "Contains on %T", v)
	}
	if len(elems) == 0 {
		return "", &expr.Error{Node: call, Err: ErrEmptyCollection}
	}

	op := binaryOperators[expr.Equal]
	if negated {
		op = binaryOperators[expr.NotEqual]
	}
	parts := make([]string, len(elems))
	for i, el := range elems {
		value, err := coerce(call, el, col.typ)
		if err != nil {
			return "", err
		}
		parts[i] = col.column + " " + op + " " + FormatLiteral(value)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " or ") + ")", nil
}

// memberType devolve o tipo Go do campo name em typ, ou nil.
func memberType(typ reflect.Type, name string) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	f, ok := typ.FieldByName(name)
	if !ok {
		return nil
	}
	return f.Type
}

// coerce converte o literal para o tipo da coluna: uma constante int
// comparada com coluna int64 sai com L, por exemplo.
func coerce(n expr.Node, v any, typ reflect.Type) (any, error) {
	if v == nil || typ == nil {
		return v, nil
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if unsigned(rv.Kind()) && rv.Uint() > math.MaxInt64 {
		return nil, expr.Errorf(n, expr.ErrUnsupportedType, "value %d has no Int64 literal", rv.Uint())
	}
	if rv.Type() == typ {
		return rv.Interface(), nil
	}
	if numeric(rv.Kind()) && numeric(typ.Kind()) {
		if cv, ok := lossless(rv, typ); ok {
			return cv.Interface(), nil
		}
		// o valor não cabe no tipo da coluna: mantém o literal original
		return rv.Interface(), nil
	}
	if rv.Kind() == reflect.String && typ.Kind() == reflect.String {
		return rv.Convert(typ).Interface(), nil
	}
	if rv.Kind() == reflect.Bool && typ.Kind() == reflect.Bool {
		return rv.Convert(typ).Interface(), nil
	}
	if !rv.Type().ConvertibleTo(typ) {
		return nil, expr.Errorf(n, expr.ErrUnsupportedType, "cannot compare %v column with %v value", typ, rv.Type())
	}
	return v, nil
}

// lossless converte rv para typ só quando a volta reproduz o mesmo valor
// (sem truncar frações, sem overflow e sem trocar o sinal).
func lossless(rv reflect.Value, typ reflect.Type) (reflect.Value, bool) {
	switch {
	case signed(rv.Kind()) && unsigned(typ.Kind()) && rv.Int() < 0:
		return reflect.Value{}, false
	case unsigned(rv.Kind()) && signed(typ.Kind()) && rv.Uint() > math.MaxInt64:
		return reflect.Value{}, false
	}
	cv := rv.Convert(typ)
	if cv.Convert(rv.Type()).Interface() != rv.Interface() {
		return reflect.Value{}, false
	}
	return cv, true
}

func signed(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func unsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

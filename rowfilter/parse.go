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
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/filter"
)

// ErrSyntax embrulha toda falha de parse.
var ErrSyntax = errors.New("rowfilter: syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLiteral
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value any
	pos   int
}

type parser struct {
	src  string
	toks []token
	pos  int
}

// Parse interpreta uma string de filtro. String vazia ou em branco devolve
// Node nil, que aceita qualquer linha.
func Parse(s string) (Node, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{src: s, toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, nil
}

// MustParse é Parse com panic em caso de erro.
func MustParse(s string) Node {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokIdent && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, t.pos, fmt.Sprintf(format, args...))
}

func (p *parser) or() (Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) and() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Node, error) {
	if p.keyword("not") {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t := p.peek()
	if t.kind == tokLParen {
		p.next()
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected ')'")
		}
		return n, nil
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	op, ok := p.operator()
	if !ok {
		// um literal booleano sozinho já é um predicado
		if lit, isLit := left.(*Literal); isLit {
			if _, isBool := lit.Value.(bool); isBool {
				return lit, nil
			}
		}
		return nil, p.errorf(p.peek(), "expected comparison operator after %s", left)
	}
	right, err := p.operand()
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: op, Left: left, Right: right}, nil
}

func (p *parser) operator() (Op, bool) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", false
	}
	switch op := Op(strings.ToLower(t.text)); op {
	case Eq, Ne, Gt, Ge, Lt, Le:
		p.pos++
		return op, true
	}
	return "", false
}

func (p *parser) operand() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokLiteral:
		return &Literal{Value: t.value}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null":
			return &Literal{Value: nil}, nil
		}
		if isKeyword(t.text) {
			return nil, p.errorf(t, "unexpected keyword %q", t.text)
		}
		return &Ident{Name: t.text}, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of filter")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '\'':
			text, end, err := quoted(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokLiteral, text: s[i:end], value: text, pos: i})
			i = end
		case c == '-' || c == '.' || unicode.IsDigit(c):
			tok, end, err := number(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = end
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(s) && (s[i] == '_' || unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i]))) {
				i++
			}
			word := s[start:i]
			if i < len(s) && s[i] == '\'' {
				tok, end, err := typed(s, start, word, i)
				if err != nil {
					return nil, err
				}
				toks = append(toks, tok)
				i = end
				continue
			}
			toks = append(toks, token{kind: tokIdent, text: word, pos: start})
		default:
			return nil, fmt.Errorf("%w at offset %d: unexpected character %q", ErrSyntax, i, c)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

// quoted lê a string entre aspas simples que começa em s[i]. Os literais
// são gravados sem escape, então a aspa só fecha a string quando vem seguida
// de espaço, ')' ou fim do filtro; qualquer outra aspa é conteúdo.
func quoted(s string, i int) (string, int, error) {
	for j := i + 1; j < len(s); j++ {
		if s[j] == '\'' && closes(s, j+1) {
			return s[i+1 : j], j + 1, nil
		}
	}
	return "", 0, fmt.Errorf("%w at offset %d: unterminated string", ErrSyntax, i)
}

func closes(s string, j int) bool {
	return j == len(s) || s[j] == ')' || unicode.IsSpace(rune(s[j]))
}

func number(s string, i int) (token, int, error) {
	start := i
	if s[i] == '-' {
		i++
	}
	isFloat := false
	for i < len(s) && (unicode.IsDigit(rune(s[i])) || s[i] == '.' || s[i] == 'e' || s[i] == 'E' ||
		((s[i] == '+' || s[i] == '-') && (s[i-1] == 'e' || s[i-1] == 'E'))) {
		if s[i] == '.' || s[i] == 'e' || s[i] == 'E' {
			isFloat = true
		}
		i++
	}
	text := s[start:i]
	if i < len(s) && (s[i] == 'L' || s[i] == 'l') && !isFloat {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return token{}, 0, fmt.Errorf("%w at offset %d: %v", ErrSyntax, start, err)
		}
		return token{kind: tokLiteral, text: s[start : i+1], value: n, pos: start}, i + 1, nil
	}
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 32); err == nil {
			return token{kind: tokLiteral, text: text, value: int32(n), pos: start}, i, nil
		}
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return token{kind: tokLiteral, text: text, value: n, pos: start}, i, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, fmt.Errorf("%w at offset %d: invalid number %q", ErrSyntax, start, text)
	}
	return token{kind: tokLiteral, text: text, value: f, pos: start}, i, nil
}

// typed lê literais prefixo'...': guid, X (binário) e datetime.
func typed(s string, start int, prefix string, quote int) (token, int, error) {
	text, end, err := quoted(s, quote)
	if err != nil {
		return token{}, 0, err
	}
	var value any
	switch strings.ToLower(prefix) {
	case "guid":
		value, err = uuid.Parse(text)
	case "x", "binary":
		value, err = hex.DecodeString(text)
	case "datetime":
		var tm time.Time
		tm, err = time.Parse(time.RFC3339Nano, text)
		if err != nil {
			tm, err = time.Parse(filter.DateTimeLayout, text)
		}
		value = tm.UTC()
	default:
		return token{}, 0, fmt.Errorf("%w at offset %d: unknown literal prefix %q", ErrSyntax, start, prefix)
	}
	if err != nil {
		return token{}, 0, fmt.Errorf("%w at offset %d: %v", ErrSyntax, start, err)
	}
	return token{kind: tokLiteral, text: s[start:end], value: value, pos: start}, end, nil
}

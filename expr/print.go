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
	"fmt"
	"strconv"
	"strings"
)

func (b *Binary) String() string {
	return "(" + str(b.Left) + " " + b.Op.Symbol() + " " + str(b.Right) + ")"
}

func (u *Unary) String() string {
	switch u.Op {
	case Not:
		return "!" + str(u.Operand)
	case Negate:
		return "-" + str(u.Operand)
	case Convert:
		return fmt.Sprintf("Convert(%s, %v)", str(u.Operand), u.Type)
	}
	return u.Op.String() + "(" + str(u.Operand) + ")"
}

func (m *Member) String() string {
	if c, ok := m.Target.(*Constant); ok {
		// holder de closure imprime como o nome da variável capturada
		return "value(" + fmt.Sprintf("%T", c.Value) + ")." + m.Name
	}
	return str(m.Target) + "." + m.Name
}

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", c.Value)
}

func (p *Parameter) String() string { return p.Name }

func (c *Call) String() string {
	var b strings.Builder
	if c.Target != nil {
		b.WriteString(str(c.Target))
		b.WriteByte('.')
	}
	b.WriteString(c.Method)
	writeArgs(&b, c.Args)
	return b.String()
}

func (n *New) String() string {
	var b strings.Builder
	b.WriteString("new ")
	b.WriteString(fmt.Sprintf("%T", n.Func))
	writeArgs(&b, n.Args)
	return b.String()
}

func (a *NewArray) String() string {
	var b strings.Builder
	b.WriteString("new []")
	b.WriteString(fmt.Sprint(a.Elem))
	b.WriteByte('{')
	for i, e := range a.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(str(e))
	}
	b.WriteByte('}')
	return b.String()
}

func (m *MemberInit) String() string {
	var b strings.Builder
	b.WriteString("new ")
	if m.Type != nil {
		b.WriteString(m.Type.String())
	}
	b.WriteString("{")
	for i, bind := range m.Bindings {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(bind.Member)
		b.WriteString(" = ")
		b.WriteString(str(bind.Value))
	}
	b.WriteString("}")
	return b.String()
}

func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}
	params := strings.Join(names, ", ")
	if len(names) != 1 {
		params = "(" + params + ")"
	}
	return params + " => " + str(l.Body)
}

func writeArgs(b *strings.Builder, args []Node) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(str(a))
	}
	b.WriteByte(')')
}

func str(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

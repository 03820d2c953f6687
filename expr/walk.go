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

// Inspect percorre a árvore em profundidade chamando fn para cada nó. Os
// filhos são pulados quando fn devolve false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *Binary:
		Inspect(t.Left, fn)
		Inspect(t.Right, fn)
	case *Unary:
		Inspect(t.Operand, fn)
	case *Member:
		Inspect(t.Target, fn)
	case *Call:
		if t.Target != nil {
			Inspect(t.Target, fn)
		}
		for _, a := range t.Args {
			Inspect(a, fn)
		}
	case *New:
		for _, a := range t.Args {
			Inspect(a, fn)
		}
	case *NewArray:
		for _, e := range t.Elems {
			Inspect(e, fn)
		}
	case *MemberInit:
		for _, b := range t.Bindings {
			Inspect(b.Value, fn)
		}
	case *Lambda:
		Inspect(t.Body, fn)
	}
}

// References informa se a árvore usa o parâmetro p.
func References(n Node, p *Parameter) bool {
	found := false
	Inspect(n, func(n Node) bool {
		if found {
			return false
		}
		if q, ok := n.(*Parameter); ok && q == p {
			found = true
		}
		return !found
	})
	return found
}

// HasParameter informa se a árvore usa algum parâmetro.
func HasParameter(n Node) bool {
	found := false
	Inspect(n, func(n Node) bool {
		if _, ok := n.(*Parameter); ok {
			found = true
		}
		return !found
	})
	return found
}

// IsParameterMember informa se m lê um membro direto de p (p.Name). Com p
// nil vale qualquer parâmetro.
func IsParameterMember(n Node, p *Parameter) (*Member, bool) {
	m, ok := n.(*Member)
	if !ok {
		return nil, false
	}
	q, ok := m.Target.(*Parameter)
	if !ok || (p != nil && q != p) {
		return nil, false
	}
	return m, true
}

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

package storage

// Properties é o saco de propriedades tipadas de uma linha. Mantém a ordem
// de inserção das chaves.
type Properties struct {
	keys   []string
	values map[string]any
}

// NewProperties cria um saco de propriedades vazio.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// Set grava o valor da propriedade name. Um nome novo vai para o fim da ordem.
func (p *Properties) Set(name string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
}

// Get devolve o valor da propriedade e se ela existe.
func (p *Properties) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Delete remove a propriedade, preservando a ordem das demais.
func (p *Properties) Delete(name string) {
	if p == nil {
		return
	}
	if _, ok := p.values[name]; !ok {
		return
	}
	delete(p.values, name)
	for i, k := range p.keys {
		if k == name {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys devolve os nomes em ordem de inserção.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len devolve o número de propriedades.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Range percorre as propriedades em ordem até fn devolver false.
func (p *Properties) Range(fn func(name string, value any) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Clone devolve uma cópia rasa; slices de bytes são copiados.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	p.Range(func(name string, value any) bool {
		if b, ok := value.([]byte); ok {
			value = append([]byte(nil), b...)
		}
		out.Set(name, value)
		return true
	})
	return out
}

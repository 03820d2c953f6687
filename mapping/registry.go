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

package mapping

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Source fornece Mappers para tipos que não carregam o próprio mapeamento,
// como tipos declarados em outro módulo.
type Source interface {
	Mappers() []Mapper
}

// TypedMapper é um Mapper de outro tipo, como os que um Source fornece para
// tipos declarados fora.
type TypedMapper interface {
	Mapper
	MappedType() reflect.Type
}

type funcMapper struct {
	typ reflect.Type
	fn  func(*Builder)
}

func (m funcMapper) MapEntity(b *Builder)     { m.fn(b) }
func (m funcMapper) MappedType() reflect.Type { return m.typ }

// MapperFor devolve um TypedMapper que mapeia T com fn.
func MapperFor[T any](fn func(*Builder)) TypedMapper {
	return funcMapper{typ: reflect.TypeFor[T](), fn: fn}
}

// SourceFunc adapta uma função a Source.
type SourceFunc func() []Mapper

func (f SourceFunc) Mappers() []Mapper { return f() }

// Registry guarda um EntityType por tipo. Buscas concorrentes por um tipo
// novo podem montá-lo em paralelo; vale o primeiro descritor gravado e todos
// recebem essa instância.
type Registry struct {
	types   sync.Map // reflect.Type -> *EntityType
	mu      sync.RWMutex
	sources []Source
	log     zerolog.Logger
}

// RegistryOption configura um Registry.
type RegistryOption func(*Registry)

// WithLogger define o logger do registry.
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry cria um Registry vazio.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default é o registry do processo, usado quando nenhum é informado.
var Default = NewRegistry()

// Register adiciona um descritor pronto. Falha se já houver outro para o
// tipo.
func (r *Registry) Register(e *EntityType) error {
	actual, loaded := r.types.LoadOrStore(e.typ, e)
	if loaded && actual.(*EntityType) != e {
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, e.typ)
	}
	return nil
}

// AddSource adiciona uma fonte de Mappers, consultada para tipos sem
// descritor registrado.
func (r *Registry) AddSource(s Source) {
	r.mu.Lock()
	r.sources = append(r.sources, s)
	r.mu.Unlock()
}

// Lookup devolve o descritor de t, montando no primeiro uso. Ordem: descritor
// registrado, Mapper de um source, Mapper do próprio tipo e por fim as tags.
func (r *Registry) Lookup(t reflect.Type) (*EntityType, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, &MappingError{Err: ErrNotStruct}
	}
	if e, ok := r.types.Load(t); ok {
		return e.(*EntityType), nil
	}

	e, err := r.build(t)
	if err != nil {
		r.log.Error().Err(err).Str("type", t.String()).Msg("entity mapping rejected")
		return nil, err
	}
	actual, loaded := r.types.LoadOrStore(t, e)
	if !loaded {
		r.log.Debug().Str("type", t.String()).Interface("columns", e.remap).Msg("entity mapped")
	}
	return actual.(*EntityType), nil
}

func (r *Registry) build(t reflect.Type) (*EntityType, error) {
	if m := r.sourceMapper(t); m != nil {
		b := NewMapFor(t)
		m.MapEntity(b)
		return b.Build()
	}
	if m, ok := selfMapper(t); ok {
		b := NewMapFor(t)
		m.MapEntity(b)
		return b.Build()
	}
	return FromTags(t)
}

func (r *Registry) sourceMapper(t reflect.Type) Mapper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		for _, m := range s.Mappers() {
			mt := reflect.TypeOf(m)
			if tm, ok := m.(TypedMapper); ok {
				mt = tm.MappedType()
			}
			for mt != nil && mt.Kind() == reflect.Pointer {
				mt = mt.Elem()
			}
			if mt == t {
				return m
			}
		}
	}
	return nil
}

func selfMapper(t reflect.Type) (Mapper, bool) {
	if m, ok := reflect.New(t).Interface().(Mapper); ok {
		return m, true
	}
	return nil, false
}

// For devolve o descritor de T em r, ou em Default quando r é nil.
func For[T any](r *Registry) (*EntityType, error) {
	if r == nil {
		r = Default
	}
	return r.Lookup(reflect.TypeFor[T]())
}

// MustFor é For com panic em caso de erro, para variáveis de pacote.
func MustFor[T any](r *Registry) *EntityType {
	e, err := For[T](r)
	if err != nil {
		panic(err)
	}
	return e
}

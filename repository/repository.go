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

package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/mapping"
	"github.com/raywall/fast-table-toolkit/query"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/raywall/fast-table-toolkit/table"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("item already exists")

	ErrEmptyCustomMethodName = errors.New("empty custom method name")
	ErrMethodNameNotFound    = errors.New("method name not found")
)

type HookType int

const (
	BeforeCreate HookType = iota
	BeforeUpdate
)

// BeforeSaveHook permite validar e/ou transformar o item antes da escrita.
// existing é nil em criações.
type BeforeSaveHook[T any] func(ctx context.Context, item *T, existing *T) error

// CustomMethod permite injetar um método customizado no repositório.
type CustomMethod[T any] func(ctx context.Context, args ...any) (*T, error)

type hooks[T any] struct {
	beforeCreate []BeforeSaveHook[T]
	beforeUpdate []BeforeSaveHook[T]
}

// Repository centraliza validação e regras de negócio sobre uma tabela.
type Repository[T any] struct {
	valid   *validator.Validate
	table   *table.Table[T]
	entity  *mapping.EntityType
	hooks   hooks[T]
	methods map[string]CustomMethod[T]
	log     zerolog.Logger
}

// Option configura o Repository.
type Option func(*settings)

type settings struct {
	valid *validator.Validate
	log   zerolog.Logger
}

// WithValidator compartilha um validator já configurado.
func WithValidator(v *validator.Validate) Option {
	return func(s *settings) { s.valid = v }
}

// WithLogger define o logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New cria um Repository sobre tbl.
func New[T any](tbl *table.Table[T], opts ...Option) *Repository[T] {
	s := settings{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.valid == nil {
		s.valid = validator.New()
	}
	return &Repository[T]{
		valid:   s.valid,
		table:   tbl,
		entity:  tbl.EntityType(),
		methods: make(map[string]CustomMethod[T]),
		log:     s.log,
	}
}

// RegisterHook registra lógica executada antes da escrita.
func (r *Repository[T]) RegisterHook(hookType HookType, fn BeforeSaveHook[T]) {
	switch hookType {
	case BeforeCreate:
		r.hooks.beforeCreate = append(r.hooks.beforeCreate, fn)
	case BeforeUpdate:
		r.hooks.beforeUpdate = append(r.hooks.beforeUpdate, fn)
	}
}

// RegisterValidation adiciona uma regra customizada ao validator.
func (r *Repository[T]) RegisterValidation(name string, fn validator.Func) error {
	return r.valid.RegisterValidation(name, fn)
}

// RegisterCustomMethod registra um método customizado.
func (r *Repository[T]) RegisterCustomMethod(name string, fn CustomMethod[T]) {
	r.methods[name] = fn
}

// RunCustomMethod executa um método customizado registrado.
func (r *Repository[T]) RunCustomMethod(ctx context.Context, name string, args ...any) (*T, error) {
	if name == "" {
		return nil, ErrEmptyCustomMethodName
	}
	fn, ok := r.methods[name]
	if !ok {
		return nil, ErrMethodNameNotFound
	}
	return fn(ctx, args...)
}

// Get busca um item pela PartitionKey e RowKey.
func (r *Repository[T]) Get(ctx context.Context, pk, rk string) (*T, error) {
	if pk == "" || rk == "" {
		return nil, ErrInvalidInput
	}
	pkName, rkName := r.entity.PartitionKey().Name, r.entity.RowKey().Name
	q := r.table.Query().Where(query.Pred[T](func(p *expr.Parameter) expr.Node {
		return expr.And(
			expr.Eq(expr.Field(p, pkName), expr.Const(pk)),
			expr.Eq(expr.Field(p, rkName), expr.Const(rk)),
		)
	}))
	items, err := r.table.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, pk, rk)
	}
	return &items[0], nil
}

// List devolve os itens que satisfazem todos os predicados (ou todos os
// itens da tabela, sem predicados).
func (r *Repository[T]) List(ctx context.Context, where ...*expr.Lambda) ([]T, error) {
	q := r.table.Query()
	for _, pred := range where {
		q = q.Where(pred)
	}
	return r.table.Find(ctx, q)
}

// Create valida o item pelas tags `validate`, executa os hooks e insere.
// A ETag gerada é gravada de volta no item.
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	if err := r.check(ctx, item); err != nil {
		return err
	}
	for _, hook := range r.hooks.beforeCreate {
		if err := hook(ctx, item, nil); err != nil {
			return err
		}
	}
	results, err := r.table.Insert(ctx, *item)
	if err != nil {
		if errors.Is(err, storage.ErrEntityExists) {
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		}
		return err
	}
	return r.setETag(item, results[0])
}

// Update valida o item, carrega a versão atual para os hooks e a substitui.
// Uma ETag presente no item torna a escrita condicional.
func (r *Repository[T]) Update(ctx context.Context, item *T) error {
	if err := r.check(ctx, item); err != nil {
		return err
	}
	pk, rk := r.keys(item)
	existing, err := r.Get(ctx, pk, rk)
	if err != nil {
		return err
	}
	for _, hook := range r.hooks.beforeUpdate {
		if err := hook(ctx, item, existing); err != nil {
			return err
		}
	}
	results, err := r.table.Replace(ctx, *item)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return err
	}
	return r.setETag(item, results[0])
}

// Delete remove o item identificado pelas chaves.
func (r *Repository[T]) Delete(ctx context.Context, pk, rk string) error {
	existing, err := r.Get(ctx, pk, rk)
	if err != nil {
		return err
	}
	_, err = r.table.Delete(ctx, *existing)
	return err
}

// SaveAll valida todos os itens, executa os hooks de criação e grava com
// InsertOrReplace. Nenhum item é escrito se algum for inválido.
func (r *Repository[T]) SaveAll(ctx context.Context, items []T) ([]storage.Result, error) {
	for i := range items {
		if err := r.check(ctx, &items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		for _, hook := range r.hooks.beforeCreate {
			if err := hook(ctx, &items[i], nil); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	results, err := r.table.InsertOrReplace(ctx, items...)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err := r.setETag(&items[i], results[i]); err != nil {
			return nil, err
		}
	}
	r.log.Debug().Str("table", r.table.Name()).Int("items", len(items)).Msg("items saved")
	return results, nil
}

func (r *Repository[T]) check(ctx context.Context, item *T) error {
	if item == nil {
		return ErrInvalidInput
	}
	if err := r.valid.StructCtx(ctx, item); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func (r *Repository[T]) keys(item *T) (string, string) {
	v := reflect.ValueOf(item).Elem()
	pk, _ := r.entity.PartitionKey().Get(v).(string)
	rk, _ := r.entity.RowKey().Get(v).(string)
	return pk, rk
}

func (r *Repository[T]) setETag(item *T, res storage.Result) error {
	acc := r.entity.ETag()
	if acc == nil || res.ETag == "" {
		return nil
	}
	return acc.Set(reflect.ValueOf(item).Elem(), res.ETag)
}

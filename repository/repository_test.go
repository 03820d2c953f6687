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
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/mapping"
	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/query"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/raywall/fast-table-toolkit/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Country struct {
	Continent  string `table:",partitionkey" validate:"required"`
	Name       string `table:",rowkey" validate:"required"`
	ETag       string `table:",etag"`
	Capital    string `validate:"required"`
	Population int64  `validate:"gte=0"`
}

func newRepo(t *testing.T) *Repository[Country] {
	t.Helper()
	svc := memtable.New()
	tbl, err := table.New[Country]("Countries", svc, svc, table.WithRegistry(mapping.NewRegistry()))
	require.NoError(t, err)
	return New(tbl)
}

func latvia() *Country {
	return &Country{Continent: "Europe", Name: "Latvia", Capital: "Riga", Population: 1900000}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	item := latvia()
	require.NoError(t, repo.Create(ctx, item))
	assert.NotEmpty(t, item.ETag)

	got, err := repo.Get(ctx, "Europe", "Latvia")
	require.NoError(t, err)
	assert.Equal(t, *item, *got)

	t.Run("duplicado", func(t *testing.T) {
		err := repo.Create(ctx, latvia())
		assert.ErrorIs(t, err, ErrAlreadyExists)
		assert.ErrorIs(t, err, storage.ErrEntityExists)
	})

	t.Run("inválido", func(t *testing.T) {
		err := repo.Create(ctx, &Country{Continent: "Europe", Name: "Estonia"})
		require.ErrorIs(t, err, ErrInvalidInput)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "Capital", verrs[0].Field())

		_, err = repo.Get(ctx, "Europe", "Estonia")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("chaves vazias", func(t *testing.T) {
		_, err := repo.Get(ctx, "", "Latvia")
		assert.Equal(t, ErrInvalidInput, err)
		_, err = repo.Get(ctx, "Europe", "")
		assert.Equal(t, ErrInvalidInput, err)
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, repo.Create(ctx, nil), ErrInvalidInput)
	})
}

func TestRepository_Hooks(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	repo.RegisterHook(BeforeCreate, func(_ context.Context, item, existing *Country) error {
		assert.Nil(t, existing)
		item.Capital = strings.ToUpper(item.Capital)
		return nil
	})
	repo.RegisterHook(BeforeCreate, func(_ context.Context, item, _ *Country) error {
		if item.Name == "Atlantis" {
			return errors.New("mythical")
		}
		return nil
	})

	require.NoError(t, repo.Create(ctx, latvia()))
	got, err := repo.Get(ctx, "Europe", "Latvia")
	require.NoError(t, err)
	assert.Equal(t, "RIGA", got.Capital)

	err = repo.Create(ctx, &Country{Continent: "Ocean", Name: "Atlantis", Capital: "Poseidonis"})
	assert.EqualError(t, err, "mythical")

	var seen *Country
	repo.RegisterHook(BeforeUpdate, func(_ context.Context, item, existing *Country) error {
		seen = existing
		if item.Population < existing.Population {
			return errors.New("population cannot shrink")
		}
		return nil
	})

	update := *got
	update.Population = 2000000
	require.NoError(t, repo.Update(ctx, &update))
	require.NotNil(t, seen)
	assert.Equal(t, int64(1900000), seen.Population)
	assert.NotEqual(t, got.ETag, update.ETag)

	shrink := update
	shrink.Population = 1
	assert.EqualError(t, repo.Update(ctx, &shrink), "population cannot shrink")
}

func TestRepository_Update(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	item := latvia()
	require.NoError(t, repo.Create(ctx, item))

	t.Run("etag desatualizada", func(t *testing.T) {
		stale := *item
		stale.ETag = `W/"stale"`
		stale.Capital = "Jurmala"
		assert.ErrorIs(t, repo.Update(ctx, &stale), storage.ErrPreconditionFailed)
	})

	t.Run("inexistente", func(t *testing.T) {
		missing := Country{Continent: "Europe", Name: "Narnia", Capital: "Cair Paravel"}
		assert.ErrorIs(t, repo.Update(ctx, &missing), ErrNotFound)
	})

	t.Run("sem etag sobrescreve", func(t *testing.T) {
		blind := *item
		blind.ETag = ""
		blind.Capital = "Jurmala"
		require.NoError(t, repo.Update(ctx, &blind))

		got, err := repo.Get(ctx, "Europe", "Latvia")
		require.NoError(t, err)
		assert.Equal(t, "Jurmala", got.Capital)
	})
}

func TestRepository_DeleteAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	results, err := repo.SaveAll(ctx, []Country{
		*latvia(),
		{Continent: "Europe", Name: "Germany", Capital: "Berlin", Population: 83000000},
		{Continent: "Africa", Name: "Chad", Capital: "N'Djamena", Population: 17000000},
	})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	big, err := repo.List(ctx, query.Pred[Country](func(p *expr.Parameter) expr.Node {
		return expr.Gt(expr.Field(p, "Population"), expr.Const(int64(10000000)))
	}), query.Pred[Country](func(p *expr.Parameter) expr.Node {
		return expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe"))
	}))
	require.NoError(t, err)
	require.Len(t, big, 1)
	assert.Equal(t, "Germany", big[0].Name)

	require.NoError(t, repo.Delete(ctx, "Africa", "Chad"))
	assert.ErrorIs(t, repo.Delete(ctx, "Africa", "Chad"), ErrNotFound)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_SaveAllValidatesEverything(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SaveAll(ctx, []Country{*latvia(), {Continent: "Europe", Name: "Estonia", Population: -1}})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "item 1")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_CustomRules(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	type Capital struct {
		Continent string `table:",partitionkey"`
		Name      string `table:",rowkey" validate:"is-capital"`
	}
	svc := memtable.New()
	tbl, err := table.New[Capital]("Capitals", svc, svc, table.WithRegistry(mapping.NewRegistry()))
	require.NoError(t, err)
	capitals := New(tbl)
	require.NoError(t, capitals.RegisterValidation("is-capital", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == strings.ToUpper(fl.Field().String())
	}))
	assert.ErrorIs(t, capitals.Create(ctx, &Capital{Continent: "Europe", Name: "riga"}), ErrInvalidInput)
	assert.NoError(t, capitals.Create(ctx, &Capital{Continent: "Europe", Name: "RIGA"}))

	t.Run("métodos customizados", func(t *testing.T) {
		repo.RegisterCustomMethod("capitalOf", func(ctx context.Context, args ...any) (*Country, error) {
			return repo.Get(ctx, "Europe", args[0].(string))
		})
		require.NoError(t, repo.Create(ctx, latvia()))

		got, err := repo.RunCustomMethod(ctx, "capitalOf", "Latvia")
		require.NoError(t, err)
		assert.Equal(t, "Riga", got.Capital)

		_, err = repo.RunCustomMethod(ctx, "")
		assert.Equal(t, ErrEmptyCustomMethodName, err)
		_, err = repo.RunCustomMethod(ctx, "nope")
		assert.Equal(t, ErrMethodNameNotFound, err)
	})
}

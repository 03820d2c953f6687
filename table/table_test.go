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

package table

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/raywall/fast-table-toolkit/expr"
	"github.com/raywall/fast-table-toolkit/mapping"
	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/query"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Country struct {
	Continent  string `table:",partitionkey"`
	Name       string `table:",rowkey"`
	ETag       string `table:",etag"`
	Population int64
	Area       float64
	IsExists   bool
}

type summary struct {
	Name string
	Area float64
}

var countries = []Country{
	{Continent: "Europe", Name: "Latvia", Population: 1900000, Area: 64589, IsExists: true},
	{Continent: "Europe", Name: "Germany", Population: 83000000, Area: 357022, IsExists: true},
	{Continent: "Africa", Name: "Chad", Population: 17000000, Area: 1284000, IsExists: true},
	{Continent: "Africa", Name: "Atlantis", IsExists: false},
}

type recorder struct {
	mu     sync.Mutex
	counts map[string]float64
}

func (r *recorder) add(name string, v float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]float64{}
	}
	r.counts[name] += v
	return nil
}

func (r *recorder) Count(name string, v float64, _ []string) error     { return r.add(name, v) }
func (r *recorder) Gauge(name string, v float64, _ []string) error     { return r.add(name, v) }
func (r *recorder) Histogram(name string, v float64, _ []string) error { return r.add(name, v) }

func newTable(t *testing.T, opts ...Option) (*Table[Country], *memtable.Service) {
	t.Helper()
	svc := memtable.New()
	tbl, err := New[Country]("countries", svc, svc, append([]Option{WithRegistry(mapping.NewRegistry())}, opts...)...)
	require.NoError(t, err)
	_, err = tbl.Insert(context.Background(), countries...)
	require.NoError(t, err)
	return tbl, svc
}

func TestTable_Find(t *testing.T) {
	tbl, _ := newTable(t)
	ctx := context.Background()
	list := &struct{ Names []string }{Names: []string{"Latvia", "Germany"}}

	q := tbl.Query().Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
		return expr.And(
			expr.CallMethod(expr.Captured(list, "Names"), "Contains", expr.Field(p, "Name")),
			expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe")),
		)
	}))
	res, err := tbl.Translate(q)
	require.NoError(t, err)
	assert.Equal(t, "(RowKey eq 'Latvia' or RowKey eq 'Germany') and PartitionKey eq 'Europe'", *res.Filter)

	got, err := tbl.Find(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Germany", got[0].Name)
	assert.Equal(t, int64(83000000), got[0].Population)
	assert.NotEmpty(t, got[0].ETag)

	list.Names = []string{"Chad"}
	got, err = tbl.Find(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, got, "Chad is not in Europe")
}

func TestTable_Execute(t *testing.T) {
	tbl, _ := newTable(t)
	ctx := context.Background()

	t.Run("boolean column", func(t *testing.T) {
		q := tbl.Query().Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
			return expr.Eq(expr.Field(p, "IsExists"), expr.Const(false))
		}))
		got, err := tbl.Find(ctx, q)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Atlantis", got[0].Name)
	})

	t.Run("select then first", func(t *testing.T) {
		q := tbl.Query().
			Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
				return expr.Ge(expr.Field(p, "Population"), expr.Const(10000000))
			})).
			Select(query.Pred[Country](func(p *expr.Parameter) expr.Node {
				return expr.Init(reflect.TypeFor[summary](),
					expr.Bind("Name", expr.Field(p, "Name")),
					expr.Bind("Area", expr.Field(p, "Area")),
				)
			})).
			First()
		out, err := tbl.Execute(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, summary{Name: "Chad", Area: 1284000}, out)

		_, err = tbl.Find(ctx, q)
		assert.ErrorIs(t, err, ErrNotSequence)
	})

	t.Run("single detects several matches", func(t *testing.T) {
		_, err := tbl.Execute(ctx, tbl.Query().Single(query.Pred[Country](func(p *expr.Parameter) expr.Node {
			return expr.Eq(expr.Field(p, "Continent"), expr.Const("Europe"))
		})))
		assert.ErrorIs(t, err, query.ErrMoreThanOneElement)
	})

	t.Run("take", func(t *testing.T) {
		got, err := tbl.Find(ctx, tbl.Query().Take(3))
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("translation error", func(t *testing.T) {
		_, err := tbl.Find(ctx, tbl.Query().Take(-2))
		assert.ErrorIs(t, err, query.ErrNegativeCount)
	})
}

func TestTable_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("results follow submission order in parallel mode", func(t *testing.T) {
		rec := &recorder{}
		svc := memtable.New(memtable.WithSinglePartition())
		tbl, err := New[Country]("c", svc, svc,
			WithRegistry(mapping.NewRegistry()),
			WithPartitionMode(storage.PartitionParallel),
			WithConcurrency(2),
			WithMetrics(rec),
		)
		require.NoError(t, err)

		var items []Country
		for i := 0; i < 300; i++ {
			continent := "Europe"
			if i%2 == 1 {
				continent = "Asia"
			}
			items = append(items, Country{Continent: continent, Name: fmt.Sprintf("c%03d", i)})
		}
		results, err := tbl.InsertOrReplace(ctx, items...)
		require.NoError(t, err)
		require.Len(t, results, 300)
		for i, r := range results {
			assert.Equal(t, items[i].Name, r.RowKey)
			assert.Equal(t, items[i].Continent, r.PartitionKey)
		}
		assert.Equal(t, 300, svc.Len("c"))
		assert.Equal(t, 4.0, rec.counts["table.batch.count"])
		assert.Equal(t, 300.0, rec.counts["table.batch.operations"])
	})

	t.Run("etag round trip through replace", func(t *testing.T) {
		tbl, _ := newTable(t)
		byName := tbl.Query().Single(query.Pred[Country](func(p *expr.Parameter) expr.Node {
			return expr.Eq(expr.Field(p, "Name"), expr.Const("Latvia"))
		}))
		out, err := tbl.Execute(ctx, byName)
		require.NoError(t, err)
		latvia := out.(Country)
		require.NotEmpty(t, latvia.ETag)

		latvia.Population++
		results, err := tbl.Replace(ctx, latvia)
		require.NoError(t, err)
		assert.NotEqual(t, latvia.ETag, results[0].ETag)

		_, err = tbl.Replace(ctx, latvia)
		assert.ErrorIs(t, err, storage.ErrPreconditionFailed, "the etag read before the first replace is stale")

		latvia.ETag = results[0].ETag
		_, err = tbl.Merge(ctx, latvia)
		require.NoError(t, err)
	})

	t.Run("stale etag is rejected", func(t *testing.T) {
		tbl, svc := newTable(t)
		stale := countries[0]
		stale.ETag = `W/"stale"`
		_, err := tbl.Delete(ctx, stale)
		assert.ErrorIs(t, err, storage.ErrPreconditionFailed)
		assert.Equal(t, 4, svc.Len("countries"))

		_, err = tbl.Delete(ctx, countries[0])
		require.NoError(t, err, "empty etag means unconditional")
		assert.Equal(t, 3, svc.Len("countries"))
	})

	t.Run("empty write", func(t *testing.T) {
		tbl, _ := newTable(t)
		_, err := tbl.Insert(ctx)
		assert.ErrorIs(t, err, storage.ErrNoEntities)
	})

	t.Run("executor failure", func(t *testing.T) {
		tbl, err := New[Country]("c", nil, failing{}, WithRegistry(mapping.NewRegistry()))
		require.NoError(t, err)
		_, err = tbl.Insert(ctx, countries[0])
		assert.ErrorIs(t, err, errBackend)

		_, err = tbl.Find(ctx, tbl.Query())
		assert.Error(t, err)
	})
}

func TestNew_InvalidMapping(t *testing.T) {
	type broken struct{ A string }
	_, err := New[broken]("b", nil, nil, WithRegistry(mapping.NewRegistry()))
	assert.ErrorIs(t, err, mapping.ErrMissingPartitionKey)
}

var errBackend = errors.New("backend down")

type failing struct{}

func (failing) ExecuteBatch(context.Context, string, storage.Batch) ([]storage.Result, error) {
	return nil, errBackend
}

func TestTable_FindQuoteInKey(t *testing.T) {
	tbl, _ := newTable(t)
	ctx := context.Background()
	_, err := tbl.Insert(ctx, Country{Continent: "Europe", Name: "O'Brien", Population: 10})
	require.NoError(t, err)

	q := tbl.Query().Where(query.Pred[Country](func(p *expr.Parameter) expr.Node {
		return expr.Eq(expr.Field(p, "Name"), expr.Const("O'Brien"))
	}))
	res, err := tbl.Translate(q)
	require.NoError(t, err)
	assert.Equal(t, "RowKey eq 'O'Brien'", *res.Filter)

	got, err := tbl.Find(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "O'Brien", got[0].Name)
	assert.Equal(t, int64(10), got[0].Population)
}

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

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raywall/fast-table-toolkit/memtable"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *mapStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if v, ok := s.data[key]; ok {
		for _, c := range v {
			n = n*10 + int64(c-'0')
		}
	}
	n++
	s.data[key] = []byte{byte('0' + n)}
	return n, nil
}

type countingExecutor struct {
	*memtable.Service
	queries int
}

func (c *countingExecutor) ExecuteQuery(ctx context.Context, table string, q storage.Query) ([]*storage.Row, error) {
	c.queries++
	return c.Service.ExecuteQuery(ctx, table, q)
}

type queryOnly struct{ storage.QueryExecutor }

func insert(t *testing.T, e storage.BatchExecutor, rk string, population int64) {
	t.Helper()
	row := storage.NewRow("Europe", rk)
	row.Properties.Set("Population", population)
	_, err := e.ExecuteBatch(context.Background(), "Countries", storage.Batch{{Type: storage.InsertOrReplace, Row: row}})
	require.NoError(t, err)
}

func TestExecutor_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingExecutor{Service: memtable.New()}
	store := newMapStore()
	exec := NewExecutor(backend, store, time.Minute)

	insert(t, exec, "Latvia", 1900000)

	filter := "Population gt 1000L"
	q := storage.Query{Filter: &filter}

	rows, err := exec.ExecuteQuery(ctx, "Countries", q)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	again, err := exec.ExecuteQuery(ctx, "Countries", q)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.queries)
	require.Len(t, again, 1)
	pop, _ := again[0].Properties.Get("Population")
	assert.Equal(t, int64(1900000), pop)
	assert.Equal(t, rows[0].ETag, again[0].ETag)

	for k, ttl := range store.ttls {
		assert.Equal(t, time.Minute, ttl, k)
	}

	// lote invalida a tabela
	insert(t, exec, "Germany", 83000000)
	rows, err = exec.ExecuteQuery(ctx, "Countries", q)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, backend.queries)

	// outra consulta, outra chave
	_, err = exec.ExecuteQuery(ctx, "Countries", storage.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, backend.queries)
}

func TestExecutor_EmptyResultIsCached(t *testing.T) {
	backend := &countingExecutor{Service: memtable.New()}
	exec := NewExecutor(backend, newMapStore(), time.Minute)

	for i := 0; i < 2; i++ {
		rows, err := exec.ExecuteQuery(context.Background(), "Missing", storage.Query{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	}
	assert.Equal(t, 1, backend.queries)
}

func TestExecutor_StoreFailureFallsThrough(t *testing.T) {
	backend := &countingExecutor{Service: memtable.New()}
	store := newMapStore()
	store.failGet = errors.New("connection refused")
	exec := NewExecutor(backend, store, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := exec.ExecuteQuery(context.Background(), "Countries", storage.Query{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, backend.queries)
}

func TestExecutor_ReadOnly(t *testing.T) {
	exec := NewExecutor(queryOnly{memtable.New()}, newMapStore(), time.Minute)
	_, err := exec.ExecuteBatch(context.Background(), "Countries", storage.Batch{})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestFingerprint(t *testing.T) {
	empty := ""
	f := "a eq 1"
	top := int32(3)

	base := Fingerprint(storage.Query{})
	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint(storage.Query{}))
	assert.NotEqual(t, base, Fingerprint(storage.Query{Filter: &empty}))
	assert.NotEqual(t, Fingerprint(storage.Query{Filter: &f}), Fingerprint(storage.Query{Filter: &f, Top: &top}))
	assert.NotEqual(t,
		Fingerprint(storage.Query{Select: []string{"a", "b"}}),
		Fingerprint(storage.Query{Select: []string{"b", "a"}}))
}

func TestRedisStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := NewRedisStore(client).Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

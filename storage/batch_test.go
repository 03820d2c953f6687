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

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOps(n int, pk func(i int) string) []Operation {
	ops := make([]Operation, n)
	for i := range ops {
		ops[i] = Operation{Type: Insert, Row: NewRow(pk(i), fmt.Sprintf("r%03d", i))}
	}
	return ops
}

func batchSizes(batches []Batch) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = len(b)
	}
	return sizes
}

func TestPartition_Ungrouped(t *testing.T) {
	ops := makeOps(200, func(int) string { return "p" })

	batches, err := Partition(ops, PartitionNone)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100}, batchSizes(batches))

	t.Run("sequential mode chunks the same way", func(t *testing.T) {
		batches, err := Partition(makeOps(250, func(i int) string { return fmt.Sprint(i % 3) }), PartitionSequential)
		require.NoError(t, err)
		assert.Equal(t, []int{100, 100, 50}, batchSizes(batches))
		assert.False(t, batches[0].SinglePartition())
	})
}

func TestPartition_GroupedByPartitionKey(t *testing.T) {
	// 150 linhas intercaladas entre duas partições
	ops := makeOps(300, func(i int) string {
		if i%2 == 0 {
			return "europe"
		}
		return "africa"
	})

	batches, err := Partition(ops, PartitionParallel)
	require.NoError(t, err)
	require.Equal(t, []int{100, 50, 100, 50}, batchSizes(batches))

	assert.Equal(t, "europe", batches[0].PartitionKey())
	assert.Equal(t, "europe", batches[1].PartitionKey())
	assert.Equal(t, "africa", batches[2].PartitionKey())
	assert.Equal(t, "africa", batches[3].PartitionKey())
	for _, b := range batches {
		assert.True(t, b.SinglePartition())
	}

	// ordem interna do grupo preservada
	assert.Equal(t, "r000", batches[0][0].Row.RowKey)
	assert.Equal(t, "r002", batches[0][1].Row.RowKey)
	assert.Equal(t, "r001", batches[2][0].Row.RowKey)
}

func TestPartition_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		batches, err := Partition(nil, PartitionParallel)
		assert.ErrorIs(t, err, ErrNoEntities)
		assert.Nil(t, batches)
	})

	t.Run("operation without row", func(t *testing.T) {
		_, err := Partition([]Operation{{Type: Delete}}, PartitionNone)
		assert.Error(t, err)
	})
}

func TestParseOperationType(t *testing.T) {
	op, err := ParseOperationType("insertormerge")
	require.NoError(t, err)
	assert.Equal(t, InsertOrMerge, op)
	assert.Equal(t, "InsertOrMerge", op.String())

	_, err = ParseOperationType("upsert")
	assert.Error(t, err)
}

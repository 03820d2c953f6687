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

package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-table-toolkit/pkg/config"
	"github.com/raywall/fast-table-toolkit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func country(rk string, area int32) *storage.Row {
	row := storage.NewRow("Europe", rk)
	row.Properties.Set("Area", area)
	row.Properties.Set("Name", rk)
	row.Properties.Set("Code", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	row.Properties.Set("Joined", time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC))
	return row
}

func TestEvaluateBool(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	row := country("Latvia", 64589)

	ok, err := rm.EvaluateBool("row.Area >= 1000 && row.PartitionKey == 'Europe'", row)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rm.EvaluateBool("row.Name.startsWith('X')", row)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rm.EvaluateBool("row.Code.size() == 36 && row.Joined < timestamp('2010-01-01T00:00:00Z')", row)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rm.EvaluateBool("", row)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = rm.EvaluateBool("row.Area +", row)
	assert.Error(t, err)

	_, err = rm.EvaluateBool("row.Area + 1", row)
	assert.ErrorContains(t, err, "boolean")
}

func TestRuleSet(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	set, err := rm.Compile([]config.RowRule{
		{ID: "positive-area", Expr: "row.Area > 0", Message: "area must be positive"},
		{ID: "named", Expr: "has(row.Name) && row.Name != ''"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	require.NoError(t, set.CheckAll([]*storage.Row{country("Latvia", 64589), country("Estonia", 45339)}))

	err = set.CheckAll([]*storage.Row{country("Latvia", 64589), country("Atlantis", 0)})
	require.ErrorIs(t, err, ErrViolation)
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "positive-area", v.Rule)
	assert.Equal(t, "Atlantis", v.RowKey)
	assert.Contains(t, err.Error(), "area must be positive")

	unnamed := storage.NewRow("Europe", "Nowhere")
	unnamed.Properties.Set("Area", int32(1))
	err = set.Check(unnamed)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "named", v.Rule)

	_, err = rm.Compile([]config.RowRule{{ID: "broken", Expr: "row.Area >"}})
	assert.ErrorContains(t, err, "broken")
}

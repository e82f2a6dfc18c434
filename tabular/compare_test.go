// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tabular_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-tabular/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := abcTable(t, mem)
	defer tbl.Release()

	// same values as abcTable, every column in a single chunk.
	flat, err := tabular.FromColumns([]tabular.Column{
		{Name: "a", Value: []any{1, 2, 3, nil, 5}},
		{Name: "b", Value: []string{"v", "w", "x", "y", "z"}},
		{Name: "c", Value: []bool{true, false, true, false, true}},
	}, tabular.WithAllocator(mem))
	require.NoError(t, err)
	defer flat.Release()

	assert.True(t, tbl.Equal(tbl, true))
	assert.True(t, tbl.Equal(flat, true), "chunk layout is ignored")
	assert.True(t, flat.Equal(tbl, true))
	assert.False(t, tbl.Equal(nil, false))

	t.Run("values", func(t *testing.T) {
		other, err := flat.SetColumn(1, flat.Schema().Field(1), []string{"v", "w", "x", "y", "Z"})
		require.NoError(t, err)
		defer other.Release()
		assert.False(t, tbl.Equal(other, false))
	})

	t.Run("rows", func(t *testing.T) {
		sub, err := tbl.Slice(0, 4)
		require.NoError(t, err)
		defer sub.Release()
		assert.False(t, tbl.Equal(sub, false))
	})

	t.Run("nullability", func(t *testing.T) {
		fields := append([]arrow.Field(nil), tbl.Schema().Fields()...)
		fields[1].Nullable = false
		strict, err := tabular.New(arrow.NewSchema(fields, nil), tbl.Columns(), -1, tabular.WithAllocator(mem))
		require.NoError(t, err)
		defer strict.Release()
		assert.False(t, tbl.Equal(strict, false))
	})

	t.Run("types", func(t *testing.T) {
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues([]int32{1, 2, 3, 0, 5}, []bool{true, true, true, false, true})
		arr := b.NewArray()
		defer arr.Release()

		other, err := tbl.SetColumn(0, arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true}, arr)
		require.NoError(t, err)
		defer other.Release()
		assert.False(t, tbl.Equal(other, false))
	})

	t.Run("metadata", func(t *testing.T) {
		md := tbl.ReplaceSchemaMetadata(arrow.NewMetadata([]string{"a", "b"}, []string{"1", "2"}))
		defer md.Release()
		reordered := tbl.ReplaceSchemaMetadata(arrow.NewMetadata([]string{"b", "a"}, []string{"2", "1"}))
		defer reordered.Release()

		assert.True(t, tbl.Equal(md, false))
		assert.False(t, tbl.Equal(md, true))
		assert.True(t, md.Equal(reordered, true), "metadata compares as a set")

		fields := append([]arrow.Field(nil), tbl.Schema().Fields()...)
		fields[0].Metadata = arrow.NewMetadata([]string{"unit"}, []string{"m"})
		tagged, err := tabular.New(arrow.NewSchema(fields, nil), tbl.Columns(), -1, tabular.WithAllocator(mem))
		require.NoError(t, err)
		defer tagged.Release()
		assert.True(t, tbl.Equal(tagged, false))
		assert.False(t, tbl.Equal(tagged, true))
	})
}

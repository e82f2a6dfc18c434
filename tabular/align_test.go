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

package tabular

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkedInt64(t *testing.T, mem memory.Allocator, sizes ...int) *arrow.Chunked {
	t.Helper()
	chunks := make([]arrow.Array, len(sizes))
	var v int64
	for i, sz := range sizes {
		b := array.NewInt64Builder(mem)
		for k := 0; k < sz; k++ {
			b.Append(v)
			v++
		}
		chunks[i] = b.NewArray()
		b.Release()
	}
	defer releaseArrays(chunks)
	return arrow.NewChunked(arrow.PrimitiveTypes.Int64, chunks)
}

func TestSegmenter(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := chunkedInt64(t, mem, 3, 4)
	defer a.Release()
	b := chunkedInt64(t, mem, 1, 0, 5, 1)
	defer b.Release()

	for _, tc := range []struct {
		name string
		max  int64
		want []int64
	}{
		{"aligned", 0, []int64{1, 2, 3, 1}},
		{"bounded", 2, []int64{1, 2, 2, 1, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seg := newSegmenter([]*arrow.Chunked{a, b}, 7, tc.max)
			var (
				got  []int64
				rows int64
			)
			for {
				arrs, n, ok := seg.next()
				if !ok {
					break
				}
				require.Len(t, arrs, 2)
				for _, arr := range arrs {
					assert.EqualValues(t, n, arr.Len())
					assert.Equal(t, rows, arr.(*array.Int64).Value(0), "segments follow row order")
				}
				got = append(got, n)
				rows += n
				releaseArrays(arrs)
			}
			assert.Equal(t, tc.want, got)
			assert.EqualValues(t, 7, rows)
		})
	}

	t.Run("empty", func(t *testing.T) {
		seg := newSegmenter([]*arrow.Chunked{a}, 0, 0)
		_, _, ok := seg.next()
		assert.False(t, ok)
	})

	t.Run("no columns", func(t *testing.T) {
		seg := newSegmenter(nil, 5, 3)
		var got []int64
		for {
			_, n, ok := seg.next()
			if !ok {
				break
			}
			got = append(got, n)
		}
		assert.Equal(t, []int64{3, 2}, got)
	})
}

func TestMapColumnsReleasesOnError(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	errBoom := errors.New("boom")
	for _, limit := range []int{1, 2, 0} {
		var calls atomic.Int32
		out, err := mapColumns(context.Background(), 6, limit, func(_ context.Context, i int) (*arrow.Chunked, error) {
			calls.Add(1)
			if i == 3 {
				return nil, errBoom
			}
			return chunkedInt64(t, mem, i+1), nil
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Nil(t, out)
		assert.Positive(t, calls.Load())
	}
}

func TestFlatten(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	for _, sizes := range [][]int{{}, {4}, {1, 2, 3}} {
		c := chunkedInt64(t, mem, sizes...)
		arr, err := flatten(c, mem)
		require.NoError(t, err)
		assert.Equal(t, c.Len(), arr.Len())
		if len(sizes) == 1 {
			assert.Same(t, c.Chunk(0), arr)
		}
		arr.Release()
		c.Release()
	}
}

func TestValidateOffsets(t *testing.T) {
	for _, tc := range []struct {
		name           string
		offsets        []int64
		offset, length int64
		limit          int64
		ok             bool
	}{
		{"valid", []int64{0, 1, 3, 3}, 0, 3, 3, true},
		{"window", []int64{5, 0, 1, 3}, 1, 2, 3, true},
		{"empty", nil, 0, 0, 0, true},
		{"short", []int64{0, 1}, 0, 2, 3, false},
		{"decreasing", []int64{0, 2, 1}, 0, 2, 3, false},
		{"past end", []int64{0, 2, 4}, 0, 2, 3, false},
		{"negative", []int64{-1, 0}, 0, 1, 3, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := validateOffsets(tc.offsets, tc.offset, tc.length, tc.limit)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestWiden(t *testing.T) {
	assert.Equal(t, []int64{-1, 0, 7}, widen[int, int64]([]int{-1, 0, 7}))
	assert.Equal(t, []uint64{0, 9}, widen[uint, uint64]([]uint{0, 9}))
}

func TestMetadataHelpers(t *testing.T) {
	md := arrow.NewMetadata([]string{"a"}, []string{"1"})
	set := setMetadata(md, "b", "2")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, md.Len(), "input metadata is not modified")

	replaced := setMetadata(set, "a", "x")
	assert.Equal(t, []string{"x", "2"}, replaced.Values())

	assert.True(t, metadataEqual(set, arrow.NewMetadata([]string{"b", "a"}, []string{"2", "1"})))
	assert.False(t, metadataEqual(set, replaced))
	assert.False(t, metadataEqual(set, md))
}

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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// NewChunked is arrow.NewChunked returning an error instead of panicking
// when a chunk does not have type dtype.
func NewChunked(dtype arrow.DataType, chunks []arrow.Array) (*arrow.Chunked, error) {
	for i, c := range chunks {
		if !arrow.TypeEqual(c.DataType(), dtype) {
			return nil, fmt.Errorf("arrow/tabular: %w: chunk %d has type %s, expected %s",
				ErrTypeMismatch, i, c.DataType(), dtype)
		}
	}
	return arrow.NewChunked(dtype, chunks), nil
}

// Locate returns the chunk holding row i of c and the position of that row
// within the chunk. It returns (-1, -1) if i is out of range.
func Locate(c *arrow.Chunked, i int64) (chunk int, offset int64) {
	if i < 0 || i >= int64(c.Len()) {
		return -1, -1
	}
	for k, arr := range c.Chunks() {
		n := int64(arr.Len())
		if i < n {
			return k, i
		}
		i -= n
	}
	return -1, -1
}

// chunkedOf wraps a single array, which must then be released by the
// caller independently of the result.
func chunkedOf(arr arrow.Array) *arrow.Chunked {
	return arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
}

// flatten returns the contents of c as one array. A single chunk is shared,
// while multiple chunks are concatenated into a new array.
func flatten(c *arrow.Chunked, mem memory.Allocator) (arrow.Array, error) {
	switch chunks := c.Chunks(); len(chunks) {
	case 0:
		return array.MakeArrayOfNull(mem, c.DataType(), 0), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, mem)
	}
}

func releaseChunked(cols []*arrow.Chunked) {
	for _, c := range cols {
		if c != nil {
			c.Release()
		}
	}
}

func releaseArrays(arrs []arrow.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}

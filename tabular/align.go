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
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// segmenter walks equally long chunked arrays in lock step and yields runs
// of rows that do not cross a chunk boundary in any of them, so every run
// is a set of zero-copy slices of one chunk per column.
type segmenter struct {
	cols   []*arrow.Chunked
	chunk  []int
	offset []int64

	pos, end int64
	max      int64
}

// newSegmenter creates a segmenter over cols covering rows [0, rows).
// Segments are at most max rows long when max > 0.
func newSegmenter(cols []*arrow.Chunked, rows, max int64) *segmenter {
	return &segmenter{
		cols:   cols,
		chunk:  make([]int, len(cols)),
		offset: make([]int64, len(cols)),
		end:    rows,
		max:    max,
	}
}

// next returns the slices of the next segment and its length. The caller
// must release the returned arrays.
func (s *segmenter) next() ([]arrow.Array, int64, bool) {
	if s.pos >= s.end {
		return nil, 0, false
	}

	n := s.end - s.pos
	if s.max > 0 && s.max < n {
		n = s.max
	}
	for i, c := range s.cols {
		chunks := c.Chunks()
		for s.chunk[i] < len(chunks) && s.offset[i] >= int64(chunks[s.chunk[i]].Len()) {
			s.chunk[i]++
			s.offset[i] = 0
		}
		if s.chunk[i] >= len(chunks) {
			// shorter than the others; the table invariants were broken.
			return nil, 0, false
		}
		if rem := int64(chunks[s.chunk[i]].Len()) - s.offset[i]; rem < n {
			n = rem
		}
	}

	out := make([]arrow.Array, len(s.cols))
	for i, c := range s.cols {
		beg := s.offset[i]
		out[i] = array.NewSlice(c.Chunk(s.chunk[i]), beg, beg+n)
		s.offset[i] += n
	}
	s.pos += n
	return out, n, true
}

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
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-tabular/internal/debug"
)

// RecordReader yields the rows of a table as record batches. A batch never
// crosses a chunk boundary of any column, so every batch shares its buffers
// with the table.
type RecordReader struct {
	refCount int64

	tbl *Table
	seg *segmenter
	cur arrow.Record
}

// NewRecordReader returns a reader over tbl producing batches of at most
// maxRows rows (unbounded if maxRows <= 0). The reader retains tbl.
func NewRecordReader(tbl *Table, maxRows int64) *RecordReader {
	tbl.Retain()
	return &RecordReader{
		refCount: 1,
		tbl:      tbl,
		seg:      newSegmenter(tbl.cols, tbl.rows, maxRows),
	}
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *RecordReader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the table and the current record
// are released.
// Release may be called simultaneously from multiple goroutines.
func (r *RecordReader) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.cur != nil {
			r.cur.Release()
			r.cur = nil
		}
		r.tbl.Release()
		r.tbl = nil
	}
}

func (r *RecordReader) Schema() *arrow.Schema { return r.tbl.schema }

// Next advances to the next batch. It returns false at the end of the table.
func (r *RecordReader) Next() bool {
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}

	arrs, n, ok := r.seg.next()
	if !ok {
		return false
	}
	defer releaseArrays(arrs)
	r.cur = array.NewRecord(r.tbl.schema, arrs, n)
	debug.Logf("record reader: batch of %d rows", n)
	return true
}

// Record returns the current batch. It is valid until the next call to
// Next; Retain it to keep it longer.
func (r *RecordReader) Record() arrow.Record { return r.cur }

// Err is always nil; slicing a valid table cannot fail.
func (r *RecordReader) Err() error { return nil }

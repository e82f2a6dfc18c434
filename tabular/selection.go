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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"golang.org/x/exp/constraints"
)

// Slice returns a zero-copy view of rows [offset, offset+length). length is
// optional; without it the view runs to the last row, and a range past the
// end is clamped to NumRows.
func (t *Table) Slice(offset int64, length ...int64) (*Table, error) {
	if len(length) > 1 {
		return nil, fmt.Errorf("arrow/tabular: %w: slice takes at most one length", ErrInvalidArgument)
	}
	if offset < 0 || offset > t.rows {
		return nil, fmt.Errorf("arrow/tabular: %w: slice offset %d outside [0, %d]",
			ErrInvalidArgument, offset, t.rows)
	}

	end := t.rows
	if len(length) == 1 {
		n := length[0]
		if n < 0 {
			return nil, fmt.Errorf("arrow/tabular: %w: negative slice length %d", ErrInvalidArgument, n)
		}
		if n < t.rows-offset {
			end = offset + n
		}
	}

	cols := make([]*arrow.Chunked, len(t.cols))
	for i, c := range t.cols {
		cols[i] = array.NewChunkedSlice(c, offset, end)
	}
	return t.derive(t.schema, cols, end-offset), nil
}

// Take returns a table whose k-th row is row indices[k] of t. indices must
// be an integer array; a null index produces a row of nulls and marks the
// fields of the result nullable.
func (t *Table) Take(ctx context.Context, indices arrow.Array) (*Table, error) {
	if indices == nil {
		return nil, fmt.Errorf("arrow/tabular: %w: nil take indices", ErrInvalidArgument)
	}
	if !arrow.IsInteger(indices.DataType().ID()) {
		return nil, fmt.Errorf("arrow/tabular: %w: take indices must be integers, got %s",
			ErrTypeMismatch, indices.DataType())
	}
	if err := checkIndices(indices, t.rows); err != nil {
		return nil, err
	}

	ctx = t.computeContext(ctx)
	opts := compute.DefaultTakeOptions()
	cols, err := mapColumns(ctx, len(t.cols), t.cfg.concurrency, func(ctx context.Context, i int) (*arrow.Chunked, error) {
		values, err := flatten(t.cols[i], t.cfg.mem)
		if err != nil {
			return nil, err
		}
		defer values.Release()

		out, err := invokeArray(ctx, t.cfg.exec, FuncTake, opts, values, indices)
		if err != nil {
			return nil, fmt.Errorf("arrow/tabular: take column %d (%q): %w", i, t.schema.Field(i).Name, err)
		}
		defer out.Release()
		return NewChunked(t.cols[i].DataType(), []arrow.Array{out})
	})
	if err != nil {
		return nil, err
	}
	return t.derive(t.nullableWhereNeeded(cols), cols, int64(indices.Len())), nil
}

// nullableWhereNeeded returns the schema of t with the fields marked
// nullable whose column in cols holds nulls.
func (t *Table) nullableWhereNeeded(cols []*arrow.Chunked) *arrow.Schema {
	var fields []arrow.Field
	for i, c := range cols {
		if t.schema.Field(i).Nullable || c.NullN() == 0 {
			continue
		}
		if fields == nil {
			fields = append([]arrow.Field(nil), t.schema.Fields()...)
		}
		fields[i].Nullable = true
	}
	if fields == nil {
		return t.schema
	}
	return arrow.NewSchema(fields, t.metadata())
}

// TakeIndices is Take with the row positions given as a Go slice.
func (t *Table) TakeIndices(ctx context.Context, indices []int64) (*Table, error) {
	b := array.NewInt64Builder(t.cfg.mem)
	defer b.Release()
	b.AppendValues(indices, nil)

	arr := b.NewInt64Array()
	defer arr.Release()
	return t.Take(ctx, arr)
}

type integerArray[T constraints.Integer] interface {
	arrow.Array
	Value(int) T
}

func checkIndices(indices arrow.Array, n int64) error {
	switch arr := indices.(type) {
	case *array.Int8:
		return checkBounds[int8](arr, n)
	case *array.Int16:
		return checkBounds[int16](arr, n)
	case *array.Int32:
		return checkBounds[int32](arr, n)
	case *array.Int64:
		return checkBounds[int64](arr, n)
	case *array.Uint8:
		return checkBounds[uint8](arr, n)
	case *array.Uint16:
		return checkBounds[uint16](arr, n)
	case *array.Uint32:
		return checkBounds[uint32](arr, n)
	case *array.Uint64:
		return checkBounds[uint64](arr, n)
	}
	return fmt.Errorf("arrow/tabular: %w: unsupported index array %T", ErrTypeMismatch, indices)
}

func checkBounds[T constraints.Integer](arr integerArray[T], n int64) error {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		v := arr.Value(i)
		if v < 0 || uint64(v) >= uint64(n) {
			return fmt.Errorf("arrow/tabular: %w: row index %d at position %d, table has %d rows",
				ErrIndexOutOfRange, v, i, n)
		}
	}
	return nil
}

// Filter returns the rows of t for which predicate is true. predicate is a
// boolean arrow.Array, *arrow.Chunked or []bool with NumRows entries. Rows
// with a null predicate are handled according to WithNullSelection; fields
// that receive emitted nulls become nullable.
func (t *Table) Filter(ctx context.Context, predicate any, opts ...FilterOption) (*Table, error) {
	cfg := filterConfig{nulls: DropNulls}
	for _, opt := range opts {
		opt(&cfg)
	}

	if isScalar(predicate) {
		return nil, fmt.Errorf("arrow/tabular: %w: filter predicate must be a column, got %T",
			ErrInvalidArgument, predicate)
	}
	pred, err := t.coercion().coerce(predicate, nil, t.rows)
	if err != nil {
		return nil, fmt.Errorf("filter predicate: %w", err)
	}
	defer pred.Release()
	if pred.DataType().ID() != arrow.BOOL {
		return nil, fmt.Errorf("arrow/tabular: %w: filter predicate must be boolean, got %s",
			ErrTypeMismatch, pred.DataType())
	}

	ctx = t.computeContext(ctx)
	fopts := &compute.FilterOptions{NullSelection: cfg.nulls}
	cols, err := mapColumns(ctx, len(t.cols), t.cfg.concurrency, func(ctx context.Context, i int) (*arrow.Chunked, error) {
		return filterColumn(ctx, t.cfg.exec, t.cols[i], pred, t.rows, fopts)
	})
	if err != nil {
		return nil, err
	}
	return t.derive(t.nullableWhereNeeded(cols), cols, selectedRows(pred, cfg.nulls)), nil
}

// filterColumn filters col one aligned segment at a time, so that neither
// the column nor the predicate has to be concatenated.
func filterColumn(ctx context.Context, exec Executor, col, pred *arrow.Chunked, rows int64, opts *compute.FilterOptions) (*arrow.Chunked, error) {
	var chunks []arrow.Array
	defer func() { releaseArrays(chunks) }()

	seg := newSegmenter([]*arrow.Chunked{col, pred}, rows, 0)
	for {
		arrs, _, ok := seg.next()
		if !ok {
			break
		}
		out, err := invokeArray(ctx, exec, FuncFilter, opts, arrs[0], arrs[1])
		releaseArrays(arrs)
		if err != nil {
			return nil, fmt.Errorf("arrow/tabular: filter: %w", err)
		}
		if out.Len() == 0 {
			out.Release()
			continue
		}
		chunks = append(chunks, out)
	}
	return NewChunked(col.DataType(), chunks)
}

// selectedRows counts the rows Filter keeps for pred.
func selectedRows(pred *arrow.Chunked, nulls NullSelection) int64 {
	var n int64
	for _, c := range pred.Chunks() {
		b := c.(*array.Boolean)
		for i := 0; i < b.Len(); i++ {
			switch {
			case b.IsNull(i):
				if nulls == EmitNulls {
					n++
				}
			case b.Value(i):
				n++
			}
		}
	}
	return n
}

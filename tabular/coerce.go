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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"
	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

// Column is a named input value for FromColumns.
//
// Value may be an arrow.Array, an *arrow.Chunked, an *arrow.Column, a
// scalar.Scalar, a Go scalar (bool, integers, floats, string, nil) or a Go
// slice of those. A []any holds nil for null entries and so does a slice of
// pointers such as []*int64. A []uuid.UUID becomes an arrow.uuid extension
// column. Scalars are recycled to the length of the other columns.
type Column struct {
	Name  string
	Value any
}

type coercion struct {
	ctx  context.Context
	exec Executor
	mem  memory.Allocator
	// cast allows arrow values of another type to be cast to the target.
	cast bool
}

// isScalar reports whether v is recycled rather than taken as a column.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, scalar.Scalar, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// coerce converts v into a column of type dt holding length rows. A nil dt
// keeps the type of v and a negative length accepts any length. The caller
// owns the returned column.
func (cc *coercion) coerce(v any, dt arrow.DataType, length int64) (*arrow.Chunked, error) {
	native := false
	var col *arrow.Chunked

	switch v := v.(type) {
	case *arrow.Chunked:
		v.Retain()
		col = v
	case *arrow.Column:
		col = v.Data()
		col.Retain()
	case arrow.Array:
		col = chunkedOf(v)
	default:
		n := length
		if n < 0 {
			n = 1
		}
		arr, err := fromNative(v, dt, n, cc.mem)
		if err != nil {
			return nil, err
		}
		defer arr.Release()
		col = chunkedOf(arr)
		native = true
	}

	if length >= 0 && int64(col.Len()) != length {
		defer col.Release()
		return nil, fmt.Errorf("arrow/tabular: %w: value has %d rows, expected %d",
			ErrLengthMismatch, col.Len(), length)
	}

	if dt == nil || arrow.TypeEqual(col.DataType(), dt) {
		return col, nil
	}

	defer col.Release()
	if !native && !cc.cast {
		return nil, fmt.Errorf("arrow/tabular: %w: value has type %s, expected %s",
			ErrTypeMismatch, col.DataType(), dt)
	}

	out, err := castChunked(cc.ctx, cc.exec, col, compute.SafeCastOptions(dt))
	if err != nil {
		if native {
			return nil, fmt.Errorf("arrow/tabular: %w: cannot convert %s values to %s: %w",
				ErrTypeMismatch, col.DataType(), dt, err)
		}
		return nil, err
	}
	return out, nil
}

// fromNative builds an array out of a Go value. Scalars are repeated n
// times. dt, when known, is only used to type a null scalar.
func fromNative(v any, dt arrow.DataType, n int64, mem memory.Allocator) (arrow.Array, error) {
	if isScalar(v) {
		sc, err := toScalar(v, dt)
		if err != nil {
			return nil, err
		}
		return scalar.MakeArrayFromScalar(sc, int(n), mem)
	}

	switch v := v.(type) {
	case []bool:
		return fromValues(array.NewBooleanBuilder(mem), v), nil
	case []string:
		return fromValues(array.NewStringBuilder(mem), v), nil
	case []int8:
		return fromValues(array.NewInt8Builder(mem), v), nil
	case []int16:
		return fromValues(array.NewInt16Builder(mem), v), nil
	case []int32:
		return fromValues(array.NewInt32Builder(mem), v), nil
	case []int64:
		return fromValues(array.NewInt64Builder(mem), v), nil
	case []int:
		return fromValues(array.NewInt64Builder(mem), widen[int, int64](v)), nil
	case []uint8:
		return fromValues(array.NewUint8Builder(mem), v), nil
	case []uint16:
		return fromValues(array.NewUint16Builder(mem), v), nil
	case []uint32:
		return fromValues(array.NewUint32Builder(mem), v), nil
	case []uint64:
		return fromValues(array.NewUint64Builder(mem), v), nil
	case []uint:
		return fromValues(array.NewUint64Builder(mem), widen[uint, uint64](v)), nil
	case []float32:
		return fromValues(array.NewFloat32Builder(mem), v), nil
	case []float64:
		return fromValues(array.NewFloat64Builder(mem), v), nil
	case []*bool:
		return fromPointers(array.NewBooleanBuilder(mem), v), nil
	case []*string:
		return fromPointers(array.NewStringBuilder(mem), v), nil
	case []*int32:
		return fromPointers(array.NewInt32Builder(mem), v), nil
	case []*int64:
		return fromPointers(array.NewInt64Builder(mem), v), nil
	case []*float64:
		return fromPointers(array.NewFloat64Builder(mem), v), nil
	case []uuid.UUID:
		return fromValues(extensions.NewUUIDBuilder(mem), v), nil
	case []*uuid.UUID:
		return fromPointers(extensions.NewUUIDBuilder(mem), v), nil
	case []any:
		return fromAny(v, mem)
	}
	return nil, fmt.Errorf("arrow/tabular: %w: cannot build a column from %T", ErrTypeMismatch, v)
}

func toScalar(v any, dt arrow.DataType) (scalar.Scalar, error) {
	switch v := v.(type) {
	case nil:
		if dt == nil {
			dt = arrow.Null
		}
		return scalar.MakeNullScalar(dt), nil
	case scalar.Scalar:
		return v, nil
	case int:
		return scalar.NewInt64Scalar(int64(v)), nil
	case uint:
		return scalar.NewUint64Scalar(uint64(v)), nil
	}
	sc := scalar.MakeScalar(v)
	if sc == nil {
		return nil, fmt.Errorf("arrow/tabular: %w: unsupported scalar %T", ErrTypeMismatch, v)
	}
	return sc, nil
}

type valuesBuilder[T any] interface {
	array.Builder
	Append(T)
	AppendValues([]T, []bool)
}

func fromValues[T any, B valuesBuilder[T]](b B, vals []T) arrow.Array {
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

func fromPointers[T any, B valuesBuilder[T]](b B, vals []*T) arrow.Array {
	defer b.Release()
	b.Reserve(len(vals))
	for _, p := range vals {
		if p == nil {
			b.AppendNull()
			continue
		}
		b.Append(*p)
	}
	return b.NewArray()
}

func widen[T, U constraints.Integer](vals []T) []U {
	out := make([]U, len(vals))
	for i, v := range vals {
		out[i] = U(v)
	}
	return out
}

var errMixedTypes = errors.New("mixed element types")

// fromAny infers the element type from the first non-nil element of vals.
func fromAny(vals []any, mem memory.Allocator) (arrow.Array, error) {
	var first any
	for _, v := range vals {
		if v != nil {
			first = v
			break
		}
	}

	var (
		arr arrow.Array
		err error
	)
	switch first.(type) {
	case nil:
		return array.NewNull(len(vals)), nil
	case bool:
		arr, err = appendAny(array.NewBooleanBuilder(mem), vals, func(v any) (bool, bool) {
			b, ok := v.(bool)
			return b, ok
		})
	case string:
		arr, err = appendAny(array.NewStringBuilder(mem), vals, func(v any) (string, bool) {
			s, ok := v.(string)
			return s, ok
		})
	case int, int64:
		arr, err = appendAny(array.NewInt64Builder(mem), vals, func(v any) (int64, bool) {
			switch v := v.(type) {
			case int:
				return int64(v), true
			case int64:
				return v, true
			}
			return 0, false
		})
	case int32:
		arr, err = appendAny(array.NewInt32Builder(mem), vals, func(v any) (int32, bool) {
			i, ok := v.(int32)
			return i, ok
		})
	case float64:
		arr, err = appendAny(array.NewFloat64Builder(mem), vals, func(v any) (float64, bool) {
			f, ok := v.(float64)
			return f, ok
		})
	case float32:
		arr, err = appendAny(array.NewFloat32Builder(mem), vals, func(v any) (float32, bool) {
			f, ok := v.(float32)
			return f, ok
		})
	default:
		return nil, fmt.Errorf("arrow/tabular: %w: cannot build a column from []any holding %T",
			ErrTypeMismatch, first)
	}
	return arr, err
}

func appendAny[T any, B valuesBuilder[T]](b B, vals []any, conv func(any) (T, bool)) (arrow.Array, error) {
	defer b.Release()
	b.Reserve(len(vals))
	for i, v := range vals {
		if v == nil {
			b.AppendNull()
			continue
		}
		x, ok := conv(v)
		if !ok {
			return nil, fmt.Errorf("arrow/tabular: %w: %w: element %d is %T",
				ErrTypeMismatch, errMixedTypes, i, v)
		}
		b.Append(x)
	}
	return b.NewArray(), nil
}

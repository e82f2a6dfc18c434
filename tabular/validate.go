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
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/xerrors"
)

// Validate checks the table invariants that do not require looking at the
// data: one column per field, column types equal to field types and every
// column NumRows long.
func (t *Table) Validate() error {
	if t.schema == nil {
		return xerrors.Errorf("arrow/tabular: nil schema: %w", ErrValidation)
	}
	if t.rows < 0 {
		return xerrors.Errorf("arrow/tabular: negative row count %d: %w", t.rows, ErrValidation)
	}
	if err := checkColumns(t.schema, t.cols, t.rows); err != nil {
		return xerrors.Errorf("%v: %w", err, ErrValidation)
	}
	return nil
}

// ValidateFull runs Validate and then walks every chunk, checking chunk
// types, buffer sizes against offsets and lengths, null counts against the
// validity bitmaps, the offsets of variable length values and the absence
// of nulls under non-nullable fields. It is linear in the size of the data.
func (t *Table) ValidateFull() error {
	if err := t.Validate(); err != nil {
		return err
	}
	for i, col := range t.cols {
		field := t.schema.Field(i)
		name := field.Name
		var rows, nulls int
		for k, chunk := range col.Chunks() {
			if !arrow.TypeEqual(chunk.DataType(), col.DataType()) {
				return xerrors.Errorf("arrow/tabular: column %d (%q) chunk %d has type %s, column has type %s: %w",
					i, name, k, chunk.DataType(), col.DataType(), ErrValidation)
			}
			if err := validateData(col.DataType(), chunk.Data()); err != nil {
				return xerrors.Errorf("arrow/tabular: column %d (%q) chunk %d: %w", i, name, k, err)
			}
			if v, ok := chunk.(interface{ ValidateFull() error }); ok {
				if err := v.ValidateFull(); err != nil {
					return xerrors.Errorf("arrow/tabular: column %d (%q) chunk %d: %v: %w", i, name, k, err, ErrValidation)
				}
			}
			rows += chunk.Len()
			nulls += chunk.NullN()
		}
		if rows != col.Len() || nulls != col.NullN() {
			return xerrors.Errorf("arrow/tabular: column %d (%q) reports %d rows and %d nulls, chunks hold %d and %d: %w",
				i, name, col.Len(), col.NullN(), rows, nulls, ErrValidation)
		}
		if nulls > 0 && !field.Nullable {
			return xerrors.Errorf("arrow/tabular: column %d (%q) has %d nulls, field is not nullable: %w",
				i, name, nulls, ErrValidation)
		}
	}
	return nil
}

func bufferAt(buffers []*memory.Buffer, i int) *memory.Buffer {
	if i >= len(buffers) {
		return nil
	}
	return buffers[i]
}

func bufferLen(b *memory.Buffer) int64 {
	if b == nil {
		return 0
	}
	return int64(b.Len())
}

// validateData checks one array against the layout of dt.
func validateData(dt arrow.DataType, data arrow.ArrayData) error {
	offset, length := int64(data.Offset()), int64(data.Len())
	if offset < 0 || length < 0 {
		return xerrors.Errorf("negative offset %d or length %d: %w", offset, length, ErrValidation)
	}
	buffers := data.Buffers()

	if dt.ID() == arrow.NULL {
		if data.NullN() != data.Len() {
			return xerrors.Errorf("null array of length %d reports %d nulls: %w", length, data.NullN(), ErrValidation)
		}
		return nil
	}

	if err := validateNulls(data, buffers, offset, length); err != nil {
		return err
	}

	switch dt := dt.(type) {
	case arrow.ExtensionType:
		return validateData(dt.StorageType(), data)
	case *arrow.DictionaryType:
		if err := validateFixedWidth(dt.IndexType.(arrow.FixedWidthDataType), buffers, offset, length); err != nil {
			return err
		}
		if dict := data.Dictionary(); dict != nil {
			return validateData(dt.ValueType, dict)
		}
		return nil
	case *arrow.StringType, *arrow.BinaryType:
		values := bufferLen(bufferAt(buffers, 2))
		return validateOffsets(int32Offsets(bufferAt(buffers, 1)), offset, length, values)
	case *arrow.LargeStringType, *arrow.LargeBinaryType:
		values := bufferLen(bufferAt(buffers, 2))
		return validateOffsets(int64Offsets(bufferAt(buffers, 1)), offset, length, values)
	case *arrow.ListType, *arrow.MapType:
		child := data.Children()[0]
		if err := validateOffsets(int32Offsets(bufferAt(buffers, 1)), offset, length, int64(child.Len())); err != nil {
			return err
		}
		return validateChild(dt.(arrow.ListLikeType).Elem(), child)
	case *arrow.LargeListType:
		child := data.Children()[0]
		if err := validateOffsets(int64Offsets(bufferAt(buffers, 1)), offset, length, int64(child.Len())); err != nil {
			return err
		}
		return validateChild(dt.Elem(), child)
	case *arrow.FixedSizeListType:
		child := data.Children()[0]
		if need := (offset + length) * int64(dt.Len()); int64(child.Len()) < need {
			return xerrors.Errorf("fixed size list child has %d values, need %d: %w", child.Len(), need, ErrValidation)
		}
		return validateChild(dt.Elem(), child)
	case *arrow.StructType:
		children := data.Children()
		if len(children) != dt.NumFields() {
			return xerrors.Errorf("struct has %d children for %d fields: %w", len(children), dt.NumFields(), ErrValidation)
		}
		for i, child := range children {
			if int64(child.Len()) < offset+length {
				return xerrors.Errorf("struct field %d has %d values, need %d: %w", i, child.Len(), offset+length, ErrValidation)
			}
			if err := validateChild(dt.Field(i).Type, child); err != nil {
				return xerrors.Errorf("struct field %d: %w", i, err)
			}
		}
		return nil
	case arrow.FixedWidthDataType:
		return validateFixedWidth(dt, buffers, offset, length)
	}
	// views, unions and run end encoded arrays are left to the arrays'
	// own validation.
	return nil
}

func validateChild(dt arrow.DataType, child arrow.ArrayData) error {
	if err := validateData(dt, child); err != nil {
		return xerrors.Errorf("child: %w", err)
	}
	return nil
}

func validateNulls(data arrow.ArrayData, buffers []*memory.Buffer, offset, length int64) error {
	nulls := data.NullN()
	if len(buffers) == 0 || buffers[0] == nil {
		if nulls != 0 && nulls != array.UnknownNullCount {
			return xerrors.Errorf("%d nulls reported without a validity bitmap: %w", nulls, ErrValidation)
		}
		return nil
	}
	bitmap := buffers[0].Bytes()
	if int64(len(bitmap))*8 < offset+length {
		return xerrors.Errorf("validity bitmap holds %d bits, need %d: %w", len(bitmap)*8, offset+length, ErrValidation)
	}
	if nulls == array.UnknownNullCount {
		return nil
	}
	if valid := bitutil.CountSetBits(bitmap, int(offset), int(length)); int64(nulls) != length-int64(valid) {
		return xerrors.Errorf("%d nulls reported, validity bitmap has %d: %w", nulls, length-int64(valid), ErrValidation)
	}
	return nil
}

func validateFixedWidth(dt arrow.FixedWidthDataType, buffers []*memory.Buffer, offset, length int64) error {
	need := bitutil.BytesForBits((offset + length) * int64(dt.BitWidth()))
	if got := bufferLen(bufferAt(buffers, 1)); got < need {
		return xerrors.Errorf("%s values buffer has %d bytes, need %d: %w", dt, got, need, ErrValidation)
	}
	return nil
}

func int32Offsets(b *memory.Buffer) []int64 {
	if b == nil {
		return nil
	}
	raw := arrow.Int32Traits.CastFromBytes(b.Bytes())
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = int64(v)
	}
	return out
}

func int64Offsets(b *memory.Buffer) []int64 {
	if b == nil {
		return nil
	}
	return arrow.Int64Traits.CastFromBytes(b.Bytes())
}

// validateOffsets checks that the offsets of rows [offset, offset+length)
// are non decreasing and stay within a values region of size limit.
func validateOffsets(offsets []int64, offset, length, limit int64) error {
	if length == 0 {
		return nil
	}
	if int64(len(offsets)) < offset+length+1 {
		return xerrors.Errorf("offsets buffer has %d entries, need %d: %w", len(offsets), offset+length+1, ErrValidation)
	}
	window := offsets[offset : offset+length+1]
	if window[0] < 0 {
		return xerrors.Errorf("negative first offset %d: %w", window[0], ErrValidation)
	}
	for i := 1; i < len(window); i++ {
		if window[i] < window[i-1] {
			return xerrors.Errorf("offsets decrease at row %d (%d < %d): %w", i-1, window[i], window[i-1], ErrValidation)
		}
	}
	if last := window[len(window)-1]; last > limit {
		return xerrors.Errorf("last offset %d past the end of %d values: %w", last, limit, ErrValidation)
	}
	return nil
}

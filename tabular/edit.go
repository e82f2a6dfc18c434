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
)

func (t *Table) coercion() *coercion {
	return &coercion{
		ctx:  t.computeContext(context.Background()),
		exec: t.cfg.exec,
		mem:  t.cfg.mem,
	}
}

// withSchema returns a table with the same columns and a new schema of the
// same shape.
func (t *Table) withSchema(schema *arrow.Schema) *Table {
	cols := make([]*arrow.Chunked, len(t.cols))
	for i, c := range t.cols {
		c.Retain()
		cols[i] = c
	}
	return t.derive(schema, cols, t.rows)
}

func (t *Table) metadata() *arrow.Metadata {
	md := t.schema.Metadata()
	return &md
}

func checkFieldType(field arrow.Field) error {
	if field.Type == nil {
		return fmt.Errorf("arrow/tabular: %w: field %q has no type", ErrTypeMismatch, field.Name)
	}
	return nil
}

// checkNullable rejects a column with nulls under a non-nullable field.
func checkNullable(field arrow.Field, col *arrow.Chunked) error {
	if !field.Nullable && col.NullN() > 0 {
		return fmt.Errorf("arrow/tabular: %w: field %q is not nullable, column has %d nulls",
			ErrInvalidArgument, field.Name, col.NullN())
	}
	return nil
}

// coerceField converts value into a column described by field.
func (t *Table) coerceField(field arrow.Field, value any) (*arrow.Chunked, error) {
	if err := checkFieldType(field); err != nil {
		return nil, err
	}
	col, err := t.coercion().coerce(value, field.Type, t.rows)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", field.Name, err)
	}
	if err := checkNullable(field, col); err != nil {
		col.Release()
		return nil, err
	}
	return col, nil
}

// RemoveColumn returns a table without the i-th column.
func (t *Table) RemoveColumn(i int) (*Table, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, columnIndexError(i, len(t.cols))
	}

	fields := make([]arrow.Field, 0, len(t.cols)-1)
	cols := make([]*arrow.Chunked, 0, len(t.cols)-1)
	for k, c := range t.cols {
		if k == i {
			continue
		}
		c.Retain()
		fields = append(fields, t.schema.Field(k))
		cols = append(cols, c)
	}
	return t.derive(arrow.NewSchema(fields, t.metadata()), cols, t.rows), nil
}

// AddColumn returns a table with value inserted as column i, shifting the
// columns at i and after to the right. i == NumCols appends. value goes
// through the same conversion as in FromColumns and must have NumRows rows
// (scalars are recycled) and the type of field. A field that is not
// nullable rejects a value with nulls.
func (t *Table) AddColumn(i int, field arrow.Field, value any) (*Table, error) {
	if i < 0 || i > len(t.cols) {
		return nil, fmt.Errorf("arrow/tabular: %w: cannot insert column at %d, table has %d columns",
			ErrIndexOutOfRange, i, len(t.cols))
	}
	col, err := t.coerceField(field, value)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, 0, len(t.cols)+1)
	fields = append(fields, t.schema.Fields()[:i]...)
	fields = append(fields, field)
	fields = append(fields, t.schema.Fields()[i:]...)

	cols := make([]*arrow.Chunked, 0, len(t.cols)+1)
	cols = append(cols, t.cols[:i]...)
	cols = append(cols, col)
	cols = append(cols, t.cols[i:]...)
	for k, c := range cols {
		if k != i {
			c.Retain()
		}
	}
	return t.derive(arrow.NewSchema(fields, t.metadata()), cols, t.rows), nil
}

// AppendColumn is AddColumn at position NumCols.
func (t *Table) AppendColumn(field arrow.Field, value any) (*Table, error) {
	return t.AddColumn(len(t.cols), field, value)
}

// SetColumn returns a table where column i is replaced by value described
// by field. value is converted as in AddColumn.
func (t *Table) SetColumn(i int, field arrow.Field, value any) (*Table, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, columnIndexError(i, len(t.cols))
	}
	col, err := t.coerceField(field, value)
	if err != nil {
		return nil, err
	}

	fields := append([]arrow.Field(nil), t.schema.Fields()...)
	fields[i] = field
	cols := make([]*arrow.Chunked, len(t.cols))
	for k, c := range t.cols {
		if k == i {
			cols[k] = col
			continue
		}
		c.Retain()
		cols[k] = c
	}
	return t.derive(arrow.NewSchema(fields, t.metadata()), cols, t.rows), nil
}

// SelectColumns returns a table made of the columns at the given positions,
// in that order. Positions may repeat.
func (t *Table) SelectColumns(indices []int) (*Table, error) {
	for _, i := range indices {
		if i < 0 || i >= len(t.cols) {
			return nil, columnIndexError(i, len(t.cols))
		}
	}

	fields := make([]arrow.Field, len(indices))
	cols := make([]*arrow.Chunked, len(indices))
	for k, i := range indices {
		t.cols[i].Retain()
		fields[k] = t.schema.Field(i)
		cols[k] = t.cols[i]
	}
	return t.derive(arrow.NewSchema(fields, t.metadata()), cols, t.rows), nil
}

// SelectColumnsByName is SelectColumns with each name resolved to the first
// field carrying it.
func (t *Table) SelectColumnsByName(names []string) (*Table, error) {
	indices := make([]int, len(names))
	for k, name := range names {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("arrow/tabular: %w: no column named %q", ErrIndexOutOfRange, name)
		}
		indices[k] = i
	}
	return t.SelectColumns(indices)
}

// RenameColumns returns a table with the same columns named names.
func (t *Table) RenameColumns(names []string) (*Table, error) {
	if len(names) != len(t.cols) {
		return nil, fmt.Errorf("arrow/tabular: %w: %d names for %d columns",
			ErrLengthMismatch, len(names), len(t.cols))
	}
	fields := append([]arrow.Field(nil), t.schema.Fields()...)
	for i := range fields {
		fields[i].Name = names[i]
	}
	return t.withSchema(arrow.NewSchema(fields, t.metadata())), nil
}

// ReplaceSchemaMetadata returns a table whose schema carries md instead of
// the current metadata. Fields are unchanged.
func (t *Table) ReplaceSchemaMetadata(md arrow.Metadata) *Table {
	return t.withSchema(arrow.NewSchema(t.schema.Fields(), &md))
}

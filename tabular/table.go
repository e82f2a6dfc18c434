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
	"strings"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-tabular/internal/debug"
)

// Table is an immutable collection of equally long chunked columns
// described by a schema.
type Table struct {
	refCount int64

	schema *arrow.Schema
	cols   []*arrow.Chunked
	rows   int64

	cfg config
}

// New assembles a table from a schema and its columns. If rows is
// negative, the number of rows is taken from the first column (0 when there
// are no columns). The table retains the columns.
func New(schema *arrow.Schema, cols []*arrow.Chunked, rows int64, opts ...Option) (*Table, error) {
	if schema == nil {
		return nil, fmt.Errorf("arrow/tabular: %w: nil schema", ErrInvalidArgument)
	}
	if rows < 0 {
		rows = 0
		if len(cols) > 0 {
			rows = int64(cols[0].Len())
		}
	}
	if err := checkColumns(schema, cols, rows); err != nil {
		return nil, err
	}

	for _, c := range cols {
		c.Retain()
	}
	return newTable(schema, cols, rows, newConfig(opts...)), nil
}

func newTable(schema *arrow.Schema, cols []*arrow.Chunked, rows int64, cfg config) *Table {
	cfg.schema = nil
	tbl := &Table{
		refCount: 1,
		schema:   schema,
		cols:     cols,
		rows:     rows,
		cfg:      cfg,
	}
	debug.Assert(checkColumns(schema, cols, rows) == nil, "arrow/tabular: table invariants violated")
	return tbl
}

// derive builds a table sharing the configuration of t. It takes ownership
// of cols.
func (t *Table) derive(schema *arrow.Schema, cols []*arrow.Chunked, rows int64) *Table {
	return newTable(schema, cols, rows, t.cfg)
}

func checkColumns(schema *arrow.Schema, cols []*arrow.Chunked, rows int64) error {
	if len(cols) != schema.NumFields() {
		return fmt.Errorf("arrow/tabular: %w: %d columns for %d fields",
			ErrSchemaMismatch, len(cols), schema.NumFields())
	}
	for i, c := range cols {
		f := schema.Field(i)
		if c == nil {
			return fmt.Errorf("arrow/tabular: %w: column %d (%q) is nil", ErrInvalidArgument, i, f.Name)
		}
		if !arrow.TypeEqual(c.DataType(), f.Type) {
			return fmt.Errorf("arrow/tabular: %w: column %d (%q) has type %s, field has type %s",
				ErrTypeMismatch, i, f.Name, c.DataType(), f.Type)
		}
		if int64(c.Len()) != rows {
			return fmt.Errorf("arrow/tabular: %w: column %d (%q) has %d rows, expected %d",
				ErrLengthMismatch, i, f.Name, c.Len(), rows)
		}
	}
	return nil
}

// FromColumns builds a table out of named values, see Column for the
// accepted values. Without WithSchema the field types are inferred and all
// fields are nullable. With WithSchema the names must match the schema
// fields one to one and every value is cast to its field type.
func FromColumns(cols []Column, opts ...Option) (*Table, error) {
	cfg := newConfig(opts...)
	schema := cfg.schema

	if schema == nil && len(cols) == 0 {
		return nil, fmt.Errorf("arrow/tabular: %w: no columns", ErrEmptyInput)
	}
	if schema != nil {
		if schema.NumFields() != len(cols) {
			return nil, fmt.Errorf("arrow/tabular: %w: %d columns for %d fields",
				ErrSchemaMismatch, len(cols), schema.NumFields())
		}
		for i, c := range cols {
			if f := schema.Field(i); f.Name != c.Name {
				return nil, fmt.Errorf("arrow/tabular: %w: column %d is named %q, schema names it %q",
					ErrSchemaMismatch, i, c.Name, f.Name)
			}
			if err := checkFieldType(schema.Field(i)); err != nil {
				return nil, err
			}
		}
	}

	cc := coercion{
		ctx:  compute.WithAllocator(context.Background(), cfg.mem),
		exec: cfg.exec,
		mem:  cfg.mem,
		cast: true,
	}

	out := make([]*arrow.Chunked, len(cols))
	rows := int64(-1)
	// columns first, so that scalars know the length to recycle to.
	for i, c := range cols {
		if isScalar(c.Value) {
			continue
		}
		var dt arrow.DataType
		if schema != nil {
			dt = schema.Field(i).Type
		}
		col, err := cc.coerce(c.Value, dt, rows)
		if err != nil {
			releaseChunked(out)
			return nil, fmt.Errorf("column %d (%q): %w", i, c.Name, err)
		}
		out[i] = col
		rows = int64(col.Len())
	}
	if rows < 0 {
		rows = 1
	}
	for i, c := range cols {
		if out[i] != nil {
			continue
		}
		var dt arrow.DataType
		if schema != nil {
			dt = schema.Field(i).Type
		}
		col, err := cc.coerce(c.Value, dt, rows)
		if err != nil {
			releaseChunked(out)
			return nil, fmt.Errorf("column %d (%q): %w", i, c.Name, err)
		}
		out[i] = col
	}

	if schema == nil {
		fields := make([]arrow.Field, len(cols))
		for i, c := range cols {
			fields[i] = arrow.Field{Name: c.Name, Type: out[i].DataType(), Nullable: true}
		}
		schema = arrow.NewSchema(fields, nil)
	} else if len(cols) == 0 {
		rows = 0
	} else {
		for i, col := range out {
			if err := checkNullable(schema.Field(i), col); err != nil {
				releaseChunked(out)
				return nil, err
			}
		}
	}

	return newTable(schema, out, rows, cfg), nil
}

// FromRecords stacks record batches into a table: column i is made of the
// i-th column of every record, in order, without copying. All records must
// share one schema. With WithSchema every record is cast to that schema.
func FromRecords(recs []arrow.Record, opts ...Option) (*Table, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("arrow/tabular: %w: no record batches", ErrEmptyInput)
	}

	cfg := newConfig(opts...)
	schema := cfg.schema
	if schema == nil {
		schema = recs[0].Schema()
	}

	for i, rec := range recs {
		if cfg.schema != nil {
			if err := sameNames(schema, rec.Schema()); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			continue
		}
		if err := sameFields(schema, rec.Schema()); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	ctx := compute.WithAllocator(context.Background(), cfg.mem)
	chunks := make([][]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range chunks {
			releaseArrays(c)
		}
	}()

	var rows int64
	for r, rec := range recs {
		for i, col := range rec.Columns() {
			dt := schema.Field(i).Type
			if arrow.TypeEqual(col.DataType(), dt) {
				col.Retain()
				chunks[i] = append(chunks[i], col)
				continue
			}
			out, err := invokeArray(ctx, cfg.exec, FuncCast, compute.SafeCastOptions(dt), col)
			if err != nil {
				return nil, fmt.Errorf("arrow/tabular: %w: record %d column %d (%q) to %s: %w",
					ErrCast, r, i, schema.Field(i).Name, dt, err)
			}
			chunks[i] = append(chunks[i], out)
		}
		rows += rec.NumRows()
	}

	cols := make([]*arrow.Chunked, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = arrow.NewChunked(f.Type, chunks[i])
	}
	return newTable(schema, cols, rows, cfg), nil
}

// FromArrow wraps the columns of an arrow.Table. The result shares its
// chunks with tbl.
func FromArrow(tbl arrow.Table, opts ...Option) (*Table, error) {
	cols := make([]*arrow.Chunked, tbl.NumCols())
	for i := range cols {
		cols[i] = tbl.Column(i).Data()
	}
	return New(tbl.Schema(), cols, tbl.NumRows(), opts...)
}

// ToArrow returns an arrow.Table sharing the columns of t. It must be
// released by the caller.
func (t *Table) ToArrow() arrow.Table {
	cols := make([]arrow.Column, len(t.cols))
	for i, c := range t.cols {
		col := arrow.NewColumn(t.schema.Field(i), c)
		cols[i] = *col
		defer col.Release()
	}
	return array.NewTable(t.schema, cols, t.rows)
}

func sameNames(want, got *arrow.Schema) error {
	if want.NumFields() != got.NumFields() {
		return fmt.Errorf("arrow/tabular: %w: %d fields, expected %d",
			ErrSchemaMismatch, got.NumFields(), want.NumFields())
	}
	for i := 0; i < want.NumFields(); i++ {
		if w, g := want.Field(i).Name, got.Field(i).Name; w != g {
			return fmt.Errorf("arrow/tabular: %w: field %d is named %q, expected %q",
				ErrSchemaMismatch, i, g, w)
		}
	}
	return nil
}

func sameFields(want, got *arrow.Schema) error {
	if err := sameNames(want, got); err != nil {
		return err
	}
	for i := 0; i < want.NumFields(); i++ {
		w, g := want.Field(i), got.Field(i)
		if !arrow.TypeEqual(w.Type, g.Type) || w.Nullable != g.Nullable {
			return fmt.Errorf("arrow/tabular: %w: field %d (%q) is %s, expected %s",
				ErrSchemaMismatch, i, w.Name, g.Type, w.Type)
		}
	}
	return nil
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (t *Table) Retain() {
	atomic.AddInt64(&t.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the columns are released.
// Release may be called simultaneously from multiple goroutines.
func (t *Table) Release() {
	debug.Assert(atomic.LoadInt64(&t.refCount) > 0, "too many releases")

	if atomic.AddInt64(&t.refCount, -1) == 0 {
		releaseChunked(t.cols)
		t.cols = nil
	}
}

func (t *Table) Schema() *arrow.Schema { return t.schema }
func (t *Table) NumRows() int64        { return t.rows }
func (t *Table) NumCols() int          { return len(t.cols) }

// Columns returns the columns of t. The slice must not be modified.
func (t *Table) Columns() []*arrow.Chunked { return t.cols }

// Column returns the i-th column. The column is owned by t; Retain it to
// use it beyond the lifetime of t.
func (t *Table) Column(i int) (*arrow.Chunked, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, columnIndexError(i, len(t.cols))
	}
	return t.cols[i], nil
}

// Field returns the descriptor of the i-th column.
func (t *Table) Field(i int) (arrow.Field, error) {
	if i < 0 || i >= len(t.cols) {
		return arrow.Field{}, columnIndexError(i, len(t.cols))
	}
	return t.schema.Field(i), nil
}

// ColumnNames returns the field names in order. Names may repeat.
func (t *Table) ColumnNames() []string {
	names := make([]string, t.schema.NumFields())
	for i, f := range t.schema.Fields() {
		names[i] = f.Name
	}
	return names
}

// ColumnIndex returns the position of the first field named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, f := range t.schema.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// ColumnByName returns the column of the first field named name. When
// several fields share the name, the one with the lowest position wins.
func (t *Table) ColumnByName(name string) (*arrow.Chunked, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) computeContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return compute.WithAllocator(ctx, t.cfg.mem)
}

func (t *Table) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "table: %d rows, %d columns\n", t.rows, len(t.cols))
	fmt.Fprintf(o, "%v\n", t.schema)
	for i, c := range t.cols {
		fmt.Fprintf(o, "col[%d] %q:", i, t.schema.Field(i).Name)
		for _, chunk := range c.Chunks() {
			fmt.Fprintf(o, " %v", chunk)
		}
		o.WriteString("\n")
	}
	return o.String()
}

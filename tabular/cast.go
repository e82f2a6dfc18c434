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
	"github.com/apache/arrow-go/v18/arrow/compute"
)

// Cast converts every column to the type of the matching field of target
// and returns a table with schema target. Field names must match
// positionally and a column with nulls needs a nullable field. Columns whose
// type does not change are shared.
func (t *Table) Cast(ctx context.Context, target *arrow.Schema, opts ...CastOption) (*Table, error) {
	if target == nil {
		return nil, fmt.Errorf("arrow/tabular: %w: nil target schema", ErrInvalidArgument)
	}
	if target.NumFields() != t.NumCols() {
		return nil, fmt.Errorf("arrow/tabular: %w: cast to %d fields, table has %d columns",
			ErrSchemaMismatch, target.NumFields(), t.NumCols())
	}
	for i, f := range target.Fields() {
		if name := t.schema.Field(i).Name; name != f.Name {
			return nil, fmt.Errorf("arrow/tabular: %w: field %d is named %q, cast target names it %q",
				ErrSchemaMismatch, i, name, f.Name)
		}
		if err := checkNullable(f, t.cols[i]); err != nil {
			return nil, err
		}
	}

	cfg := castConfig{safe: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx = t.computeContext(ctx)
	cols, err := mapColumns(ctx, t.NumCols(), t.cfg.concurrency, func(ctx context.Context, i int) (*arrow.Chunked, error) {
		col, dt := t.cols[i], target.Field(i).Type
		if arrow.TypeEqual(col.DataType(), dt) {
			col.Retain()
			return col, nil
		}
		out, err := castChunked(ctx, t.cfg.exec, col, cfg.options(dt))
		if err != nil {
			return nil, fmt.Errorf("column %d (%q): %w", i, target.Field(i).Name, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return t.derive(target, cols, t.rows), nil
}

// castChunked casts each chunk of col, keeping the chunk layout.
func castChunked(ctx context.Context, exec Executor, col *arrow.Chunked, opts *compute.CastOptions) (*arrow.Chunked, error) {
	chunks := make([]arrow.Array, 0, len(col.Chunks()))
	defer func() { releaseArrays(chunks) }()

	for _, c := range col.Chunks() {
		out, err := invokeArray(ctx, exec, FuncCast, opts, c)
		if err != nil {
			kind := ErrCast
			if errors.Is(err, arrow.ErrNotImplemented) {
				kind = ErrTypeMismatch
			}
			return nil, fmt.Errorf("arrow/tabular: %w: %s to %s: %w", kind, col.DataType(), opts.ToType, err)
		}
		chunks = append(chunks, out)
	}
	return NewChunked(opts.ToType, chunks)
}

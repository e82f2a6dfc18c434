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

package tableio

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/apache/arrow-tabular/tabular"
)

const defaultRowGroupSize = 64 * 1024

// WriteParquet writes tbl as a parquet file. The arrow schema is stored in
// the file metadata so that ReadParquet restores the arrow types.
func WriteParquet(w io.Writer, tbl *tabular.Table, opts ...Option) error {
	cfg := newConfig(opts...)

	rowGroup := cfg.maxRows
	if rowGroup <= 0 {
		rowGroup = defaultRowGroupSize
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(cfg.parquetCodec),
		parquet.WithAllocator(cfg.mem),
	)
	arrProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
		pqarrow.WithAllocator(cfg.mem),
	)

	atbl := tbl.ToArrow()
	defer atbl.Release()
	if err := pqarrow.WriteTable(atbl, w, rowGroup, props, arrProps); err != nil {
		return fmt.Errorf("arrow/tableio: could not write parquet: %w", err)
	}
	return nil
}

// ReadParquet reads a whole parquet file into a table.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	atbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(cfg.mem), pqarrow.ArrowReadProperties{}, cfg.mem)
	if err != nil {
		return nil, fmt.Errorf("arrow/tableio: could not read parquet: %w", err)
	}
	defer atbl.Release()
	return tabular.FromArrow(atbl, tabular.WithAllocator(cfg.mem))
}

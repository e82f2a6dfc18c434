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
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-tabular/tabular"
)

// WriteCSV writes the rows of tbl as CSV.
func WriteCSV(w io.Writer, tbl *tabular.Table, opts ...Option) error {
	cfg := newConfig(opts...)

	cw := csv.NewWriter(w, tbl.Schema(),
		csv.WithHeader(cfg.csvHeader),
		csv.WithComma(cfg.csvComma),
		csv.WithNullWriter(cfg.csvNull),
	)

	rr := tabular.NewRecordReader(tbl, cfg.maxRows)
	defer rr.Release()
	for rr.Next() {
		if err := cw.Write(rr.Record()); err != nil {
			return fmt.Errorf("arrow/tableio: could not write csv: %w", err)
		}
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("arrow/tableio: could not flush csv: %w", err)
	}
	return cw.Error()
}

// ReadCSV reads CSV data with the given schema. Every WithMaxChunkSize rows
// become one chunk.
func ReadCSV(r io.Reader, schema *arrow.Schema, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	chunk := int(cfg.maxRows)
	if chunk <= 0 {
		chunk = defaultRowGroupSize
	}
	rdr := csv.NewReader(r, schema,
		csv.WithHeader(cfg.csvHeader),
		csv.WithComma(cfg.csvComma),
		csv.WithNullReader(true, cfg.csvNull),
		csv.WithChunk(chunk),
		csv.WithAllocator(cfg.mem),
	)
	defer rdr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("arrow/tableio: could not read csv: %w", err)
	}
	return assemble(schema, recs, cfg)
}

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
	"bufio"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-tabular/tabular"
	"github.com/goccy/go-json"
)

// WriteJSON writes one JSON object per row, one row per line, with keys in
// column order. Nulls are written as null.
func WriteJSON(w io.Writer, tbl *tabular.Table, opts ...Option) error {
	cfg := newConfig(opts...)

	names := make([][]byte, tbl.NumCols())
	for i, name := range tbl.ColumnNames() {
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		names[i] = key
	}

	bw := bufio.NewWriter(w)
	rr := tabular.NewRecordReader(tbl, cfg.maxRows)
	defer rr.Release()
	for rr.Next() {
		rec := rr.Record()
		if err := writeJSONRows(bw, names, rec); err != nil {
			return fmt.Errorf("arrow/tableio: could not write json: %w", err)
		}
	}
	return bw.Flush()
}

func writeJSONRows(w *bufio.Writer, names [][]byte, rec arrow.Record) error {
	cols := rec.Columns()
	for row := 0; row < int(rec.NumRows()); row++ {
		w.WriteByte('{')
		for i, col := range cols {
			if i > 0 {
				w.WriteByte(',')
			}
			w.Write(names[i])
			w.WriteByte(':')
			v, err := json.Marshal(col.GetOneForMarshal(row))
			if err != nil {
				return err
			}
			w.Write(v)
		}
		if _, err := w.WriteString("}\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSON reads line delimited JSON objects with the given schema.
func ReadJSON(r io.Reader, schema *arrow.Schema, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	chunk := int(cfg.maxRows)
	if chunk <= 0 {
		chunk = defaultRowGroupSize
	}
	rdr := array.NewJSONReader(r, schema, array.WithAllocator(cfg.mem), array.WithChunk(chunk))
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
		return nil, fmt.Errorf("arrow/tableio: could not read json: %w", err)
	}
	return assemble(schema, recs, cfg)
}

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
	"github.com/apache/arrow-go/v18/arrow/avro"
	"github.com/apache/arrow-tabular/tabular"
)

// ReadAvro reads an Avro object container file. The arrow schema is derived
// from the writer schema stored in the file; every WithMaxChunkSize rows
// become one chunk, the whole file one chunk by default.
func ReadAvro(r io.Reader, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	chunk := int(cfg.maxRows)
	if chunk <= 0 {
		chunk = -1
	}
	rdr, err := avro.NewOCFReader(r, avro.WithAllocator(cfg.mem), avro.WithChunk(chunk))
	if err != nil {
		return nil, fmt.Errorf("arrow/tableio: could not open avro file: %w", err)
	}
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
		return nil, fmt.Errorf("arrow/tableio: could not read avro: %w", err)
	}
	return assemble(rdr.Schema(), recs, cfg)
}

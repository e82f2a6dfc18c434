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
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-tabular/tabular"
)

type recordWriter interface {
	Write(rec arrow.Record) error
	Close() error
}

func (cfg *config) ipcOptions(schema *arrow.Schema) []ipc.Option {
	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(cfg.mem)}
	switch cfg.compression {
	case LZ4:
		opts = append(opts, ipc.WithLZ4())
	case ZSTD:
		opts = append(opts, ipc.WithZstd())
	}
	return opts
}

// unifyDictionaries returns tbl with every multi-chunk dictionary column
// rewritten so that its chunks share one dictionary. The IPC file format
// cannot replace a dictionary between record batches.
func unifyDictionaries(tbl *tabular.Table, mem memory.Allocator) (*tabular.Table, error) {
	src := tbl.Columns()
	cols := make([]*arrow.Chunked, len(src))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	unified := false
	for i, c := range src {
		if c.DataType().ID() != arrow.DICTIONARY || len(c.Chunks()) < 2 {
			c.Retain()
			cols[i] = c
			continue
		}
		u, err := array.UnifyChunkedDicts(mem, c)
		if err != nil {
			return nil, fmt.Errorf("arrow/tableio: could not unify dictionaries of column %d (%q): %w",
				i, tbl.Schema().Field(i).Name, err)
		}
		cols[i] = u
		unified = true
	}
	if !unified {
		tbl.Retain()
		return tbl, nil
	}
	return tabular.New(tbl.Schema(), cols, tbl.NumRows(), tabular.WithAllocator(mem))
}

// Serialize writes tbl to w in the Arrow IPC format selected by WithFormat.
func Serialize(w io.Writer, tbl *tabular.Table, opts ...Option) (err error) {
	cfg := newConfig(opts...)

	var rw recordWriter
	switch cfg.format {
	case Stream:
		rw = ipc.NewWriter(w, cfg.ipcOptions(tbl.Schema())...)
	case File:
		if tbl, err = unifyDictionaries(tbl, cfg.mem); err != nil {
			return err
		}
		defer tbl.Release()

		fw, err := ipc.NewFileWriter(w, cfg.ipcOptions(tbl.Schema())...)
		if err != nil {
			return fmt.Errorf("arrow/tableio: could not create file writer: %w", err)
		}
		rw = fw
	default:
		return fmt.Errorf("arrow/tableio: %w: unknown format %d", tabular.ErrInvalidArgument, cfg.format)
	}
	defer func() {
		if cerr := rw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("arrow/tableio: could not close writer: %w", cerr)
		}
	}()

	rr := tabular.NewRecordReader(tbl, cfg.maxRows)
	defer rr.Release()
	for rr.Next() {
		if err := rw.Write(rr.Record()); err != nil {
			return fmt.Errorf("arrow/tableio: could not write record batch: %w", err)
		}
	}
	return rr.Err()
}

// Deserialize reads an Arrow IPC stream written by Serialize.
func Deserialize(r io.Reader, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	rdr, err := ipc.NewReader(r, ipc.WithAllocator(cfg.mem))
	if err != nil {
		return nil, fmt.Errorf("arrow/tableio: could not open stream: %w", err)
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
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("arrow/tableio: could not read record batch: %w", err)
	}
	return assemble(rdr.Schema(), recs, cfg)
}

// DeserializeFile reads the Arrow IPC file format.
func DeserializeFile(r ipc.ReadAtSeeker, opts ...Option) (*tabular.Table, error) {
	cfg := newConfig(opts...)

	rdr, err := ipc.NewFileReader(r, ipc.WithAllocator(cfg.mem))
	if err != nil {
		return nil, fmt.Errorf("arrow/tableio: could not open file: %w", err)
	}
	defer rdr.Close()

	recs := make([]arrow.Record, 0, rdr.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("arrow/tableio: could not read record batch %d: %w", i, err)
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	return assemble(rdr.Schema(), recs, cfg)
}

// Read detects whether data holds the IPC file or stream format.
func Read(data []byte, opts ...Option) (*tabular.Table, error) {
	if bytes.HasPrefix(data, ipc.Magic) {
		return DeserializeFile(bytes.NewReader(data), opts...)
	}
	return Deserialize(bytes.NewReader(data), opts...)
}

// assemble stacks recs into a table with the given schema; no records
// gives an empty table.
func assemble(schema *arrow.Schema, recs []arrow.Record, cfg *config) (*tabular.Table, error) {
	if len(recs) > 0 {
		return tabular.FromRecords(recs, tabular.WithSchema(schema), tabular.WithAllocator(cfg.mem))
	}
	cols := make([]*arrow.Chunked, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = arrow.NewChunked(f.Type, nil)
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	return tabular.New(schema, cols, 0, tabular.WithAllocator(cfg.mem))
}

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

// Command arrow-table loads a table, applies structural and row operations
// to it and writes the result.
//
// Examples:
//
//	$> arrow-table --columns=2,0 --slice=10:5 ./testdata/primitives.arrow
//	table: 5 rows, 2 columns
//	...
//
//	$> gen-arrow-stream | arrow-table --take=3,1,1 --output=json
//	{"bools":false,"int8s":-4}
//	...
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-tabular/tabular"
	"github.com/apache/arrow-tabular/tabular/tableio"
	"github.com/docopt/docopt-go"
)

const usage = `Arrow Table.
Usage:
  arrow-table -h | --help
  arrow-table [--input=FORMAT] [--output=FORMAT] [--columns=COLUMNS] [--rename=NAMES]
              [--slice=RANGE] [--take=ROWS] [--chunk-size=ROWS] [--validate] [<file>]
Options:
  -h --help            Show this screen.
  --input=FORMAT       Input format: ipc, parquet or avro [default: ipc].
  --output=FORMAT      Output format: text, ipc, json or csv [default: text].
  --columns=COLUMNS    Comma delimited column positions to keep, in order.
  --rename=NAMES       Comma delimited new column names.
  --slice=RANGE        Rows to keep as OFFSET or OFFSET:LENGTH.
  --take=ROWS          Comma delimited row positions to gather.
  --chunk-size=ROWS    Maximum rows per written record batch [default: 0].
  --validate           Run a full validation of the result.`

type config struct {
	Help      bool `docopt:"--help"`
	Input     string
	Output    string
	Columns   string
	Rename    string
	Slice     string
	Take      string
	ChunkSize string `docopt:"--chunk-size"`
	Validate  bool
	File      string
}

func main() {
	log.SetPrefix("arrow-table: ")
	log.SetFlags(0)

	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatal(err)
	}
	var cfg config
	if err := opts.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	if err := run(context.Background(), os.Stdout, os.Stdin, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, w io.Writer, stdin io.Reader, cfg config) error {
	mem := memory.NewGoAllocator()

	tbl, err := load(ctx, stdin, cfg, mem)
	if err != nil {
		return err
	}
	defer func() { tbl.Release() }()

	apply := func(next *tabular.Table, err error) error {
		if err != nil {
			return err
		}
		tbl.Release()
		tbl = next
		return nil
	}

	if cfg.Columns != "" {
		cols, err := parseInts(cfg.Columns)
		if err != nil {
			return fmt.Errorf("--columns: %w", err)
		}
		indices := make([]int, len(cols))
		for i, c := range cols {
			indices[i] = int(c)
		}
		if err := apply(tbl.SelectColumns(indices)); err != nil {
			return err
		}
	}
	if cfg.Rename != "" {
		if err := apply(tbl.RenameColumns(strings.Split(cfg.Rename, ","))); err != nil {
			return err
		}
	}
	if cfg.Slice != "" {
		offset, length, err := parseRange(cfg.Slice)
		if err != nil {
			return fmt.Errorf("--slice: %w", err)
		}
		if err := apply(tbl.Slice(offset, length...)); err != nil {
			return err
		}
	}
	if cfg.Take != "" {
		rows, err := parseInts(cfg.Take)
		if err != nil {
			return fmt.Errorf("--take: %w", err)
		}
		if err := apply(tbl.TakeIndices(ctx, rows)); err != nil {
			return err
		}
	}
	if cfg.Validate {
		if err := tbl.ValidateFull(); err != nil {
			return err
		}
	}

	chunkSize, err := strconv.ParseInt(cfg.ChunkSize, 10, 64)
	if err != nil {
		return fmt.Errorf("--chunk-size: %w", err)
	}
	wopts := []tableio.Option{tableio.WithAllocator(mem), tableio.WithMaxChunkSize(chunkSize)}
	switch cfg.Output {
	case "text":
		_, err = fmt.Fprint(w, tbl)
		return err
	case "ipc":
		return tableio.Serialize(w, tbl, wopts...)
	case "json":
		return tableio.WriteJSON(w, tbl, wopts...)
	case "csv":
		return tableio.WriteCSV(w, tbl, wopts...)
	}
	return fmt.Errorf("unknown output format %q", cfg.Output)
}

func load(ctx context.Context, stdin io.Reader, cfg config, mem memory.Allocator) (*tabular.Table, error) {
	opts := []tableio.Option{tableio.WithAllocator(mem)}
	switch cfg.Input {
	case "ipc":
		if cfg.File == "" {
			return tableio.Deserialize(stdin, opts...)
		}
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		return tableio.Read(data, opts...)
	case "avro":
		if cfg.File == "" {
			return tableio.ReadAvro(stdin, opts...)
		}
		f, err := os.Open(cfg.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tableio.ReadAvro(f, opts...)
	case "parquet":
		if cfg.File == "" {
			return nil, fmt.Errorf("parquet input requires a file")
		}
		f, err := os.Open(cfg.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tableio.ReadParquet(ctx, f, opts...)
	}
	return nil, fmt.Errorf("unknown input format %q", cfg.Input)
}

func parseInts(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("needs comma delimited integers: %w", err)
		}
		out[i] = v
	}
	return out, nil
}

func parseRange(s string) (offset int64, length []int64, err error) {
	off, n, found := strings.Cut(s, ":")
	offset, err = strconv.ParseInt(off, 10, 64)
	if err != nil {
		return 0, nil, err
	}
	if !found {
		return offset, nil, nil
	}
	l, err := strconv.ParseInt(n, 10, 64)
	if err != nil {
		return 0, nil, err
	}
	return offset, []int64{l}, nil
}

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
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
)

// Format selects the Arrow IPC framing.
type Format int8

const (
	// Stream is the Arrow IPC streaming format: schema, record batches, end
	// of stream marker.
	Stream Format = iota
	// File is the Arrow IPC random access file format.
	File
)

// Compression selects the body compression of IPC record batches.
type Compression int8

const (
	// Uncompressed writes record batch bodies as is.
	Uncompressed Compression = iota
	// LZ4 compresses record batch bodies with the LZ4 frame format.
	LZ4
	// ZSTD compresses record batch bodies with zstd.
	ZSTD
)

type config struct {
	mem         memory.Allocator
	format      Format
	compression Compression
	maxRows     int64

	parquetCodec compress.Compression

	csvHeader bool
	csvComma  rune
	csvNull   string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		mem:          memory.DefaultAllocator,
		format:       Stream,
		parquetCodec: compress.Codecs.Snappy,
		csvHeader:    true,
		csvComma:     ',',
		csvNull:      "NA",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures writers and readers of this package.
type Option func(*config)

// WithAllocator specifies the allocator used when reading or writing.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.mem = mem
	}
}

// WithFormat selects the IPC stream or file format. The file format cannot
// replace dictionaries, so Serialize unifies the chunk dictionaries of each
// dictionary column before writing it.
func WithFormat(f Format) Option {
	return func(cfg *config) {
		cfg.format = f
	}
}

// WithCompression compresses IPC record batch bodies.
func WithCompression(c Compression) Option {
	return func(cfg *config) {
		cfg.compression = c
	}
}

// WithMaxChunkSize caps the number of rows per written batch (or parquet
// row group). Batches are always split at column chunk boundaries.
func WithMaxChunkSize(rows int64) Option {
	return func(cfg *config) {
		cfg.maxRows = rows
	}
}

// WithParquetCompression selects the parquet column codec, snappy by default.
func WithParquetCompression(codec compress.Compression) Option {
	return func(cfg *config) {
		cfg.parquetCodec = codec
	}
}

// WithCSVHeader controls whether CSV data starts with a header line.
func WithCSVHeader(header bool) Option {
	return func(cfg *config) {
		cfg.csvHeader = header
	}
}

// WithCSVComma sets the CSV field delimiter.
func WithCSVComma(c rune) Option {
	return func(cfg *config) {
		cfg.csvComma = c
	}
}

// WithCSVNull sets the CSV representation of null values, "NA" by default.
func WithCSVNull(null string) Option {
	return func(cfg *config) {
		cfg.csvNull = null
	}
}

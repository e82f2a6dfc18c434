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

package tableio_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-tabular/internal/testing/gen"
	"github.com/apache/arrow-tabular/tabular"
	"github.com/apache/arrow-tabular/tabular/tableio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = []arrow.Type{arrow.INT64, arrow.FLOAT64, arrow.BOOL, arrow.STRING}

// sampleTable returns a random multi-chunk table with nulls in every column,
// field metadata and schema metadata.
func sampleTable(t *testing.T, mem memory.Allocator, rows int) *tabular.Table {
	t.Helper()

	g := gen.NewRandomTableGenerator(uint64(rows), mem)
	raw := g.Table(allTypes, rows, 5, 0.2)
	defer raw.Release()

	fields := append([]arrow.Field(nil), raw.Schema().Fields()...)
	fields[0].Metadata = arrow.NewMetadata([]string{"unit"}, []string{"seconds"})
	md := arrow.NewMetadata([]string{"origin"}, []string{"tableio"})
	tbl, err := tabular.New(arrow.NewSchema(fields, &md), raw.Columns(), raw.NumRows(), tabular.WithAllocator(mem))
	require.NoError(t, err)
	defer tbl.Release()

	return tbl.WithAttributes("structure(list(), class = \"data.frame\")")
}

func TestSerializeRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := sampleTable(t, mem, 200)
	defer tbl.Release()
	for _, col := range tbl.Columns() {
		require.Positive(t, col.NullN())
	}

	for _, format := range []tableio.Format{tableio.Stream, tableio.File} {
		for _, codec := range []tableio.Compression{tableio.Uncompressed, tableio.LZ4, tableio.ZSTD} {
			for _, maxRows := range []int64{0, 7} {
				name := fmt.Sprintf("format=%d/codec=%d/max=%d", format, codec, maxRows)
				t.Run(name, func(t *testing.T) {
					var buf bytes.Buffer
					err := tableio.Serialize(&buf, tbl,
						tableio.WithAllocator(mem),
						tableio.WithFormat(format),
						tableio.WithCompression(codec),
						tableio.WithMaxChunkSize(maxRows))
					require.NoError(t, err)

					var back *tabular.Table
					switch format {
					case tableio.Stream:
						back, err = tableio.Deserialize(bytes.NewReader(buf.Bytes()), tableio.WithAllocator(mem))
					case tableio.File:
						back, err = tableio.DeserializeFile(bytes.NewReader(buf.Bytes()), tableio.WithAllocator(mem))
					}
					require.NoError(t, err)
					defer back.Release()

					require.NoError(t, back.ValidateFull())
					assert.True(t, back.Equal(tbl, true))
					payload, ok := back.Attributes()
					assert.True(t, ok)
					assert.Equal(t, "structure(list(), class = \"data.frame\")", payload)

					if maxRows > 0 {
						for _, col := range back.Columns() {
							for _, c := range col.Chunks() {
								assert.LessOrEqual(t, int64(c.Len()), maxRows)
							}
						}
					}

					auto, err := tableio.Read(buf.Bytes(), tableio.WithAllocator(mem))
					require.NoError(t, err)
					defer auto.Release()
					assert.True(t, auto.Equal(tbl, true))
				})
			}
		}
	}
}

func TestSerializeBatches(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := sampleTable(t, mem, 60)
	defer tbl.Release()

	// one batch per run of rows inside a chunk of every column.
	bounds := map[int64]bool{}
	for _, col := range tbl.Columns() {
		var pos int64
		for _, c := range col.Chunks() {
			pos += int64(c.Len())
			bounds[pos] = true
		}
	}

	var buf bytes.Buffer
	require.NoError(t, tableio.Serialize(&buf, tbl, tableio.WithAllocator(mem)))

	rdr, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer rdr.Release()

	assert.True(t, rdr.Schema().Equal(tbl.Schema()))
	var (
		batches int
		rows    int64
	)
	for rdr.Next() {
		batches++
		rows += rdr.Record().NumRows()
		assert.True(t, bounds[rows], "batch ends at %d", rows)
	}
	assert.Equal(t, len(bounds), batches)
	assert.Equal(t, tbl.NumRows(), rows)
}

func TestSerializeEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := sampleTable(t, mem, 30)
	defer tbl.Release()
	empty, err := tbl.Slice(30)
	require.NoError(t, err)
	defer empty.Release()

	for _, format := range []tableio.Format{tableio.Stream, tableio.File} {
		var buf bytes.Buffer
		require.NoError(t, tableio.Serialize(&buf, empty, tableio.WithAllocator(mem), tableio.WithFormat(format)))

		back, err := tableio.Read(buf.Bytes(), tableio.WithAllocator(mem))
		require.NoError(t, err)
		assert.EqualValues(t, 0, back.NumRows())
		assert.True(t, back.Equal(empty, true))
		back.Release()
	}
}

func dictionaryStrings(t *testing.T, col *arrow.Chunked) []any {
	t.Helper()
	var out []any
	for _, chunk := range col.Chunks() {
		d := chunk.(*array.Dictionary)
		dict := d.Dictionary().(*array.String)
		for i := 0; i < d.Len(); i++ {
			if d.IsNull(i) {
				out = append(out, nil)
				continue
			}
			out = append(out, dict.Value(d.GetValueIndex(i)))
		}
	}
	return out
}

func TestSerializeDictionaryChunks(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	chunk := func(vals ...string) arrow.Array {
		b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
		defer b.Release()
		for _, v := range vals {
			if v == "" {
				b.AppendNull()
				continue
			}
			require.NoError(t, b.AppendString(v))
		}
		return b.NewArray()
	}
	c1, c2 := chunk("x", "x"), chunk("y", "", "z", "y")
	defer c1.Release()
	defer c2.Release()
	col := arrow.NewChunked(dt, []arrow.Array{c1, c2})
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "d", Type: dt, Nullable: true}}, nil)
	tbl, err := tabular.New(schema, []*arrow.Chunked{col}, -1, tabular.WithAllocator(mem))
	require.NoError(t, err)
	defer tbl.Release()

	want := []any{"x", "x", "y", nil, "z", "y"}
	for _, format := range []tableio.Format{tableio.Stream, tableio.File} {
		t.Run(fmt.Sprintf("format=%d", format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tableio.Serialize(&buf, tbl, tableio.WithAllocator(mem), tableio.WithFormat(format)))

			back, err := tableio.Read(buf.Bytes(), tableio.WithAllocator(mem))
			require.NoError(t, err)
			defer back.Release()

			require.NoError(t, back.ValidateFull())
			got, err := back.Column(0)
			require.NoError(t, err)
			assert.Equal(t, want, dictionaryStrings(t, got))
		})
	}
	assert.Equal(t, want, dictionaryStrings(t, col), "source dictionaries are left alone")
}

func TestSerializeErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := sampleTable(t, mem, 10)
	defer tbl.Release()

	err := tableio.Serialize(&bytes.Buffer{}, tbl, tableio.WithFormat(tableio.Format(9)))
	assert.ErrorIs(t, err, tabular.ErrInvalidArgument)

	_, err = tableio.Deserialize(strings.NewReader("not arrow"), tableio.WithAllocator(mem))
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.DefaultAllocator

	tbl := sampleTable(t, mem, 150)
	defer tbl.Release()

	for _, codec := range []compress.Compression{compress.Codecs.Snappy, compress.Codecs.Zstd, compress.Codecs.Uncompressed} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tableio.WriteParquet(&buf, tbl,
				tableio.WithParquetCompression(codec), tableio.WithMaxChunkSize(64)))

			back, err := tableio.ReadParquet(context.Background(), bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			defer back.Release()

			require.NoError(t, back.ValidateFull())
			assert.Equal(t, tbl.ColumnNames(), back.ColumnNames())
			assert.True(t, back.Equal(tbl, false))
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl := sampleTable(t, mem, 80)
	defer tbl.Release()
	plain := tbl.ReplaceSchemaMetadata(arrow.Metadata{})
	defer plain.Release()

	for _, comma := range []rune{',', ';'} {
		var buf bytes.Buffer
		require.NoError(t, tableio.WriteCSV(&buf, tbl, tableio.WithCSVComma(comma)))
		header, _, _ := strings.Cut(buf.String(), "\n")
		assert.Equal(t, strings.Join(tbl.ColumnNames(), string(comma)), header)

		back, err := tableio.ReadCSV(&buf, plain.Schema(),
			tableio.WithAllocator(mem), tableio.WithCSVComma(comma), tableio.WithMaxChunkSize(25))
		require.NoError(t, err)
		assert.True(t, back.Equal(plain, false))
		back.Release()
	}

	t.Run("no header", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tableio.WriteCSV(&buf, tbl, tableio.WithCSVHeader(false), tableio.WithCSVNull("")))
		back, err := tableio.ReadCSV(&buf, plain.Schema(),
			tableio.WithAllocator(mem), tableio.WithCSVHeader(false), tableio.WithCSVNull(""))
		require.NoError(t, err)
		defer back.Release()
		assert.EqualValues(t, tbl.NumRows(), back.NumRows())
	})
}

func TestJSON(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	small, err := tabular.FromColumns([]tabular.Column{
		{Name: "a", Value: []any{1, nil}},
		{Name: "b", Value: []string{"x", "q\"uote"}},
		{Name: "c", Value: []bool{true, false}},
	}, tabular.WithAllocator(mem))
	require.NoError(t, err)
	defer small.Release()

	var buf bytes.Buffer
	require.NoError(t, tableio.WriteJSON(&buf, small))
	assert.Equal(t, "{\"a\":1,\"b\":\"x\",\"c\":true}\n{\"a\":null,\"b\":\"q\\\"uote\",\"c\":false}\n", buf.String())

	t.Run("round trip", func(t *testing.T) {
		tbl := sampleTable(t, mem, 90)
		defer tbl.Release()
		plain := tbl.ReplaceSchemaMetadata(arrow.Metadata{})
		defer plain.Release()

		var buf bytes.Buffer
		require.NoError(t, tableio.WriteJSON(&buf, tbl, tableio.WithMaxChunkSize(32)))
		assert.Equal(t, 90, strings.Count(buf.String(), "\n"))

		back, err := tableio.ReadJSON(&buf, plain.Schema(), tableio.WithAllocator(mem), tableio.WithMaxChunkSize(40))
		require.NoError(t, err)
		defer back.Release()
		assert.True(t, back.Equal(plain, false))
	})
}

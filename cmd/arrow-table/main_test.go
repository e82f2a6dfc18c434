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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-tabular/tabular"
	"github.com/apache/arrow-tabular/tabular/tableio"
	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStream(t *testing.T) []byte {
	t.Helper()

	tbl, err := tabular.FromColumns([]tabular.Column{
		{Name: "ints", Value: []int64{10, 20, 30, 40}},
		{Name: "strs", Value: []string{"a", "b", "c", "d"}},
		{Name: "bools", Value: []bool{true, false, true, false}},
	}, tabular.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer tbl.Release()

	var buf bytes.Buffer
	require.NoError(t, tableio.Serialize(&buf, tbl))
	return buf.Bytes()
}

func TestBindArgs(t *testing.T) {
	opts, err := docopt.ParseArgs(usage, []string{"--columns=2,0", "--slice=1:2", "--chunk-size=8", "--validate", "in.arrow"}, "")
	require.NoError(t, err)

	var cfg config
	require.NoError(t, opts.Bind(&cfg))
	assert.Equal(t, config{
		Input:     "ipc",
		Output:    "text",
		Columns:   "2,0",
		Slice:     "1:2",
		ChunkSize: "8",
		Validate:  true,
		File:      "in.arrow",
	}, cfg)
}

func TestRun(t *testing.T) {
	stream := testStream(t)

	for _, tc := range []struct {
		name string
		cfg  config
		want string
	}{
		{
			name: "json",
			cfg:  config{Input: "ipc", Output: "json", ChunkSize: "0", Columns: "2,0", Take: "3,1,1"},
			want: "{\"bools\":false,\"ints\":40}\n{\"bools\":false,\"ints\":20}\n{\"bools\":false,\"ints\":20}\n",
		},
		{
			name: "csv",
			cfg:  config{Input: "ipc", Output: "csv", ChunkSize: "0", Rename: "i,s,b", Slice: "1:2", Validate: true},
			want: "i,s,b\n20,b,false\n30,c,true\n",
		},
		{
			name: "text",
			cfg:  config{Input: "ipc", Output: "text", ChunkSize: "0", Slice: "3"},
			want: "table: 1 rows, 3 columns\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(context.Background(), &out, bytes.NewReader(stream), tc.cfg))
			if tc.cfg.Output == "text" {
				assert.True(t, strings.HasPrefix(out.String(), tc.want), out.String())
				return
			}
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.arrow")
	require.NoError(t, os.WriteFile(src, testStream(t), 0o644))

	var ipcOut bytes.Buffer
	cfg := config{Input: "ipc", Output: "ipc", ChunkSize: "1", File: src}
	require.NoError(t, run(context.Background(), &ipcOut, nil, cfg))

	back, err := tableio.Deserialize(&ipcOut)
	require.NoError(t, err)
	defer back.Release()
	assert.EqualValues(t, 4, back.NumRows())
	col, _ := back.Column(0)
	assert.Len(t, col.Chunks(), 4)

	_, err = os.Stat(filepath.Join(dir, "missing.parquet"))
	require.Error(t, err)
	err = run(context.Background(), &bytes.Buffer{}, nil, config{Input: "parquet", Output: "text", ChunkSize: "0", File: filepath.Join(dir, "missing.parquet")})
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	stream := testStream(t)

	for _, cfg := range []config{
		{Input: "orc", Output: "text", ChunkSize: "0"},
		{Input: "avro", Output: "text", ChunkSize: "0"},
		{Input: "ipc", Output: "xml", ChunkSize: "0"},
		{Input: "ipc", Output: "text", ChunkSize: "x"},
		{Input: "ipc", Output: "text", ChunkSize: "0", Columns: "a"},
		{Input: "ipc", Output: "text", ChunkSize: "0", Columns: "7"},
		{Input: "ipc", Output: "text", ChunkSize: "0", Slice: "9"},
		{Input: "ipc", Output: "text", ChunkSize: "0", Take: "4"},
		{Input: "ipc", Output: "text", ChunkSize: "0", Rename: "x"},
	} {
		err := run(context.Background(), &bytes.Buffer{}, bytes.NewReader(stream), cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestParseRange(t *testing.T) {
	off, n, err := parseRange("5")
	require.NoError(t, err)
	assert.EqualValues(t, 5, off)
	assert.Empty(t, n)

	off, n, err = parseRange("2:3")
	require.NoError(t, err)
	assert.EqualValues(t, 2, off)
	assert.Equal(t, []int64{3}, n)

	_, _, err = parseRange("2:x")
	assert.Error(t, err)
}

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

// Package gen builds seeded random tables for tests.
package gen

import (
	"fmt"
	"math/rand/v2"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-tabular/tabular"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomTableGenerator constructs random arrays, chunked columns and
// tables. The same seed always produces the same data.
type RandomTableGenerator struct {
	seed  uint64
	extra uint64
	rnd   *rand.Rand
	mem   memory.Allocator
}

// NewRandomTableGenerator constructs a new generator with the requested seed.
func NewRandomTableGenerator(seed uint64, mem memory.Allocator) *RandomTableGenerator {
	return &RandomTableGenerator{
		seed: seed,
		rnd:  rand.New(rand.NewPCG(seed, seed)),
		mem:  mem,
	}
}

// validity returns n validity flags, each false with probability nullProb.
func (r *RandomTableGenerator) validity(n int, nullProb float64) []bool {
	r.extra++
	dist := distuv.Bernoulli{P: 1 - nullProb, Src: rand.NewPCG(r.seed, r.extra)}
	valid := make([]bool, n)
	for i := range valid {
		valid[i] = dist.Rand() != 0
	}
	return valid
}

func (r *RandomTableGenerator) Int64(n int, min, max int64, nullProb float64) arrow.Array {
	b := array.NewInt64Builder(r.mem)
	defer b.Release()

	vals := make([]int64, n)
	for i := range vals {
		vals[i] = min + r.rnd.Int64N(max-min+1)
	}
	b.AppendValues(vals, r.validity(n, nullProb))
	return b.NewArray()
}

func (r *RandomTableGenerator) Float64(n int, min, max float64, nullProb float64) arrow.Array {
	b := array.NewFloat64Builder(r.mem)
	defer b.Release()

	dist := distuv.Uniform{Min: min, Max: max, Src: r.rnd}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = dist.Rand()
	}
	b.AppendValues(vals, r.validity(n, nullProb))
	return b.NewArray()
}

func (r *RandomTableGenerator) Boolean(n int, prob, nullProb float64) arrow.Array {
	b := array.NewBooleanBuilder(r.mem)
	defer b.Release()

	dist := distuv.Bernoulli{P: prob, Src: r.rnd}
	vals := make([]bool, n)
	for i := range vals {
		vals[i] = dist.Rand() != 0
	}
	b.AppendValues(vals, r.validity(n, nullProb))
	return b.NewArray()
}

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func (r *RandomTableGenerator) String(n, minLen, maxLen int, nullProb float64) arrow.Array {
	b := array.NewStringBuilder(r.mem)
	defer b.Release()

	vals := make([]string, n)
	buf := make([]byte, maxLen)
	for i := range vals {
		sz := minLen + r.rnd.IntN(maxLen-minLen+1)
		for k := 0; k < sz; k++ {
			buf[k] = alphabet[r.rnd.IntN(len(alphabet))]
		}
		vals[i] = string(buf[:sz])
	}
	b.AppendValues(vals, r.validity(n, nullProb))
	return b.NewArray()
}

// ArrayOf returns a random array of type dt with n values.
func (r *RandomTableGenerator) ArrayOf(dt arrow.Type, n int, nullProb float64) arrow.Array {
	switch dt {
	case arrow.INT64:
		return r.Int64(n, -1000, 1000, nullProb)
	case arrow.FLOAT64:
		return r.Float64(n, -1e6, 1e6, nullProb)
	case arrow.BOOL:
		return r.Boolean(n, 0.5, nullProb)
	case arrow.STRING:
		return r.String(n, 0, 12, nullProb)
	}
	panic(fmt.Errorf("gen: unsupported type %s", dt))
}

// Chunked returns a column of rows values of type dt split into at most
// maxChunks chunks at random boundaries.
func (r *RandomTableGenerator) Chunked(dt arrow.Type, rows, maxChunks int, nullProb float64) *arrow.Chunked {
	sizes := r.splits(rows, maxChunks)
	chunks := make([]arrow.Array, len(sizes))
	for i, sz := range sizes {
		chunks[i] = r.ArrayOf(dt, sz, nullProb)
	}
	defer func() {
		for _, c := range chunks {
			c.Release()
		}
	}()

	var typ arrow.DataType
	switch dt {
	case arrow.INT64:
		typ = arrow.PrimitiveTypes.Int64
	case arrow.FLOAT64:
		typ = arrow.PrimitiveTypes.Float64
	case arrow.BOOL:
		typ = arrow.FixedWidthTypes.Boolean
	case arrow.STRING:
		typ = arrow.BinaryTypes.String
	}
	return arrow.NewChunked(typ, chunks)
}

// splits partitions rows into between 1 and maxChunks sizes.
func (r *RandomTableGenerator) splits(rows, maxChunks int) []int {
	if rows == 0 || maxChunks <= 1 {
		return []int{rows}
	}
	n := 1 + r.rnd.IntN(maxChunks)
	if n > rows {
		n = rows
	}
	cuts := r.rnd.Perm(rows - 1)[:n-1]
	marks := make([]bool, rows)
	for _, c := range cuts {
		marks[c+1] = true
	}
	sizes := make([]int, 0, n)
	last := 0
	for i := 1; i < rows; i++ {
		if marks[i] {
			sizes = append(sizes, i-last)
			last = i
		}
	}
	return append(sizes, rows-last)
}

// Table returns a table with one column per type in types, named c0, c1,
// ... Each column is chunked independently.
func (r *RandomTableGenerator) Table(types []arrow.Type, rows, maxChunks int, nullProb float64) *tabular.Table {
	cols := make([]*arrow.Chunked, len(types))
	fields := make([]arrow.Field, len(types))
	for i, dt := range types {
		cols[i] = r.Chunked(dt, rows, maxChunks, nullProb)
		fields[i] = arrow.Field{Name: fmt.Sprintf("c%d", i), Type: cols[i].DataType(), Nullable: true}
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	tbl, err := tabular.New(arrow.NewSchema(fields, nil), cols, int64(rows), tabular.WithAllocator(r.mem))
	if err != nil {
		panic(err)
	}
	return tbl
}

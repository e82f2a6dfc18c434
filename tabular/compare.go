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

package tabular

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Equal reports whether t and other have the same fields (names, types and
// nullability, in order), the same number of rows and equal values in every
// column. Chunk boundaries are ignored. With checkMetadata the schema and
// field metadata must match as well.
func (t *Table) Equal(other *Table, checkMetadata bool) bool {
	switch {
	case t == other:
		return true
	case t == nil || other == nil:
		return false
	case t.rows != other.rows || len(t.cols) != len(other.cols):
		return false
	}

	if !fieldsEqual(t.schema, other.schema, checkMetadata) {
		return false
	}
	if checkMetadata && !metadataEqual(t.schema.Metadata(), other.schema.Metadata()) {
		return false
	}

	for i := range t.cols {
		if !array.ChunkedEqual(t.cols[i], other.cols[i]) {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b *arrow.Schema, checkMetadata bool) bool {
	if a.NumFields() != b.NumFields() {
		return false
	}
	var opts []arrow.TypeEqualOption
	if checkMetadata {
		opts = append(opts, arrow.CheckMetadata())
	}
	for i := 0; i < a.NumFields(); i++ {
		fa, fb := a.Field(i), b.Field(i)
		switch {
		case fa.Name != fb.Name, fa.Nullable != fb.Nullable:
			return false
		case !arrow.TypeEqual(fa.Type, fb.Type, opts...):
			return false
		case checkMetadata && !metadataEqual(fa.Metadata, fb.Metadata):
			return false
		}
	}
	return true
}

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

/*
Package tabular provides an immutable, reference counted table of chunked
Arrow columns.

A Table is a Schema plus one *arrow.Chunked per field, all of the same length.
Columns of one Table may be chunked differently. Every operation (structural
edits, Cast, Slice, Take, Filter) returns a new Table and shares the columns
it does not modify with its input, so Slice and SelectColumns never copy
value buffers.

Tables start with a reference count of 1. Retain and Release may be called
from multiple goroutines; the columns are released when the last reference
is dropped.

	tbl, err := tabular.FromColumns([]tabular.Column{
		{Name: "a", Value: []int64{1, 2, 3}},
		{Name: "b", Value: []string{"x", "y", "z"}},
	}, tabular.WithAllocator(mem))
	if err != nil {
		return err
	}
	defer tbl.Release()

	sub, err := tbl.Slice(1)
	...

Row selection (Take, Filter) and casting are delegated to an Executor, which
by default is the arrow compute function registry.
*/
package tabular

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
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type config struct {
	mem         memory.Allocator
	schema      *arrow.Schema
	exec        Executor
	concurrency int
}

func newConfig(opts ...Option) config {
	cfg := config{
		mem:         memory.DefaultAllocator,
		exec:        DefaultExecutor,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures how a Table is built. Options given at construction
// are inherited by every Table derived from it.
type Option func(*config)

// WithAllocator specifies the allocator used for any buffer the Table has
// to build, e.g. when wrapping Go slices or gathering rows in Take.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.mem = mem
	}
}

// WithSchema supplies the schema a Table is built against instead of
// inferring it from the input.
func WithSchema(schema *arrow.Schema) Option {
	return func(cfg *config) {
		cfg.schema = schema
	}
}

// WithExecutor replaces the compute engine used for cast, take and filter.
func WithExecutor(exec Executor) Option {
	return func(cfg *config) {
		cfg.exec = exec
	}
}

// WithConcurrency bounds the number of columns processed at once by Cast,
// Take and Filter. Values < 1 mean no limit.
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		cfg.concurrency = n
	}
}

type castConfig struct {
	safe bool
}

// CastOption configures Cast.
type CastOption func(*castConfig)

// WithSafeCast controls whether lossy conversions (integer overflow, float
// truncation, ...) fail the cast. Casts are safe by default.
func WithSafeCast(safe bool) CastOption {
	return func(cfg *castConfig) {
		cfg.safe = safe
	}
}

func (cfg castConfig) options(dt arrow.DataType) *compute.CastOptions {
	if cfg.safe {
		return compute.SafeCastOptions(dt)
	}
	return compute.UnsafeCastOptions(dt)
}

// NullSelection decides what Filter does with rows whose predicate is null.
type NullSelection = compute.NullSelectionBehavior

const (
	// DropNulls excludes rows with a null predicate.
	DropNulls = compute.SelectionDropNulls
	// EmitNulls keeps rows with a null predicate, with every value set to null.
	EmitNulls = compute.SelectionEmitNulls
)

type filterConfig struct {
	nulls NullSelection
}

// FilterOption configures Filter.
type FilterOption func(*filterConfig)

// WithNullSelection sets the null predicate policy, DropNulls by default.
func WithNullSelection(behavior NullSelection) FilterOption {
	return func(cfg *filterConfig) {
		cfg.nulls = behavior
	}
}

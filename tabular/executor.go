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
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
)

// Names of the compute functions a Table invokes through its Executor.
const (
	FuncCast   = "cast"
	FuncTake   = "array_take"
	FuncFilter = "array_filter"
)

// Executor runs a named compute function. It is the only way Table reaches
// the compute engine, so tests and embedders can intercept or replace the
// kernels used for Cast, Take and Filter.
type Executor interface {
	Invoke(ctx context.Context, name string, opts compute.FunctionOptions, args ...compute.Datum) (compute.Datum, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, opts compute.FunctionOptions, args ...compute.Datum) (compute.Datum, error)

func (f ExecutorFunc) Invoke(ctx context.Context, name string, opts compute.FunctionOptions, args ...compute.Datum) (compute.Datum, error) {
	return f(ctx, name, opts, args...)
}

// DefaultExecutor dispatches to the global arrow compute function registry.
var DefaultExecutor Executor = ExecutorFunc(compute.CallFunction)

// invokeArray calls fn with array arguments and returns its array result.
// The caller owns the returned array.
func invokeArray(ctx context.Context, exec Executor, fn string, opts compute.FunctionOptions, args ...arrow.Array) (arrow.Array, error) {
	datums := make([]compute.Datum, len(args))
	for i, arg := range args {
		datums[i] = compute.NewDatum(arg)
	}
	defer func() {
		for _, d := range datums {
			d.Release()
		}
	}()

	out, err := exec.Invoke(ctx, fn, opts, datums...)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	switch out := out.(type) {
	case *compute.ArrayDatum:
		return out.MakeArray(), nil
	default:
		return nil, fmt.Errorf("arrow/tabular: %w: %s returned %s, expected an array",
			ErrTypeMismatch, fn, out.Kind())
	}
}

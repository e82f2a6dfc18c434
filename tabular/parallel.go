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

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/sync/errgroup"
)

// mapColumns runs fn for every column index with at most limit calls in
// flight (no limit if limit < 1). Each call writes only its own slot of the
// result. On error every column produced so far is released.
func mapColumns(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) (*arrow.Chunked, error)) ([]*arrow.Chunked, error) {
	out := make([]*arrow.Chunked, n)
	if limit == 1 {
		for i := range out {
			c, err := fn(ctx, i)
			if err != nil {
				releaseChunked(out)
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 1 {
		g.SetLimit(limit)
	}
	for i := range out {
		g.Go(func() error {
			c, err := fn(gctx, i)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseChunked(out)
		return nil, err
	}
	return out, nil
}

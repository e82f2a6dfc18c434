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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Error kinds returned by this package. Each one wraps the closest arrow
// sentinel, so errors.Is(err, arrow.ErrInvalid) keeps working for callers
// that only know about arrow errors.
var (
	ErrSchemaMismatch  = fmt.Errorf("%w: schema mismatch", arrow.ErrInvalid)
	ErrLengthMismatch  = fmt.Errorf("%w: length mismatch", arrow.ErrInvalid)
	ErrTypeMismatch    = fmt.Errorf("%w: type mismatch", arrow.ErrType)
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", arrow.ErrIndex)
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", arrow.ErrInvalid)
	ErrCast            = fmt.Errorf("%w: cast failed", arrow.ErrInvalid)
	ErrEmptyInput      = fmt.Errorf("%w: empty input", arrow.ErrInvalid)
	ErrValidation      = fmt.Errorf("%w: validation failed", arrow.ErrInvalid)
)

func columnIndexError(i, n int) error {
	return fmt.Errorf("arrow/tabular: %w: column %d, table has %d columns", ErrIndexOutOfRange, i, n)
}

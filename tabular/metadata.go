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

import "github.com/apache/arrow-go/v18/arrow"

// AttributesKey is the schema metadata key holding host language
// attributes. The payload is stored and returned verbatim.
const AttributesKey = "r"

// Attributes returns the payload stored under AttributesKey.
func (t *Table) Attributes() (string, bool) {
	md := t.schema.Metadata()
	i := md.FindKey(AttributesKey)
	if i < 0 {
		return "", false
	}
	return md.Values()[i], true
}

// WithAttributes returns a table whose schema metadata stores payload under
// AttributesKey, keeping every other key.
func (t *Table) WithAttributes(payload string) *Table {
	return t.ReplaceSchemaMetadata(setMetadata(t.schema.Metadata(), AttributesKey, payload))
}

// setMetadata returns a copy of md with key set to value.
func setMetadata(md arrow.Metadata, key, value string) arrow.Metadata {
	keys := append([]string(nil), md.Keys()...)
	vals := append([]string(nil), md.Values()...)
	if i := md.FindKey(key); i >= 0 {
		vals[i] = value
	} else {
		keys = append(keys, key)
		vals = append(vals, value)
	}
	return arrow.NewMetadata(keys, vals)
}

// metadataEqual compares two metadata maps as key/value sets.
func metadataEqual(a, b arrow.Metadata) bool {
	if a.Len() != b.Len() {
		return false
	}
	bvals := b.Values()
	for i, k := range a.Keys() {
		j := b.FindKey(k)
		if j < 0 || bvals[j] != a.Values()[i] {
			return false
		}
	}
	return true
}

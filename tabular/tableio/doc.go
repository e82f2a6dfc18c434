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

// Package tableio reads and writes tabular tables.
//
// Serialize and Deserialize use the Arrow IPC format and round trip a table
// exactly, schema metadata included: the schema is written first, then one
// record batch per run of rows that does not cross a chunk boundary. Parquet,
// CSV and JSON are provided for interchange and keep values but not
// necessarily types or metadata. Avro object container files can be read.
//
// Readers and writers passed in are owned by the caller; this package never
// closes them.
package tableio

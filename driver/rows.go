// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package driverql

import (
	"database/sql/driver"
	"io"

	"github.com/queryflow/pipeql/table"
)

// Rows is an iterator over a Table's rows, produced by one Execute call.
type Rows struct {
	table *table.Table
	pos   int
}

// Columns returns the result's column names.
func (r *Rows) Columns() []string {
	return r.table.ColumnNames()
}

// Close discards the iterator; the underlying Table has no resources to
// release.
func (r *Rows) Close() error {
	r.pos = r.table.NumRows()
	return nil
}

// Next copies the next row's values into dest, returning io.EOF once
// every row has been consumed.
func (r *Rows) Next(dest []driver.Value) error {
	if r.pos >= r.table.NumRows() {
		return io.EOF
	}
	row := r.table.Rows[r.pos]
	for i, v := range row {
		dest[i] = v
	}
	r.pos++
	return nil
}

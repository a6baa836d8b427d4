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

// Result is the result of a Stmt.Exec call: the row count of the
// resulting table. There is no auto-increment/insert-id concept in this
// query language.
type Result struct {
	rowsAffected int64
}

// LastInsertId always returns an error: this language has no notion of
// an inserted row's generated id.
func (r *Result) LastInsertId() (int64, error) {
	return 0, errUnsupported("LastInsertId")
}

// RowsAffected returns the number of rows in the executed pipeline's
// resulting table.
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

type errUnsupported string

func (e errUnsupported) Error() string {
	return "driverql: " + string(e) + " is not supported"
}

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

	"github.com/queryflow/pipeql"
)

// Conn is a connection to a database, bound to a single Engine.
type Conn struct {
	engine *pipeql.Engine
}

// Prepare validates the query by parsing and planning it, returning a
// Stmt that will re-run the same pipeline on Query/Exec. There is no
// bind-parameter concept in this language, so nothing is cached beyond
// the validated query text.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	if _, err := c.engine.Explain(query); err != nil {
		return nil, err
	}
	return &Stmt{conn: c, queryStr: query}, nil
}

// Close does nothing; the underlying Engine and its Registry outlive
// any one Conn.
func (c *Conn) Close() error {
	return nil
}

// Begin returns a fake transaction: the engine has no durable state to
// roll back (persistence is a Non-goal), so Commit/Rollback are no-ops.
func (c *Conn) Begin() (driver.Tx, error) {
	return fakeTransaction{}, nil
}

type fakeTransaction struct{}

func (fakeTransaction) Commit() error   { return nil }
func (fakeTransaction) Rollback() error { return nil }

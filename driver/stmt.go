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
	"context"
	"database/sql/driver"
	"errors"
)

// Stmt is a prepared pipeline command. There is no placeholder syntax in
// this query language, so every Exec/Query call ignores its args.
type Stmt struct {
	conn     *Conn
	queryStr string
}

// Close does nothing.
func (s *Stmt) Close() error {
	return nil
}

// NumInput reports zero placeholder parameters: this language has none.
func (s *Stmt) NumInput() int {
	return 0
}

// Exec runs the pipeline and reports the resulting row count as rows
// affected (there is no mutation concept beyond the process-wide
// registry, which `cache` writes to as a side effect of running the
// pipeline).
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if len(args) != 0 {
		return nil, errors.New("driverql: this query language takes no bind parameters")
	}
	return s.exec(context.Background())
}

// Query runs the pipeline and returns its resulting table as rows.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, errors.New("driverql: this query language takes no bind parameters")
	}
	return s.query(context.Background())
}

// ExecContext is the context-aware equivalent of Exec.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if len(args) != 0 {
		return nil, errors.New("driverql: this query language takes no bind parameters")
	}
	return s.exec(ctx)
}

// QueryContext is the context-aware equivalent of Query.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, errors.New("driverql: this query language takes no bind parameters")
	}
	return s.query(ctx)
}

func (s *Stmt) exec(ctx context.Context) (driver.Result, error) {
	t, err := s.conn.engine.Execute(ctx, s.queryStr, nil)
	if err != nil {
		return nil, err
	}
	return &Result{rowsAffected: int64(t.NumRows())}, nil
}

func (s *Stmt) query(ctx context.Context) (driver.Rows, error) {
	t, err := s.conn.engine.Execute(ctx, s.queryStr, nil)
	if err != nil {
		return nil, err
	}
	return &Rows{table: t}, nil
}

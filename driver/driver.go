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

// Package driverql exposes an Engine as a stdlib database/sql driver, so
// a pipeline command can be issued through the standard library's
// database/sql facade instead of the native Engine.Execute API. There is
// no placeholder/binding concept in this query language and no
// persistence (Non-goal), so Stmt.NumInput is always zero and every
// statement both executes and can be read back as rows.
package driverql

import (
	"context"
	"database/sql/driver"
	"sync"

	"github.com/queryflow/pipeql"
)

// Registry resolves a data source name (DSN) to the Engine that should
// serve connections opened against it, letting one process register
// several independently-configured engines under different names.
type Registry interface {
	Resolve(dsn string) (*pipeql.Engine, error)
}

// SingleEngineRegistry always resolves to the one wrapped Engine,
// regardless of the DSN string, for the common case of a single
// in-process engine.
type SingleEngineRegistry struct {
	Engine *pipeql.Engine
}

func (r SingleEngineRegistry) Resolve(string) (*pipeql.Engine, error) {
	return r.Engine, nil
}

// Driver adapts a Registry of engines to database/sql/driver.Driver.
type Driver struct {
	registry Registry

	mu    sync.Mutex
	conns map[*pipeql.Engine]*sharedState
}

// New returns a Driver resolving DSNs through registry.
func New(registry Registry) *Driver {
	return &Driver{registry: registry, conns: map[*pipeql.Engine]*sharedState{}}
}

// Open returns a new connection to the database.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	conn, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return conn.Connect(context.Background())
}

// OpenConnector resolves dsn to an Engine and returns a Connector bound
// to it, sharing connection-id sequencing across every Connector that
// resolves to the same Engine.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	engine, err := d.registry.Resolve(dsn)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	state, ok := d.conns[engine]
	if !ok {
		state = &sharedState{engine: engine}
		d.conns[engine] = state
	}
	d.mu.Unlock()

	return &Connector{driver: d, state: state}, nil
}

// sharedState is the per-Engine state shared by every Connector and Conn
// opened against it: a monotonic connection-id counter.
type sharedState struct {
	engine *pipeql.Engine

	mu     sync.Mutex
	connID uint32
}

func (s *sharedState) nextConnectionID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connID++
	return s.connID
}

// Connector represents a driver in a fixed configuration and can create
// any number of equivalent Conns for use by multiple goroutines.
type Connector struct {
	driver *Driver
	state  *sharedState
}

// Driver returns the driverql.Driver that created this connector.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// Connect returns a new connection bound to the connector's Engine.
func (c *Connector) Connect(context.Context) (driver.Conn, error) {
	c.state.nextConnectionID()
	return &Conn{engine: c.state.engine}, nil
}

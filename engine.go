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

// Package pipeql is the pipeline query engine's external interface: a
// single Engine type wrapping the parser, planner, and executor around
// a process-wide named-table registry.
package pipeql

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"

	"github.com/queryflow/pipeql/catalog"
	"github.com/queryflow/pipeql/config"
	"github.com/queryflow/pipeql/exec"
	"github.com/queryflow/pipeql/parser"
	"github.com/queryflow/pipeql/plan"
	"github.com/queryflow/pipeql/table"
)

// Engine is the embedding application's entry point: Execute parses,
// plans, and runs one pipeline command text against the shared
// Registry, returning the resulting Table.
type Engine struct {
	Registry *catalog.Registry
	Config   *config.EngineConfig
	Planner  *plan.Planner
	Log      *logrus.Entry

	executor *exec.Executor
}

// New creates an Engine with its own empty Registry and the given
// config (Default() if cfg is nil).
func New(cfg *config.EngineConfig) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	reg := catalog.New()
	return &Engine{
		Registry: reg,
		Config:   cfg,
		Planner:  plan.NewPlanner(),
		Log:      logrus.NewEntry(logrus.StandardLogger()),
		executor: exec.NewExecutor(reg, cfg),
	}
}

// Execute parses commandText, plans it, and runs it to completion,
// returning the resulting table. context carries per-call values (e.g.
// request-scoped deadlines); it may be nil.
func (e *Engine) Execute(ctx context.Context, commandText string, queryContext map[string]any) (*table.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	qid := uuid.Must(uuid.NewV4())
	start := time.Now()
	log := e.Log.WithField("query_id", qid.String())

	cmd, err := parser.Parse(commandText)
	if err != nil {
		log.WithError(err).Debug("parse failed")
		return nil, err
	}

	p := e.Planner.CreatePlan(cmd)
	p = e.Planner.Optimize(p)
	if fp, ferr := p.Fingerprint(); ferr == nil {
		log = log.WithField("plan_fingerprint", fp)
	}

	result, err := e.executor.ExecutePlan(ctx, p)
	entry := log.WithFields(logrus.Fields{
		"source_type": p.Source.SourceType,
		"source_name": p.Source.SourceName,
		"step_count":  len(p.Steps),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("execute failed")
		return nil, err
	}
	entry.Debug("execute completed")
	return result, nil
}

// Explain parses commandText and returns the optimized plan's
// human-readable YAML rendering, without executing it.
func (e *Engine) Explain(commandText string) (string, error) {
	cmd, err := parser.Parse(commandText)
	if err != nil {
		return "", err
	}
	p := e.Planner.Optimize(e.Planner.CreatePlan(cmd))
	return p.Explain()
}

// Register installs name as a named source in the shared registry. The
// table is not cloned here; callers that need independent copies should
// clone before registering.
func (e *Engine) Register(name string, t *table.Table) {
	e.Registry.Set(name, t)
	e.Log.WithField("source", name).Trace("source registered")
}

// Unregister removes name from the registry, reporting whether it had
// been registered.
func (e *Engine) Unregister(name string) bool {
	ok := e.Registry.Delete(name)
	e.Log.WithField("source", name).Trace("source unregistered")
	return ok
}

// ListSources returns every currently registered source name, sorted.
func (e *Engine) ListSources() []string {
	return e.Registry.List()
}

// ClearSources removes every registered source.
func (e *Engine) ClearSources() {
	e.Registry.Clear()
	e.Log.Trace("all sources cleared")
}

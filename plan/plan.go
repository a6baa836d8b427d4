// Package plan turns a parsed command into an ExecutionPlan: a source
// specification plus an ordered list of steps, one per pipe command,
// grounded directly on query_planner.py's ExecutionStep/ExecutionPlan/
// QueryPlanner structure.
package plan

import (
	"github.com/mitchellh/hashstructure"
	"github.com/queryflow/pipeql/ast"
)

// Step is a single stage of the plan: the pipe command's name and its
// AST node, carried through unresolved until the executor builds the
// concrete operator for it.
type Step struct {
	CommandName string
	Node        *ast.PipeCommandNode
	Metadata    map[string]interface{}
}

// Plan is the source specification plus the ordered steps derived from
// a CommandAST's pipe chain.
type Plan struct {
	Source *ast.SourceNode
	Steps  []Step
}

// AddStep appends a step.
func (p *Plan) AddStep(s Step) { p.Steps = append(p.Steps, s) }

// InsertStep inserts a step at index.
func (p *Plan) InsertStep(index int, s Step) {
	p.Steps = append(p.Steps, Step{})
	copy(p.Steps[index+1:], p.Steps[index:])
	p.Steps[index] = s
}

// RemoveStep removes and returns the step at index.
func (p *Plan) RemoveStep(index int) Step {
	s := p.Steps[index]
	p.Steps = append(p.Steps[:index], p.Steps[index+1:]...)
	return s
}

// Fingerprint returns a stable hash of the plan's shape, used to key a
// plan cache or to compare two plans for structural equality without
// walking the AST by hand. The Metadata maps (populated by optimizer
// passes, not by parsing) are intentionally excluded so that two plans
// differing only in annotation carry the same fingerprint.
func (p *Plan) Fingerprint() (uint64, error) {
	type stepShape struct {
		CommandName string
		Node        *ast.PipeCommandNode
	}
	shape := struct {
		Source *ast.SourceNode
		Steps  []stepShape
	}{Source: p.Source}
	for _, s := range p.Steps {
		shape.Steps = append(shape.Steps, stepShape{CommandName: s.CommandName, Node: s.Node})
	}
	return hashstructure.Hash(shape, nil)
}

// Planner creates and optimizes plans from parsed commands.
type Planner struct {
	Optimizers []Optimizer
}

// NewPlanner builds a Planner with the standard optimizer pipeline.
func NewPlanner() *Planner {
	return &Planner{Optimizers: []Optimizer{FilterOptimizer{}, HeadOptimizer{}}}
}

// CreatePlan converts a CommandAST into an unoptimized ExecutionPlan.
func (pl *Planner) CreatePlan(cmd *ast.CommandAST) *Plan {
	p := &Plan{Source: cmd.Source}
	for _, node := range cmd.PipeChain {
		p.AddStep(Step{CommandName: node.Name, Node: node})
	}
	return p
}

// Optimize runs every registered optimizer over the plan in order.
func (pl *Planner) Optimize(p *Plan) *Plan {
	result := p
	for _, opt := range pl.Optimizers {
		result = opt.Optimize(result)
	}
	return result
}

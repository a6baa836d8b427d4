package exec

import (
	gocontext "context"

	"github.com/opentracing/opentracing-go"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/catalog"
	"github.com/queryflow/pipeql/config"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/plan"
	"github.com/queryflow/pipeql/table"
)

// Executor runs a Plan against the shared registry: it resolves the
// Plan's source and, per the Planner -> Executor contract, instantiates
// one Operator per plan.Step (never by re-walking the raw AST's pipe
// chain directly), threading the resulting table through each in turn.
type Executor struct {
	Registry   *catalog.Registry
	Config     *config.EngineConfig
	Operators  *OperatorRegistry
	Subqueries *SubqueryExecutor
	Planner    *plan.Planner
}

// NewExecutor builds an Executor over the given registry and config,
// wiring its own SubqueryExecutor so join/append/subquery arguments can
// recurse back into this same engine, and its own Planner so Execute can
// turn a bare CommandAST into a Plan before running it.
func NewExecutor(reg *catalog.Registry, cfg *config.EngineConfig) *Executor {
	e := &Executor{Registry: reg, Config: cfg, Operators: NewOperatorRegistry(), Planner: plan.NewPlanner()}
	e.Subqueries = &SubqueryExecutor{Exec: e}
	return e
}

// Execute plans (CreatePlan + Optimize) a full CommandAST and runs the
// resulting Plan to completion. Callers that already built and optimized
// their own Plan (e.g. to log its Fingerprint alongside the run) should
// call ExecutePlan directly instead of re-planning here.
func (e *Executor) Execute(gctx gocontext.Context, cmd *ast.CommandAST) (*table.Table, error) {
	p := e.Planner.Optimize(e.Planner.CreatePlan(cmd))
	return e.ExecutePlan(gctx, p)
}

// ExecutePlan runs an already-built Plan: it resolves p.Source, then
// instantiates and runs one Operator per p.Steps entry, in order.
func (e *Executor) ExecutePlan(gctx gocontext.Context, p *plan.Plan) (*table.Table, error) {
	c := &Context{Ctx: gctx, Registry: e.Registry, Config: e.Config, Depth: 0, Sub: e.Subqueries}
	return e.run(c, p)
}

func (e *Executor) run(c *Context, p *plan.Plan) (*table.Table, error) {
	t, err := e.resolveSource(c, p.Source)
	if err != nil {
		return nil, err
	}
	for _, step := range p.Steps {
		op, err := e.Operators.New(step.CommandName)
		if err != nil {
			if pe, ok := err.(*perr.Error); ok {
				return nil, pe.WithCommand(step.CommandName)
			}
			return nil, err
		}
		t, err = e.runStep(c, op, t, step.Node)
		if err != nil {
			if pe, ok := err.(*perr.Error); ok {
				return nil, pe.WithCommand(step.CommandName)
			}
			return nil, err
		}
	}
	return t, nil
}

// runStep executes a single operator step under its own child span, a
// no-op unless the embedder has installed a real opentracing.Tracer
// (opentracing.GlobalTracer defaults to a no-op implementation).
func (e *Executor) runStep(c *Context, op Operator, t *table.Table, node *ast.PipeCommandNode) (*table.Table, error) {
	ctx := c.Ctx
	if ctx == nil {
		ctx = gocontext.Background()
	}
	span, spanCtx := opentracing.StartSpanFromContext(ctx, "pipeql.exec."+node.Name)
	defer span.Finish()
	stepCtx := c.WithDepth(c.Depth)
	stepCtx.Ctx = spanCtx
	return op.Execute(stepCtx, t, node)
}

// resolveSource produces the initial table for a source clause: a
// direct registry lookup for "cache"/"default" sources, the full-table
// scan plus time filtering for "search" sources (delegated to the
// search operator's shared helper), and a column-aligned union of each
// branch for "multi" sources.
func (e *Executor) resolveSource(c *Context, src *ast.SourceNode) (*table.Table, error) {
	switch src.SourceType {
	case "multi":
		var tabs []*table.Table
		for _, branch := range src.Sources {
			t, err := e.resolveSource(c, branch)
			if err != nil {
				return nil, err
			}
			tabs = append(tabs, t)
		}
		return table.Union(tabs...), nil
	case "search":
		return resolveSearchSource(c, src)
	case "default", "cache":
		t, ok := c.Registry.Get(src.SourceName)
		if !ok {
			return nil, perr.ResolutionField("no such source registered: "+src.SourceName, src.SourceName)
		}
		return t.Clone(), nil
	default:
		t, ok := c.Registry.Get(src.SourceName)
		if !ok {
			return nil, perr.ResolutionField("no such source registered: "+src.SourceName, src.SourceName)
		}
		return t.Clone(), nil
	}
}

// SubqueryExecutor runs the CommandAST of a bracketed subquery argument
// (join/append's `[...]`), enforcing spec.md's recursion depth limit by
// threading Context.Depth through every nested Execute call.
type SubqueryExecutor struct {
	Exec *Executor
}

// Run plans sub.Command and executes it at c.Depth+1, returning a
// SemanticError once the configured MaxSubqueryDepth is exceeded.
func (s *SubqueryExecutor) Run(c *Context, sub *ast.Subquery) (*table.Table, error) {
	next := c.Depth + 1
	if next > c.Config.MaxSubqueryDepth {
		return nil, perr.Semantic("subquery recursion depth exceeds the configured limit")
	}
	nested := c.WithDepth(next)
	p := s.Exec.Planner.Optimize(s.Exec.Planner.CreatePlan(sub.Command))
	return s.Exec.run(nested, p)
}

package plan

// Optimizer rewrites a plan, returning a (possibly identical) new plan.
type Optimizer interface {
	Optimize(p *Plan) *Plan
}

// FilterOptimizer would push filter/where steps earlier in the pipeline
// to reduce row counts before expensive downstream stages. Left as a
// no-op, mirroring optimizers.py's FilterOptimizer, which is itself an
// unimplemented stub (`# TODO: implement predicate pushdown` in the
// original, `return plan` as the body).
type FilterOptimizer struct{}

func (FilterOptimizer) Optimize(p *Plan) *Plan { return p }

// HeadOptimizer would propagate a trailing head/limit's row cap upstream
// so earlier stages can short-circuit. Also a no-op stub.
type HeadOptimizer struct{}

func (HeadOptimizer) Optimize(p *Plan) *Plan { return p }

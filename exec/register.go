package exec

// registerBuiltins installs every built-in operator under its keyword
// set, mirroring the original source's PipeMap.register decorator: a
// command class declares its own `keywords` list and later
// registrations for an already-used keyword win, last write wins.
func registerBuiltins(r *OperatorRegistry) {
	r.Register(func() Operator { return HeadOperator{} }, "head")
	r.Register(func() Operator { return HeadOperator{} }, "limit")
	r.Register(func() Operator { return TailOperator{} }, "tail")
	r.Register(func() Operator { return SortOperator{} }, "sort")
	r.Register(func() Operator { return ReverseOperator{} }, "reverse")
	r.Register(func() Operator { return SelectOperator{} }, "select", "fields", "table", "project")
	r.Register(func() Operator { return RenameOperator{} }, "rename")
	r.Register(func() Operator { return DedupOperator{} }, "dedup", "distinct", "unique")
	r.Register(func() Operator { return DropNullOperator{} }, "dropnull", "dropna")
	r.Register(func() Operator { return FillNullOperator{} }, "fillnull", "fillna", "fill")
	r.Register(func() Operator { return SampleOperator{} }, "sample")
	r.Register(func() Operator { return FilterOperator{} }, "filter", "where")
	r.Register(func() Operator { return EvalOperator{} }, "eval", "calculate", "compute")
	r.Register(func() Operator { return StatsOperator{eventMode: false} }, "stats")
	r.Register(func() Operator { return StatsOperator{eventMode: true} }, "eventstats")
	r.Register(func() Operator { return TopRareOperator{rare: false} }, "top")
	r.Register(func() Operator { return TopRareOperator{rare: true} }, "rare")
	r.Register(func() Operator { return ReplaceOperator{} }, "replace")
	r.Register(func() Operator { return RexOperator{} }, "rex", "regex", "extract")
	r.Register(func() Operator { return MvExpandOperator{} }, "mvexpand", "expand", "explode")
	r.Register(func() Operator { return JoinOperator{} }, "join")
	r.Register(func() Operator { return AppendOperator{} }, "append", "union")
	r.Register(func() Operator { return BucketOperator{} }, "bucket", "bin")
	r.Register(func() Operator { return TransactionOperator{} }, "transaction")
	r.Register(func() Operator { return TransposeOperator{} }, "transpose", "pivot")
	r.Register(func() Operator { return LookupOperator{} }, "lookup")
	r.Register(func() Operator { return CacheOperator{} }, "cache", "new_cache")
}

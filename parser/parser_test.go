package parser

import (
	"testing"

	"github.com/queryflow/pipeql/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBareSourceAndPipeline(t *testing.T) {
	cmd, err := Parse(`orders | where amount > 100 | sort -amount | head 10`)
	require.NoError(t, err)
	require.Equal(t, "default", cmd.Source.SourceType)
	require.Equal(t, "orders", cmd.Source.SourceName)
	require.Len(t, cmd.PipeChain, 3)
	assert.Equal(t, "where", cmd.PipeChain[0].Name)
	assert.Equal(t, "sort", cmd.PipeChain[1].Name)
	assert.Equal(t, "head", cmd.PipeChain[2].Name)
}

func TestParseSearchSourceWithTimeBounds(t *testing.T) {
	cmd, err := Parse(`search index="web" latest=-1h earliest=-1d | stats count() by status`)
	require.NoError(t, err)
	require.Equal(t, "search", cmd.Source.SourceType)
	assert.Equal(t, "web", cmd.Source.SourceName)
	assert.Equal(t, "-1h", cmd.Source.Parameters["latest"])
	require.Len(t, cmd.PipeChain, 1)
	assert.Equal(t, []string{"status"}, cmd.PipeChain[0].ByFields)
	require.Len(t, cmd.PipeChain[0].Aggregations, 1)
	assert.Equal(t, "count", cmd.PipeChain[0].Aggregations[0].Name)
}

func TestParseMultiSource(t *testing.T) {
	cmd, err := Parse(`(cache=a OR cache=b) | head 5`)
	require.NoError(t, err)
	require.Equal(t, "multi", cmd.Source.SourceType)
	require.Len(t, cmd.Source.Sources, 2)
	assert.Equal(t, "a", cmd.Source.Sources[0].SourceName)
}

func TestParseFilterExpressionWithAndOr(t *testing.T) {
	cmd, err := Parse(`orders | where status == "open" and amount > 50 or priority == "high"`)
	require.NoError(t, err)
	arg := cmd.PipeChain[0].Arguments[0].(*ast.PositionalArgument)
	bin, ok := arg.Value.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "or", bin.Operator)
}

func TestParseNotInAndLike(t *testing.T) {
	cmd, err := Parse(`orders | where region not in ("west", "south") and email like "%@example.com"`)
	require.NoError(t, err)
	arg := cmd.PipeChain[0].Arguments[0].(*ast.PositionalArgument)
	bin := arg.Value.(*ast.BinaryOp)
	assert.Equal(t, "and", bin.Operator)
	left := bin.Left.(*ast.BinaryOp)
	assert.Equal(t, "not_in", left.Operator)
	right := bin.Right.(*ast.BinaryOp)
	assert.Equal(t, "like", right.Operator)
}

func TestParseEvalKeywordArgument(t *testing.T) {
	cmd, err := Parse(`orders | eval total=price * quantity`)
	require.NoError(t, err)
	kw := cmd.PipeChain[0].Arguments[0].(*ast.KeywordArgument)
	assert.Equal(t, "total", kw.Key)
	bin := kw.Value.(*ast.BinaryOp)
	assert.Equal(t, "*", bin.Operator)
}

func TestParseJoinWithSubquery(t *testing.T) {
	cmd, err := Parse(`orders | join customer_id [search index="customers" | select customer_id, name]`)
	require.NoError(t, err)
	jc := cmd.PipeChain[0]
	require.Len(t, jc.Subqueries, 1)
	assert.Equal(t, "search", jc.Subqueries[0].Command.Source.SourceType)
	assert.Len(t, jc.Subqueries[0].Command.PipeChain, 1)
}

func TestParseBucketSpanDuration(t *testing.T) {
	cmd, err := Parse(`metrics | bucket _time span=5m`)
	require.NoError(t, err)
	require.Len(t, cmd.PipeChain, 1)
	kw := cmd.PipeChain[0].Arguments[1].(*ast.KeywordArgument)
	assert.Equal(t, "span", kw.Key)
	lit := kw.Value.(*ast.Literal)
	assert.Equal(t, "5m", lit.Value)
	// the bucketed field plus span=, with no stray trailing positional
	// argument left over from a NUMBER("5") + IDENT("m") split.
	assert.Len(t, cmd.PipeChain[0].Arguments, 2)
}

func TestParseTransactionMaxspanDuration(t *testing.T) {
	cmd, err := Parse(`events | transaction user_id maxspan=5m`)
	require.NoError(t, err)
	require.Len(t, cmd.PipeChain[0].Arguments, 2) // the group-by field plus maxspan=
	kw := cmd.PipeChain[0].Arguments[1].(*ast.KeywordArgument)
	assert.Equal(t, "maxspan", kw.Key)
	lit := kw.Value.(*ast.Literal)
	assert.Equal(t, "5m", lit.Value)
}

func TestParseSyntaxErrorOnMismatchedToken(t *testing.T) {
	_, err := Parse(`orders | head "not-a-number"`)
	require.NoError(t, err) // falls through to generic args: a bare string is a valid positional value

	_, err = Parse(`orders | where`)
	require.Error(t, err)
}

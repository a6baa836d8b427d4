package expr

import (
	"testing"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterNode(t *testing.T, whereExpr string) ast.Node {
	t.Helper()
	cmd, err := parser.Parse("x | where " + whereExpr)
	require.NoError(t, err)
	return cmd.PipeChain[0].Arguments[0].(*ast.PositionalArgument).Value
}

func evalNode(t *testing.T, assignExpr string) ast.Node {
	t.Helper()
	cmd, err := parser.Parse("x | eval " + assignExpr)
	require.NoError(t, err)
	return cmd.PipeChain[0].Arguments[0].(*ast.KeywordArgument).Value
}

func TestEvaluateArithmeticAndComparison(t *testing.T) {
	node := filterNode(t, "price * quantity > 100")
	ok, err := EvaluateBool(node, Row{"price": 20.0, "quantity": 10.0})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateBool(node, Row{"price": 1.0, "quantity": 1.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateIfFunction(t *testing.T) {
	node := evalNode(t, `grade = if(score >= 60, "pass", "fail")`)
	v, err := Evaluate(node, Row{"score": 75.0})
	require.NoError(t, err)
	assert.Equal(t, "pass", v)

	v, err = Evaluate(node, Row{"score": 40.0})
	require.NoError(t, err)
	assert.Equal(t, "fail", v)
}

func TestCaseFirstMatchWins(t *testing.T) {
	node := evalNode(t, `tier = case(amount > 1000, "gold", amount > 100, "silver", "bronze")`)
	v, err := Evaluate(node, Row{"amount": 5000.0})
	require.NoError(t, err)
	assert.Equal(t, "gold", v)

	v, err = Evaluate(node, Row{"amount": 500.0})
	require.NoError(t, err)
	assert.Equal(t, "silver", v)

	v, err = Evaluate(node, Row{"amount": 10.0})
	require.NoError(t, err)
	assert.Equal(t, "bronze", v)
}

func TestInAndNotIn(t *testing.T) {
	node := filterNode(t, `region not in ("west", "south")`)
	ok, err := EvaluateBool(node, Row{"region": "east"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateBool(node, Row{"region": "west"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoalesceReturnsFirstNonNull(t *testing.T) {
	node := evalNode(t, `label = coalesce(nickname, name)`)
	v, err := Evaluate(node, Row{"nickname": nil, "name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)
}

func TestLikePattern(t *testing.T) {
	assert.True(t, likeMatch("jane@example.com", "%@example.com"))
	assert.False(t, likeMatch("jane@other.com", "%@example.com"))
	assert.True(t, likeMatch("cat", "c_t"))
}

package plan

import (
	"testing"

	"github.com/queryflow/pipeql/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCommand() *ast.CommandAST {
	return &ast.CommandAST{
		Source: &ast.SourceNode{SourceType: "default", SourceName: "orders"},
		PipeChain: []*ast.PipeCommandNode{
			{Name: "where"},
			{Name: "sort"},
			{Name: "head"},
		},
	}
}

func TestCreatePlanMirrorsPipeChain(t *testing.T) {
	pl := NewPlanner()
	p := pl.CreatePlan(sampleCommand())
	require.Len(t, p.Steps, 3)
	assert.Equal(t, "where", p.Steps[0].CommandName)
	assert.Equal(t, "head", p.Steps[2].CommandName)
	assert.Equal(t, "orders", p.Source.SourceName)
}

func TestOptimizeIsIdentityForStubOptimizers(t *testing.T) {
	pl := NewPlanner()
	p := pl.CreatePlan(sampleCommand())
	before, err := p.Fingerprint()
	require.NoError(t, err)
	after := pl.Optimize(p)
	afterHash, err := after.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, afterHash)
}

func TestInsertAndRemoveStep(t *testing.T) {
	p := &Plan{}
	p.AddStep(Step{CommandName: "a"})
	p.AddStep(Step{CommandName: "c"})
	p.InsertStep(1, Step{CommandName: "b"})
	require.Len(t, p.Steps, 3)
	assert.Equal(t, "b", p.Steps[1].CommandName)

	removed := p.RemoveStep(0)
	assert.Equal(t, "a", removed.CommandName)
	require.Len(t, p.Steps, 2)
}

func TestExplainRendersYAML(t *testing.T) {
	pl := NewPlanner()
	p := pl.CreatePlan(sampleCommand())
	out, err := p.Explain()
	require.NoError(t, err)
	assert.Contains(t, out, "source:")
	assert.Contains(t, out, "command: where")
}

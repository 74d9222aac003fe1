package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"midenc/internal/ir"
	"midenc/internal/pipelinecfg"
)

func TestPipelineRunLiftsAndLowersBranch(t *testing.T) {
	fn := buildBranchFn()
	p := New(pipelinecfg.Default())

	result, err := p.Run(fn)
	require.NoError(t, err)
	require.True(t, result.Changed)
	require.NotNil(t, result.MASM)

	var sawBranchRegion bool
	for _, op := range fn.Entry.Entry().Ops {
		if op.Kind == ir.OpStructuredBranchRegion {
			sawBranchRegion = true
		}
	}
	require.True(t, sawBranchRegion)

	// Print must not panic even when no spills were placed.
	_ = result.Print()
}

func TestPipelineRunLowersPlacedSpills(t *testing.T) {
	fn := buildBranchFn()
	p := New(pipelinecfg.Default())

	result, err := p.Run(fn)
	require.NoError(t, err)

	analysis := result.Manager.Spill()
	for range analysis.Spills() {
		require.Contains(t, result.Print(), "locaddr")
		return
	}
}

func TestPipelineRunIsIdempotentOnAlreadyStructuredFunction(t *testing.T) {
	fn := ir.NewFunction("straight_line")
	entry := fn.NewBlock(fn.Entry)
	fn.NewOp(entry, ir.OpReturn, nil, nil)

	p := New(pipelinecfg.Default())
	result, err := p.Run(fn)
	require.NoError(t, err)
	require.False(t, result.Changed)
}

package chain

import (
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/stretchr/testify/require"

	"github.com/colflow/engine/actions"
	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
)

func buildTwoStepChain(t *testing.T) (*Chain, *Step, *Step) {
	t.Helper()
	c := New(nil)

	step1 := c.AddFirstStep([]block.NamedColumnType{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
	})
	_, err := step1.Actions.Add(&actions.CopyColumn{SourceName: "a", ResultName: "b"})
	require.NoError(t, err)
	_, err = step1.Actions.Add(&actions.CopyColumn{SourceName: "a", ResultName: "c"})
	require.NoError(t, err)

	step2, err := c.AddStep()
	require.NoError(t, err)
	step2.RequiredOutput = []string{"a"}

	return c, step1, step2
}

// TestChainDeadColumnDrop is §8's scenario: Step 1 produces a,b,c, Step 2
// requires only a, and neither step has an outside contract to preserve
// b/c — Finalize's backward sweep prunes CopyColumn b and c out of Step 1
// entirely, so no surplus (and no Project) is left for Step 2 to absorb.
func TestChainDeadColumnDrop(t *testing.T) {
	c, step1, step2 := buildTwoStepChain(t)

	require.NoError(t, c.Finalize())

	require.ElementsMatch(t, []string{"a"}, step1.RequiredOutput)
	require.ElementsMatch(t, []string{"a"}, step1.Actions.GetSampleBlock().Names())
	require.Empty(t, step1.Actions.Actions())

	step2Inputs := step2.Actions.GetRequiredColumns()
	require.ElementsMatch(t, []string{"a"}, step2Inputs)
}

// TestChainSurplusProjectInsertedForExternalContract covers the case
// where Step 1 has its own external required_output (b,c must survive for
// some other consumer of Step 1's plan) that Step 2 does not need — the
// surplus is absorbed by a Project prepended to Step 2 rather than by
// pruning Step 1.
func TestChainSurplusProjectInsertedForExternalContract(t *testing.T) {
	c, step1, step2 := buildTwoStepChain(t)
	step1.RequiredOutput = []string{"a", "b", "c"}

	require.NoError(t, c.Finalize())

	require.ElementsMatch(t, []string{"a", "b", "c"}, step1.RequiredOutput)
	require.ElementsMatch(t, []string{"a", "b", "c"}, step1.Actions.GetSampleBlock().Names())

	firstAction := step2.Actions.Actions()[0]
	proj, ok := firstAction.(*actions.Project)
	require.True(t, ok, "Step 2 should have a Project prepended to drop the surplus")
	require.ElementsMatch(t, []string{"a"}, proj.ResultNames())
}

func TestAddStepOnEmptyChainIsLogicalError(t *testing.T) {
	c := New(nil)
	_, err := c.AddStep()
	require.Error(t, err)
	require.ErrorIs(t, err, engineerr.Logical)
}

func TestGetLastStepOnEmptyChainIsLogicalError(t *testing.T) {
	c := New(nil)
	_, err := c.GetLastStep()
	require.Error(t, err)
	require.ErrorIs(t, err, engineerr.Logical)
}

func TestChainClear(t *testing.T) {
	c := New(nil)
	c.AddFirstStep([]block.NamedColumnType{{Name: "a", Type: arrow.PrimitiveTypes.Int64}})
	require.Equal(t, 1, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())
}

package explain

import (
	"strings"
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/stretchr/testify/require"

	"github.com/colflow/engine/actions"
	"github.com/colflow/engine/block"
	"github.com/colflow/engine/chain"
)

func buildSimpleActions(t *testing.T) *actions.ExpressionActions {
	t.Helper()
	ea := actions.New([]block.NamedColumnType{{Name: "x", Type: arrow.PrimitiveTypes.Int64}}, nil)
	_, err := ea.Add(&actions.CopyColumn{SourceName: "x", ResultName: "y"})
	require.NoError(t, err)
	return ea
}

func TestActionsGraphRendersDot(t *testing.T) {
	ea := buildSimpleActions(t)
	g := ActionsGraph(ea)
	require.NotNil(t, g)
	dot := g.String()
	require.Contains(t, dot, "digraph")
	require.Contains(t, dot, "ExpressionActions")
	require.Contains(t, dot, "CopyColumn")
}

func TestDumpActionsAndChain(t *testing.T) {
	ea := buildSimpleActions(t)
	dump := DumpActions(ea)
	require.Contains(t, dump, "COPY COLUMN x -> y")

	c := chain.New(nil)
	step := c.AddFirstStep([]block.NamedColumnType{{Name: "x", Type: arrow.PrimitiveTypes.Int64}})
	_, err := step.Actions.Add(&actions.CopyColumn{SourceName: "x", ResultName: "y"})
	require.NoError(t, err)
	step.RequiredOutput = []string{"y"}

	chainDump := DumpChain(c)
	require.True(t, strings.Contains(chainDump, "step 0"))
	require.True(t, strings.Contains(chainDump, "COPY COLUMN"))
}

func TestChainGraph(t *testing.T) {
	c := chain.New(nil)
	c.AddFirstStep([]block.NamedColumnType{{Name: "x", Type: arrow.PrimitiveTypes.Int64}})
	g := ChainGraph(c)
	require.NotNil(t, g)
}

package actions

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/stretchr/testify/require"

	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
)

// addFunction is a minimal Function implementing the §8 "add" scenario:
// sums two int64 columns elementwise. Prerequisites returns nil unless the
// prereqs hook is set.
type addFunction struct {
	prereqs func(sample *block.SampleBlock, argNames []string, argTypes []arrow.DataType) ([]Action, error)
}

func (f *addFunction) Name() string { return "add" }

func (f *addFunction) ReturnType(argTypes []arrow.DataType) (arrow.DataType, error) {
	for _, t := range argTypes {
		if t.ID() != arrow.INT64 {
			return nil, errFakeTypeMismatch
		}
	}
	return arrow.PrimitiveTypes.Int64, nil
}

func (f *addFunction) Prerequisites(sample *block.SampleBlock, argNames []string, argTypes []arrow.DataType) ([]Action, error) {
	if f.prereqs != nil {
		return f.prereqs(sample, argNames, argTypes)
	}
	return nil, nil
}

func (f *addFunction) Execute(ctx context.Context, blk block.Block, argIndices []int) (arrow.Array, error) {
	x := blk.Record.Column(argIndices[0]).(*array.Int64)
	y := blk.Record.Column(argIndices[1]).(*array.Int64)
	b := array.NewInt64Builder(block.Allocator)
	defer b.Release()
	for i := 0; i < int(blk.NumRows()); i++ {
		b.Append(x.Value(i) + y.Value(i))
	}
	return b.NewArray(), nil
}

var errFakeTypeMismatch = errTypeMismatch{}

type errTypeMismatch struct{}

func (errTypeMismatch) Error() string { return "incompatible argument types" }

func inputCols(names ...string) []block.NamedColumnType {
	out := make([]block.NamedColumnType, len(names))
	for i, n := range names {
		out[i] = block.NamedColumnType{Name: n, Type: arrow.PrimitiveTypes.Int64}
	}
	return out
}

func int64Block(t *testing.T, names []string, cols [][]int64) block.Block {
	t.Helper()
	fields := make([]arrow.Field, len(names))
	arrs := make([]arrow.Array, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.PrimitiveTypes.Int64, Nullable: true}
		b := array.NewInt64Builder(block.Allocator)
		for _, v := range cols[i] {
			b.Append(v)
		}
		arrs[i] = b.NewArray()
		b.Release()
	}
	n := int64(len(cols[0]))
	blk, err := block.New(fields, arrs, n)
	require.NoError(t, err)
	return blk
}

func TestAddAndProject(t *testing.T) {
	ea := New(inputCols("x", "y"), nil)

	_, err := ea.Add(&ApplyFunction{
		Function:      &addFunction{},
		ArgumentNames: []string{"x", "y"},
		ResultName:    "s",
	})
	require.NoError(t, err)

	_, err = ea.Add(&Project{Pairs: []ProjectItem{{Source: "s", Alias: "sum"}}})
	require.NoError(t, err)

	in := int64Block(t, []string{"x", "y"}, [][]int64{{1, 2}, {10, 20}})
	out, err := ea.Execute(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, []string{"sum"}, out.ColumnNames())
	col, err := out.Column("sum")
	require.NoError(t, err)
	require.Equal(t, []int64{11, 22}, col.(*array.Int64).Int64Values())
}

func TestArrayJoinExpansion(t *testing.T) {
	ea := New([]block.NamedColumnType{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "arr", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	}, nil)

	aj, err := NewArrayJoin("arr")
	require.NoError(t, err)
	_, err = ea.Add(aj)
	require.NoError(t, err)

	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "arr", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	}
	idB := array.NewInt64Builder(block.Allocator)
	idB.AppendValues([]int64{1, 2}, nil)
	arrB := array.NewListBuilder(block.Allocator, arrow.BinaryTypes.String)
	strB := arrB.ValueBuilder().(*array.StringBuilder)
	arrB.Append(true)
	strB.Append("a")
	strB.Append("b")
	arrB.Append(true)
	strB.Append("c")

	in, err := block.New(fields, []arrow.Array{idB.NewArray(), arrB.NewArray()}, 2)
	require.NoError(t, err)

	out, err := ea.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.NumRows())

	idCol, err := out.Column("id")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 1, 2}, idCol.(*array.Int64).Int64Values())

	arrCol, err := out.Column("arr")
	require.NoError(t, err)
	strCol := arrCol.(*array.String)
	require.Equal(t, "a", strCol.Value(0))
	require.Equal(t, "b", strCol.Value(1))
	require.Equal(t, "c", strCol.Value(2))
}

func TestFinalizePruning(t *testing.T) {
	ea := New(inputCols("x", "y"), nil)

	_, err := ea.Add(&ApplyFunction{Function: &addFunction{}, ArgumentNames: []string{"x", "y"}, ResultName: "z1"})
	require.NoError(t, err)
	_, err = ea.Add(&CopyColumn{SourceName: "x", ResultName: "z2"})
	require.NoError(t, err)
	_, err = ea.Add(&CopyColumn{SourceName: "y", ResultName: "x"})
	require.NoError(t, err)

	require.NoError(t, ea.Finalize([]string{"x"}))

	sample := ea.GetSampleBlock()
	require.True(t, sample.Has("x"))
	require.False(t, sample.Has("z1"))
	require.False(t, sample.Has("z2"))
}

func TestFinalizeIdempotent(t *testing.T) {
	ea := New(inputCols("x", "y"), nil)
	_, err := ea.Add(&ApplyFunction{Function: &addFunction{}, ArgumentNames: []string{"x", "y"}, ResultName: "s"})
	require.NoError(t, err)

	require.NoError(t, ea.Finalize([]string{"s"}))
	first := ea.String()
	require.NoError(t, ea.Finalize([]string{"s"}))
	require.Equal(t, first, ea.String())
}

func TestCycleDetection(t *testing.T) {
	// f's prerequisite reads "y" — the very column f is about to produce —
	// so resolving f requires resolving a prerequisite that depends back
	// on f's own in-progress result. addImpl's currentNames guard must
	// catch this rather than recurse forever.
	f := &addFunction{
		prereqs: func(sample *block.SampleBlock, argNames []string, argTypes []arrow.DataType) ([]Action, error) {
			return []Action{&ApplyFunction{
				Function:      &addFunction{},
				ArgumentNames: []string{"y"},
				ResultName:    "p",
			}}, nil
		},
	}

	// "y" pre-exists as an input column so the prerequisite's type
	// resolution succeeds; the outer action recomputes "y" from "x",
	// which is what lands "y" in currentNames while its prerequisite is
	// resolved.
	ea := New(inputCols("x", "y"), nil)
	_, err := ea.Add(&ApplyFunction{Function: f, ArgumentNames: []string{"x"}, ResultName: "y"})
	require.Error(t, err)
	require.ErrorIs(t, err, engineerr.Logical)
}

func TestOptimizeArrayJoinPushdown(t *testing.T) {
	ea := New([]block.NamedColumnType{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "arr", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64)},
	}, nil)

	aj, err := NewArrayJoin("arr")
	require.NoError(t, err)
	_, err = ea.Add(aj)
	require.NoError(t, err)

	_, err = ea.Add(&CopyColumn{SourceName: "id", ResultName: "id2"})
	require.NoError(t, err)

	require.NoError(t, ea.Optimize())

	actionsList := ea.Actions()
	require.Len(t, actionsList, 2)
	_, firstIsCopy := actionsList[0].(*CopyColumn)
	require.True(t, firstIsCopy, "independent CopyColumn should be pushed ahead of the ArrayJoin it doesn't depend on")
	_, secondIsArrayJoin := actionsList[1].(*ArrayJoin)
	require.True(t, secondIsArrayJoin)
}

func TestArrayJoinEmptyIsLogicalError(t *testing.T) {
	_, err := NewArrayJoin()
	require.Error(t, err)
	require.ErrorIs(t, err, engineerr.Logical)
}

func TestAddInputForbiddenAfterProject(t *testing.T) {
	ea := New(inputCols("x"), nil)
	_, err := ea.Add(&Project{Pairs: []ProjectItem{{Source: "x"}}})
	require.NoError(t, err)

	err = ea.AddInput(block.NamedColumnType{Name: "y", Type: arrow.PrimitiveTypes.Int64})
	require.Error(t, err)
	require.ErrorIs(t, err, engineerr.Logical)
}

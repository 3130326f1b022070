package block

import (
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsLengthMismatch(t *testing.T) {
	fields := []arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}
	b := array.NewInt64Builder(Allocator)
	b.AppendValues([]int64{1, 2}, nil)
	defer b.Release()

	_, err := New(fields, []arrow.Array{b.NewArray()}, 3)
	require.Error(t, err)
}

func TestConstantColumnRoundtrip(t *testing.T) {
	f := MarkConstant(arrow.Field{Name: "c", Type: arrow.PrimitiveTypes.Int64, Nullable: true})
	require.True(t, IsConstantField(f))

	b := array.NewInt64Builder(Allocator)
	b.Append(42)
	defer b.Release()

	blk, err := New([]arrow.Field{f}, []arrow.Array{b.NewArray()}, 5)
	require.NoError(t, err)
	require.True(t, blk.IsConstant(0))
	require.Equal(t, int64(5), blk.NumRows())

	col, err := blk.Column("c")
	require.NoError(t, err)
	require.Equal(t, 5, col.Len())
	vals := col.(*array.Int64)
	for i := 0; i < vals.Len(); i++ {
		require.Equal(t, int64(42), vals.Value(i))
	}
}

func TestBroadcast(t *testing.T) {
	b := array.NewInt64Builder(Allocator)
	b.Append(7)
	defer b.Release()
	src := b.NewArray()

	out, err := Broadcast(src, 3)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	vals := out.(*array.Int64)
	require.Equal(t, int64(7), vals.Value(0))
	require.Equal(t, int64(7), vals.Value(2))
}

func TestEmptyBlockIsEndOfStream(t *testing.T) {
	require.True(t, Empty.IsEndOfStream())
	require.Equal(t, int64(0), Empty.NumRows())
}

package block

import (
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
)

// RepeatRow appends the value at rowIndex of src into builder, count times.
// Used by ArrayJoin to expand non-joined columns, and to broadcast
// length-1 constant columns up to a block's row count.
//
// Coverage mirrors the teacher's own bounded type switches (see
// arrowexec/nodes/group_by.go's Key/Aggregate implementations): the common
// primitive and string types are handled directly; anything else is an
// error rather than a panic, since this runs on the evaluation path.
func RepeatRow(builder array.Builder, src arrow.Array, rowIndex int, count int) error {
	if src.IsNull(rowIndex) {
		for i := 0; i < count; i++ {
			builder.AppendNull()
		}
		return nil
	}
	switch typed := src.(type) {
	case *array.Boolean:
		b := builder.(*array.BooleanBuilder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Int8:
		b := builder.(*array.Int8Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Int16:
		b := builder.(*array.Int16Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Int32:
		b := builder.(*array.Int32Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Int64:
		b := builder.(*array.Int64Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Uint64:
		b := builder.(*array.Uint64Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Float32:
		b := builder.(*array.Float32Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Float64:
		b := builder.(*array.Float64Builder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.String:
		b := builder.(*array.StringBuilder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	case *array.Binary:
		b := builder.(*array.BinaryBuilder)
		v := typed.Value(rowIndex)
		for i := 0; i < count; i++ {
			b.Append(v)
		}
	default:
		return fmt.Errorf("block: repeating values of type %s is not supported", src.DataType())
	}
	return nil
}

// NewBuilder allocates a builder for dt using the package allocator.
func NewBuilder(dt arrow.DataType) array.Builder {
	return array.NewBuilder(Allocator, dt)
}

// Broadcast expands a length-1 constant array up to n rows.
func Broadcast(src arrow.Array, n int64) (arrow.Array, error) {
	if int64(src.Len()) == n {
		return src, nil
	}
	if src.Len() != 1 {
		return nil, fmt.Errorf("block: cannot broadcast column of length %d to %d rows", src.Len(), n)
	}
	b := NewBuilder(src.DataType())
	defer b.Release()
	if err := RepeatRow(b, src, 0, int(n)); err != nil {
		return nil, err
	}
	return b.NewArray(), nil
}

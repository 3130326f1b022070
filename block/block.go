// Package block defines the columnar batch type every other package in this
// module operates on: an ordered list of named, typed columns of equal
// length (or all length-1 for constants).
package block

import (
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
)

// constantMetadataKey marks an arrow.Field as carrying a broadcastable
// constant rather than a per-row value. Arrow field metadata is the
// idiomatic place to attach this kind of side information to a schema.
const constantMetadataKey = "colflow.constant"

// Allocator is the allocator new columns are built with. Kept as a package
// variable, like the teacher's nodes default to memory.NewGoAllocator()
// inline; exposed here so callers building large pipelines can swap it.
var Allocator memory.Allocator = memory.NewGoAllocator()

// Block is an immutable-by-convention columnar batch. The zero Block (a nil
// Record) is the end-of-stream sentinel.
type Block struct {
	Record arrow.Record
}

// Empty is the end-of-stream sentinel block.
var Empty = Block{}

// IsEndOfStream reports whether b is the end-of-stream sentinel.
func (b Block) IsEndOfStream() bool {
	return b.Record == nil
}

// NumRows returns the block's row count, or 0 for the end-of-stream sentinel.
func (b Block) NumRows() int64 {
	if b.Record == nil {
		return 0
	}
	return b.Record.NumRows()
}

// Schema returns the block's schema, or nil for the end-of-stream sentinel.
func (b Block) Schema() *arrow.Schema {
	if b.Record == nil {
		return nil
	}
	return b.Record.Schema()
}

// ColumnNames returns the block's column names in order.
func (b Block) ColumnNames() []string {
	if b.Record == nil {
		return nil
	}
	fields := b.Record.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// IndexOf returns the index of the first column named name, or -1.
func (b Block) IndexOf(name string) int {
	if b.Record == nil {
		return -1
	}
	for i, f := range b.Record.Schema().Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the array for the first column named name.
func (b Block) Column(name string) (arrow.Array, error) {
	i := b.IndexOf(name)
	if i == -1 {
		return nil, fmt.Errorf("no such column %q", name)
	}
	return b.Record.Column(i), nil
}

// IsConstant reports whether the column at index i is marked as a constant
// (broadcastable, logically length-1) column.
func (b Block) IsConstant(i int) bool {
	return IsConstantField(b.Record.Schema().Field(i))
}

// IsConstantField reports whether f carries the constant-column marker.
func IsConstantField(f arrow.Field) bool {
	idx := f.Metadata.FindKey(constantMetadataKey)
	return idx >= 0 && f.Metadata.Values()[idx] == "true"
}

// MarkConstant returns a copy of f carrying the constant-column marker.
func MarkConstant(f arrow.Field) arrow.Field {
	keys := append([]string{}, f.Metadata.Keys()...)
	values := append([]string{}, f.Metadata.Values()...)
	keys = append(keys, constantMetadataKey)
	values = append(values, "true")
	f.Metadata = arrow.NewMetadata(keys, values)
	return f
}

// New builds a Block from parallel fields and arrays. A column marked
// constant may arrive as a length-1 array; it is broadcast to n rows before
// the underlying arrow.Record is built, since arrow.Record requires every
// column to carry exactly n rows. The constant marker on the field survives
// the broadcast, so callers can still special-case the column downstream.
func New(fields []arrow.Field, cols []arrow.Array, n int64) (Block, error) {
	if len(fields) != len(cols) {
		return Block{}, fmt.Errorf("field/column count mismatch: %d fields, %d columns", len(fields), len(cols))
	}
	for i, c := range cols {
		if IsConstantField(fields[i]) {
			broadcast, err := Broadcast(c, n)
			if err != nil {
				return Block{}, fmt.Errorf("constant column %q: %w", fields[i].Name, err)
			}
			cols[i] = broadcast
			continue
		}
		if int64(c.Len()) != n {
			return Block{}, fmt.Errorf("column %q has length %d, expected %d", fields[i].Name, c.Len(), n)
		}
	}
	schema := arrow.NewSchema(fields, nil)
	return Block{Record: array.NewRecord(schema, cols, n)}, nil
}

// NumBytes estimates the block's in-memory size, used by limit checks.
func (b Block) NumBytes() int64 {
	if b.Record == nil {
		return 0
	}
	var total int64
	for _, col := range b.Record.Columns() {
		for _, buf := range col.Data().Buffers() {
			if buf != nil {
				total += int64(buf.Len())
			}
		}
	}
	return total
}

package actions

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"

	"github.com/colflow/engine/block"
	"github.com/colflow/engine/engineerr"
)

// Execute evaluates every held action, in order, against blk (§4.5). It is
// read-only on ea: evaluation never mutates the action list, only the
// in-flight columns. CheckLimits runs after every action.
func (ea *ExpressionActions) Execute(ctx context.Context, blk block.Block) (block.Block, error) {
	fields, cols, numRows, err := unpackBlock(blk)
	if err != nil {
		return block.Block{}, err
	}

	for _, action := range ea.actionsList {
		fields, cols, numRows, err = ea.executeOne(ctx, action, fields, cols, numRows)
		if err != nil {
			return block.Block{}, err
		}
		if err := ea.checkLimits(fields, cols); err != nil {
			return block.Block{}, err
		}
	}

	return block.New(fields, cols, numRows)
}

func unpackBlock(blk block.Block) ([]arrow.Field, []arrow.Array, int64, error) {
	if blk.IsEndOfStream() {
		return nil, nil, 0, nil
	}
	schema := blk.Schema()
	fields := append([]arrow.Field{}, schema.Fields()...)
	cols := append([]arrow.Array{}, blk.Record.Columns()...)
	return fields, cols, blk.NumRows(), nil
}

func indexOfField(fields []arrow.Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (ea *ExpressionActions) executeOne(ctx context.Context, action Action, fields []arrow.Field, cols []arrow.Array, numRows int64) ([]arrow.Field, []arrow.Array, int64, error) {
	switch a := action.(type) {
	case *AddColumn:
		val, err := block.Broadcast(a.Value, numRows)
		if err != nil {
			return nil, nil, 0, err
		}
		fields = append(fields, namedField(a.ResultName, a.ResultType))
		cols = append(cols, val)
		return fields, cols, numRows, nil

	case *RemoveColumn:
		idx := indexOfField(fields, a.SourceName)
		if idx == -1 {
			return nil, nil, 0, fmt.Errorf("%w: cannot remove unknown column %q", engineerr.Logical, a.SourceName)
		}
		fields = append(append([]arrow.Field{}, fields[:idx]...), fields[idx+1:]...)
		cols = append(append([]arrow.Array{}, cols[:idx]...), cols[idx+1:]...)
		return fields, cols, numRows, nil

	case *CopyColumn:
		idx := indexOfField(fields, a.SourceName)
		if idx == -1 {
			return nil, nil, 0, fmt.Errorf("%w: cannot copy unknown column %q", engineerr.Logical, a.SourceName)
		}
		copied := fields[idx]
		copied.Name = a.ResultName
		fields = append(fields, copied)
		cols = append(cols, cols[idx])
		return fields, cols, numRows, nil

	case *ApplyFunction:
		argIndices := make([]int, len(a.ArgumentNames))
		for i, n := range a.ArgumentNames {
			idx := indexOfField(fields, n)
			if idx == -1 {
				return nil, nil, 0, fmt.Errorf("%w: unknown argument column %q for function %s", engineerr.Logical, n, a.Function.Name())
			}
			argIndices[i] = idx
		}
		tmp, err := block.New(fields, cols, numRows)
		if err != nil {
			return nil, nil, 0, err
		}
		result, err := a.Function.Execute(ctx, tmp, argIndices)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("function %s: %w", a.Function.Name(), err)
		}
		fields = append(fields, namedField(a.ResultName, a.ResultType))
		cols = append(cols, result)
		return fields, cols, numRows, nil

	case *ArrayJoin:
		return executeArrayJoin(a, fields, cols, numRows)

	case *Project:
		newFields := make([]arrow.Field, len(a.Pairs))
		newCols := make([]arrow.Array, len(a.Pairs))
		for i, p := range a.Pairs {
			idx := indexOfField(fields, p.Source)
			if idx == -1 {
				return nil, nil, 0, fmt.Errorf("%w: cannot project unknown column %q", engineerr.Logical, p.Source)
			}
			copied := fields[idx]
			if p.Alias != "" {
				copied.Name = p.Alias
			}
			newFields[i] = copied
			newCols[i] = cols[idx]
		}
		return newFields, newCols, numRows, nil

	default:
		return nil, nil, 0, fmt.Errorf("actions: unhandled action type %T in Execute", action)
	}
}

// executeArrayJoin implements §4.5's ArrayJoin evaluation: every joined
// column is replaced with its element column, and every other column is
// expanded by repeating each row by that row's array length. All joined
// columns must agree on their per-row length; any mismatch is a logical
// error (§9 open question, resolved in favor of a hard failure).
func executeArrayJoin(aj *ArrayJoin, fields []arrow.Field, cols []arrow.Array, numRows int64) ([]arrow.Field, []arrow.Array, int64, error) {
	names := aj.Columns.Slice()
	if len(names) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: ArrayJoin over no columns", engineerr.Logical)
	}

	joinedIdx := make(map[string]int, len(names))
	for _, n := range names {
		idx := indexOfField(fields, n)
		if idx == -1 {
			return nil, nil, 0, fmt.Errorf("%w: array join over unknown column %q", engineerr.Logical, n)
		}
		joinedIdx[n] = idx
	}

	n := int(numRows)
	rowLen := make([]int, n)
	rowStart := make(map[string][]int64, len(names))
	for _, name := range names {
		rowStart[name] = make([]int64, n)
	}

	for row := 0; row < n; row++ {
		var length int64 = -1
		for j, name := range names {
			ll, ok := cols[joinedIdx[name]].(array.ListLike)
			if !ok {
				return nil, nil, 0, fmt.Errorf("%w: column %q is not an array column (type %s)", engineerr.Logical, name, fields[joinedIdx[name]].Type)
			}
			start, end := ll.ValueOffsets(row)
			rowStart[name][row] = start
			l := end - start
			if j == 0 {
				length = l
			} else if l != length {
				return nil, nil, 0, fmt.Errorf("%w: array join columns have mismatched lengths at row %d", engineerr.Logical, row)
			}
		}
		rowLen[row] = int(length)
	}

	total := 0
	for _, l := range rowLen {
		total += l
	}

	newFields := make([]arrow.Field, len(fields))
	newCols := make([]arrow.Array, len(fields))
	for i, f := range fields {
		if _, isJoined := joinedIdx[f.Name]; isJoined && aj.Columns.Has(f.Name) {
			elemType, err := listElementType(f.Type)
			if err != nil {
				return nil, nil, 0, fmt.Errorf("%w: column %q: %v", engineerr.Logical, f.Name, err)
			}
			values := cols[i].(array.ListLike).ListValues()
			b := block.NewBuilder(elemType)
			for row := 0; row < n; row++ {
				start := int(rowStart[f.Name][row])
				for k := 0; k < rowLen[row]; k++ {
					if err := block.RepeatRow(b, values, start+k, 1); err != nil {
						b.Release()
						return nil, nil, 0, err
					}
				}
			}
			newFields[i] = arrow.Field{Name: f.Name, Type: elemType, Nullable: true}
			newCols[i] = b.NewArray()
			b.Release()
			continue
		}

		src := cols[i]
		b := block.NewBuilder(f.Type)
		for row := 0; row < n; row++ {
			srcRow := row
			if src.Len() == 1 && n != 1 {
				srcRow = 0
			}
			if err := block.RepeatRow(b, src, srcRow, rowLen[row]); err != nil {
				b.Release()
				return nil, nil, 0, err
			}
		}
		demoted := f
		demoted.Metadata = arrow.Metadata{}
		newFields[i] = demoted
		newCols[i] = b.NewArray()
		b.Release()
	}

	return newFields, newCols, int64(total), nil
}

// CheckLimits enforces the configured limits (§4.5, §6) against a
// materialized block, the same check Execute runs after every action.
// Exposed so callers evaluating a block outside of Execute (e.g. a chain
// step boundary) can apply it directly.
func (ea *ExpressionActions) CheckLimits(blk block.Block) error {
	if blk.IsEndOfStream() {
		return nil
	}
	return ea.checkLimits(blk.Record.Schema().Fields(), blk.Record.Columns())
}

func (ea *ExpressionActions) checkLimits(fields []arrow.Field, cols []arrow.Array) error {
	if ea.settings == nil {
		return nil
	}
	if max := ea.settings.MaxColumnsInBlock; max > 0 && len(fields) > max {
		return fmt.Errorf("%w: block has %d columns, limit is %d", engineerr.ResourceLimit, len(fields), max)
	}
	if max := ea.settings.MaxBlockSizeBytes; max > 0 {
		var total int64
		for _, c := range cols {
			for _, buf := range c.Data().Buffers() {
				if buf != nil {
					total += int64(buf.Len())
				}
			}
		}
		if total > max {
			return fmt.Errorf("%w: block is %d bytes, limit is %d", engineerr.ResourceLimit, total, max)
		}
	}
	return nil
}

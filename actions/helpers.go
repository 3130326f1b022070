package actions

import (
	"fmt"
	"sort"

	"github.com/apache/arrow/go/v13/arrow"

	"github.com/colflow/engine/block"
)

// namedField builds an arrow.Field for name/typ, nullable like every other
// field this package hands to block.SampleBlock.WithColumn.
func namedField(name string, typ arrow.DataType) arrow.Field {
	return arrow.Field{Name: name, Type: typ, Nullable: true}
}

// listElementType returns the element type of an Arrow list type, or a
// logical error if t isn't one of the list shapes ArrayJoin can unnest.
func listElementType(t arrow.DataType) (arrow.DataType, error) {
	switch lt := t.(type) {
	case *arrow.ListType:
		return lt.Elem(), nil
	case *arrow.LargeListType:
		return lt.Elem(), nil
	case *arrow.FixedSizeListType:
		return lt.Elem(), nil
	default:
		return nil, fmt.Errorf("not an array column (type %s)", t)
	}
}

// smallestColumn picks the getSmallestColumn tie-break the header names
// explicitly: when finalize would otherwise retain zero input columns, keep
// one anyway so row count survives the pipeline, preferring the
// fixed-width-narrowest type and breaking ties lexicographically by name so
// the choice is deterministic.
func smallestColumn(candidates []block.NamedColumnType) string {
	if len(candidates) == 0 {
		return ""
	}
	sorted := append([]block.NamedColumnType{}, candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		wi, wj := fixedWidth(sorted[i].Type), fixedWidth(sorted[j].Type)
		if wi != wj {
			return wi < wj
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted[0].Name
}

// fixedWidth returns a byte-width estimate for t, used only to rank
// candidates in smallestColumn; variable-width types sort last.
func fixedWidth(t arrow.DataType) int {
	if fw, ok := t.(arrow.FixedWidthDataType); ok {
		return fw.BitWidth() / 8
	}
	return 1 << 30
}

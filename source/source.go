// Package source declares the Producer contract (§6): an external
// collaborator the Union Stream drains. Concrete producers — table scans,
// file readers, network sources — are deliberately out of scope (§1); this
// package only names the interface they must implement.
package source

import (
	"context"

	"github.com/colflow/engine/block"
)

// Producer is a pull-based, non-restartable block source. Read returns the
// end-of-stream sentinel block (block.Empty) once exhausted. ReadSuffix is
// called exactly once, after end-of-stream has been observed, to let the
// producer release any resources it held open for the drain.
//
// A Producer also satisfies the Consumer contract (ID/SampleBlock), since
// in a real plan a Producer is often itself a Union Stream or another
// composed stream one level down.
type Producer interface {
	// ID returns a stable identifier, used for plan caching and equality.
	ID() string
	// SampleBlock describes this producer's output shape for planning.
	SampleBlock() *block.SampleBlock
	// Read returns the next block, or block.Empty at end of stream.
	Read(ctx context.Context) (block.Block, error)
	// ReadSuffix is called once, after end-of-stream, to finalize the
	// producer. Calling it before end-of-stream (without a prior cancel)
	// is a logical-error fault on the caller's part.
	ReadSuffix(ctx context.Context) error
}

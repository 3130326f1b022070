// Package queue implements the Bounded Handoff Queue (§4.1): a
// fixed-capacity multi-producer/single-consumer channel carrying
// Either<Block, Error> plus an implicit end-of-stream sentinel.
//
// Grounded on the channel-backed queue in the teacher's
// execution/output_queue.go, generalized to carry Item instead of a single
// record type and given the push/pop/try_pop/clear surface ClickHouse's
// ConcurrentBoundedQueue (referenced from UnionBlockInputStream.h) exposes.
package queue

import (
	"context"

	"github.com/colflow/engine/block"
)

// Item is Either<Block, Error>. The zero Item (nil Block, nil Err) is the
// end-of-stream sentinel; producers signal end-of-stream by pushing it
// exactly once, after which no further pushes are valid.
type Item struct {
	Block block.Block
	Err   error
}

// IsEndOfStream reports whether the item is the end-of-stream sentinel.
func (i Item) IsEndOfStream() bool {
	return i.Block.Record == nil && i.Err == nil
}

// BoundedQueue is a fixed-capacity FIFO. Push blocks while full, Pop blocks
// while empty; both respect ctx cancellation so a consumer or worker
// suspended on the queue is still a valid cancellation suspension point
// per §5.
type BoundedQueue struct {
	ch chan Item
}

// New returns a BoundedQueue with the given capacity.
func New(capacity int) *BoundedQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedQueue{ch: make(chan Item, capacity)}
}

// Push blocks while the queue is full.
func (q *BoundedQueue) Push(ctx context.Context, item Item) error {
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop blocks while the queue is empty.
func (q *BoundedQueue) Pop(ctx context.Context) (Item, error) {
	select {
	case item := <-q.ch:
		return item, nil
	case <-ctx.Done():
		return Item{}, ctx.Err()
	}
}

// TryPop never blocks.
func (q *BoundedQueue) TryPop() (Item, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		return Item{}, false
	}
}

// Clear discards all buffered items without blocking.
func (q *BoundedQueue) Clear() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

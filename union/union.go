// Package union implements the Union Stream of §4.2: a single pull-based
// block stream backed by N concurrent Producers, coordinated through the
// Bounded Handoff Queue and a fixed worker pool (the Parallel Inputs
// Processor).
package union

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/colflow/engine/block"
	"github.com/colflow/engine/colflowlog"
	"github.com/colflow/engine/engineerr"
	"github.com/colflow/engine/queue"
	"github.com/colflow/engine/runid"
	"github.com/colflow/engine/source"
)

// Stream is the Union Stream (§4.2): single-use, Fresh -> Running ->
// (Cancelling ->) Drained. Safe for Cancel to be called concurrently with
// Read/ReadSuffix from any goroutine. Coordination is the queue's internal
// synchronization, a CAS-guarded cancellation flag (§5), a sync.Once for
// worker startup, and two small mutexes guarding the cancel function and
// the delivered-error flag.
type Stream struct {
	children   []source.Producer
	maxThreads int
	queueCap   int

	// runID is a per-instance debug tag (distinct from the deterministic
	// ID() below), minted once so concurrent runs of the same logical
	// union are distinguishable in log lines.
	runID string

	q *queue.BoundedQueue

	startOnce sync.Once
	runCtx    context.Context

	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
	cancelled  int32 // atomic bool
	state      int32 // atomic state

	workersDone chan struct{}

	errMu        sync.Mutex
	errDelivered bool

	// onShutdownForTest, when set, is invoked exactly once per Cancel
	// shutdown sequence — a test seam for invariant 7 ("cancel() called N
	// times performs the shutdown sequence exactly once").
	onShutdownForTest func()
}

// New builds a Union Stream over children, backed by a handoff queue of
// the given capacity and a worker pool sized by maxThreads. All children
// must agree on sample block shape; New returns a logical error otherwise,
// since get_sample_block() on the union must return one answer (§6).
func New(children []source.Producer, maxThreads, queueCapacity int) (*Stream, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: union stream over no children", engineerr.Logical)
	}
	first := children[0].SampleBlock()
	for _, c := range children[1:] {
		if !sampleBlocksEqual(first, c.SampleBlock()) {
			return nil, fmt.Errorf("%w: union children disagree on sample block shape", engineerr.Logical)
		}
	}
	return &Stream{
		children:   children,
		maxThreads: maxThreads,
		queueCap:   queueCapacity,
		q:          queue.New(queueCapacity),
		state:      int32(stateFresh),
		runID:      runid.New(),
	}, nil
}

// RunID returns the stream's per-instance debug tag, for log correlation
// across concurrent runs of the same logical union (its ID() is the same
// across all of them; RunID distinguishes the instances).
func (s *Stream) RunID() string {
	return s.runID
}

func sampleBlocksEqual(a, b *block.SampleBlock) bool {
	an, bn := a.Names(), b.Names()
	if len(an) != len(bn) {
		return false
	}
	for i, n := range an {
		if n != bn[i] {
			return false
		}
		at, _ := a.TypeOf(n)
		bt, _ := b.TypeOf(bn[i])
		if at.ID() != bt.ID() {
			return false
		}
	}
	return true
}

// ID returns a stable identifier derived from the multiset of child ids,
// order-independent: children are sorted before concatenation so two
// unions with the same children in a different order compare equal (§4.2
// invariant 2).
func (s *Stream) ID() string {
	ids := make([]string, len(s.children))
	for i, c := range s.children {
		ids[i] = c.ID()
	}
	sort.Strings(ids)
	return "UNION(" + strings.Join(ids, ",") + ")"
}

// SampleBlock returns the shared output shape of every child.
func (s *Stream) SampleBlock() *block.SampleBlock {
	return s.children[0].SampleBlock()
}

func (s *Stream) setState(from, to state) bool {
	return atomic.CompareAndSwapInt32(&s.state, int32(from), int32(to))
}

func (s *Stream) loadState() state {
	return state(atomic.LoadInt32(&s.state))
}

// start spins up the worker pool exactly once, on the first Read call.
func (s *Stream) start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.setState(stateFresh, stateRunning)

		runCtx, cancel := context.WithCancel(ctx)
		s.cancelMu.Lock()
		s.cancelFunc = cancel
		s.cancelMu.Unlock()
		s.runCtx = runCtx
		s.workersDone = make(chan struct{})

		p := newProcessor(s.children, s.maxThreads)
		go func() {
			defer close(s.workersDone)
			p.run(runCtx, s, func() {
				// on_finish: push the end-of-stream sentinel exactly once,
				// total, regardless of whether this run ended cleanly or
				// via cancellation. Use context.Background so a racing
				// Cancel() (which tears down runCtx) never drops the
				// sentinel the consumer is waiting on.
				_ = s.q.Push(context.Background(), queue.Item{})
			})
		}()
	})
}

// isCancelled implements handler; checked by worker goroutines at every
// suspension point.
func (s *Stream) isCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) == 1
}

// onBlock implements handler: push the block, respecting cancellation as a
// push-time suspension point.
func (s *Stream) onBlock(blk block.Block, workerID int) error {
	return s.q.Push(s.runCtx, queue.Item{Block: blk})
}

// onException implements handler: the error is pushed before cancel is
// requested, so it cannot be masked by an end-of-stream sentinel racing in
// from another worker (§4.2).
func (s *Stream) onException(err error, workerID int) {
	_ = s.q.Push(context.Background(), queue.Item{Err: fmt.Errorf("worker %d: %w", workerID, err)})
	s.Cancel()
}

// Cancel requests all workers stop; idempotent and safe from any goroutine
// via a single CAS on the cancellation flag (§4.2, §5, invariant 7).
func (s *Stream) Cancel() {
	if !atomic.CompareAndSwapInt32(&s.cancelled, 0, 1) {
		return
	}
	if s.onShutdownForTest != nil {
		s.onShutdownForTest()
	}
	s.setState(stateFresh, stateCancelling)
	s.setState(stateRunning, stateCancelling)

	s.cancelMu.Lock()
	cancel := s.cancelFunc
	s.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Read returns the next available block, or block.Empty at end of stream.
// The first call starts the worker pool. Once an error has been delivered
// to the caller, every subsequent Read returns end-of-stream without
// blocking on the queue (§4.2 invariant 6).
func (s *Stream) Read(ctx context.Context) (block.Block, error) {
	s.start(ctx)

	s.errMu.Lock()
	delivered := s.errDelivered
	s.errMu.Unlock()
	if delivered {
		return block.Empty, nil
	}

	item, err := s.q.Pop(ctx)
	if err != nil {
		return block.Block{}, err
	}
	if item.IsEndOfStream() {
		s.setState(stateRunning, stateDrained)
		s.setState(stateCancelling, stateDrained)
		return block.Empty, nil
	}
	if item.Err != nil {
		s.errMu.Lock()
		s.errDelivered = true
		s.errMu.Unlock()
		s.Cancel()
		return block.Empty, item.Err
	}
	return item.Block, nil
}

// ReadSuffix drains any pending errors and waits for workers; called after
// end-of-stream has been observed. Calling it before end-of-stream,
// without a prior Cancel, is a logical-error fault on the caller's part
// (§4.2).
func (s *Stream) ReadSuffix(ctx context.Context) error {
	s.errMu.Lock()
	delivered := s.errDelivered
	s.errMu.Unlock()

	if !delivered && s.loadState() != stateDrained && !s.isCancelled() {
		return fmt.Errorf("%w: ReadSuffix called before end-of-stream", engineerr.Logical)
	}

	s.Cancel()

	if s.workersDone != nil {
		select {
		case <-s.workersDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var late error
	for {
		item, ok := s.q.TryPop()
		if !ok {
			break
		}
		if item.Err != nil && late == nil && !delivered {
			late = item.Err
		}
	}

	s.setState(stateRunning, stateDrained)
	s.setState(stateCancelling, stateDrained)
	return late
}

// Close tears the stream down if it was started but never fully drained:
// cancels, waits for workers, and logs (rather than returns) any secondary
// error, so it never masks whatever error the caller already observed
// (§5's teardown discipline, the Go analogue of the header's destructor).
func (s *Stream) Close() {
	if s.loadState() == stateFresh {
		return
	}
	if s.loadState() == stateDrained {
		return
	}
	s.Cancel()
	if s.workersDone != nil {
		<-s.workersDone
	}
	if err := s.ReadSuffix(context.Background()); err != nil {
		colflowlog.SwallowTeardownError("union.Stream.Close["+s.runID+"]", err)
	}
}

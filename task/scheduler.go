package task

import (
	"context"
	"sync"
	"time"

	"github.com/vethanis/pimcore/atomic"
	"github.com/vethanis/pimcore/intrin"
	"github.com/vethanis/pimcore/obslog"
	"github.com/vethanis/pimcore/queue"
	"github.com/vethanis/pimcore/syncx"
)

var log = obslog.Component("task")

// splitFactor controls how finely a task's worksize is sliced relative to
// the worker count: granularity = max(1, worksize / (workers * splitFactor)).
const splitFactor = 4

const inboxCapacity = 64

// Scheduler owns a fixed worker pool, each with its own MPMC inbox, and
// drives the execution loop described in the task package doc comment.
type Scheduler struct {
	workers    int
	inboxes    []*queue.PtrQueue[Task]
	pushEvent  *syncx.Event
	awaitEvent *syncx.Event
	sleeping   atomic.Value[int32]
	running    atomic.Value[uint32]
	wg         sync.WaitGroup
	baseCtx    context.Context
}

// NewScheduler constructs a scheduler with the given worker count and
// starts its worker goroutines. Callers typically size workers from
// runtime.GOMAXPROCS(0) (itself made cgroup-aware by importing
// go.uber.org/automaxprocs for its init-time side effect).
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		workers:    workers,
		inboxes:    make([]*queue.PtrQueue[Task], workers),
		pushEvent:  syncx.NewEvent(),
		awaitEvent: syncx.NewEvent(),
		baseCtx:    context.Background(),
	}
	for i := range s.inboxes {
		s.inboxes[i] = queue.NewPtrQueue[Task](inboxCapacity)
	}
	s.running.Store(1, atomic.Release)
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.run(int32(i))
	}
	log.Debug().Int("workers", workers).Msg("scheduler started")
	return s
}

// NumWorkers returns the size of the worker pool.
func (s *Scheduler) NumWorkers() int { return s.workers }

func (s *Scheduler) run(id int32) {
	defer s.wg.Done()
	ctx := WithWorkerID(s.baseCtx, id)
	var spins uint64
	for s.running.Load(atomic.Acquire) != 0 {
		t := s.inboxes[id].TryPop()
		if t != nil {
			s.execute(ctx, t)
			spins = 0
			continue
		}
		s.sleeping.Inc(atomic.AcqRel)
		s.pushEvent.Wait()
		s.sleeping.Dec(atomic.AcqRel)
		spins++
	}
}

func (s *Scheduler) execute(ctx context.Context, t *Task) {
	for {
		a := t.head.FetchAdd(t.granularity, atomic.Acquire)
		b := a + t.granularity
		if b > t.worksize {
			b = t.worksize
		}
		if a >= b {
			break
		}
		t.fn(ctx, t, a, b)
		prev := t.tail.FetchAdd(b-a, atomic.Release)
		if prev+(b-a) >= t.worksize {
			t.status.Store(int32(StatusComplete), atomic.Release)
			for t.awaits.Load(atomic.Acquire) > 0 {
				s.awaitEvent.WakeAll()
				intrin.Yield()
			}
			break
		}
	}
}

// Submit publishes fn over [0, worksize) on t, reinitializing it. A task
// object is reusable: Submit first awaits any run already in flight. ctx
// identifies the calling worker (if any) via WorkerID so Submit skips
// pushing to that worker's own inbox; other workers discover the task
// through their inbox and the main caller must call Schedule to wake them.
func (s *Scheduler) Submit(ctx context.Context, t *Task, fn Func, worksize int32) {
	s.Await(ctx, t)

	if worksize <= 0 {
		return
	}

	granularity := worksize / int32(s.workers*splitFactor)
	if granularity < 1 {
		granularity = 1
	}

	t.fn = fn
	t.worksize = worksize
	t.granularity = granularity
	t.head.Store(0, atomic.Relaxed)
	t.tail.Store(0, atomic.Relaxed)
	t.status.Store(int32(StatusExec), atomic.Release)

	self := WorkerID(ctx)
	for i, inbox := range s.inboxes {
		if int32(i) == self {
			continue
		}
		inbox.Push(t)
	}
}

// Schedule wakes every sleeping worker so they re-check their inboxes.
func (s *Scheduler) Schedule() {
	s.pushEvent.WakeAll()
}

// Await blocks the calling goroutine until t reaches StatusComplete.
//
// Submit never pushes t to the submitting worker's own inbox (see
// Submit), so a worker that awaits a task it just submitted cannot rely
// on its own run loop to make progress on it: nobody else would ever
// hand that worker the task to execute, and with a single worker (or
// every other worker already parked) a plain wait would deadlock. A
// caller with a worker identity therefore helps drain t directly,
// claiming ranges the same way its run loop would, instead of only
// waiting on awaitEvent. A caller with no worker identity (WorkerID
// returns -1) just waits, exactly as before.
func (s *Scheduler) Await(ctx context.Context, t *Task) {
	if WorkerID(ctx) >= 0 {
		// A worker may itself be the one whose fetch-add claims the last
		// range and flips t to StatusComplete; execute's own completer
		// spin already waits out every *other* awaiter, so this goroutine
		// must not count itself as an awaiter until it is actually about
		// to block, or that spin would wait on itself forever.
		for t.Status() == StatusExec {
			s.execute(ctx, t)
			if t.Status() != StatusExec {
				break
			}
			t.awaits.Inc(atomic.Acquire)
			if t.Status() == StatusExec {
				s.awaitEvent.Wait()
			}
			t.awaits.Dec(atomic.Release)
		}
		return
	}

	t.awaits.Inc(atomic.Acquire)
	for t.Status() == StatusExec {
		s.awaitEvent.Wait()
	}
	t.awaits.Dec(atomic.Release)
}

// Run is a convenience wrapper: submit, schedule, and await in one call.
func (s *Scheduler) Run(ctx context.Context, t *Task, fn Func, worksize int32) {
	s.Submit(ctx, t, fn, worksize)
	s.Schedule()
	s.Await(ctx, t)
}

// Shutdown flips the running flag, repeatedly wakes both events until
// every worker has observed the flag and exited, then returns once all
// worker goroutines have joined.
func (s *Scheduler) Shutdown() {
	s.running.Store(0, atomic.Release)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		default:
			s.pushEvent.WakeAll()
			s.awaitEvent.WakeAll()
			time.Sleep(time.Millisecond)
		}
	}
}

// AutoWorkerCount returns runtime.GOMAXPROCS(0) after go.uber.org/automaxprocs
// has right-sized it to the enclosing cgroup's CPU quota. NewScheduler takes
// a plain worker count so tests can pin it; callers outside a container
// quota (or in a harness/cmd entrypoint) should pass this in.
func AutoWorkerCount() int {
	return autoWorkerCount()
}

package syncx

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSemaphoreCounting covers testable property 3.
func TestSemaphoreCounting(t *testing.T) {
	s := NewSemaphore(3)
	s.Wait()
	s.Wait()
	s.Wait()

	require.False(t, s.TryWait())

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned before signal")
	case <-time.After(20 * time.Millisecond):
	}

	s.Signal(1)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not unblock after signal")
	}
}

// TestEventWakeAll covers testable property 4.
func TestEventWakeAll(t *testing.T) {
	e := NewEvent()

	const sleepers = 5
	var wg sync.WaitGroup
	var woke int32
	wg.Add(sleepers)
	for i := 0; i < sleepers; i++ {
		go func() {
			defer wg.Done()
			e.Wait()
			atomic.AddInt32(&woke, 1)
		}()
	}

	// give sleepers a chance to register as negative state
	time.Sleep(50 * time.Millisecond)

	e.WakeAll()
	wg.Wait()
	require.EqualValues(t, sleepers, atomic.LoadInt32(&woke))
}

// TestBarrierReusable covers testable property 5.
func TestBarrierReusable(t *testing.T) {
	const n = 8
	const phases = 20
	b := NewBarrier(n)

	var wg sync.WaitGroup
	counters := make([]int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			for p := 0; p < phases; p++ {
				b.Wait()
				counters[i]++
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, phases, counters[i])
	}
}

// TestRWLockMutualExclusion covers testable property 6.
func TestRWLockMutualExclusion(t *testing.T) {
	l := NewRWLock()
	var active int32 // positive: readers, -1: a writer holds the lock
	var wg sync.WaitGroup
	const goroutines = 16
	const iterations = 200

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if (i+j)%4 == 0 {
					l.LockWrite()
					require.True(t, atomic.CompareAndSwapInt32(&active, 0, -1))
					runtime.Gosched()
					require.Equal(t, int32(-1), atomic.LoadInt32(&active))
					atomic.StoreInt32(&active, 0)
					l.UnlockWrite()
				} else {
					l.LockRead()
					for {
						cur := atomic.LoadInt32(&active)
						if cur < 0 {
							t.Fatal("reader observed writer active")
						}
						if atomic.CompareAndSwapInt32(&active, cur, cur+1) {
							break
						}
					}
					atomic.AddInt32(&active, -1)
					l.UnlockRead()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestSpinlock(t *testing.T) {
	var lock Spinlock
	require.True(t, lock.TryLock())
	require.False(t, lock.TryLock())
	lock.Unlock()
	require.True(t, lock.TryLock())
	lock.Unlock()

	require.Panics(t, func() { lock.Unlock() })
}

func TestMutexTryLock(t *testing.T) {
	var m Mutex
	require.True(t, m.TryLock())
	require.False(t, m.TryLock())
	m.Unlock()
	require.True(t, m.TryLock())
	m.Unlock()
}

package queue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPtrQueueSPSCOrder covers testable property 7: a single producer and
// single consumer observe strict FIFO order.
func TestPtrQueueSPSCOrder(t *testing.T) {
	q := NewPtrQueue[int](16)
	const n = 2000

	values := make([]int, n)
	for i := range values {
		values[i] = i
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := range values {
			q.Push(&values[i])
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			if p := q.TryPop(); p != nil {
				got = append(got, *p)
			}
		}
	}()

	wg.Wait()
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

// TestPtrQueueMPMCSafety covers testable property 8 and scenario S1: with
// multiple producers and consumers, every pushed pointer is popped exactly
// once, with no loss and no duplication.
func TestPtrQueueMPMCSafety(t *testing.T) {
	q := NewPtrQueue[int](16)
	const producers = 4
	const perProducer = 1000
	const total = producers * perProducer

	values := make([]int, total)
	for i := range values {
		values[i] = i
	}

	var producerWG sync.WaitGroup
	producerWG.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer producerWG.Done()
			for i := 0; i < perProducer; i++ {
				idx := p*perProducer + i
				q.Push(&values[idx])
			}
		}(p)
	}

	results := make(chan int, total)
	var consumerWG sync.WaitGroup
	const consumers = 4
	done := make(chan struct{})
	consumerWG.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer consumerWG.Done()
			for {
				if p := q.TryPop(); p != nil {
					results <- *p
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	producerWG.Wait()

	// drain until we have everything, then signal consumers to stop.
	collected := make([]int, 0, total)
	for len(collected) < total {
		collected = append(collected, <-results)
	}
	close(done)
	consumerWG.Wait()

	sort.Ints(collected)
	require.Len(t, collected, total)
	for i, v := range collected {
		require.Equal(t, i, v)
	}
}

func TestIntQueueFIFO(t *testing.T) {
	q := NewIntQueue(8)
	for i := uint32(0); i < 8; i++ {
		q.Push(i)
	}
	_, ok := q.TryPop()
	require.True(t, ok)

	q.Push(100)
	for i := uint32(1); i < 8; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	v, ok := q.TryPop()
	require.True(t, ok)
	require.EqualValues(t, 100, v)

	_, ok = q.TryPop()
	require.False(t, ok)
}

func TestIntQueueOverflowPanics(t *testing.T) {
	q := NewIntQueue(4)
	require.Panics(t, func() {
		for i := 0; i < 100; i++ {
			q.Push(uint32(i))
		}
	})
}

package vhandle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGetAfterDelFails covers testable property 12: once a handle is
// deleted, Get reports it as dead.
func TestGetAfterDelFails(t *testing.T) {
	h := New(42)

	v, ok := h.Get()
	require.True(t, ok)
	require.Equal(t, 42, v)

	v, ok = Del(h)
	require.True(t, ok)
	require.Equal(t, 42, v)

	_, ok = h.Get()
	require.False(t, ok)
}

// TestReleaseOnlyOnce covers scenario S5: under concurrent Del calls on
// copies of the same handle, exactly one succeeds.
func TestReleaseOnlyOnce(t *testing.T) {
	h := New("payload")

	const racers = 32
	var wg sync.WaitGroup
	var wins int32
	var mu sync.Mutex
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := Del(h); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins)
	_, ok := h.Get()
	require.False(t, ok)
}

func TestZeroHandleIsInvalid(t *testing.T) {
	var h Handle[int]
	_, ok := h.Get()
	require.False(t, ok)
	_, ok = Del(h)
	require.False(t, ok)
}

func TestDistinctHandlesHaveDistinctVersions(t *testing.T) {
	a := New(1)
	b := New(2)
	require.NotEqual(t, a.version, b.version)
}

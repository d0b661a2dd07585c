package genid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStaleIdRejected covers testable property 13: once a slot is released
// and reused, the old generational ID is no longer current.
func TestStaleIdRejected(t *testing.T) {
	s := NewIdSet()
	a := s.Alloc()
	require.True(t, s.Current(a))

	require.True(t, s.Release(a))
	require.False(t, s.Current(a))
	require.False(t, s.Release(a), "double release must fail")

	b := s.Alloc()
	require.Equal(t, a.Index, b.Index, "freed index should be reused")
	require.NotEqual(t, a.Version, b.Version)
	require.False(t, s.Current(a))
	require.True(t, s.Current(b))
}

func TestAllocGrows(t *testing.T) {
	s := NewIdSet()
	ids := make([]ID, 0, 64)
	for i := 0; i < 64; i++ {
		ids = append(ids, s.Alloc())
	}
	require.Equal(t, 64, s.Len())
	for _, id := range ids {
		require.True(t, s.Current(id))
	}
}

func TestConcurrentAllocRelease(t *testing.T) {
	s := NewIdSet()
	const goroutines = 8
	const perGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := s.Alloc()
				require.True(t, s.Current(id))
				require.True(t, s.Release(id))
			}
		}()
	}
	wg.Wait()
}

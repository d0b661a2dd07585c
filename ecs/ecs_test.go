package ecs

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vethanis/pimcore/task"
)

const (
	compPosition ComponentID = 1
	compMarker   ComponentID = 2
)

func newTestWorld() (*World, *task.Scheduler) {
	s := task.NewScheduler(4)
	w := NewWorld(s)
	w.RegisterComponent(compPosition, func(capacity int) Row {
		return NewColumnRow[[3]float32](capacity)
	})
	w.RegisterComponent(compMarker, func(capacity int) Row {
		return NewColumnRow[int32](capacity)
	})
	return w, s
}

// TestSwapWithBack covers testable property 16: destroying an entity
// relocates the slab's back row into the freed slot and fixes up the
// displaced entity's offset.
func TestSwapWithBack(t *testing.T) {
	w, s := newTestWorld()
	defer s.Shutdown()
	ctx := context.Background()

	flags := Flags(0).WithEntityBit()
	flags.Set(compPosition)

	ents := make([]Entity, 5)
	for i := range ents {
		ents[i] = w.Create(ctx, flags)
	}

	// write a distinguishing marker-free check: position.x == index
	w.Foreach(ctx, Flags(0), Flags(0), func(rows map[ComponentID]Row, length int) {
		pos := rows[compPosition].(*ColumnRow[[3]float32])
		for i := 0; i < length; i++ {
			pos.At(i)[0] = float32(i)
		}
	})

	// destroy the middle entity (index 2 within the slab).
	w.Destroy(ents[2])

	require.True(t, w.IsCurrent(ents[0]))
	require.True(t, w.IsCurrent(ents[4]))
	require.False(t, w.IsCurrent(ents[2]))

	var lastVal float32 = -1
	var length int
	w.Foreach(ctx, Flags(0), Flags(0), func(rows map[ComponentID]Row, l int) {
		pos := rows[compPosition].(*ColumnRow[[3]float32])
		length = l
		lastVal = pos.At(2)[0]
	})
	require.Equal(t, 4, length)
	require.Equal(t, float32(4), lastVal, "back row should have been moved into the freed slot")
}

// TestForeachCoverage covers testable property 17: foreach only visits
// slabs matching the predicate, with the correct snapshot length.
func TestForeachCoverage(t *testing.T) {
	w, s := newTestWorld()
	defer s.Shutdown()
	ctx := context.Background()

	flagsA := Flags(0).WithEntityBit()
	flagsA.Set(compPosition)

	flagsB := Flags(0).WithEntityBit()
	flagsB.Set(compMarker)

	for i := 0; i < 10; i++ {
		w.Create(ctx, flagsA)
	}
	for i := 0; i < 5; i++ {
		w.Create(ctx, flagsB)
	}

	var mu sync.Mutex
	visited := 0
	total := 0
	only := Flags(0)
	only.Set(compPosition)
	w.Foreach(ctx, only, Flags(0), func(rows map[ComponentID]Row, length int) {
		mu.Lock()
		visited++
		total += length
		mu.Unlock()
		_, ok := rows[compMarker]
		require.False(t, ok, "slab without compMarker should not carry its row")
	})
	require.Equal(t, 1, visited)
	require.Equal(t, 10, total)
}

// TestCreateDestroyAtScale covers scenario S6.
func TestCreateDestroyAtScale(t *testing.T) {
	w, s := newTestWorld()
	defer s.Shutdown()
	ctx := context.Background()

	flags := Flags(0).WithEntityBit()
	flags.Set(compMarker)

	const n = 10_000
	ents := make([]Entity, n)
	for i := range ents {
		ents[i] = w.Create(ctx, flags)
	}

	for i := 0; i < n; i += 2 {
		w.Destroy(ents[i])
	}

	var mu sync.Mutex
	sum := 0
	w.Foreach(ctx, Flags(0), Flags(0), func(rows map[ComponentID]Row, length int) {
		mu.Lock()
		sum += length
		mu.Unlock()
	})
	require.Equal(t, n/2, sum)

	for i := 0; i < n; i++ {
		if i%2 == 0 {
			require.False(t, w.IsCurrent(ents[i]))
		} else {
			require.True(t, w.IsCurrent(ents[i]))
		}
	}
}

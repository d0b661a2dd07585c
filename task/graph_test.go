package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vethanis/pimcore/atomic"
)

// TestGraphRunsInDependencyOrder builds a diamond A -> {B, C} -> D and
// checks every node ran exactly once after its predecessors.
func TestGraphRunsInDependencyOrder(t *testing.T) {
	s := NewScheduler(4)
	defer s.Shutdown()

	g := NewGraph(s)

	var finished atomic.Value[uint32] // bitmask: A=1 B=2 C=4 D=8
	mark := func(bit uint32, preds uint32) Func {
		return func(ctx context.Context, tk *Task, begin, end int32) {
			cur := finished.Load(atomic.Acquire)
			require.Equal(t, preds, cur&preds, "node with bit %d ran before its predecessors", bit)
			finished.FetchOr(bit, atomic.AcqRel)
		}
	}

	g.Register(func() NodeSpec {
		return NodeSpec{Name: "A", Worksize: 1, Fn: mark(1, 0)}
	})
	g.Register(func() NodeSpec {
		return NodeSpec{Name: "B", Preds: []string{"A"}, Worksize: 1, Fn: mark(2, 1)}
	})
	g.Register(func() NodeSpec {
		return NodeSpec{Name: "C", Preds: []string{"A"}, Worksize: 1, Fn: mark(4, 1)}
	})
	g.Register(func() NodeSpec {
		return NodeSpec{Name: "D", Preds: []string{"B", "C"}, Worksize: 1, Fn: mark(8, 6)}
	})

	require.NoError(t, g.Update(context.Background()))
	require.EqualValues(t, 15, finished.Load(atomic.Acquire))
}

func TestGraphDetectsCycle(t *testing.T) {
	s := NewScheduler(2)
	defer s.Shutdown()

	g := NewGraph(s)
	noop := func(ctx context.Context, tk *Task, begin, end int32) {}
	g.Register(func() NodeSpec { return NodeSpec{Name: "A", Preds: []string{"B"}, Worksize: 1, Fn: noop} })
	g.Register(func() NodeSpec { return NodeSpec{Name: "B", Preds: []string{"A"}, Worksize: 1, Fn: noop} })

	err := g.Update(context.Background())
	require.Error(t, err)
}

func TestGraphUnknownPredecessor(t *testing.T) {
	s := NewScheduler(2)
	defer s.Shutdown()

	g := NewGraph(s)
	noop := func(ctx context.Context, tk *Task, begin, end int32) {}
	g.Register(func() NodeSpec { return NodeSpec{Name: "A", Preds: []string{"ghost"}, Worksize: 1, Fn: noop} })

	err := g.Update(context.Background())
	require.Error(t, err)
}

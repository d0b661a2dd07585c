package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NodeSpec is what a Generator emits each frame: the work function, its
// worksize, and the names of nodes that must complete before it may run.
type NodeSpec struct {
	Name     string
	Preds    []string
	Worksize int32
	Fn       Func
}

// Generator produces one NodeSpec per Graph.Update call.
type Generator func() NodeSpec

// graphNode is one resolved, scheduled node of a single Update pass. id
// gives this particular run of the node a comparable identity for log
// fields and metrics labels, distinct from one Update pass to the next
// even when Name is reused frame over frame.
type graphNode struct {
	id   uuid.UUID
	spec NodeSpec
	task *Task
}

// Graph is the higher-level layer over Scheduler: named generators
// produce nodes with predecessor dependencies, resolved into a DAG each
// Update, then driven to completion one node at a time in topological
// order, handing each node's worksize to the scheduler's whole worker
// pool the way a single reference-engine worker drives its task graph
// (original_source/src/threading/taskgraph.cpp's ExecuteGraph: for each
// node in the topo-sorted work list, await its predecessors, then run
// it — see the design notes for why a single driver suffices here
// instead of replicating that file's dedicated worker-pool loop).
type Graph struct {
	scheduler  *Scheduler
	generators []Generator
}

func NewGraph(s *Scheduler) *Graph {
	return &Graph{scheduler: s}
}

// Register adds a generator to the graph. Order of registration has no
// effect on execution order, which Update derives from predecessor names.
func (g *Graph) Register(gen Generator) {
	g.generators = append(g.generators, gen)
}

// Update queries every generator, resolves predecessor names, verifies
// the result is acyclic via a tri-state DFS, topologically sorts it,
// then runs each node in that order, handing its worksize to the whole
// scheduler worker pool via Run before moving to the next node. Because
// nodes run strictly in dependency order — each one's Run only returns
// once every worker has finished its share — a node's predecessors are
// always complete by the time it starts, with no separate predecessor
// wait needed.
func (g *Graph) Update(ctx context.Context) error {
	specs := make([]NodeSpec, len(g.generators))
	for i, gen := range g.generators {
		specs[i] = gen()
	}

	index := make(map[string]int, len(specs))
	for i, sp := range specs {
		if _, dup := index[sp.Name]; dup {
			return errors.Errorf("task: duplicate node name %q", sp.Name)
		}
		index[sp.Name] = i
	}

	nodes := make([]*graphNode, len(specs))
	preds := make([][]int, len(specs))
	for i, sp := range specs {
		nodes[i] = &graphNode{id: uuid.New(), spec: sp, task: New(sp.Fn)}
	}
	for i, sp := range specs {
		for _, name := range sp.Preds {
			j, ok := index[name]
			if !ok {
				return errors.Errorf("task: node %q references unknown predecessor %q", sp.Name, name)
			}
			preds[i] = append(preds[i], j)
		}
	}

	order, err := topoSort(preds)
	if err != nil {
		return err
	}

	for _, idx := range order {
		n := nodes[idx]
		log.Debug().Str("node", n.spec.Name).Str("run_id", n.id.String()).Msg("graph node running")
		g.scheduler.Run(ctx, n.task, n.spec.Fn, n.spec.Worksize)
	}
	return nil
}

const (
	dfsUnseen = iota
	dfsInProgress
	dfsDone
)

// topoSort returns node indices in dependency order (every predecessor
// before its dependents), detecting cycles with a tri-state DFS: revisiting
// an in-progress node is a cycle, revisiting a done node is a no-op.
func topoSort(preds [][]int) ([]int, error) {
	n := len(preds)
	state := make([]int, n)
	order := make([]int, 0, n)

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case dfsDone:
			return nil
		case dfsInProgress:
			return errors.Errorf("task: dependency cycle detected at node %d", i)
		}
		state[i] = dfsInProgress
		for _, p := range preds[i] {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[i] = dfsDone
		order = append(order, i)
		return nil
	}

	for i := 0; i < n; i++ {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

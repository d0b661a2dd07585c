package alloc

import "github.com/vethanis/pimcore/syncx"

// threadPools holds one permPool per worker id, created lazily on first
// use. A Thread allocation may only be freed by the same tid that
// allocated it; System.Free enforces this against Block.Tid.
type threadPools struct {
	mu    syncx.Mutex
	pools map[int32]*permPool
}

func newThreadPools() *threadPools {
	return &threadPools{pools: make(map[int32]*permPool)}
}

func (t *threadPools) poolFor(tid int32) *permPool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pools[tid]
	if !ok {
		p = newPermPool()
		t.pools[tid] = p
	}
	return p
}

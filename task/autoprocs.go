package task

import (
	"runtime"

	"go.uber.org/automaxprocs/maxprocs"
)

func init() {
	// right-sizes runtime.GOMAXPROCS to the enclosing cgroup's CPU quota;
	// a no-op outside a container. Logging failures are swallowed since a
	// bad cgroup read should not block the scheduler from starting with
	// whatever GOMAXPROCS the runtime already picked.
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		log.Debug().Err(err).Msg("automaxprocs: could not adjust GOMAXPROCS")
	}
}

func autoWorkerCount() int {
	return runtime.GOMAXPROCS(0)
}

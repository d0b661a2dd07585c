package intrin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimestampMonotonic(t *testing.T) {
	a := Timestamp()
	b := Timestamp()
	require.LessOrEqual(t, a, b)
}

func TestSpinGrows(t *testing.T) {
	// Spin must return for both small and large backoff counts without
	// hanging; this is primarily a liveness smoke test.
	Spin(0)
	Spin(1)
	Spin(100)
}

package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeHashDeterministic(t *testing.T) {
	parent := Hash{1, 2, 3}
	h1 := ComputeHash(&parent, 5, []byte("payload"))
	h2 := ComputeHash(&parent, 5, []byte("payload"))
	require.Equal(t, h1, h2)
}

func TestComputeHashDistinguishesFields(t *testing.T) {
	parent := Hash{1, 2, 3}
	base := ComputeHash(&parent, 5, []byte("payload"))

	require.NotEqual(t, base, ComputeHash(nil, 5, []byte("payload")), "nil vs non-nil parent must differ")
	require.NotEqual(t, base, ComputeHash(&parent, 6, []byte("payload")), "epoch must be part of the preimage")
	require.NotEqual(t, base, ComputeHash(&parent, 5, []byte("other")), "payload must be part of the preimage")
}

func TestLeaderIsStableAndInRange(t *testing.T) {
	const n = 7
	for e := uint64(0); e < 50; e++ {
		l := Leader(e, n)
		require.GreaterOrEqual(t, l, 0)
		require.Less(t, l, n)
		require.Equal(t, l, Leader(e, n), "leader(e) must be deterministic")
	}
}

func TestLeaderVariesAcrossEpochs(t *testing.T) {
	const n = 11
	seen := map[int]bool{}
	for e := uint64(0); e < 30; e++ {
		seen[Leader(e, n)] = true
	}
	require.Greater(t, len(seen), 1, "leader schedule should not be constant across epochs")
}

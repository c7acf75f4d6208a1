package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tklenze/streamletsim/crypto"
)

func newTestTree() *Tree {
	return New(nil)
}

func TestHighestNotarizedStartsAtGenesis(t *testing.T) {
	tr := newTestTree()
	require.Equal(t, tr.Genesis(), tr.HighestNotarized())
	require.Equal(t, tr.Genesis(), tr.HighestFinalized())
}

func TestValidateAndExtendRequiresKnownParent(t *testing.T) {
	tr := newTestTree()
	unknownParent := crypto.Hash{9, 9}
	b := New(&unknownParent, 1, []byte("x"), "1/0", 1)
	require.False(t, tr.ValidateAndExtend(b, unknownParent))
}

func TestValidateAndExtendAddsToEpochIndex(t *testing.T) {
	tr := newTestTree()
	parent := tr.Genesis()
	b := New(&parent, 1, []byte("x"), "1/0", 1)
	require.True(t, tr.ValidateAndExtend(b, parent))
	require.Equal(t, 1, tr.BlockCountAtEpoch(1))
	require.True(t, tr.Contains(b.Hash))
}

func TestNotarizeRequiresStrictSupermajority(t *testing.T) {
	const n = 4 // 2n/3 = 2.667, so 2 votes insufficient, 3 suffice
	tr := newTestTree()
	parent := tr.Genesis()
	b := New(&parent, 1, []byte("x"), "1/0", 1)
	require.True(t, tr.ValidateAndExtend(b, parent))

	tr.RecordVote(b.Hash, 0)
	tr.RecordVote(b.Hash, 1)
	require.False(t, tr.Notarize(b.Hash, n), "2 of 4 votes must not notarize")

	tr.RecordVote(b.Hash, 2)
	require.True(t, tr.Notarize(b.Hash, n), "3 of 4 votes must notarize")
	require.True(t, tr.IsNotarized(b.Hash))
}

// TestNotarizeRejectsExactlyTwoThirds covers n divisible by 3, where
// float-based thresholding would wrongly accept |votes| = 2n/3 exactly.
func TestNotarizeRejectsExactlyTwoThirds(t *testing.T) {
	const n = 6 // 2n/3 = 4 exactly: 4 votes must not notarize, 5 must
	tr := newTestTree()
	parent := tr.Genesis()
	b := New(&parent, 1, []byte("x"), "1/0", 1)
	require.True(t, tr.ValidateAndExtend(b, parent))

	for voter := 0; voter < 4; voter++ {
		tr.RecordVote(b.Hash, voter)
	}
	require.False(t, tr.Notarize(b.Hash, n), "4 of 6 votes (exactly 2n/3) must not notarize")

	tr.RecordVote(b.Hash, 4)
	require.True(t, tr.Notarize(b.Hash, n), "5 of 6 votes must notarize")
}

func TestNotarizeIsIdempotent(t *testing.T) {
	const n = 3
	tr := newTestTree()
	parent := tr.Genesis()
	b := New(&parent, 1, []byte("x"), "1/0", 1)
	tr.ValidateAndExtend(b, parent)
	tr.RecordVote(b.Hash, 0)
	tr.RecordVote(b.Hash, 1)
	tr.RecordVote(b.Hash, 2)
	require.True(t, tr.Notarize(b.Hash, n))
	require.False(t, tr.Notarize(b.Hash, n), "already-notarized block notarizes again as a no-op")
}

// buildNotarizedChain links three blocks of consecutive epochs onto genesis and
// notarizes all three, which is the precondition for finalizing the
// middle block.
func buildNotarizedChain(t *testing.T, tr *Tree, n int) (b1, b2, b3 *Block) {
	t.Helper()
	parent := tr.Genesis()
	b1 = New(&parent, 1, []byte("1"), "1/0", 1)
	require.True(t, tr.ValidateAndExtend(b1, parent))
	b2 = New(&b1.Hash, 2, []byte("2"), "2/0", 2)
	require.True(t, tr.ValidateAndExtend(b2, b1.Hash))
	b3 = New(&b2.Hash, 3, []byte("3"), "3/0", 3)
	require.True(t, tr.ValidateAndExtend(b3, b2.Hash))

	for _, b := range []*Block{b1, b2, b3} {
		for voter := 0; voter < n; voter++ {
			tr.RecordVote(b.Hash, voter)
		}
		require.True(t, tr.Notarize(b.Hash, n))
	}
	return
}

func TestFinalizeThreeConsecutiveNotarizedEpochs(t *testing.T) {
	const n = 4
	tr := newTestTree()
	b1, b2, b3 := buildNotarizedChain(t, tr, n)

	tr.Finalize(b2.Hash, b3.Epoch-1)

	require.True(t, tr.IsFinalized(b1.Hash))
	require.True(t, tr.IsFinalized(b2.Hash))
	require.True(t, tr.IsFinalized(tr.Genesis()))
	require.False(t, tr.IsFinalized(b3.Hash), "finalize only walks up from the argument block")
	require.Equal(t, b2.Hash, tr.HighestFinalized())
}

func TestFinalizeRejectsNonConsecutiveEpochs(t *testing.T) {
	const n = 4
	tr := newTestTree()
	parent := tr.Genesis()
	b1 := New(&parent, 1, []byte("1"), "1/0", 1)
	require.True(t, tr.ValidateAndExtend(b1, parent))
	// Skip an epoch: b2 is epoch 5, not 2.
	b2 := New(&b1.Hash, 5, []byte("2"), "5/0", 2)
	require.True(t, tr.ValidateAndExtend(b2, b1.Hash))

	for _, b := range []*Block{b1, b2} {
		for voter := 0; voter < n; voter++ {
			tr.RecordVote(b.Hash, voter)
		}
		tr.Notarize(b.Hash, n)
	}

	tr.Finalize(b1.Hash, b2.Epoch-1)
	require.False(t, tr.IsFinalized(b1.Hash), "non-consecutive epochs must not finalize")
}

func TestChainReturnsIncreasingEpochOrder(t *testing.T) {
	const n = 4
	tr := newTestTree()
	b1, b2, _ := buildNotarizedChain(t, tr, n)
	tr.Finalize(b2.Hash, b2.Epoch)

	chain := tr.Chain()
	require.Len(t, chain, 3) // genesis, b1, b2
	for i := 1; i < len(chain); i++ {
		require.Greater(t, chain[i].Epoch, chain[i-1].Epoch)
	}
}

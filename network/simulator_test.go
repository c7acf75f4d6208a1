package network

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tklenze/streamletsim/consistency"
	"github.com/tklenze/streamletsim/internal/diagnostics"
	"github.com/tklenze/streamletsim/simconfig"
)

func testSeed() [32]byte {
	var seed [32]byte
	copy(seed[:], []byte("network simulator test seed"))
	return seed
}

func testLog() *diagnostics.Log {
	return diagnostics.New(io.Discard, "test")
}

func TestRunSimpleFinalizesUnderFullHonesty(t *testing.T) {
	net, err := New(4, testSeed(), testLog())
	require.NoError(t, err)

	net.RunSimple(20)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	require.True(t, report.Safe())
	require.NotEqual(t, net.Nodes[0].Tree.Genesis(), net.Nodes[0].Tree.HighestFinalized(),
		"20 honest epochs should finalize well past genesis")
}

func TestRunSimpleIsDeterministic(t *testing.T) {
	net1, err := New(4, testSeed(), testLog())
	require.NoError(t, err)
	net1.RunSimple(15)

	net2, err := New(4, testSeed(), testLog())
	require.NoError(t, err)
	net2.RunSimple(15)

	for i := range net1.Nodes {
		require.Equal(t, net1.Nodes[i].Tree.HighestFinalized(), net2.Nodes[i].Tree.HighestFinalized())
	}
}

func TestRunReorderStaysSafe(t *testing.T) {
	net, err := New(4, testSeed(), testLog())
	require.NoError(t, err)
	net.RunReorder(30)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	require.True(t, report.Safe())
}

func TestRunDelaysThenSynchronyStaysSafe(t *testing.T) {
	net, err := New(4, testSeed(), testLog())
	require.NoError(t, err)
	net.RunDelaysThenSynchrony(40, 0.5)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	require.True(t, report.Safe())
}

func TestByzantineMinorityCannotBreakSafety(t *testing.T) {
	adversary, err := simconfig.NewFlagSet(simconfig.Equivocate, simconfig.VoteEverything)
	require.NoError(t, err)

	net, err := NewByzantine(7, adversary, testSeed(), testLog())
	require.NoError(t, err)
	net.RunReorder(40)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	require.True(t, report.Safe(), "a minority of byzantine validators must not break honest safety")
}

func TestByzantineFailStopStaysSafe(t *testing.T) {
	adversary, err := simconfig.NewFlagSet(simconfig.FailStop)
	require.NoError(t, err)

	net, err := NewByzantine(6, adversary, testSeed(), testLog())
	require.NoError(t, err)
	net.RunSimple(30)

	report := consistency.Check(net.Nodes, net.HonestIDs())
	require.True(t, report.Safe())
}

func TestHonestIDsExcludesByzantineMinority(t *testing.T) {
	adversary, err := simconfig.NewFlagSet(simconfig.FailStop)
	require.NoError(t, err)

	net, err := NewByzantine(9, adversary, testSeed(), testLog())
	require.NoError(t, err)

	honestCount := int(2.0 / 3.0 * 9.0)
	require.Len(t, net.HonestIDs(), honestCount)
}

// Package simconfig holds the tunable parameters of a simulation run:
// protocol-wide size limits, the adversarial behavior flags a byzantine
// validator can combine, and the options the CLI driver assembles
// before constructing a network.
package simconfig

import "fmt"

// MaxBlockTxsLength bounds a block's total transaction payload.
const MaxBlockTxsLength = 10000

// MaxSingleTxLength bounds a single transaction accepted into the pool.
const MaxSingleTxLength = 2000

// Flag names one adversarial behavior a byzantine validator may exhibit.
type Flag string

const (
	FailStop           Flag = "fail_stop"
	AlwaysLeader       Flag = "always_leader"
	VoteEverything     Flag = "vote_everything"
	Equivocate         Flag = "equivocate"
	FakeBlockSignature Flag = "fake_block_signature"
)

var allFlags = map[Flag]struct{}{
	FailStop:           {},
	AlwaysLeader:       {},
	VoteEverything:     {},
	Equivocate:         {},
	FakeBlockSignature: {},
}

// FlagSet is a combinable set of adversarial behaviors. The zero value
// is the empty set, i.e. a fully honest validator.
type FlagSet map[Flag]struct{}

// NewFlagSet builds a FlagSet from the given flags, returning an error
// if any name is not recognized.
func NewFlagSet(flags ...Flag) (FlagSet, error) {
	fs := FlagSet{}
	for _, f := range flags {
		if _, ok := allFlags[f]; !ok {
			return nil, fmt.Errorf("unknown adversary flag %q", f)
		}
		fs[f] = struct{}{}
	}
	return fs, nil
}

// Has reports whether f is set.
func (fs FlagSet) Has(f Flag) bool {
	_, ok := fs[f]
	return ok
}

// Options configures a Network and the validators within it.
type Options struct {
	N          int
	EpochLimit int
	Seed       [32]byte
	Adversary  FlagSet
	DelayFrac  float64 // only used by the delays-then-synchrony regime
}

// DefaultOptions returns a small honest-only run: 4 validators, 20
// epochs, no adversary.
func DefaultOptions() *Options {
	return &Options{
		N:          4,
		EpochLimit: 20,
		Adversary:  FlagSet{},
		DelayFrac:  0.5,
	}
}

// Validate checks that o describes a runnable simulation: enough
// validators to reach a strict two-thirds quorum, a positive epoch
// limit, and a delay fraction that is a probability.
func (o *Options) Validate() error {
	if o.N < 1 {
		return fmt.Errorf("n must be at least 1, got %d", o.N)
	}
	if o.EpochLimit < 1 {
		return fmt.Errorf("epoch limit must be at least 1, got %d", o.EpochLimit)
	}
	if o.DelayFrac < 0 || o.DelayFrac > 1 {
		return fmt.Errorf("delay fraction must be within [0, 1], got %f", o.DelayFrac)
	}
	for f := range o.Adversary {
		if _, ok := allFlags[f]; !ok {
			return fmt.Errorf("unknown adversary flag %q", f)
		}
	}
	return nil
}

// RoundRobinTransactions generates count demo transactions of the form
// "This is transaction number i", for i from 0 to count-1 in order:
// simple, deterministic filler payload for the tx pool and the
// block-building path. It does not assign them to validators.
func RoundRobinTransactions(count int) []string {
	txs := make([]string, count)
	for i := 0; i < count; i++ {
		txs[i] = fmt.Sprintf("This is transaction number %d", i)
	}
	return txs
}

// Package consistency implements the simulation's safety oracle: after
// a run completes, it checks that every honest validator's local view
// of "finalized" agrees internally and agrees with its peers.
package consistency

import (
	"fmt"

	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/validator"
)

// Report is the result of checking a set of honest validators.
type Report struct {
	ChainEqualsSet bool             // each node's finalized chain == its finalized set, for every node
	PrefixOK       bool             // every pair of finalized chains is prefix-comparable
	Violations     []string         // human-readable description of each failure found
	Chains         map[int][]string // node id -> finalized chain, as block names, for display
}

// Check runs both safety criteria over nodes (only honestIDs are
// examined; a byzantine validator's local view carries no safety
// guarantee and checking it would only produce noise).
func Check(nodes []*validator.Validator, honestIDs []int) Report {
	r := Report{ChainEqualsSet: true, PrefixOK: true, Chains: map[int][]string{}}

	chains := map[int][]*crypto.Hash{}
	for _, id := range honestIDs {
		chain := nodes[id].Tree.Chain()
		hashes := make([]*crypto.Hash, len(chain))
		names := make([]string, len(chain))
		for i, b := range chain {
			h := b.Hash
			hashes[i] = &h
			names[i] = b.Name
		}
		chains[id] = hashes
		r.Chains[id] = names

		onChain := map[crypto.Hash]bool{}
		for _, h := range hashes {
			onChain[*h] = true
		}
		for h := range onChain {
			if !nodes[id].Tree.IsFinalized(h) {
				r.ChainEqualsSet = false
				r.Violations = append(r.Violations, fmt.Sprintf(
					"node %d: chain block %s not present in its own finalized set", id, h))
			}
		}

		for _, h := range nodes[id].Tree.FinalizedHashes() {
			if !onChain[h] {
				r.ChainEqualsSet = false
				r.Violations = append(r.Violations, fmt.Sprintf(
					"node %d: finalized block %s is off its own finalized chain", id, h))
			}
		}
	}

	for i := 0; i < len(honestIDs); i++ {
		for j := i + 1; j < len(honestIDs); j++ {
			a, b := chains[honestIDs[i]], chains[honestIDs[j]]
			if !isPrefixCompatible(a, b) {
				r.PrefixOK = false
				r.Violations = append(r.Violations, fmt.Sprintf(
					"node %d and node %d have conflicting finalized chains", honestIDs[i], honestIDs[j]))
			}
		}
	}

	return r
}

// isPrefixCompatible reports whether one of a, b is a prefix of the
// other, i.e. they never disagree about a block at the same position.
func isPrefixCompatible(a, b []*crypto.Hash) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if *a[i] != *b[i] {
			return false
		}
	}
	return true
}

// Safe reports whether the run violated no safety property.
func (r Report) Safe() bool {
	return r.ChainEqualsSet && r.PrefixOK
}

package block

import (
	"fmt"
	"io"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/internal/diagnostics"
)

// Tree is the block DAG a single validator maintains: every block it
// has ever seen, who has voted for each, and which are notarized or
// finalized. Genesis is inserted pre-notarized and pre-finalized, which
// is what lets the very first epoch's proposal have something to
// extend and finalize against.
type Tree struct {
	genesis      crypto.Hash
	blocks       map[crypto.Hash]*Block
	votes        map[crypto.Hash]mapset.Set[int]
	notarized    mapset.Set[crypto.Hash]
	finalized    mapset.Set[crypto.Hash]
	blockByEpoch []mapset.Set[crypto.Hash]
	log          *diagnostics.NodeLogger
}

// New builds a Tree seeded with the genesis block. log receives the
// tree's diagnostic lines; a nil log disables them.
func New(log *diagnostics.NodeLogger) *Tree {
	g := Genesis()
	gset := mapset.NewThreadUnsafeSet(g.Hash)
	return &Tree{
		genesis:      g.Hash,
		blocks:       map[crypto.Hash]*Block{g.Hash: g},
		votes:        map[crypto.Hash]mapset.Set[int]{},
		notarized:    gset.Clone(),
		finalized:    gset.Clone(),
		blockByEpoch: []mapset.Set[crypto.Hash]{gset},
		log:          log,
	}
}

// Genesis returns the hash of the genesis block.
func (t *Tree) Genesis() crypto.Hash { return t.genesis }

// Contains reports whether h is already part of the tree.
func (t *Tree) Contains(h crypto.Hash) bool {
	_, ok := t.blocks[h]
	return ok
}

// Get returns the block for h, or nil if unknown.
func (t *Tree) Get(h crypto.Hash) *Block {
	return t.blocks[h]
}

// ParentOf returns the parent hash of h, or nil if h is unknown or is
// genesis.
func (t *Tree) ParentOf(h crypto.Hash) *crypto.Hash {
	b, ok := t.blocks[h]
	if !ok {
		return nil
	}
	return b.ParentHash
}

func (t *Tree) ensureEpoch(e uint64) {
	for uint64(len(t.blockByEpoch)) <= e {
		t.blockByEpoch = append(t.blockByEpoch, mapset.NewThreadUnsafeSet[crypto.Hash]())
	}
}

// BlockCountAtEpoch returns how many distinct blocks the tree has seen
// proposed at epoch e. Used by the one-vote-per-epoch rule: an honest
// validator only votes when this is exactly 1.
func (t *Tree) BlockCountAtEpoch(e uint64) int {
	if e >= uint64(len(t.blockByEpoch)) {
		return 0
	}
	return t.blockByEpoch[e].Cardinality()
}

// ValidateAndExtend validates b structurally and, if valid (or already
// present), links it under parentHash and indexes it by epoch.
// Precondition: parentHash must already be in the tree.
func (t *Tree) ValidateAndExtend(b *Block, parentHash crypto.Hash) bool {
	if !b.Valid() && !t.Contains(b.Hash) {
		return false
	}
	parent, ok := t.blocks[parentHash]
	if !ok {
		return false
	}
	parent.Children.Add(b.Hash)
	t.ensureEpoch(b.Epoch)
	t.blockByEpoch[b.Epoch].Add(b.Hash)
	t.blocks[b.Hash] = b
	if t.log != nil {
		t.log.Debug("added block " + b.String() + " after " + parent.String())
	}
	return true
}

// HighestNotarized returns the notarized block with the highest epoch,
// found by scanning blockByEpoch backwards. Genesis is always a safe
// fallback since it starts out notarized.
func (t *Tree) HighestNotarized() crypto.Hash {
	for e := len(t.blockByEpoch) - 1; e >= 0; e-- {
		for h := range t.blockByEpoch[e].Iter() {
			if t.notarized.Contains(h) {
				return h
			}
		}
	}
	return t.genesis
}

// HighestFinalized returns the finalized block with the highest epoch.
func (t *Tree) HighestFinalized() crypto.Hash {
	for e := len(t.blockByEpoch) - 1; e >= 0; e-- {
		for h := range t.blockByEpoch[e].Iter() {
			if t.finalized.Contains(h) {
				return h
			}
		}
	}
	return t.genesis
}

// RecordVote adds voter to h's vote set, creating it if absent. Returns
// false if voter had already voted for h (a no-op duplicate).
func (t *Tree) RecordVote(h crypto.Hash, voter int) bool {
	set, ok := t.votes[h]
	if !ok {
		set = mapset.NewThreadUnsafeSet[int]()
		t.votes[h] = set
	}
	if set.Contains(voter) {
		return false
	}
	set.Add(voter)
	return true
}

// HasVoted reports whether voter has already voted for h.
func (t *Tree) HasVoted(h crypto.Hash, voter int) bool {
	set, ok := t.votes[h]
	return ok && set.Contains(voter)
}

// VoteCount returns the number of distinct votes recorded for h.
func (t *Tree) VoteCount(h crypto.Hash) int {
	set, ok := t.votes[h]
	if !ok {
		return 0
	}
	return set.Cardinality()
}

// Notarize marks h notarized if it has a strict supermajority (> 2n/3)
// of votes, returning whether it just became notarized (false if it was
// already notarized, unknown, or under-voted).
func (t *Tree) Notarize(h crypto.Hash, n int) bool {
	if !t.Contains(h) || t.notarized.Contains(h) {
		return false
	}
	if 3*t.VoteCount(h) <= 2*n {
		return false
	}
	t.notarized.Add(h)
	return true
}

// IsNotarized reports whether h is notarized.
func (t *Tree) IsNotarized(h crypto.Hash) bool {
	return t.notarized.Contains(h)
}

// IsFinalized reports whether h is finalized.
func (t *Tree) IsFinalized(h crypto.Hash) bool {
	return t.finalized.Contains(h)
}

// FinalizedHashes returns every hash currently in the finalized set, in
// no particular order. Used by the consistency oracle to check that the
// finalized set contains nothing beyond the finalized chain, not just
// the reverse.
func (t *Tree) FinalizedHashes() []crypto.Hash {
	return t.finalized.ToSlice()
}

// FinalizedCount returns the size of the finalized set.
func (t *Tree) FinalizedCount() int {
	return t.finalized.Cardinality()
}

// Finalize attempts to finalize the notarized block h, whose notarized
// child is at epoch e+1 by precondition. h and its ancestors finalize
// together when h, h's parent, and h's notarized child form three
// blocks at consecutive epochs; ancestors are then finalized up the
// chain until one already is.
func (t *Tree) Finalize(h crypto.Hash, e uint64) {
	if t.finalized.Contains(h) {
		return
	}
	b, ok := t.blocks[h]
	if !ok || b.ParentHash == nil {
		return
	}
	parent, ok := t.blocks[*b.ParentHash]
	if !ok || !t.notarized.Contains(*b.ParentHash) {
		return
	}
	if !t.notarized.Contains(h) {
		return
	}
	if b.Epoch != e || parent.Epoch+1 != e {
		return
	}
	cur := h
	for !t.finalized.Contains(cur) {
		t.finalized.Add(cur)
		blk := t.blocks[cur]
		if blk.ParentHash == nil {
			break
		}
		cur = *blk.ParentHash
	}
}

// Chain returns the finalized chain from genesis to the highest
// finalized block, in increasing-epoch order.
func (t *Tree) Chain() []*Block {
	tip := t.HighestFinalized()
	var rev []*Block
	cur := tip
	for {
		b := t.blocks[cur]
		rev = append(rev, b)
		if b.ParentHash == nil {
			break
		}
		cur = *b.ParentHash
	}
	chain := make([]*Block, len(rev))
	for i, b := range rev {
		chain[len(rev)-1-i] = b
	}
	return chain
}

// Dump writes a recursive, indented rendering of the tree rooted at
// genesis to w: debugging aid only, not part of the protocol.
func (t *Tree) Dump(w io.Writer) {
	t.dumpRec(w, t.genesis, 0)
}

func (t *Tree) dumpRec(w io.Writer, h crypto.Hash, depth int) {
	b := t.blocks[h]
	notarized, finalized := "", ""
	if t.notarized.Contains(h) {
		notarized = " NOTARIZED"
	}
	if t.finalized.Contains(h) {
		finalized = " FINALIZED"
	}
	parent := "XX"
	if b.ParentHash != nil {
		parent = fmt.Sprintf("%x", b.ParentHash[:2])
	}
	fmt.Fprintf(w, "%s%s (%s), parent: %s.%s%s\n",
		strings.Repeat("    ", depth), b, b.shortHash(), parent, notarized, finalized)
	for c := range b.Children.Iter() {
		t.dumpRec(w, c, depth+1)
	}
}

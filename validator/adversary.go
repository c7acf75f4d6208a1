package validator

import (
	"fmt"

	"github.com/tklenze/streamletsim/block"
	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/message"
	"github.com/tklenze/streamletsim/simconfig"
)

// proposeAdversarial handles the two misbehaviors that change what gets
// proposed rather than just when: equivocate (propose two sibling
// blocks, split across peers by parity) and fake_block_signature
// (sign with an empty, unverifiable signature attributed to signer 0).
// The two combine freely: an equivocating proposal can also carry fake
// signatures.
func (v *Validator) proposeAdversarial(e uint64) {
	parentHash := v.Tree.HighestNotarized()
	parent := v.Tree.Get(parentHash)

	name := fmt.Sprintf("%d/%d", e, v.ID)
	if v.Misbehavior.Has(simconfig.Equivocate) {
		name += " equivocate #1"
	}

	block1 := block.New(&parentHash, e, []byte("1"), name, parent.Height+1)
	v.Tree.ValidateAndExtend(block1, parentHash)
	sig1 := v.adversarialSign(block1.Hash)
	msg1 := &message.BlockProposal{
		Creator: v.ID, ParentHash: &parentHash, Epoch: e,
		Txs: block1.Txs, Name: name, Signer: v.ID, Signature: sig1,
	}

	if !v.Misbehavior.Has(simconfig.Equivocate) {
		v.broadcast(msg1)
	} else {
		name2 := fmt.Sprintf("%d/%d equivocate #2", e, v.ID)
		block2 := block.New(&parentHash, e, []byte("2"), name2, parent.Height+1)
		v.Tree.ValidateAndExtend(block2, parentHash)
		sig2 := v.adversarialSign(block2.Hash)
		msg2 := &message.BlockProposal{
			Creator: v.ID, ParentHash: &parentHash, Epoch: e,
			Txs: block2.Txs, Name: name2, Signer: v.ID, Signature: sig2,
		}
		v.log.Debug(fmt.Sprintf("equivocating: proposing %s and %s", block1, block2))
		v.Tree.RecordVote(block2.Hash, v.ID)
		v.equivocateMessage(msg1, msg2)
	}

	v.Tree.RecordVote(block1.Hash, v.ID)
}

// adversarialSign returns a real signature unless fake_block_signature
// is set, in which case it returns an empty signature attributed to
// signer 0 — a forgery that always fails verification.
func (v *Validator) adversarialSign(h crypto.Hash) crypto.Signature {
	if v.Misbehavior.Has(simconfig.FakeBlockSignature) {
		return crypto.Signature{Signer: 0, Bytes: nil}
	}
	return v.Oracle.Sign(v.ID, crypto.TypeBlockProposal, h)
}

// equivocateMessage sends m1 to even-numbered peers and m2 to odd-
// numbered ones, so the network splits into two groups each believing
// a different block is the epoch's proposal.
func (v *Validator) equivocateMessage(m1, m2 message.Envelope) {
	for i := 0; i < v.N; i++ {
		if i == v.ID {
			continue
		}
		if i%2 == 0 {
			v.sendTo(i, m1)
		} else {
			v.sendTo(i, m2)
		}
	}
}

// voteEverythingFor casts a (genuinely, validly signed) vote for m
// regardless of what the honest voting rule would decide: it skips
// both the one-vote-per-epoch equivocation guard and the
// extends-the-highest-notarization check. This deliberately diverges
// from the reference implementation, which reused the proposal's own
// signature bytes under the Vote message type — since signatures are
// domain-separated by MessageType, that produces a vote that fails its
// own verification. A real vote is what "emit a vote even when the
// honest rule would refuse" should mean.
func (v *Validator) voteEverythingFor(m *message.BlockProposal) {
	h := block.New(m.ParentHash, m.Epoch, m.Txs, m.Name, 0).Hash
	v.Tree.RecordVote(h, v.ID)
	v.notarize(h)

	sig := v.Oracle.Sign(v.ID, crypto.TypeVote, h)
	v.broadcast(&message.Vote{
		Creator:    m.Creator,
		ParentHash: m.ParentHash,
		Epoch:      m.Epoch,
		Txs:        m.Txs,
		Name:       m.Name,
		Signer:     v.ID,
		Signature:  sig,
	})
}

package validator

import (
	"fmt"

	"github.com/tklenze/streamletsim/block"
	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/internal/diagnostics"
	"github.com/tklenze/streamletsim/message"
	"github.com/tklenze/streamletsim/simconfig"
)

// NewEpoch is invoked once per epoch by the network driver. If v is the
// epoch's leader (or is configured to always behave as one), it
// proposes a block.
func (v *Validator) NewEpoch(e uint64) {
	if v.Misbehavior.Has(simconfig.FailStop) {
		return
	}
	if v.leader(e) {
		v.proposeBlock(e)
	}
}

// IncomingMessage dispatches m, received from validator from, to the
// handler for its kind. Validators ignore which peer relayed a
// message; only the signed creator/signer fields are trusted.
func (v *Validator) IncomingMessage(m message.Envelope, from int) {
	if v.Misbehavior.Has(simconfig.FailStop) {
		return
	}
	switch msg := m.(type) {
	case *message.BlockProposal:
		v.receiveBlockProposal(msg)
		if v.Misbehavior.Has(simconfig.VoteEverything) {
			v.voteEverythingFor(msg)
		}
	case *message.Vote:
		v.receiveVote(msg)
	}
}

// ProcessUnprocessedPool re-dispatches messages that previously arrived
// before their parent block did. Called once per epoch, after the
// round's message passing completes.
func (v *Validator) ProcessUnprocessedPool() {
	pool := v.unprocessed
	v.unprocessed = nil
	for _, m := range pool {
		v.log.Debug(fmt.Sprintf("processing %T from unprocessed pool", m))
		v.IncomingMessage(m, m.GetCreator())
	}
}

// proposeBlock builds and broadcasts a new block for epoch e, extending
// the highest-notarized block this validator knows of. Adversarial
// equivocation and signature forging branch here; see adversary.go.
func (v *Validator) proposeBlock(e uint64) {
	if v.Misbehavior.Has(simconfig.Equivocate) || v.Misbehavior.Has(simconfig.FakeBlockSignature) {
		v.proposeAdversarial(e)
		return
	}

	v.log.Debug(fmt.Sprintf("I am the leader for epoch %d", e))
	parentHash := v.Tree.HighestNotarized()
	parent := v.Tree.Get(parentHash)

	name := fmt.Sprintf("%d/%d", e, v.ID)
	newBlock := block.New(&parentHash, e, v.buildBlockTxs(), name, parent.Height+1)
	v.Tree.ValidateAndExtend(newBlock, parentHash)
	v.log.Debug(fmt.Sprintf("proposing new block %s, child of %s", newBlock, parent))

	v.Tree.RecordVote(newBlock.Hash, v.ID)

	sig := v.Oracle.Sign(v.ID, crypto.TypeBlockProposal, newBlock.Hash)
	v.broadcast(&message.BlockProposal{
		Creator:    v.ID,
		ParentHash: &parentHash,
		Epoch:      e,
		Txs:        newBlock.Txs,
		Name:       name,
		Signer:     v.ID,
		Signature:  sig,
	})
}

// receiveBlockProposal validates an incoming proposal, extends the
// tree, records the implicit self-vote of the proposer, and casts this
// validator's own vote if the block extends the current highest
// notarization by exactly one.
func (v *Validator) receiveBlockProposal(m *message.BlockProposal) {
	if m.ParentHash == nil {
		v.log.Tagged(diagnostics.TagAttack, "received block with no parent hash")
		return
	}
	parent := v.Tree.Get(*m.ParentHash)
	if parent == nil {
		v.unprocessed = append(v.unprocessed, m)
		return
	}

	if m.Signer != crypto.Leader(m.Epoch, v.N) {
		v.log.Tagged(diagnostics.TagAttack, fmt.Sprintf(
			"received block from %d but leader of epoch %d is %d", m.Signer, m.Epoch, crypto.Leader(m.Epoch, v.N)))
		return
	}

	newBlock := block.New(m.ParentHash, m.Epoch, m.Txs, m.Name, parent.Height+1)
	if v.Tree.Contains(newBlock.Hash) {
		return
	}

	if !v.Oracle.Verify(m.Signer, crypto.TypeBlockProposal, newBlock.Hash, m.Signature) {
		v.log.Tagged(diagnostics.TagAttack, "signature check failed on block proposal")
		return
	}

	if !v.Tree.ValidateAndExtend(newBlock, *m.ParentHash) {
		return
	}

	v.Tree.RecordVote(newBlock.Hash, m.Signer)

	notarizedHeight := v.Tree.Get(v.Tree.HighestNotarized()).Height
	if newBlock.Height == notarizedHeight+1 {
		v.vote(newBlock)
		v.log.Debug(fmt.Sprintf("voting for block %s of height %d", newBlock, newBlock.Height))
	} else {
		v.log.Debug(fmt.Sprintf("not voting for %s of height %d, notarization height is %d",
			newBlock, newBlock.Height, notarizedHeight))
	}

	v.broadcast(m)
}

// vote casts this validator's vote for b, provided b is the only block
// it has seen proposed at b's epoch (the one-vote-per-epoch
// equivocation guard), then attempts notarization and broadcasts the
// vote.
func (v *Validator) vote(b *block.Block) {
	if v.Tree.BlockCountAtEpoch(b.Epoch) > 1 {
		v.log.Debug(fmt.Sprintf("not voting for %s, epoch %d has multiple blocks", b, b.Epoch))
		return
	}
	v.Tree.RecordVote(b.Hash, v.ID)
	v.notarize(b.Hash)

	sig := v.Oracle.Sign(v.ID, crypto.TypeVote, b.Hash)
	v.broadcast(&message.Vote{
		Creator:    v.ID,
		ParentHash: b.ParentHash,
		Epoch:      b.Epoch,
		Txs:        b.Txs,
		Name:       b.Name,
		Signer:     v.ID,
		Signature:  sig,
	})
}

// receiveVote validates an incoming vote, records it (even before the
// corresponding block has arrived, since the block's hash is
// computable from the vote's fields alone), relays it, and attempts
// notarization.
func (v *Validator) receiveVote(m *message.Vote) {
	if m.ParentHash == nil {
		v.log.Tagged(diagnostics.TagAttack, "received vote with no parent hash")
		return
	}
	h := block.New(m.ParentHash, m.Epoch, m.Txs, m.Name, 0).Hash

	if v.Tree.HasVoted(h, m.Signer) {
		return
	}
	if !v.Oracle.Verify(m.Signer, crypto.TypeVote, h, m.Signature) {
		v.log.Tagged(diagnostics.TagAttack, "signature check failed on vote")
		return
	}

	v.Tree.RecordVote(h, m.Signer)
	v.broadcast(m)

	if v.Tree.Contains(h) {
		v.notarize(h)
	}
}

// notarize attempts to notarize h given its accumulated votes, then
// attempts to finalize its parent, whose notarized child (h) is now one
// epoch ahead of it.
func (v *Validator) notarize(h crypto.Hash) {
	if !v.Tree.Notarize(h, v.N) {
		return
	}
	b := v.Tree.Get(h)
	v.log.Debug(fmt.Sprintf("notarizing block %s", b))
	if b.ParentHash == nil {
		v.log.Tagged(diagnostics.TagSoundnessError, fmt.Sprintf("local block %s has no parent", b))
		return
	}
	v.Tree.Finalize(*b.ParentHash, b.Epoch-1)
}

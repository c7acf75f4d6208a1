// Package validator implements the per-node consensus state machine:
// the block-proposal/vote/notarize/finalize protocol every validator
// runs, plus the handful of adversarial deviations a byzantine
// validator can combine. Honest and byzantine validators are the same
// Go type; behavior is a value (a simconfig.FlagSet), not a subclass,
// so there is exactly one state machine to read.
package validator

import (
	"strconv"

	"github.com/tklenze/streamletsim/block"
	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/internal/diagnostics"
	"github.com/tklenze/streamletsim/message"
	"github.com/tklenze/streamletsim/simconfig"
)

// Outbound pairs a message with the validator it is addressed to.
type Outbound struct {
	To  int
	Msg message.Envelope
}

// Validator holds one node's view of the protocol: its block tree, its
// outgoing mailbox, the messages it couldn't yet process, its
// transaction pool, and (if non-empty) the set of adversarial
// behaviors it exhibits.
type Validator struct {
	ID          int
	N           int
	Tree        *block.Tree
	Oracle      *crypto.Oracle
	Misbehavior simconfig.FlagSet

	outgoing    []Outbound
	unprocessed []message.Envelope
	txPool      []string
	log         *diagnostics.NodeLogger
}

// New builds a fully honest validator. Pass a non-empty misbehavior set
// via SetMisbehavior to turn it into a byzantine one.
func New(id, n int, oracle *crypto.Oracle, log *diagnostics.NodeLogger) *Validator {
	return &Validator{
		ID:     id,
		N:      n,
		Tree:   block.New(log),
		Oracle: oracle,
		log:    log,
	}
}

// SetMisbehavior configures v's adversarial behaviors. An empty set (or
// never calling this) makes v fully honest.
func (v *Validator) SetMisbehavior(fs simconfig.FlagSet) {
	v.Misbehavior = fs
}

// IsAdversarial reports whether v exhibits any adversarial behavior.
func (v *Validator) IsAdversarial() bool {
	return len(v.Misbehavior) > 0
}

// ClearOutgoing returns and empties v's outbound mailbox. The network
// calls this once per round to collect what to deliver.
func (v *Validator) ClearOutgoing() []Outbound {
	out := v.outgoing
	v.outgoing = nil
	return out
}

// broadcast queues m for every other validator.
func (v *Validator) broadcast(m message.Envelope) {
	if v.Misbehavior.Has(simconfig.FailStop) {
		return
	}
	for i := 0; i < v.N; i++ {
		if i != v.ID {
			v.outgoing = append(v.outgoing, Outbound{To: i, Msg: m})
		}
	}
}

// sendTo queues m for exactly one recipient, used by the equivocate
// behavior to split a proposal across the validator set.
func (v *Validator) sendTo(to int, m message.Envelope) {
	if v.Misbehavior.Has(simconfig.FailStop) {
		return
	}
	v.outgoing = append(v.outgoing, Outbound{To: to, Msg: m})
}

// leader reports whether v is the leader of epoch e, OR'd with always_leader so
// an adversary configured for it proposes in every epoch regardless of
// the deterministic schedule.
func (v *Validator) leader(e uint64) bool {
	return crypto.Leader(e, v.N) == v.ID || v.Misbehavior.Has(simconfig.AlwaysLeader)
}

// SendTransaction queues tx for inclusion in a future block, rejecting
// it (as a USER_ATTACK) if it exceeds the single-transaction limit.
func (v *Validator) SendTransaction(tx string) {
	if len(tx) > simconfig.MaxSingleTxLength {
		v.log.Tagged(diagnostics.TagUserAttack, "transaction too large, dropping: "+tx)
		return
	}
	v.txPool = append(v.txPool, tx)
}

// buildBlockTxs drains the tx pool into a payload starting with the
// proposer's own id, stopping before the payload would reach
// MaxBlockTxsLength.
func (v *Validator) buildBlockTxs() []byte {
	txs := []byte(strconv.Itoa(v.ID))
	for len(v.txPool) > 0 && len(v.txPool[0])+len(txs) < simconfig.MaxBlockTxsLength {
		txs = append(txs, v.txPool[0]...)
		v.txPool = v.txPool[1:]
	}
	return txs
}

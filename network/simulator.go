// Package network simulates message passing among a fixed set of
// validators: three transport regimes trade off ordering and delivery
// guarantees, but every regime runs exactly three message rounds per
// epoch followed by an unprocessed-pool drain, matching the protocol's
// assumption that an epoch gives each honest message three chances to
// arrive.
package network

import (
	"fmt"
	"math/rand/v2"

	"github.com/tklenze/streamletsim/crypto"
	"github.com/tklenze/streamletsim/internal/diagnostics"
	"github.com/tklenze/streamletsim/simconfig"
	"github.com/tklenze/streamletsim/validator"
)

// Network owns the validator set and the per-receiver message queues
// connecting them.
type Network struct {
	Nodes []*validator.Validator

	n         int
	recvQueue [][]queuedMessage
	epoch     uint64
	rng       *rand.Rand
	log       *diagnostics.Log
}

// New builds a network of n fully honest validators.
func New(n int, seed [32]byte, log *diagnostics.Log) (*Network, error) {
	return build(n, 0, simconfig.FlagSet{}, seed, log)
}

// NewByzantine builds a network where the first floor(2n/3) validators
// are honest and the rest are byzantine, configured with adversary.
func NewByzantine(n int, adversary simconfig.FlagSet, seed [32]byte, log *diagnostics.Log) (*Network, error) {
	honestCount := int(2.0 / 3.0 * float64(n))
	return build(n, honestCount, adversary, seed, log)
}

func build(n, honestCount int, adversary simconfig.FlagSet, seed [32]byte, log *diagnostics.Log) (*Network, error) {
	oracle, err := crypto.NewOracle(seed, n)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	nodes := make([]*validator.Validator, n)
	for i := 0; i < n; i++ {
		nl := log.Node(i)
		val := validator.New(i, n, oracle, nl)
		if i >= honestCount {
			val.SetMisbehavior(adversary)
		}
		nodes[i] = val
	}
	return &Network{
		Nodes:     nodes,
		n:         n,
		recvQueue: make([][]queuedMessage, n),
		rng:       newPRNG(seed),
		log:       log,
	}, nil
}

// sendAll collects every validator's outbound mailbox and enqueues each
// message on its recipient's queue.
func (net *Network) sendAll() {
	for sender := 0; sender < net.n; sender++ {
		for _, ob := range net.Nodes[sender].ClearOutgoing() {
			net.recvQueue[ob.To] = append(net.recvQueue[ob.To], queuedMessage{from: sender, msg: ob.Msg})
		}
	}
}

// recvAll delivers every queued message to its receiver, in the order
// each receiver's queue holds them.
func (net *Network) recvAll() {
	for i := 0; i < net.n; i++ {
		q := net.recvQueue[i]
		net.recvQueue[i] = nil
		for len(q) > 0 {
			var qm queuedMessage
			qm, q = popFront(q)
			net.Nodes[i].IncomingMessage(qm.msg, qm.from)
		}
	}
}

type addressed struct {
	to, from int
	msg      queuedMessage
}

// drainAll moves every queued message out of every receive queue,
// tagged with its destination, and clears the queues.
func (net *Network) drainAll() []addressed {
	var all []addressed
	for i := 0; i < net.n; i++ {
		for _, qm := range net.recvQueue[i] {
			all = append(all, addressed{to: i, from: qm.from, msg: qm})
		}
		net.recvQueue[i] = nil
	}
	return all
}

// recvAllRandomized delivers every queued message, but in an order
// shuffled across all receivers, not just within each one.
func (net *Network) recvAllRandomized() {
	all := net.drainAll()
	shuffle(net.rng, all)
	for _, a := range all {
		net.Nodes[a.to].IncomingMessage(a.msg.msg, a.msg.from)
	}
}

// pickRandomMessages removes a Bernoulli(fraction)-selected subset of
// queued messages from the queues (the rest remain queued, in their
// original order) and returns that subset shuffled. fraction is the
// per-message probability of being picked this round.
func (net *Network) pickRandomMessages(fraction float64) []addressed {
	var picked []addressed
	for i := 0; i < net.n; i++ {
		var remaining []queuedMessage
		for _, qm := range net.recvQueue[i] {
			if fraction > net.rng.Float64() {
				picked = append(picked, addressed{to: i, from: qm.from, msg: qm})
			} else {
				remaining = append(remaining, qm)
			}
		}
		net.recvQueue[i] = remaining
	}
	shuffle(net.rng, picked)
	return picked
}

func (net *Network) newEpochAll(e uint64, announce bool) {
	net.epoch = e
	if announce {
		net.log.Network(fmt.Sprintf("========= New Epoch %d =========", e))
	}
	for i := 0; i < net.n; i++ {
		net.Nodes[i].NewEpoch(e)
	}
}

func (net *Network) processUnprocessedAll() {
	for i := 0; i < net.n; i++ {
		net.Nodes[i].ProcessUnprocessedPool()
	}
}

// RunSimple runs epochLimit epochs where messages arrive in order and
// without loss.
func (net *Network) RunSimple(epochLimit int) {
	for ep := 0; ep < epochLimit; ep++ {
		net.newEpochAll(net.epoch+1, true)
		net.recvAll()
		net.sendAll()
		net.recvAll()
		net.sendAll()
		net.recvAll()
		net.sendAll()
		net.processUnprocessedAll()
	}
}

// RunReorder runs epochLimit epochs where messages are delivered within
// each epoch's three rounds, but in random order, satisfying a
// partial-synchrony (GST-style) delivery assumption.
func (net *Network) RunReorder(epochLimit int) {
	for ep := 0; ep < epochLimit; ep++ {
		net.newEpochAll(net.epoch+1, true)
		net.recvAllRandomized()
		net.sendAll()
		net.recvAllRandomized()
		net.sendAll()
		net.recvAllRandomized()
		net.sendAll()
		net.processUnprocessedAll()
	}
}

// RunDelaysThenSynchrony runs an asynchronous first half (each message
// independently delivered this round with probability fraction, the
// rest held back) followed by a reordered-but-synchronous second half,
// modeling a network that stabilizes partway through the run.
func (net *Network) RunDelaysThenSynchrony(epochLimit int, fraction float64) {
	firstHalf := epochLimit / 2
	for ep := 0; ep < firstHalf; ep++ {
		net.newEpochAll(net.epoch+1, true)
		net.deliverPicked(fraction)
		net.sendAll()
		net.deliverPicked(fraction)
		net.sendAll()
		net.deliverPicked(fraction)
		net.sendAll()
		net.processUnprocessedAll()
	}

	net.log.Network("Halfway mark reached. Network conditions are now stable.")

	for ep := 0; ep < epochLimit-firstHalf; ep++ {
		net.newEpochAll(net.epoch+1, false)
		net.recvAllRandomized()
		net.sendAll()
		net.recvAllRandomized()
		net.sendAll()
		net.recvAllRandomized()
		net.sendAll()
		net.processUnprocessedAll()
	}
}

func (net *Network) deliverPicked(fraction float64) {
	for _, a := range net.pickRandomMessages(fraction) {
		net.Nodes[a.to].IncomingMessage(a.msg.msg, a.msg.from)
	}
}

// Epoch returns the most recently started epoch number.
func (net *Network) Epoch() uint64 { return net.epoch }

// HonestIDs returns the ids of every non-adversarial validator.
func (net *Network) HonestIDs() []int {
	var ids []int
	for i, n := range net.Nodes {
		if !n.IsAdversarial() {
			ids = append(ids, i)
		}
	}
	return ids
}

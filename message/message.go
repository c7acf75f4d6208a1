// Package message defines the two wire messages validators exchange:
// block proposals and votes. Go has no trait-object downcasting, so
// dispatch on message kind is an ordinary type switch over the Envelope
// interface rather than an as-any cast.
package message

import (
	"github.com/tklenze/streamletsim/crypto"
)

// Envelope is satisfied by every message type the network transports.
type Envelope interface {
	Type() crypto.MessageType
	GetCreator() int
}

// BlockProposal carries a proposed block and the leader's signature
// over it. Creator and Signer are usually equal; they differ only when
// a message is relayed on behalf of someone else, which this protocol
// does not do, or when an adversary forges one.
type BlockProposal struct {
	Creator    int
	ParentHash *crypto.Hash
	Epoch      uint64
	Txs        []byte
	Name       string
	Signer     int
	Signature  crypto.Signature
}

func (m *BlockProposal) Type() crypto.MessageType { return crypto.TypeBlockProposal }

// GetCreator satisfies Envelope.
func (m *BlockProposal) GetCreator() int { return m.Creator }

// Vote carries a vote for a block, identified by the same fields that
// determine the block's hash, plus the voter's signature.
type Vote struct {
	Creator    int
	ParentHash *crypto.Hash
	Epoch      uint64
	Txs        []byte
	Name       string
	Signer     int
	Signature  crypto.Signature
}

func (m *Vote) Type() crypto.MessageType { return crypto.TypeVote }

// GetCreator satisfies Envelope.
func (m *Vote) GetCreator() int { return m.Creator }

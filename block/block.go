// Package block implements the content-addressed block DAG each
// validator maintains locally: blocks, their votes, and the notarized
// and finalized subsets of them.
package block

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tklenze/streamletsim/crypto"
)

// MaxTxsLength bounds the serialized size of a block's payload.
const MaxTxsLength = 10000

// Block is a single proposed block: a parent reference, an epoch
// number, a transaction payload, and the bookkeeping (name, height,
// children) a validator needs to walk and debug its local tree.
type Block struct {
	ParentHash *crypto.Hash // nil only for genesis
	Epoch      uint64
	Txs        []byte
	Name       string
	Height     uint64
	Hash       crypto.Hash
	Children   mapset.Set[crypto.Hash]
}

// New builds a Block and computes its content hash. height is the
// caller's responsibility (parent's height + 1, or 0 for genesis).
func New(parent *crypto.Hash, epoch uint64, txs []byte, name string, height uint64) *Block {
	h := crypto.ComputeHash(parent, epoch, txs)
	return &Block{
		ParentHash: parent,
		Epoch:      epoch,
		Txs:        txs,
		Name:       name,
		Height:     height,
		Hash:       h,
		Children:   mapset.NewThreadUnsafeSet[crypto.Hash](),
	}
}

// Genesis builds the implicit epoch-0, parentless root block every
// tree starts from, pre-notarized and pre-finalized.
func Genesis() *Block {
	return New(nil, 0, nil, "0", 0)
}

// Valid reports whether b satisfies the structural rules every block
// must obey regardless of who proposed it: a bounded payload and a
// strictly positive epoch. It does not check the proposer's signature;
// that lives with the message that carried the block, not the block
// itself.
func (b *Block) Valid() bool {
	return len(b.Txs) < MaxTxsLength && b.Epoch > 0
}

// String renders the block's debug name, e.g. "3/1" for epoch 3
// proposed by validator 1.
func (b *Block) String() string {
	return b.Name
}

func (b *Block) shortHash() string {
	return fmt.Sprintf("%x", b.Hash[:2])
}

// Package crypto provides the hashing, signing, and leader-selection
// primitives the consensus protocol treats as an oracle: every validator
// calls into the same hash function and the same signature scheme, and
// agreement about their outputs is assumed rather than re-derived.
package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hash is a 32-byte SHA-256 digest, used both as a block identifier and
// as the payload signed over in proposals and votes.
type Hash [32]byte

// String renders the full hash as lowercase hex. Abbreviated forms in
// debug output are left to callers (block.Tree.Dump prints the first
// 2 bytes).
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 8 bytes of h, little-endian, mirroring
// ShortHash applied directly to a digest.
func (h Hash) Short() uint64 {
	return binary.LittleEndian.Uint64(h[:8])
}

// IsZero reports whether h is the all-zero hash, used as the genesis
// block's implicit "no parent" sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ComputeHash hashes the concatenation of the parent hash (or 32 zero
// bytes if parent is nil), the epoch as an 8-byte little-endian integer,
// and the raw payload bytes. This is the sole block-identity preimage:
// two blocks with the same parent, epoch, and payload are the same block.
func ComputeHash(parent *Hash, epoch uint64, payload []byte) Hash {
	buf := make([]byte, 0, 32+8+len(payload))
	if parent != nil {
		buf = append(buf, parent[:]...)
	} else {
		buf = append(buf, make([]byte, 32)...)
	}
	var e [8]byte
	binary.LittleEndian.PutUint64(e[:], epoch)
	buf = append(buf, e[:]...)
	buf = append(buf, payload...)
	return sha256.Sum256(buf)
}

// ShortHash reads the first 8 bytes of b as a little-endian uint64. b
// must be at least 8 bytes long.
func ShortHash(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[:8])
}

// HashEpoch hashes the bare 8-byte little-endian encoding of e, with no
// block-preimage framing. Used only to seed leader election.
func HashEpoch(e uint64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], e)
	return sha256.Sum256(buf[:])
}

// Leader computes the leader id of epoch e among n validators:
// short_hash(hash(epoch)) mod n.
func Leader(epoch uint64, n int) int {
	h := HashEpoch(epoch)
	return int(h.Short() % uint64(n))
}

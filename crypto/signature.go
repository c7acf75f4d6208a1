package crypto

import "crypto/ed25519"

// MessageType domain-separates what a signature was computed over, so a
// signature produced for a block proposal can never be replayed as a
// valid vote signature for the same hash.
type MessageType byte

const (
	TypeEmpty MessageType = iota
	TypeBlockProposal
	TypeVote
)

// Signature is a raw ed25519 signature together with the id of the
// signer, mirroring the (signer, bytes) pair the protocol reasons about.
type Signature struct {
	Signer int
	Bytes  []byte
}

// SignedPayload builds the exact byte string that gets signed: one
// domain-tag byte followed by the 32-byte hash. Pinning this encoding
// (rather than a self-describing serializer) keeps the signed payload a
// fixed 33 bytes and removes any ambiguity about framing.
func SignedPayload(t MessageType, h Hash) []byte {
	buf := make([]byte, 0, 33)
	buf = append(buf, byte(t))
	buf = append(buf, h[:]...)
	return buf
}

// Sign produces a Signature over (t, h) using priv, tagging it with
// signer.
func Sign(signer int, priv PrivateKey, t MessageType, h Hash) Signature {
	payload := SignedPayload(t, h)
	sig := ed25519.Sign(ed25519.PrivateKey(priv), payload)
	return Signature{Signer: signer, Bytes: sig}
}

// CheckSignature verifies that sig is a valid signature by signer over
// (t, h) under pub.
func CheckSignature(pub PublicKey, t MessageType, h Hash, sig Signature) bool {
	if len(sig.Bytes) == 0 {
		return false
	}
	payload := SignedPayload(t, h)
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig.Bytes)
}

package crypto

import "fmt"

// Oracle holds the full validator keyring for a simulation run and
// exposes Sign/Verify as the single cryptographic authority every
// validator defers to, matching the "crypto oracle" abstraction: callers
// never touch raw keys directly.
type Oracle struct {
	seed [32]byte
	priv []PrivateKey
	pub  []PublicKey
}

// NewOracle derives n validator keypairs from seed.
func NewOracle(seed [32]byte, n int) (*Oracle, error) {
	o := &Oracle{seed: seed, priv: make([]PrivateKey, n), pub: make([]PublicKey, n)}
	for i := 0; i < n; i++ {
		priv, pub, err := DeriveValidatorKey(seed, i)
		if err != nil {
			return nil, fmt.Errorf("new oracle: %w", err)
		}
		o.priv[i] = priv
		o.pub[i] = pub
	}
	return o, nil
}

// Sign signs (t, h) as signer.
func (o *Oracle) Sign(signer int, t MessageType, h Hash) Signature {
	return Sign(signer, o.priv[signer], t, h)
}

// Verify checks sig as a signature over (t, h) under the public key of
// signer — the identity a message's own fields (e.g. BlockProposal.Signer,
// Vote.Signer) claim authorship under, not whatever Signature.Signer
// happens to carry. A signature whose embedded Signer disagrees with the
// caller's claimed signer is rejected outright: otherwise a message could
// authenticate under one identity while being credited (voted, leader-
// checked) to another. An out-of-range signer always fails verification
// rather than panicking, since it arrives over the (simulated) network
// and must be treated as untrusted input.
func (o *Oracle) Verify(signer int, t MessageType, h Hash, sig Signature) bool {
	if signer < 0 || signer >= len(o.pub) {
		return false
	}
	if sig.Signer != signer {
		return false
	}
	return CheckSignature(o.pub[signer], t, h, sig)
}

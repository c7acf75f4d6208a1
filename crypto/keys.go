package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

func newSHA256() hash.Hash { return sha256.New() }

// PrivateKey wraps ed25519 private key bytes.
type PrivateKey []byte

// PublicKey wraps ed25519 public key bytes.
type PublicKey []byte

// Public derives the ed25519 public key from the private key.
func (priv PrivateKey) Public() PublicKey {
	return PublicKey(ed25519.PrivateKey(priv).Public().(ed25519.PublicKey))
}

// DeriveValidatorKey deterministically derives validator id's ed25519
// keypair from the network's 32-byte seed. Two Oracles built from the
// same seed produce byte-identical keys for every id, which is what
// lets a simulation run be replayed exactly.
func DeriveValidatorKey(seed [32]byte, id int) (PrivateKey, PublicKey, error) {
	var info [8]byte
	binary.LittleEndian.PutUint64(info[:], uint64(id))

	kdf := hkdf.New(newSHA256, seed[:], nil, info[:])
	seedBytes := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(kdf, seedBytes); err != nil {
		return nil, nil, fmt.Errorf("derive validator %d key: %w", id, err)
	}
	priv := ed25519.NewKeyFromSeed(seedBytes)
	return PrivateKey(priv), PrivateKey(priv).Public(), nil
}

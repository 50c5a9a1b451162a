// Package address derives and validates account addresses. An address is
// the base58 encoding of a 32-byte ed25519 public key.
package address

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"github.com/polyphene/recs-contract/internal/domain"
)

// Generate creates a fresh keypair and returns its address together with
// the private key. Key custody is the caller's concern.
func Generate() (domain.Address, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.ZeroAddress, nil, fmt.Errorf("generate keypair: %w", err)
	}
	return FromPublicKey(pub), priv, nil
}

// FromPublicKey encodes a public key as an address.
func FromPublicKey(pub ed25519.PublicKey) domain.Address {
	return domain.Address(base58.Encode(pub))
}

// Validate checks that addr decodes to a canonical point on the ed25519
// curve. The zero address is rejected; callers treat it as a sentinel, not
// an identity.
func Validate(addr domain.Address) error {
	if addr.IsZero() {
		return fmt.Errorf("address is the zero sentinel")
	}

	decoded, err := base58.Decode(string(addr))
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return fmt.Errorf("address must decode to %d bytes, got %d", ed25519.PublicKeySize, len(decoded))
	}
	if !isOnCurve(decoded) {
		return fmt.Errorf("address is not a valid curve point")
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

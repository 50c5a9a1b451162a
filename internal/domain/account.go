package domain

// Address identifies an account. Addresses are base58-encoded 32-byte
// ed25519 public keys; the core treats them as opaque identities.
type Address string

// ZeroAddress is the null account sentinel. Cleared listings report it as
// their seller, and it never holds balances or roles.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null sentinel.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

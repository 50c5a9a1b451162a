package domain

// Certificate describes one certificate token id. Supply is created once at
// mint time; redemption permanently retires units and never reverses.
type Certificate struct {
	TokenID             uint64
	Minter              Address
	MetadataURI         string
	TotalSupply         uint64
	RedeemedSupply      uint64
	RedemptionStatement string // set at most once, only after full redemption
}

// FullyRedeemed reports whether every minted unit has been retired.
func (c *Certificate) FullyRedeemed() bool {
	return c.RedeemedSupply == c.TotalSupply
}

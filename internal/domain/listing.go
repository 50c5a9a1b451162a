package domain

import "github.com/holiman/uint256"

// Listing is an open offer to sell a quantity of a token id at a fixed
// native-currency unit price. A listing with Amount == 0 is the cleared
// sentinel: Seller is reset to ZeroAddress and the slot is reusable.
type Listing struct {
	TokenID   uint64
	Seller    Address
	Amount    uint64
	UnitPrice *uint256.Int
}

// Active reports whether the listing still offers any quantity.
func (l *Listing) Active() bool {
	return l.Amount > 0 && !l.Seller.IsZero()
}

// Clone returns a deep copy so callers cannot mutate engine state.
func (l *Listing) Clone() Listing {
	c := *l
	if l.UnitPrice != nil {
		c.UnitPrice = new(uint256.Int).Set(l.UnitPrice)
	}
	return c
}

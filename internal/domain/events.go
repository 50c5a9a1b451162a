package domain

import "github.com/holiman/uint256"

// EventKind discriminates change notifications.
type EventKind string

// Event kind constants.
const (
	EventMinted            EventKind = "MINTED"
	EventRedeemed          EventKind = "REDEEMED"
	EventListingCreated    EventKind = "LISTING_CREATED"
	EventPurchaseCompleted EventKind = "PURCHASE_COMPLETED"
)

// Event is a structured change notification emitted after a successful
// operation. Field order within each notification is part of the external
// compatibility contract and must not change.
type Event interface {
	Kind() EventKind
}

// Minted is emitted once per mint, after allocations have been applied.
type Minted struct {
	TokenID     uint64    `json:"token_id"`
	Minter      Address   `json:"minter"`
	Amount      uint64    `json:"amount"`
	Recipients  []Address `json:"recipients"`
	Allocations []uint64  `json:"allocations"`
}

// Kind implements Event.
func (Minted) Kind() EventKind { return EventMinted }

// Redeemed is emitted when an account retires part of its balance,
// including the auto-redeemed portions of a mint allocation.
type Redeemed struct {
	Account Address `json:"account"`
	TokenID uint64  `json:"token_id"`
	Amount  uint64  `json:"amount"`
}

// Kind implements Event.
func (Redeemed) Kind() EventKind { return EventRedeemed }

// ListingCreated is emitted when a sale listing is created or overwritten.
// Ledger carries the external ledger reference and is the zero address for
// engines that own their ledger.
type ListingCreated struct {
	Ledger    Address      `json:"ledger,omitempty"`
	TokenID   uint64       `json:"token_id"`
	Seller    Address      `json:"seller"`
	Amount    uint64       `json:"amount"`
	UnitPrice *uint256.Int `json:"unit_price"`
}

// Kind implements Event.
func (ListingCreated) Kind() EventKind { return EventListingCreated }

// PurchaseCompleted is emitted after a purchase settled in full.
type PurchaseCompleted struct {
	Ledger    Address      `json:"ledger,omitempty"`
	TokenID   uint64       `json:"token_id"`
	Buyer     Address      `json:"buyer"`
	Seller    Address      `json:"seller"`
	Amount    uint64       `json:"amount"`
	UnitPrice *uint256.Int `json:"unit_price"`
}

// Kind implements Event.
func (PurchaseCompleted) Kind() EventKind { return EventPurchaseCompleted }

// Package exchange implements the listing/escrow engine: sale listings
// against a certificate ledger, settled in native currency.
//
// One engine serves both listing topologies. In external mode it reaches a
// ledger it does not own through an operator capability, with at most one
// active seller per token id; in integrated mode it owns its ledger, keys
// listings by (token id, seller) and exposes an enumeration of active
// listings. Listing does not escrow the seller's balance: a seller who
// moves the tokens away after listing makes the eventual purchase fail at
// the ledger transfer, not at listing time.
package exchange

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/events"
	"github.com/polyphene/recs-contract/internal/ledger"
)

// Mode selects the listing topology.
type Mode string

// Mode constants.
const (
	// ModeExternal lists against an externally addressed ledger reached
	// through a delegation; one active seller per token id.
	ModeExternal Mode = "external"
	// ModeIntegrated lists against the engine's own ledger; listings are
	// keyed by (token id, seller).
	ModeIntegrated Mode = "integrated"
)

// PaymentTransfer settles native-currency value between accounts.
type PaymentTransfer interface {
	Transfer(from, to domain.Address, value *uint256.Int) error
}

// Engine maintains sale listings and executes purchases. Not safe for
// concurrent use on its own; the runtime serializes public operations.
type Engine struct {
	mode      Mode
	self      domain.Address // engine identity for delegation checks
	ledgerRef domain.Address // external ledger reference carried in events
	ledger    ledger.Access
	payments  PaymentTransfer
	publisher events.Publisher

	// listings holds the active listing per (token id, seller key). The
	// external topology uses the zero address as seller key so a fresh
	// list call overwrites whatever listing the id had.
	listings map[uint64]map[domain.Address]*domain.Listing

	// everListed is the compact ascending registry of token ids that ever
	// had a listing. Enumeration filters it against active slots, a
	// deliberate O(ever-listed) scan.
	everListed []uint64
	listedSet  map[uint64]struct{}
}

// NewExternal creates an engine over a ledger it does not own. self is the
// engine's account identity, the one sellers must approve as operator;
// ledgerRef is the ledger's address, echoed in notifications.
func NewExternal(self, ledgerRef domain.Address, access ledger.Access, payments PaymentTransfer, publisher events.Publisher) *Engine {
	return newEngine(ModeExternal, self, ledgerRef, access, payments, publisher)
}

// NewIntegrated creates an engine owning its ledger. Pass the ledger's
// owned-access capability; no delegation is required to settle.
func NewIntegrated(access ledger.Access, payments PaymentTransfer, publisher events.Publisher) *Engine {
	return newEngine(ModeIntegrated, domain.ZeroAddress, domain.ZeroAddress, access, payments, publisher)
}

func newEngine(mode Mode, self, ledgerRef domain.Address, access ledger.Access, payments PaymentTransfer, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{
		mode:      mode,
		self:      self,
		ledgerRef: ledgerRef,
		ledger:    access,
		payments:  payments,
		publisher: publisher,
		listings:  make(map[uint64]map[domain.Address]*domain.Listing),
		listedSet: make(map[uint64]struct{}),
	}
}

// Mode returns the engine's listing topology.
func (e *Engine) Mode() Mode { return e.mode }

// sellerKey maps a seller to the listing slot key for the topology.
func (e *Engine) sellerKey(seller domain.Address) domain.Address {
	if e.mode == ModeExternal {
		return domain.ZeroAddress
	}
	return seller
}

// List creates or overwrites the caller's sale listing for tokenID. The
// caller keeps the balance until a purchase settles.
func (e *Engine) List(caller domain.Address, tokenID uint64, amount uint64, unitPrice *uint256.Int) error {
	if amount == 0 {
		return domain.ValidationError("Amount to be listed should be positive")
	}
	if e.ledger.BalanceOf(caller, tokenID) < amount {
		return domain.ValidationError("Sender should own the amount of tokens to be listed")
	}
	if e.mode == ModeExternal && !e.ledger.IsApprovedForAll(caller, e.self) {
		return domain.AuthorizationError("Marketplace should be approved to manage user tokens")
	}

	price := new(uint256.Int)
	if unitPrice != nil {
		price.Set(unitPrice)
	}

	slot := e.listings[tokenID]
	if slot == nil {
		slot = make(map[domain.Address]*domain.Listing)
		e.listings[tokenID] = slot
	}
	slot[e.sellerKey(caller)] = &domain.Listing{
		TokenID:   tokenID,
		Seller:    caller,
		Amount:    amount,
		UnitPrice: price,
	}
	e.registerListed(tokenID)

	e.publisher.Publish(domain.ListingCreated{
		Ledger:    e.ledgerRef,
		TokenID:   tokenID,
		Seller:    caller,
		Amount:    amount,
		UnitPrice: new(uint256.Int).Set(price),
	})
	return nil
}

// Buy purchases amount units from the listing. seller selects the listing
// in integrated mode and is ignored in external mode. paid must equal
// unitPrice*amount exactly; under- and overpayment are both rejected.
// Either every effect applies or none does: a failed certificate transfer
// refunds the payment before returning.
func (e *Engine) Buy(caller domain.Address, tokenID uint64, seller domain.Address, amount uint64, paid *uint256.Int) error {
	lst := e.listings[tokenID][e.sellerKey(seller)]
	if lst == nil || !lst.Active() {
		return domain.ValidationError("Token is not listed")
	}
	if amount == 0 || amount > lst.Amount {
		return domain.ValidationError("Incorrect amount of tokens being purchased")
	}

	price := new(uint256.Int)
	if _, overflow := price.MulOverflow(lst.UnitPrice, uint256.NewInt(amount)); overflow {
		return domain.ValidationError("Purchase price overflows")
	}
	sent := new(uint256.Int)
	if paid != nil {
		sent.Set(paid)
	}
	if !sent.Eq(price) {
		return domain.ValidationError("Sent value does not match the purchase price")
	}

	if err := e.payments.Transfer(caller, lst.Seller, price); err != nil {
		return err
	}
	if err := e.ledger.Transfer(lst.Seller, caller, tokenID, amount); err != nil {
		// Refund cannot fail: the seller's balance was credited this step
		// and nothing else ran in between.
		_ = e.payments.Transfer(lst.Seller, caller, price)
		return err
	}

	lst.Amount -= amount
	if lst.Amount == 0 {
		// Clear the slot; the key is reusable by a later list call.
		delete(e.listings[tokenID], e.sellerKey(seller))
	}

	e.publisher.Publish(domain.PurchaseCompleted{
		Ledger:    e.ledgerRef,
		TokenID:   tokenID,
		Buyer:     caller,
		Seller:    lst.Seller,
		Amount:    amount,
		UnitPrice: new(uint256.Int).Set(lst.UnitPrice),
	})
	return nil
}

// ListingOf returns the listing at (tokenID, seller), or the cleared
// sentinel (zero seller, zero amount, zero price) if the slot is empty.
// seller is ignored in external mode.
func (e *Engine) ListingOf(tokenID uint64, seller domain.Address) domain.Listing {
	if lst := e.listings[tokenID][e.sellerKey(seller)]; lst != nil {
		return lst.Clone()
	}
	return domain.Listing{TokenID: tokenID, Seller: domain.ZeroAddress, UnitPrice: new(uint256.Int)}
}

// CurrentListings returns every active listing in ascending token id
// order, sellers sorted within an id. Token ids that were fully sold are
// filtered out at query time.
func (e *Engine) CurrentListings() []domain.Listing {
	var out []domain.Listing
	for _, tokenID := range e.everListed {
		slot := e.listings[tokenID]
		if len(slot) == 0 {
			continue
		}
		sellers := make([]domain.Address, 0, len(slot))
		for key := range slot {
			sellers = append(sellers, key)
		}
		sort.Slice(sellers, func(i, j int) bool { return sellers[i] < sellers[j] })
		for _, key := range sellers {
			out = append(out, slot[key].Clone())
		}
	}
	return out
}

// registerListed records tokenID in the ever-listed registry, keeping it
// sorted. Ids are listed in roughly ascending order in practice, so the
// append fast path dominates.
func (e *Engine) registerListed(tokenID uint64) {
	if _, seen := e.listedSet[tokenID]; seen {
		return
	}
	e.listedSet[tokenID] = struct{}{}

	i := sort.Search(len(e.everListed), func(i int) bool { return e.everListed[i] >= tokenID })
	e.everListed = append(e.everListed, 0)
	copy(e.everListed[i+1:], e.everListed[i:])
	e.everListed[i] = tokenID
}

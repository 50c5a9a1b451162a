package ledger

import "github.com/polyphene/recs-contract/internal/domain"

// Access is the capability an exchange engine holds over a ledger: balance
// and delegation queries plus the transfer operation. Both listing
// topologies share it, so the engine never touches ledger state directly.
type Access interface {
	BalanceOf(account domain.Address, tokenID uint64) uint64
	IsApprovedForAll(owner, operator domain.Address) bool
	Transfer(from, to domain.Address, tokenID uint64, amount uint64) error
}

// operatorAccess reaches an external ledger with the engine's own identity;
// transfers succeed only while the seller's delegation to the operator
// stands, which re-checks the capability at purchase time.
type operatorAccess struct {
	ledger   *Ledger
	operator domain.Address
}

// AccessAs returns a capability that moves balances as the given operator.
func (l *Ledger) AccessAs(operator domain.Address) Access {
	return &operatorAccess{ledger: l, operator: operator}
}

func (a *operatorAccess) BalanceOf(account domain.Address, tokenID uint64) uint64 {
	return a.ledger.BalanceOf(account, tokenID)
}

func (a *operatorAccess) IsApprovedForAll(owner, operator domain.Address) bool {
	return a.ledger.IsApprovedForAll(owner, operator)
}

func (a *operatorAccess) Transfer(from, to domain.Address, tokenID uint64, amount uint64) error {
	return a.ledger.Transfer(a.operator, from, to, tokenID, amount)
}

// ownedAccess is the integrated-mode capability: the engine owns the
// ledger, so transfers carry owner authority and need no delegation.
type ownedAccess struct {
	ledger *Ledger
}

// OwnedAccess returns the capability an engine uses over a ledger it owns.
func (l *Ledger) OwnedAccess() Access {
	return &ownedAccess{ledger: l}
}

func (a *ownedAccess) BalanceOf(account domain.Address, tokenID uint64) uint64 {
	return a.ledger.BalanceOf(account, tokenID)
}

func (a *ownedAccess) IsApprovedForAll(domain.Address, domain.Address) bool {
	return true
}

func (a *ownedAccess) Transfer(from, to domain.Address, tokenID uint64, amount uint64) error {
	return a.ledger.move(from, to, tokenID, amount)
}

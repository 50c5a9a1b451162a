package ledger

import "github.com/polyphene/recs-contract/internal/domain"

// SetApprovalForAll grants or revokes operator's right to move every
// balance owner holds, across all token ids. This is the capability grant
// an exchange engine needs before it can settle purchases.
func (l *Ledger) SetApprovalForAll(owner, operator domain.Address, approved bool) error {
	if owner == operator {
		return domain.ValidationError("Setting approval status for self")
	}
	if approved {
		if l.approvals[owner] == nil {
			l.approvals[owner] = make(map[domain.Address]bool)
		}
		l.approvals[owner][operator] = true
		return nil
	}
	delete(l.approvals[owner], operator)
	return nil
}

// IsApprovedForAll reports whether operator may move owner's balances.
func (l *Ledger) IsApprovedForAll(owner, operator domain.Address) bool {
	return l.approvals[owner][operator]
}

// Transfer moves amount of tokenID from one holder to another. The caller
// must be the sender or an approved operator. Redeemed quantity is never
// transferable: it no longer exists as a balance entry, so the balance
// check covers it.
func (l *Ledger) Transfer(caller, from, to domain.Address, tokenID uint64, amount uint64) error {
	if caller != from && !l.IsApprovedForAll(from, caller) {
		return domain.AuthorizationError("Caller is not token owner or approved")
	}
	return l.move(from, to, tokenID, amount)
}

// move is the single balance mutation path shared by Transfer and the
// owned-ledger exchange access; it enforces the balance invariant for
// every caller.
func (l *Ledger) move(from, to domain.Address, tokenID uint64, amount uint64) error {
	tok := l.tokenAt(tokenID)
	if tok == nil || tok.balances[from] < amount {
		return domain.ValidationError("Insufficient balance for transfer")
	}

	tok.balances[from] -= amount
	if tok.balances[from] == 0 {
		delete(tok.balances, from)
	}
	tok.balances[to] += amount
	return nil
}

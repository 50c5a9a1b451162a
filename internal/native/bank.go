// Package native models the native-currency balances the execution
// environment settles payments with. The exchange engine only sees its
// Transfer operation; deposits are environment bootstrap.
package native

import (
	"github.com/holiman/uint256"

	"github.com/polyphene/recs-contract/internal/domain"
)

// Bank holds native-currency balances per account.
type Bank struct {
	balances map[domain.Address]*uint256.Int
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[domain.Address]*uint256.Int)}
}

// Deposit credits value to account. Bootstrap/faucet operation.
func (b *Bank) Deposit(account domain.Address, value *uint256.Int) {
	if value == nil || value.IsZero() {
		return
	}
	cur, ok := b.balances[account]
	if !ok {
		cur = new(uint256.Int)
		b.balances[account] = cur
	}
	cur.Add(cur, value)
}

// BalanceOf returns a copy of account's balance.
func (b *Bank) BalanceOf(account domain.Address) *uint256.Int {
	cur, ok := b.balances[account]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(cur)
}

// Transfer moves value between accounts. Either the whole value moves or
// nothing does.
func (b *Bank) Transfer(from, to domain.Address, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return nil
	}
	cur, ok := b.balances[from]
	if !ok || cur.Lt(value) {
		return domain.ValidationError("Not enough value to settle the payment")
	}

	cur.Sub(cur, value)
	if cur.IsZero() {
		delete(b.balances, from)
	}
	b.Deposit(to, value)
	return nil
}

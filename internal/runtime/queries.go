package runtime

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/ledger"
	"github.com/polyphene/recs-contract/internal/storage"
)

// Read-side operations. They run under the same mutex as the writes so a
// reader never observes a half-applied operation.

// HasRole reports whether account holds role.
func (r *Runtime) HasRole(role domain.Role, account domain.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles.Has(role, account)
}

// BalanceOf returns the unredeemed balance of account for tokenID.
func (r *Runtime) BalanceOf(account domain.Address, tokenID uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.BalanceOf(account, tokenID)
}

// AmountRedeemed returns how much account has retired of tokenID.
func (r *Runtime) AmountRedeemed(account domain.Address, tokenID uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.AmountRedeemed(account, tokenID)
}

// Certificate returns the token's descriptive snapshot, or nil for an
// unknown id.
func (r *Runtime) Certificate(tokenID uint64) *domain.Certificate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Certificate(tokenID)
}

// TokenCount returns how many token ids have been minted.
func (r *Runtime) TokenCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.TokenCount()
}

// IsApprovedForAll reports whether operator may move owner's tokens.
func (r *Runtime) IsApprovedForAll(owner, operator domain.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.IsApprovedForAll(owner, operator)
}

// Holdings returns the full balance table of a token. Auditor-gated.
func (r *Runtime) Holdings(caller domain.Address, tokenID uint64) ([]ledger.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Holdings(caller, tokenID)
}

// ListingOf returns the active listing for (tokenID, seller), or a cleared
// listing when none is active.
func (r *Runtime) ListingOf(tokenID uint64, seller domain.Address) domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exchange.ListingOf(tokenID, seller)
}

// CurrentListings enumerates every active listing, token ids ascending.
func (r *Runtime) CurrentListings() []domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exchange.CurrentListings()
}

// NativeBalanceOf returns the account's native-currency balance.
func (r *Runtime) NativeBalanceOf(account domain.Address) *uint256.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bank.BalanceOf(account)
}

// JournalRange reads journaled notifications with seq within [start, end].
func (r *Runtime) JournalRange(ctx context.Context, start, end uint64) ([]*storage.EventRecord, error) {
	if r.journal == nil {
		return nil, nil
	}
	return r.journal.GetBySeqRange(ctx, start, end)
}

// PurchaseHistory reads archived purchases of a token.
func (r *Runtime) PurchaseHistory(ctx context.Context, tokenID uint64) ([]*storage.PurchaseRecord, error) {
	if r.archive == nil {
		return nil, nil
	}
	return r.archive.GetByTokenID(ctx, tokenID)
}

// Package ledger implements the multi-token certificate balance ledger:
// per-token supply, minter identity, redemption counters, redemption
// statements, and per-(account, token) balances and redeemed amounts.
//
// The ledger exclusively owns its state. Every mutation validates all of
// its preconditions before touching any table, so a rejected operation is
// a strict no-op.
package ledger

import (
	"sort"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/events"
	"github.com/polyphene/recs-contract/internal/roles"
)

// token is the per-id record. Balances and redeemed counters live here so
// a token id that was never minted has zero balances by construction.
type token struct {
	minter              domain.Address
	metadataURI         string
	totalSupply         uint64
	redeemedSupply      uint64
	redemptionStatement string
	balances            map[domain.Address]uint64
	redeemed            map[domain.Address]uint64
}

// Ledger is the certificate ledger. It is not safe for concurrent use on
// its own; the runtime serializes every public operation.
type Ledger struct {
	roles     *roles.Registry
	tokens    []*token
	approvals map[domain.Address]map[domain.Address]bool
	publisher events.Publisher
}

// New creates an empty ledger gated by the given role registry.
func New(registry *roles.Registry, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Ledger{
		roles:     registry,
		approvals: make(map[domain.Address]map[domain.Address]bool),
		publisher: publisher,
	}
}

// MintAndAllocate creates the next token id with the given supply and
// splits it between the caller and the recipients. Allocations flagged
// redeemed are credited and burned in the same step: they increment the
// redemption counters and never appear as a balance.
func (l *Ledger) MintAndAllocate(
	caller domain.Address,
	metadataURI string,
	amount uint64,
	recipients []domain.Address,
	allocations []uint64,
	redeemedFlags []bool,
) (uint64, error) {
	if !l.roles.Has(domain.RoleMinter, caller) {
		return 0, domain.AuthorizationError("Sender must have MINTER_ROLE to mint new tokens")
	}
	if amount == 0 {
		return 0, domain.ValidationError("Mint amount should be positive")
	}
	if len(recipients) != len(allocations) {
		return 0, domain.ValidationError("Allocated and allocations arrays must be of the same length")
	}
	if len(recipients) != len(redeemedFlags) {
		return 0, domain.ValidationError("Allocated and allocations redeemed arrays must be of the same length")
	}

	var allocated uint64
	for _, a := range allocations {
		if a > amount-allocated {
			return 0, domain.ValidationError("Allocations amount to more than the minted supply")
		}
		allocated += a
	}

	// All preconditions hold; mutate.
	tok := &token{
		minter:      caller,
		metadataURI: metadataURI,
		totalSupply: amount,
		balances:    make(map[domain.Address]uint64),
		redeemed:    make(map[domain.Address]uint64),
	}
	id := uint64(len(l.tokens))
	l.tokens = append(l.tokens, tok)

	tok.balances[caller] = amount - allocated
	var autoRedeemed []domain.Redeemed
	for i, recipient := range recipients {
		if allocations[i] == 0 {
			continue
		}
		if redeemedFlags[i] {
			tok.redeemedSupply += allocations[i]
			tok.redeemed[recipient] += allocations[i]
			autoRedeemed = append(autoRedeemed, domain.Redeemed{
				Account: recipient,
				TokenID: id,
				Amount:  allocations[i],
			})
			continue
		}
		tok.balances[recipient] += allocations[i]
	}

	l.publisher.Publish(domain.Minted{
		TokenID:     id,
		Minter:      caller,
		Amount:      amount,
		Recipients:  append([]domain.Address(nil), recipients...),
		Allocations: append([]uint64(nil), allocations...),
	})
	for _, ev := range autoRedeemed {
		l.publisher.Publish(ev)
	}
	return id, nil
}

// Redeem permanently retires amount from the caller's balance. A token id
// that was never minted has zero balance, so redeeming against it reports
// the same insufficient-balance rejection.
func (l *Ledger) Redeem(caller domain.Address, tokenID uint64, amount uint64) error {
	if !l.roles.Has(domain.RoleRedeemer, caller) {
		return domain.AuthorizationError("Redeemer must have REDEEMER_ROLE to redeem tokens")
	}
	tok := l.tokenAt(tokenID)
	if tok == nil || tok.balances[caller] < amount {
		return domain.ValidationError("Burn amount exceeds balance")
	}

	tok.balances[caller] -= amount
	if tok.balances[caller] == 0 {
		delete(tok.balances, caller)
	}
	tok.redeemedSupply += amount
	tok.redeemed[caller] += amount

	l.publisher.Publish(domain.Redeemed{Account: caller, TokenID: tokenID, Amount: amount})
	return nil
}

// SetRedemptionStatement attaches the attestation document reference to a
// fully redeemed token. Write-once, minter only.
func (l *Ledger) SetRedemptionStatement(caller domain.Address, tokenID uint64, statementURI string) error {
	tok := l.tokenAt(tokenID)
	if tok == nil || tok.minter != caller {
		return domain.AuthorizationError("Sender should be the certificates' minter")
	}
	if tok.redeemedSupply != tok.totalSupply {
		return domain.StateError("Supply should be redeemed before setting redemption statement")
	}
	if tok.redemptionStatement != "" {
		return domain.StateError("Redemption statement can not be updated")
	}

	tok.redemptionStatement = statementURI
	return nil
}

// Holding is one (account, balance) row of a token's balance table.
type Holding struct {
	Account domain.Address
	Balance uint64
}

// Holdings returns every account holding a balance for tokenID, sorted by
// account. Auditor-gated: this exposes the whole balance table, not just
// the caller's rows.
func (l *Ledger) Holdings(caller domain.Address, tokenID uint64) ([]Holding, error) {
	if !l.roles.Has(domain.RoleAuditor, caller) {
		return nil, domain.AuthorizationError("Sender must have AUDITOR_ROLE to audit holdings")
	}
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return nil, nil
	}

	holdings := make([]Holding, 0, len(tok.balances))
	for account, balance := range tok.balances {
		holdings = append(holdings, Holding{Account: account, Balance: balance})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Account < holdings[j].Account })
	return holdings, nil
}

// tokenAt returns the token record, or nil for ids never minted.
func (l *Ledger) tokenAt(tokenID uint64) *token {
	if tokenID >= uint64(len(l.tokens)) {
		return nil
	}
	return l.tokens[tokenID]
}

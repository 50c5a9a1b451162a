package ledger

import "github.com/polyphene/recs-contract/internal/domain"

// Read accessors. None of these mutate state; unknown token ids report
// zero values rather than errors, matching balance-by-construction
// semantics (an id that was never minted has no supply and no holders).

// BalanceOf returns the held amount for (account, tokenID).
func (l *Ledger) BalanceOf(account domain.Address, tokenID uint64) uint64 {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return 0
	}
	return tok.balances[account]
}

// MinterOf returns the account that minted tokenID.
func (l *Ledger) MinterOf(tokenID uint64) domain.Address {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return domain.ZeroAddress
	}
	return tok.minter
}

// TotalSupplyOf returns the amount ever minted for tokenID.
func (l *Ledger) TotalSupplyOf(tokenID uint64) uint64 {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return 0
	}
	return tok.totalSupply
}

// RedeemedSupplyOf returns the cumulative amount retired for tokenID.
func (l *Ledger) RedeemedSupplyOf(tokenID uint64) uint64 {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return 0
	}
	return tok.redeemedSupply
}

// AmountRedeemed returns the cumulative amount account has redeemed for
// tokenID. Informational; never decreases.
func (l *Ledger) AmountRedeemed(account domain.Address, tokenID uint64) uint64 {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return 0
	}
	return tok.redeemed[account]
}

// URI returns the metadata document reference for tokenID. The ledger
// stores and returns the URI only; it never fetches or validates content.
func (l *Ledger) URI(tokenID uint64) string {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return ""
	}
	return tok.metadataURI
}

// RedemptionStatementOf returns the statement URI, or "" if unset.
func (l *Ledger) RedemptionStatementOf(tokenID uint64) string {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return ""
	}
	return tok.redemptionStatement
}

// TokenCount returns how many token ids have been minted.
func (l *Ledger) TokenCount() uint64 {
	return uint64(len(l.tokens))
}

// Certificate returns a snapshot of the token's descriptor, or nil for ids
// never minted.
func (l *Ledger) Certificate(tokenID uint64) *domain.Certificate {
	tok := l.tokenAt(tokenID)
	if tok == nil {
		return nil
	}
	return &domain.Certificate{
		TokenID:             tokenID,
		Minter:              tok.minter,
		MetadataURI:         tok.metadataURI,
		TotalSupply:         tok.totalSupply,
		RedeemedSupply:      tok.redeemedSupply,
		RedemptionStatement: tok.redemptionStatement,
	}
}

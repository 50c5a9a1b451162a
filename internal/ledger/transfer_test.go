package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyphene/recs-contract/internal/domain"
)

const (
	holder   = domain.Address("holder")
	receiver = domain.Address("receiver")
	operator = domain.Address("operator")
)

func newLedgerWithBalance(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newTestLedger(t)
	_, err := l.MintAndAllocate(minter, testURI, 15, []domain.Address{holder}, []uint64{15}, []bool{false})
	require.NoError(t, err)
	return l
}

func TestTransferByOwner(t *testing.T) {
	l := newLedgerWithBalance(t)

	require.NoError(t, l.Transfer(holder, holder, receiver, 0, 10))
	assert.Equal(t, uint64(5), l.BalanceOf(holder, 0))
	assert.Equal(t, uint64(10), l.BalanceOf(receiver, 0))
}

func TestTransferRejectsUnauthorizedCaller(t *testing.T) {
	l := newLedgerWithBalance(t)

	err := l.Transfer(operator, holder, receiver, 0, 5)
	require.Error(t, err)
	assert.True(t, domain.IsAuthorization(err))
	assert.EqualError(t, err, "Caller is not token owner or approved")
	assert.Equal(t, uint64(15), l.BalanceOf(holder, 0))
}

func TestTransferByApprovedOperator(t *testing.T) {
	l := newLedgerWithBalance(t)

	require.NoError(t, l.SetApprovalForAll(holder, operator, true))
	require.NoError(t, l.Transfer(operator, holder, receiver, 0, 5))
	assert.Equal(t, uint64(10), l.BalanceOf(holder, 0))

	// Revocation takes effect immediately.
	require.NoError(t, l.SetApprovalForAll(holder, operator, false))
	err := l.Transfer(operator, holder, receiver, 0, 5)
	require.Error(t, err)
	assert.True(t, domain.IsAuthorization(err))
}

func TestSetApprovalForSelfRejected(t *testing.T) {
	l := newLedgerWithBalance(t)

	err := l.SetApprovalForAll(holder, holder, true)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	l := newLedgerWithBalance(t)

	err := l.Transfer(holder, holder, receiver, 0, 20)
	require.EqualError(t, err, "Insufficient balance for transfer")
	assert.Equal(t, uint64(15), l.BalanceOf(holder, 0))
	assert.Equal(t, uint64(0), l.BalanceOf(receiver, 0))
}

func TestRedeemedQuantityIsNotTransferable(t *testing.T) {
	l := newLedgerWithBalance(t)

	_, err := l.MintAndAllocate(minter, testURI, 10, []domain.Address{redeemer}, []uint64{10}, []bool{false})
	require.NoError(t, err)
	require.NoError(t, l.Redeem(redeemer, 1, 10))

	// The redeemed quantity no longer exists as a balance entry.
	err = l.Transfer(redeemer, redeemer, receiver, 1, 10)
	require.EqualError(t, err, "Insufficient balance for transfer")
}

func TestOperatorAccessReChecksDelegationAtTransfer(t *testing.T) {
	l := newLedgerWithBalance(t)
	engine := domain.Address("engine")
	access := l.AccessAs(engine)

	require.NoError(t, l.SetApprovalForAll(holder, engine, true))
	assert.True(t, access.IsApprovedForAll(holder, engine))
	require.NoError(t, access.Transfer(holder, receiver, 0, 5))

	require.NoError(t, l.SetApprovalForAll(holder, engine, false))
	err := access.Transfer(holder, receiver, 0, 5)
	require.Error(t, err)
	assert.True(t, domain.IsAuthorization(err))
}

func TestOwnedAccessCarriesOwnerAuthority(t *testing.T) {
	l := newLedgerWithBalance(t)
	access := l.OwnedAccess()

	assert.True(t, access.IsApprovedForAll(holder, domain.Address("anyone")))
	require.NoError(t, access.Transfer(holder, receiver, 0, 5))
	assert.Equal(t, uint64(10), l.BalanceOf(holder, 0))

	err := access.Transfer(holder, receiver, 0, 100)
	require.EqualError(t, err, "Insufficient balance for transfer")
}

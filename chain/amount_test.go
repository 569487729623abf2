// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAmountArithmeticProperty(t *testing.T) {
	minAmount, maxAmount := big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64)
	fits := func(v *big.Int) bool { return v.Cmp(minAmount) >= 0 && v.Cmp(maxAmount) <= 0 }

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64().Draw(t, "a")
		b := rapid.Int64().Draw(t, "b")

		want := new(big.Int).Add(big.NewInt(a), big.NewInt(b))
		sum, err := AddAmounts(Amount(a), Amount(b))
		if fits(want) != (err == nil) || (err == nil && int64(sum) != want.Int64()) {
			t.Fatalf("%d + %d = %d, %v", a, b, sum, err)
		}

		want = new(big.Int).Sub(big.NewInt(a), big.NewInt(b))
		diff, err := SubAmounts(Amount(a), Amount(b))
		if fits(want) != (err == nil) || (err == nil && int64(diff) != want.Int64()) {
			t.Fatalf("%d - %d = %d, %v", a, b, diff, err)
		}
	})
}

func TestDepositsCannotWrapNetBalance(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	a, b := newTestKey(t), newTestKey(t)
	collected := l.assets[NativeAssetID].CollectedFees

	_, err := applyTx(t, newTestLedgerFrom(l), nil,
		NewDeposit(a.addr, NewAsset(math.MaxInt64, NativeAssetID), 0),
		NewDeposit(b.addr, NewAsset(math.MaxInt64, NativeAssetID), 0),
	)
	require.ErrorIs(err, ErrOverflow)
	require.False(IsFatal(err))
	require.Equal(collected, l.assets[NativeAssetID].CollectedFees)

	// A single unfunded deposit is simply short.
	_, err = applyTx(t, newTestLedgerFrom(l), nil,
		NewDeposit(a.addr, NewAsset(math.MaxInt64, NativeAssetID), 0),
	)
	require.ErrorIs(err, ErrInsufficientFunds)
}

func TestDepositCannotWrapRecordBalance(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	alice := newTestKey(t)
	l.fund(t, NewSignatureCondition(alice.addr, NativeAssetID, 0), math.MaxInt64, testNow)

	env := newTestEnv(l)
	err := NewDeposit(alice.addr, NewAsset(1, NativeAssetID), 0).Evaluate(env, NewEffects())
	require.ErrorIs(err, ErrOverflow)
}

func TestPointsFeeCannotWrap(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	alice, freebie := newTestKey(t), newTestKey(t)
	account := l.addAccount("alice", alice.pub, alice.pub, false)

	register := &RegisterAccountOperation{Name: "freebie", OwnerKey: freebie.pub, ActiveKey: freebie.pub}

	_, err := applyTx(t, newTestLedgerFrom(l), []testKey{alice},
		register,
		&UpdateAccountOperation{AccountID: account.ID, Points: math.MaxInt64},
	)
	require.ErrorIs(err, ErrOverflow)

	_, err = applyTx(t, newTestLedgerFrom(l), []testKey{alice},
		register,
		&UpdateAccountOperation{AccountID: account.ID, Points: math.MinInt64},
	)
	require.ErrorIs(err, ErrOverflow)

	// On its own the fee is representable, and unpaid.
	_, err = applyTx(t, newTestLedgerFrom(l), nil,
		&UpdateAccountOperation{AccountID: account.ID, Points: math.MaxInt64},
	)
	require.ErrorIs(err, ErrInsufficientFees)
	require.Zero(l.account(t, account.ID).Points)
}

func TestEffectsOverflowFailsSettle(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()

	fx := NewEffects()
	fx.AddBalance(NewAsset(math.MaxInt64, NativeAssetID))
	fx.AddBalance(NewAsset(1, NativeAssetID))
	require.ErrorIs(fx.Err(), ErrOverflow)
	require.Equal(Amount(math.MaxInt64), fx.Balance[NativeAssetID])
	require.ErrorIs(fx.Settle(l), ErrOverflow)

	fx = NewEffects()
	fx.AddFee(-1)
	require.ErrorIs(fx.Settle(l), ErrNegativeAmount)

	key := newTestKey(t)
	delegate := l.addAccount("producer", key.pub, key.pub, true)
	stored := l.account(t, delegate.ID)
	stored.DelegateInfo.VotesFor = math.MaxInt64
	require.NoError(l.PutAccount(stored))

	fx = NewEffects()
	fx.AdjustDelegateVote(delegate.ID, 1)
	require.ErrorIs(fx.Settle(l), ErrOverflow)
	require.Equal(Amount(math.MaxInt64), l.account(t, delegate.ID).NetVotes())
}

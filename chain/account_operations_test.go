// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAccount(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	owner, active := newTestKey(t), newTestKey(t)

	env := newTestEnv(l)
	fx := NewEffects()
	op := &RegisterAccountOperation{
		Name:       "alice",
		PublicData: []byte("hello"),
		OwnerKey:   owner.pub,
		ActiveKey:  active.pub,
	}
	require.NoError(op.Evaluate(env, fx))
	require.Equal(env.Rules.NameFees.Fee(l.height), fx.RequiredFees)

	account, err := l.GetAccountByName("alice")
	require.NoError(err)
	require.Equal(AccountID(1), account.ID)
	require.Equal(owner.pub, account.OwnerKey)
	require.Equal(active.pub, account.ActiveKey())
	require.Equal([]byte("hello"), account.PublicData)
	require.Equal(testNow, account.RegistrationDate)
	require.False(account.IsDelegate())

	err = op.Evaluate(env, NewEffects())
	require.ErrorIs(err, ErrAccountRegistered)
	require.Equal(ClassConflict, ClassOf(err))
}

func TestRegisterDelegate(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	key := newTestKey(t)

	env := newTestEnv(l)
	fx := NewEffects()
	op := &RegisterAccountOperation{
		Name:      "producer",
		OwnerKey:  key.pub,
		ActiveKey: key.pub,
		Delegate:  true,
		PayRate:   80,
	}
	require.NoError(op.Evaluate(env, fx))
	require.Equal(env.Rules.RegistrationFee(l.height, true, 80), fx.RequiredFees)

	account, err := l.GetAccountByName("producer")
	require.NoError(err)
	require.True(account.IsDelegate())
	require.Equal(uint8(80), account.DelegatePayRate())

	op.Name = "greedy"
	op.ActiveKey = newTestKey(t).pub
	op.PayRate = 101
	require.ErrorIs(op.Evaluate(env, NewEffects()), ErrInvalidPayRate)
}

func TestDelegateFeeFollowsEnvRules(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	key := newTestKey(t)

	env := newTestEnv(l)
	env.Rules.NameFees = NameFeeSchedule{}
	env.Rules.MaxDelegateRegistrationFee = 1_000

	fx := NewEffects()
	register := &RegisterAccountOperation{
		Name:      "producer",
		OwnerKey:  key.pub,
		ActiveKey: key.pub,
		Delegate:  true,
		PayRate:   30,
	}
	require.NoError(register.Evaluate(env, fx))
	require.Equal(Amount(300), fx.RequiredFees)

	plain := newTestKey(t)
	require.NoError((&RegisterAccountOperation{
		Name:      "plain",
		OwnerKey:  plain.pub,
		ActiveKey: plain.pub,
	}).Evaluate(env, NewEffects()))
	account, err := l.GetAccountByName("plain")
	require.NoError(err)

	env.Rules.MaxDelegateRegistrationFee = 2_000
	env.Signers = NewKeySet(plain.pub)
	fx = NewEffects()
	update := &UpdateAccountOperation{AccountID: account.ID, UpdateDelegate: true, PayRate: 30}
	require.NoError(update.Evaluate(env, fx))
	require.Equal(Amount(600), fx.RequiredFees)
}

func TestRegisterAccountRejects(t *testing.T) {
	l := newTestLedger()
	taken := newTestKey(t)
	l.addAccount("bob", taken.pub, taken.pub, false)

	tests := []struct {
		name string
		op   *RegisterAccountOperation
		err  error
	}{
		{
			name: "bad name",
			op:   &RegisterAccountOperation{Name: "Bad", ActiveKey: newTestKey(t).pub},
			err:  ErrInvalidAccountName,
		},
		{
			name: "null active key",
			op:   &RegisterAccountOperation{Name: "carol"},
			err:  ErrInvalidPublicKey,
		},
		{
			name: "active key in use",
			op:   &RegisterAccountOperation{Name: "carol", ActiveKey: taken.pub},
			err:  ErrKeyInUse,
		},
		{
			name: "unknown parent",
			op:   &RegisterAccountOperation{Name: "carol.dave", ActiveKey: newTestKey(t).pub},
			err:  ErrUnknownParent,
		},
		{
			name: "missing parent signature",
			op:   &RegisterAccountOperation{Name: "carol.bob", ActiveKey: newTestKey(t).pub},
			err:  ErrMissingParentSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op.Evaluate(newTestEnv(l), NewEffects()), tt.err)
		})
	}
}

func TestRegisterChildAccount(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	parent := newTestKey(t)
	l.addAccount("bob", parent.pub, parent.pub, false)

	op := &RegisterAccountOperation{Name: "alice.bob", OwnerKey: newTestKey(t).pub, ActiveKey: newTestKey(t).pub}
	require.NoError(op.Evaluate(newTestEnv(l, parent), NewEffects()))

	retracted := l.addAccount("gone", EmptyPublicKey, newTestKey(t).pub, false)
	require.True(retracted.IsRetracted())
	op = &RegisterAccountOperation{Name: "alice.gone", ActiveKey: newTestKey(t).pub}
	require.ErrorIs(op.Evaluate(newTestEnv(l, parent), NewEffects()), ErrParentRetracted)
}

func TestUpdateAccountActiveKey(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	owner, active, next := newTestKey(t), newTestKey(t), newTestKey(t)
	account := l.addAccount("alice", owner.pub, active.pub, false)

	op := &UpdateAccountOperation{AccountID: account.ID, ActiveKey: next.pub}

	// The active key cannot rotate itself.
	require.ErrorIs(op.Evaluate(newTestEnv(l, active), NewEffects()), ErrMissingSignature)

	l.now += 10
	require.NoError(op.Evaluate(newTestEnv(l, owner), NewEffects()))
	updated := l.account(t, account.ID)
	require.Equal(next.pub, updated.ActiveKey())
	require.Len(updated.ActiveKeys, 2)
	require.Equal(l.now, updated.LastUpdate)

	// Re-submitting the current key is not a rotation.
	require.NoError(op.Evaluate(newTestEnv(l, next), NewEffects()))

	other := newTestKey(t)
	l.addAccount("bob", other.pub, other.pub, false)
	op.ActiveKey = other.pub
	require.ErrorIs(op.Evaluate(newTestEnv(l, owner), NewEffects()), ErrKeyInUse)
}

func TestUpdateAccountParentAuthority(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	root, mid, leaf := newTestKey(t), newTestKey(t), newTestKey(t)
	l.addAccount("carol", root.pub, root.pub, false)
	l.addAccount("bob.carol", mid.pub, mid.pub, false)
	child := l.addAccount("alice.bob.carol", leaf.pub, leaf.pub, false)

	op := &UpdateAccountOperation{AccountID: child.ID, ActiveKey: newTestKey(t).pub}

	// The child's own owner key does not authorize a child's key change.
	require.ErrorIs(op.Evaluate(newTestEnv(l, leaf), NewEffects()), ErrMissingSignature)

	// The grandparent does.
	require.NoError(op.Evaluate(newTestEnv(l, root), NewEffects()))

	authority, ancestor, err := ParentAuthority(newTestEnv(l, root), "alice.bob.carol")
	require.NoError(err)
	require.Equal(Authorized, authority)
	require.Equal("carol", ancestor)

	authority, _, err = ParentAuthority(newTestEnv(l), "alice.bob.carol")
	require.NoError(err)
	require.Equal(Unauthorized, authority)
}

func TestParentAuthorityStopsAtRetractedAncestor(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	root := newTestKey(t)
	l.addAccount("carol", root.pub, root.pub, false)
	l.addAccount("bob.carol", EmptyPublicKey, newTestKey(t).pub, false)
	child := l.addAccount("alice.bob.carol", newTestKey(t).pub, newTestKey(t).pub, false)

	authority, ancestor, err := ParentAuthority(newTestEnv(l, root), child.Name)
	require.NoError(err)
	require.Equal(AncestorRetracted, authority)
	require.Equal("bob.carol", ancestor)

	op := &UpdateAccountOperation{AccountID: child.ID, ActiveKey: newTestKey(t).pub}
	require.ErrorIs(op.Evaluate(newTestEnv(l, root), NewEffects()), ErrParentRetracted)
}

func TestUpdateAccountDelegate(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	key := newTestKey(t)
	account := l.addAccount("alice", key.pub, key.pub, false)
	env := newTestEnv(l, key)

	fx := NewEffects()
	op := &UpdateAccountOperation{AccountID: account.ID, UpdateDelegate: true, PayRate: 60}
	require.NoError(op.Evaluate(env, fx))
	require.Equal(env.Rules.DelegateFee(60), fx.RequiredFees)
	require.Equal(uint8(60), l.account(t, account.ID).DelegatePayRate())

	// Lowering is free.
	fx = NewEffects()
	op.PayRate = 40
	require.NoError(op.Evaluate(env, fx))
	require.Zero(fx.RequiredFees)
	require.Equal(uint8(40), l.account(t, account.ID).DelegatePayRate())

	// Keeping the same rate always succeeds.
	fx = NewEffects()
	require.NoError(op.Evaluate(env, fx))
	require.Zero(fx.RequiredFees)
	require.Equal(uint8(40), l.account(t, account.ID).DelegatePayRate())

	op.PayRate = 41
	require.ErrorIs(op.Evaluate(env, NewEffects()), ErrPayRateIncrease)
}

func TestUpdateAccountPoints(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	key := newTestKey(t)
	account := l.addAccount("alice", key.pub, key.pub, false)
	env := newTestEnv(l, key)

	fx := NewEffects()
	require.NoError((&UpdateAccountOperation{AccountID: account.ID, Points: -7}).Evaluate(env, fx))
	require.Equal(Amount(7), fx.RequiredFees)
	require.Equal(Amount(-7), l.account(t, account.ID).Points)

	op := &UpdateAccountOperation{AccountID: account.ID, Points: 5, SetPublicData: true}
	require.ErrorIs(op.Evaluate(env, NewEffects()), ErrInvalidUpdate)
	require.ErrorIs((&UpdateAccountOperation{AccountID: account.ID, Points: math.MinInt64}).Evaluate(env, NewEffects()), ErrOverflow)

	stored := l.account(t, account.ID)
	stored.Points = math.MaxInt64
	require.NoError(l.PutAccount(stored))
	require.ErrorIs((&UpdateAccountOperation{AccountID: account.ID, Points: 1}).Evaluate(env, NewEffects()), ErrOverflow)
	require.Equal(Amount(math.MaxInt64), l.account(t, account.ID).Points)
}

func TestUpdateAccountPublicData(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	owner, active := newTestKey(t), newTestKey(t)
	account := l.addAccount("alice", owner.pub, active.pub, false)

	op := &UpdateAccountOperation{AccountID: account.ID, SetPublicData: true, PublicData: []byte("v2")}
	require.ErrorIs(op.Evaluate(newTestEnv(l), NewEffects()), ErrMissingSignature)
	require.NoError(op.Evaluate(newTestEnv(l, active), NewEffects()))
	require.Equal([]byte("v2"), l.account(t, account.ID).PublicData)

	retracted := l.addAccount("gone", EmptyPublicKey, newTestKey(t).pub, false)
	op.AccountID = retracted.ID
	require.ErrorIs(op.Evaluate(newTestEnv(l, active), NewEffects()), ErrAccountRetracted)

	op.AccountID = 99
	require.ErrorIs(op.Evaluate(newTestEnv(l, active), NewEffects()), ErrUnknownAccount)
}

func TestWithdrawPay(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	key := newTestKey(t)
	account := l.addAccount("producer", key.pub, key.pub, true)
	stored := l.accounts[account.ID]
	stored.DelegateInfo.PayBalance = 500
	stored.DelegateInfo.VotesFor = 1000

	op := &WithdrawPayOperation{AccountID: account.ID, Amount: 200}
	require.ErrorIs(op.Evaluate(newTestEnv(l), NewEffects()), ErrMissingSignature)

	fx := NewEffects()
	require.NoError(op.Evaluate(newTestEnv(l, key), fx))
	require.Equal(Amount(200), fx.Balance[NativeAssetID])
	require.Equal(Amount(-200), fx.DelegateVotes[account.ID])
	require.Equal(Amount(300), l.account(t, account.ID).DelegateInfo.PayBalance)

	op.Amount = 301
	require.ErrorIs(op.Evaluate(newTestEnv(l, key), NewEffects()), ErrInsufficientFunds)

	plain := l.addAccount("plain", key.pub, newTestKey(t).pub, false)
	op = &WithdrawPayOperation{AccountID: plain.ID, Amount: 1}
	require.ErrorIs(op.Evaluate(newTestEnv(l, key), NewEffects()), ErrNotADelegate)
}

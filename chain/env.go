// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

// Env is everything an operation may read while it is evaluated. Writes to
// [Ledger] land in the transaction's overlay; everything else an operation
// produces goes to the Effects accumulator.
type Env struct {
	Ledger  Ledger
	Rules   *Rules
	Trx     *Transaction
	TrxID   ids.ID
	Signers SignatureChecker
}

// Now is the ledger's notion of the current time.
func (e *Env) Now() int64 { return e.Ledger.Now() }

// CheckAddress reports whether the transaction carries a signature from the
// key hashing to [addr].
func (e *Env) CheckAddress(addr Address) bool { return e.Signers.CheckAddress(addr) }

// CheckKey reports whether the transaction carries a signature from [key].
func (e *Env) CheckKey(key PublicKey) bool { return e.Signers.CheckKey(key) }

// VerifyDelegateID returns an error unless [id] names a delegate.
func (e *Env) VerifyDelegateID(id AccountID) error {
	account, err := e.Ledger.GetAccount(id.Abs())
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrUnknownAccount, id.Abs())
	case err != nil:
		return err
	case !account.IsDelegate():
		return fmt.Errorf("%w: %s", ErrNotADelegate, account.Name)
	}
	return nil
}

// Effects accumulates the obligations a transaction's operations produce.
// Each operation only adds to it; Settle checks and applies the totals once
// every operation has been evaluated.
type Effects struct {
	RequiredFees Amount

	// Balance is the net amount per asset made available by the
	// transaction: withdrawals add, deposits and burns subtract.
	Balance map[AssetID]Amount

	// Deposits are the amounts deposited per destination.
	Deposits map[Address]map[AssetID]Amount

	// RequiredDeposits must be covered by Deposits before the transaction
	// settles.
	RequiredDeposits map[Address]map[AssetID]Amount

	// SlateVotes are vote deltas per slate, spread over the slate's
	// delegates at settlement.
	SlateVotes map[SlateID]Amount

	// DelegateVotes are vote deltas charged to a single delegate.
	DelegateVotes map[AccountID]Amount

	// Yield paid out per asset, for reporting.
	Yield map[AssetID]Amount

	// err is the first accumulation that went out of range. Settle fails
	// with it.
	err error
}

func NewEffects() *Effects {
	return &Effects{
		Balance:          make(map[AssetID]Amount),
		Deposits:         make(map[Address]map[AssetID]Amount),
		RequiredDeposits: make(map[Address]map[AssetID]Amount),
		SlateVotes:       make(map[SlateID]Amount),
		DelegateVotes:    make(map[AccountID]Amount),
		Yield:            make(map[AssetID]Amount),
	}
}

// AddFee adds [fee] native units to the required fees.
func (fx *Effects) AddFee(fee Amount) {
	if fee < 0 {
		fx.fail(fmt.Errorf("%w: fee %d", ErrNegativeAmount, fee))
		return
	}
	fx.RequiredFees = fx.add(fx.RequiredFees, fee)
}

// AddBalance makes [a] available to the rest of the transaction.
func (fx *Effects) AddBalance(a Asset) {
	fx.Balance[a.AssetID] = fx.add(fx.Balance[a.AssetID], a.Amount)
}

// SubBalance consumes [a] from the transaction. A deposit names each
// destination it funds; burns name none.
func (fx *Effects) SubBalance(a Asset, to ...Address) {
	fx.Balance[a.AssetID] = fx.sub(fx.Balance[a.AssetID], a.Amount)
	for _, addr := range to {
		fx.addAsset(fx.Deposits, addr, a)
	}
}

// AddRequiredDeposit obliges the transaction to deposit [a] to [addr].
func (fx *Effects) AddRequiredDeposit(addr Address, a Asset) {
	fx.addAsset(fx.RequiredDeposits, addr, a)
}

// AdjustVote moves [delta] vote weight onto every delegate of [slate].
func (fx *Effects) AdjustVote(slate SlateID, delta Amount) {
	if slate == 0 {
		return
	}
	fx.SlateVotes[slate] = fx.add(fx.SlateVotes[slate], delta)
}

// AdjustDelegateVote moves [delta] vote weight onto one delegate.
func (fx *Effects) AdjustDelegateVote(id AccountID, delta Amount) {
	fx.DelegateVotes[id.Abs()] = fx.add(fx.DelegateVotes[id.Abs()], delta)
}

// AddYield records [amount] of yield paid in [asset].
func (fx *Effects) AddYield(asset AssetID, amount Amount) {
	fx.Yield[asset] = fx.add(fx.Yield[asset], amount)
}

// Err returns the first accumulation that went out of range, if any.
func (fx *Effects) Err() error { return fx.err }

func (fx *Effects) fail(err error) {
	if fx.err == nil {
		fx.err = err
	}
}

// add returns a+b. On overflow it records the error and returns [a].
func (fx *Effects) add(a, b Amount) Amount {
	sum, err := AddAmounts(a, b)
	if err != nil {
		fx.fail(err)
		return a
	}
	return sum
}

func (fx *Effects) sub(a, b Amount) Amount {
	diff, err := SubAmounts(a, b)
	if err != nil {
		fx.fail(err)
		return a
	}
	return diff
}

func (fx *Effects) addAsset(m map[Address]map[AssetID]Amount, addr Address, a Asset) {
	assets, ok := m[addr]
	if !ok {
		assets = make(map[AssetID]Amount)
		m[addr] = assets
	}
	assets[a.AssetID] = fx.add(assets[a.AssetID], a.Amount)
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
)

var (
	_ Operation = (*DepositOperation)(nil)
	_ Operation = (*WithdrawOperation)(nil)
)

// DepositOperation funds the balance held under Condition, creating it on
// first deposit.
type DepositOperation struct {
	Amount    Amount            `serialize:"true" json:"amount"`
	Condition WithdrawCondition `serialize:"true" json:"condition"`
}

// NewDeposit deposits [amount] to a plain signature balance of [owner].
func NewDeposit(owner Address, amount Asset, slate SlateID) *DepositOperation {
	return &DepositOperation{
		Amount:    amount.Amount,
		Condition: NewSignatureCondition(owner, amount.AssetID, slate),
	}
}

func (*DepositOperation) Type() OperationType { return DepositOpType }

func (op *DepositOperation) Evaluate(env *Env, fx *Effects) error {
	if op.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, op.Amount)
	}
	cond := op.Condition
	if cond.Condition == nil {
		return ErrInvalidCondition
	}
	if err := cond.Condition.Verify(env.Rules); err != nil {
		return err
	}
	if _, err := env.Ledger.GetAsset(cond.AssetID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownAsset, cond.AssetID)
		}
		return err
	}
	if cond.Votes() {
		if _, err := env.Ledger.GetSlate(cond.SlateID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownSlate, cond.SlateID)
			}
			return err
		}
	}

	balanceID, err := cond.Address()
	if err != nil {
		return err
	}
	record, err := env.Ledger.GetBalance(balanceID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		record = &BalanceRecord{Condition: cond}
	case err != nil:
		return err
	}
	if err := record.credit(env.Now(), op.Amount); err != nil {
		return err
	}

	deposited := NewAsset(op.Amount, cond.AssetID)
	destinations := []Address{balanceID}
	switch c := cond.Condition.(type) {
	case *SignatureCondition:
		destinations = append(destinations, c.Owner)
	case *DomainOfferCondition:
		if err := env.Ledger.PutDomainOffer(c.OfferKey()); err != nil {
			return err
		}
	}
	fx.SubBalance(deposited, destinations...)

	if cond.Votes() {
		fx.AdjustVote(cond.SlateID, op.Amount)
	}

	log.Debug("deposit", "balanceID", balanceID, "amount", op.Amount, "assetID", cond.AssetID)
	return env.Ledger.PutBalance(record)
}

// WithdrawOperation spends from a balance. ClaimData is the evidence the
// balance's condition asks for, if any.
type WithdrawOperation struct {
	BalanceID BalanceID `serialize:"true" json:"balanceID"`
	Amount    Amount    `serialize:"true" json:"amount"`
	ClaimData []byte    `serialize:"true" json:"claimData"`
}

func (*WithdrawOperation) Type() OperationType { return WithdrawOpType }

func (op *WithdrawOperation) Evaluate(env *Env, fx *Effects) error {
	if op.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, op.Amount)
	}
	record, err := env.Ledger.GetBalance(op.BalanceID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownBalance, op.BalanceID)
	}
	if err != nil {
		return err
	}
	if op.Amount > record.Balance {
		return fmt.Errorf("%w: withdrawing %d of %d", ErrInsufficientFunds, op.Amount, record.Balance)
	}

	cond := record.Condition
	if cond.Condition == nil {
		return ErrNilCondition
	}
	claim := &Claim{
		Amount: NewAsset(op.Amount, cond.AssetID),
		Data:   op.ClaimData,
	}
	if err := cond.Condition.authorize(env, fx, claim); err != nil {
		return fmt.Errorf("%s withdrawal from %s: %w", cond.Condition.Type(), op.BalanceID, err)
	}

	if cond.Votes() {
		fx.AdjustVote(cond.SlateID, -op.Amount)
	}

	asset, err := env.Ledger.GetAsset(cond.AssetID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrUnknownAsset, cond.AssetID)
	}
	if err != nil {
		return err
	}
	now := env.Now()
	if asset.IsMarketIssued() {
		yield := CalculateYield(now, record.DepositDate, record.Balance,
			asset.CollectedFees, asset.CurrentShareSupply, env.Rules.MinYieldPeriod)
		if yield > 0 {
			if record.Balance, err = AddAmounts(record.Balance, yield); err != nil {
				return err
			}
			asset.CollectedFees -= yield
			record.DepositDate = now
			fx.AddYield(cond.AssetID, yield)
			if err := env.Ledger.PutAsset(asset); err != nil {
				return err
			}
			log.Debug("paid yield", "balanceID", op.BalanceID, "yield", yield)
		}
	}

	record.Balance -= op.Amount
	record.LastUpdate = now
	if err := env.Ledger.PutBalance(record); err != nil {
		return err
	}
	fx.AddBalance(claim.Amount)
	return nil
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"
	"math"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
)

var (
	_ Operation = (*RegisterAccountOperation)(nil)
	_ Operation = (*UpdateAccountOperation)(nil)
	_ Operation = (*WithdrawPayOperation)(nil)
)

// RegisterAccountOperation claims a name. Child names ("alice.bob") need the
// parent's active key to sign.
type RegisterAccountOperation struct {
	Name       string    `serialize:"true" json:"name"`
	PublicData []byte    `serialize:"true" json:"publicData"`
	OwnerKey   PublicKey `serialize:"true" json:"ownerKey"`
	ActiveKey  PublicKey `serialize:"true" json:"activeKey"`

	// Delegate registers the account as a delegate paid at PayRate percent.
	Delegate bool  `serialize:"true" json:"delegate"`
	PayRate  uint8 `serialize:"true" json:"payRate"`

	HasMeta bool        `serialize:"true" json:"hasMeta"`
	Meta    AccountMeta `serialize:"true" json:"meta"`
}

func (*RegisterAccountOperation) Type() OperationType { return RegisterAccountOpType }

func (op *RegisterAccountOperation) Evaluate(env *Env, fx *Effects) error {
	rules := env.Rules
	if err := rules.ValidateAccountName(op.Name); err != nil {
		return err
	}
	if op.ActiveKey.IsZero() {
		return fmt.Errorf("%w: null active key", ErrInvalidPublicKey)
	}
	if op.Delegate && op.PayRate > MaxPayRate {
		return fmt.Errorf("%w: %d", ErrInvalidPayRate, op.PayRate)
	}

	fx.AddFee(rules.NameFees.Fee(env.Ledger.HeadBlockHeight()))

	_, err := env.Ledger.GetAccountByName(op.Name)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %q", ErrAccountRegistered, op.Name)
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	if parentName := ParentName(op.Name); parentName != "" {
		parent, err := env.Ledger.GetAccountByName(parentName)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownParent, parentName)
		}
		if err != nil {
			return err
		}
		if parent.IsRetracted() {
			return fmt.Errorf("%w: %q", ErrParentRetracted, parentName)
		}
		if !env.CheckKey(parent.ActiveKey()) {
			return fmt.Errorf("%w: %q", ErrMissingParentSignature, parentName)
		}
	}

	if err := requireUnusedKey(env, op.ActiveKey, 0); err != nil {
		return err
	}

	id, err := env.Ledger.NewAccountID()
	if err != nil {
		return err
	}
	now := env.Now()
	account := &AccountRecord{
		ID:               id,
		Name:             op.Name,
		PublicData:       op.PublicData,
		OwnerKey:         op.OwnerKey,
		RegistrationDate: now,
		LastUpdate:       now,
	}
	account.SetActiveKey(now, op.ActiveKey)
	if op.Delegate {
		account.DelegateInfo = &DelegateStats{PayRate: op.PayRate}
		fx.AddFee(rules.DelegateFee(op.PayRate))
	}
	if op.HasMeta {
		meta := op.Meta
		account.Meta = &meta
	}

	log.Debug("registered account", "name", op.Name, "id", id, "delegate", op.Delegate)
	return env.Ledger.PutAccount(account)
}

// UpdateAccountOperation changes an account's keys, public data or delegate
// status, or burns/mints its points. A points change cannot be combined
// with anything else.
type UpdateAccountOperation struct {
	AccountID AccountID `serialize:"true" json:"accountID"`

	SetPublicData bool   `serialize:"true" json:"setPublicData"`
	PublicData    []byte `serialize:"true" json:"publicData"`

	// ActiveKey is left unchanged when null.
	ActiveKey PublicKey `serialize:"true" json:"activeKey"`

	// UpdateDelegate makes the account a delegate at PayRate, or lowers the
	// pay rate of an existing delegate.
	UpdateDelegate bool  `serialize:"true" json:"updateDelegate"`
	PayRate        uint8 `serialize:"true" json:"payRate"`

	Points Amount `serialize:"true" json:"points"`
}

func (*UpdateAccountOperation) Type() OperationType { return UpdateAccountOpType }

func (op *UpdateAccountOperation) Evaluate(env *Env, fx *Effects) error {
	account, err := env.Ledger.GetAccount(op.AccountID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrUnknownAccount, op.AccountID)
	}
	if err != nil {
		return err
	}
	if account.IsRetracted() {
		return fmt.Errorf("%w: %q", ErrAccountRetracted, account.Name)
	}

	if op.Points != 0 {
		if op.SetPublicData || !op.ActiveKey.IsZero() || op.UpdateDelegate {
			return ErrInvalidUpdate
		}
		if op.Points == math.MinInt64 {
			return fmt.Errorf("%w: points %d", ErrOverflow, op.Points)
		}
		points, err := AddAmounts(account.Points, op.Points)
		if err != nil {
			return err
		}
		account.Points = points
		fee := op.Points
		if fee < 0 {
			fee = -fee
		}
		fx.AddFee(fee)
		return env.Ledger.PutAccount(account)
	}

	if op.UpdateDelegate && op.PayRate > MaxPayRate {
		return fmt.Errorf("%w: %d", ErrInvalidPayRate, op.PayRate)
	}
	if err := op.authorize(env, account); err != nil {
		return err
	}

	if op.SetPublicData {
		account.PublicData = op.PublicData
	}

	if op.UpdateDelegate {
		if account.IsDelegate() {
			if op.PayRate > account.DelegateInfo.PayRate {
				return fmt.Errorf("%w: %d > %d", ErrPayRateIncrease, op.PayRate, account.DelegateInfo.PayRate)
			}
			account.DelegateInfo.PayRate = op.PayRate
		} else {
			account.DelegateInfo = &DelegateStats{PayRate: op.PayRate}
			fx.AddFee(env.Rules.DelegateFee(op.PayRate))
		}
	}

	now := env.Now()
	account.LastUpdate = now

	if !op.ActiveKey.IsZero() && op.ActiveKey != account.ActiveKey() {
		if err := requireUnusedKey(env, op.ActiveKey, account.ID); err != nil {
			return err
		}
		account.SetActiveKey(now, op.ActiveKey)
	}
	return env.Ledger.PutAccount(account)
}

// authorize requires the owner (or, for child accounts, an ancestor) to sign
// a change of active key. Any other change may also be signed by the
// current active key.
func (op *UpdateAccountOperation) authorize(env *Env, account *AccountRecord) error {
	parentName := ParentName(account.Name)

	if !op.ActiveKey.IsZero() && op.ActiveKey != account.ActiveKey() {
		if parentName == "" {
			if !env.CheckKey(account.OwnerKey) {
				return fmt.Errorf("%w: owner of %q", ErrMissingSignature, account.Name)
			}
			return nil
		}
		if _, err := env.Ledger.GetAccountByName(parentName); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrUnknownParent, parentName)
			}
			return err
		}
		return requireParentAuthority(env, account.Name)
	}

	if env.CheckAddress(account.ActiveAddress()) || env.CheckKey(account.OwnerKey) {
		return nil
	}
	if parentName == "" {
		return fmt.Errorf("%w: active or owner key of %q", ErrMissingSignature, account.Name)
	}
	return requireParentAuthority(env, account.Name)
}

// requireUnusedKey fails if an account other than [self] already uses [key].
func requireUnusedKey(env *Env, key PublicKey, self AccountID) error {
	other, err := env.Ledger.GetAccountByAddress(key.Address())
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == self:
		return nil
	default:
		return fmt.Errorf("%w: %s is used by %q", ErrKeyInUse, key, other.Name)
	}
}

// WithdrawPayOperation moves escrowed pay out of a delegate's account.
type WithdrawPayOperation struct {
	AccountID AccountID `serialize:"true" json:"accountID"`
	Amount    Amount    `serialize:"true" json:"amount"`
}

func (*WithdrawPayOperation) Type() OperationType { return WithdrawPayOpType }

func (op *WithdrawPayOperation) Evaluate(env *Env, fx *Effects) error {
	if op.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, op.Amount)
	}

	id := op.AccountID.Abs()
	account, err := env.Ledger.GetAccount(id)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	if err != nil {
		return err
	}
	if account.IsRetracted() {
		return fmt.Errorf("%w: %q", ErrAccountRetracted, account.Name)
	}
	if !account.IsDelegate() {
		return fmt.Errorf("%w: %q", ErrNotADelegate, account.Name)
	}
	if !env.CheckKey(account.ActiveKey()) {
		return fmt.Errorf("%w: active key of %q", ErrMissingSignature, account.Name)
	}
	if account.DelegateInfo.PayBalance < op.Amount {
		return fmt.Errorf("%w: pay balance %d < %d", ErrInsufficientFunds, account.DelegateInfo.PayBalance, op.Amount)
	}

	fx.AdjustDelegateVote(id, -op.Amount)
	account.DelegateInfo.PayBalance -= op.Amount
	if err := env.Ledger.PutAccount(account); err != nil {
		return err
	}
	fx.AddBalance(NewAsset(op.Amount, NativeAssetID))
	return nil
}

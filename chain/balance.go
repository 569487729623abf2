// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// WithdrawCondition is the rule a balance is spent under. The asset and
// slate are part of the condition, so the same owner holds one balance per
// (asset, slate) pair.
type WithdrawCondition struct {
	AssetID   AssetID   `serialize:"true" json:"assetID"`
	SlateID   SlateID   `serialize:"true" json:"slateID"`
	Condition Condition `serialize:"true" json:"condition"`
}

// NewSignatureCondition is the common case: a single owner.
func NewSignatureCondition(owner Address, assetID AssetID, slate SlateID) WithdrawCondition {
	return WithdrawCondition{
		AssetID:   assetID,
		SlateID:   slate,
		Condition: &SignatureCondition{Owner: owner},
	}
}

// Bytes returns the canonical encoding of the condition.
func (c *WithdrawCondition) Bytes() ([]byte, error) {
	if c.Condition == nil {
		return nil, ErrNilCondition
	}
	return Codec.Marshal(CodecVersion, c)
}

// Address is ripemd160(sha256(Bytes())). It is the id of the balance held
// under this condition.
func (c *WithdrawCondition) Address() (BalanceID, error) {
	b, err := c.Bytes()
	if err != nil {
		return ids.ShortEmpty, err
	}
	return ids.ShortID(hashing.ComputeHash160Array(hashing.ComputeHash256(b))), nil
}

// Votes reports whether balances under this condition carry vote weight.
func (c *WithdrawCondition) Votes() bool {
	return c.AssetID == NativeAssetID && c.SlateID != 0
}

// BalanceRecord is an amount of one asset locked under a withdraw condition.
type BalanceRecord struct {
	Condition   WithdrawCondition `serialize:"true" json:"condition"`
	Balance     Amount            `serialize:"true" json:"balance"`
	DepositDate int64             `serialize:"true" json:"depositDate"`
	LastUpdate  int64             `serialize:"true" json:"lastUpdate"`
}

// ID returns the address of the record's condition.
func (b *BalanceRecord) ID() (BalanceID, error) {
	return b.Condition.Address()
}

// AssetID ...
func (b *BalanceRecord) AssetID() AssetID { return b.Condition.AssetID }

// Asset returns the record's balance as an Asset.
func (b *BalanceRecord) Asset() Asset { return NewAsset(b.Balance, b.Condition.AssetID) }

// credit adds [amount] deposited at [now], folding the deposit into the
// balance-weighted average deposit date.
func (b *BalanceRecord) credit(now int64, amount Amount) error {
	balance, err := AddAmounts(b.Balance, amount)
	if err != nil {
		return err
	}
	if b.Balance == 0 {
		b.DepositDate = now
	} else {
		date, err := weightedDate(b.DepositDate, b.Balance, now, amount)
		if err != nil {
			return fmt.Errorf("%w: deposit date of %d after %d more", err, b.Balance, amount)
		}
		b.DepositDate = date
	}
	b.Balance = balance
	b.LastUpdate = now
	return nil
}

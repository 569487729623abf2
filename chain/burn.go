// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

var _ Operation = (*BurnOperation)(nil)

// BurnRecord is stored under (AccountID, TrxID) for every burn.
type BurnRecord struct {
	AccountID        AccountID `serialize:"true" json:"accountID"`
	TrxID            ids.ID    `serialize:"true" json:"trxID"`
	Amount           Asset     `serialize:"true" json:"amount"`
	Message          string    `serialize:"true" json:"message"`
	MessageSignature []byte    `serialize:"true" json:"messageSignature"`
}

// Key is AccountID || TrxID.
func (r *BurnRecord) Key() []byte {
	key := make([]byte, 0, 4+len(r.TrxID))
	key = append(key, r.AccountID.Bytes()...)
	return append(key, r.TrxID[:]...)
}

// BurnOperation destroys Amount, optionally in the name of an account. A
// negative AccountID burns against the account rather than for it.
type BurnOperation struct {
	Amount           Asset     `serialize:"true" json:"amount"`
	AccountID        AccountID `serialize:"true" json:"accountID"`
	Message          string    `serialize:"true" json:"message"`
	MessageSignature []byte    `serialize:"true" json:"messageSignature"`
}

func (*BurnOperation) Type() OperationType { return BurnOpType }

func (op *BurnOperation) Evaluate(env *Env, fx *Effects) error {
	rules := env.Rules
	if op.Amount.Amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, op.Amount.Amount)
	}
	if len(op.Message) > rules.MaxBurnMessage {
		return fmt.Errorf("%w: burn message of %d bytes", ErrMemoTooLong, len(op.Message))
	}
	if len(op.Message) > 0 && op.Amount.AssetID != NativeAssetID {
		return fmt.Errorf("%w: asset %d", ErrBurnMessage, op.Amount.AssetID)
	}
	if op.Amount.AssetID == NativeAssetID && op.Amount.Amount < rules.MinBurnFee {
		return fmt.Errorf("%w: %d < %d", ErrBurnBelowMinimum, op.Amount.Amount, rules.MinBurnFee)
	}

	asset, err := env.Ledger.GetAsset(op.Amount.AssetID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrUnknownAsset, op.Amount.AssetID)
	}
	if err != nil {
		return err
	}
	if !asset.IsMarketIssued() {
		asset.CurrentShareSupply -= op.Amount.Amount
		if err := env.Ledger.PutAsset(asset); err != nil {
			return err
		}
	}
	fx.SubBalance(op.Amount)

	if op.AccountID != 0 {
		if _, err := env.Ledger.GetAccount(op.AccountID.Abs()); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrUnknownAccount, op.AccountID.Abs())
			}
			return err
		}
	}

	return env.Ledger.PutBurn(&BurnRecord{
		AccountID:        op.AccountID,
		TrxID:            env.TrxID,
		Amount:           op.Amount,
		Message:          op.Message,
		MessageSignature: op.MessageSignature,
	})
}

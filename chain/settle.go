// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ava-labs/avalanchego/database"
)

// Settle checks the accumulated obligations and applies the transaction-wide
// effects: fees and leftovers are credited to each asset's collected fees,
// and slate votes are spread over the delegates. Settle must run once, after
// the last operation.
func (fx *Effects) Settle(ledger Ledger) error {
	if fx.err != nil {
		return fx.err
	}
	if fx.RequiredFees < 0 {
		return fmt.Errorf("%w: required fees %d", ErrNegativeAmount, fx.RequiredFees)
	}
	if err := fx.checkRequiredDeposits(); err != nil {
		return err
	}

	for _, assetID := range sortedAssetIDs(fx.Balance) {
		remainder := fx.Balance[assetID]
		if remainder < 0 {
			return fmt.Errorf("%w: asset %d short by %d", ErrInsufficientFunds, assetID, -remainder)
		}
	}
	if native := fx.Balance[NativeAssetID]; native < fx.RequiredFees {
		return fmt.Errorf("%w: paid %d, required %d", ErrInsufficientFees, native, fx.RequiredFees)
	}

	for _, assetID := range sortedAssetIDs(fx.Balance) {
		remainder := fx.Balance[assetID]
		if remainder == 0 {
			continue
		}
		asset, err := ledger.GetAsset(assetID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownAsset, assetID)
		}
		if err != nil {
			return err
		}
		if asset.CollectedFees, err = AddAmounts(asset.CollectedFees, remainder); err != nil {
			return err
		}
		if err := ledger.PutAsset(asset); err != nil {
			return err
		}
	}

	return fx.applyVotes(ledger)
}

func (fx *Effects) checkRequiredDeposits() error {
	addrs := make([]Address, 0, len(fx.RequiredDeposits))
	for addr := range fx.RequiredDeposits {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	for _, addr := range addrs {
		required := fx.RequiredDeposits[addr]
		for _, assetID := range sortedAssetIDs(required) {
			deposited := fx.Deposits[addr][assetID]
			if deposited < required[assetID] {
				return fmt.Errorf("%w: %s deposited %d of %d in asset %d",
					ErrMissingDeposit, addr, deposited, required[assetID], assetID)
			}
		}
	}
	return nil
}

// applyVotes moves slate votes onto the slates' delegates and writes the net
// change of every delegate. A negative id in a slate votes against.
func (fx *Effects) applyVotes(ledger Ledger) error {
	slates := make([]SlateID, 0, len(fx.SlateVotes))
	for id := range fx.SlateVotes {
		slates = append(slates, id)
	}
	sort.Slice(slates, func(i, j int) bool { return slates[i] < slates[j] })

	for _, slateID := range slates {
		delta := fx.SlateVotes[slateID]
		if delta == 0 {
			continue
		}
		slate, err := ledger.GetSlate(slateID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownSlate, slateID)
		}
		if err != nil {
			return err
		}
		for _, id := range slate.Delegates {
			if id < 0 {
				fx.DelegateVotes[id.Abs()] = fx.sub(fx.DelegateVotes[id.Abs()], delta)
			} else {
				fx.DelegateVotes[id] = fx.add(fx.DelegateVotes[id], delta)
			}
		}
	}
	if fx.err != nil {
		return fx.err
	}

	delegates := make([]AccountID, 0, len(fx.DelegateVotes))
	for id := range fx.DelegateVotes {
		delegates = append(delegates, id)
	}
	sort.Slice(delegates, func(i, j int) bool { return delegates[i] < delegates[j] })

	for _, id := range delegates {
		delta := fx.DelegateVotes[id]
		if delta == 0 {
			continue
		}
		account, err := ledger.GetAccount(id)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownAccount, id)
		}
		if err != nil {
			return err
		}
		if !account.IsDelegate() {
			return fmt.Errorf("%w: %q", ErrNotADelegate, account.Name)
		}
		if account.DelegateInfo.VotesFor, err = AddAmounts(account.DelegateInfo.VotesFor, delta); err != nil {
			return err
		}
		if err := ledger.PutAccount(account); err != nil {
			return err
		}
	}
	return nil
}

func sortedAssetIDs(m map[AssetID]Amount) []AssetID {
	assetIDs := make([]AssetID, 0, len(m))
	for id := range m {
		assetIDs = append(assetIDs, id)
	}
	sort.Slice(assetIDs, func(i, j int) bool { return assetIDs[i] < assetIDs[j] })
	return assetIDs
}

// AssetIDs lists the assets the transaction moved, in order.
func (fx *Effects) AssetIDs() []AssetID { return sortedAssetIDs(fx.Balance) }

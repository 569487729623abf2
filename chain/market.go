// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// OrderType is the side of a market order.
type OrderType uint8

const (
	NullOrder OrderType = iota
	BidOrder
	AskOrder
	ShortOrder
	CoverOrder
)

func (t OrderType) String() string {
	switch t {
	case BidOrder:
		return "bid"
	case AskOrder:
		return "ask"
	case ShortOrder:
		return "short"
	case CoverOrder:
		return "cover"
	default:
		return "null"
	}
}

// MarketIndexKey orders the book by price, then owner.
type MarketIndexKey struct {
	OrderPrice Price   `json:"orderPrice"`
	Owner      Address `json:"owner"`
}

// MarketOrder is a view over an order's stored balance. Cover orders also
// carry the collateral backing the short they close.
type MarketOrder struct {
	Type       OrderType      `json:"type"`
	Index      MarketIndexKey `json:"marketIndex"`
	Balance    Amount         `json:"balance"`
	Collateral *Amount        `json:"collateral,omitempty"`
}

// ID is a short display id derived from the owner.
func (o *MarketOrder) ID() string {
	owner := o.Index.Owner.String()
	if len(owner) > 8 {
		owner = owner[:8]
	}
	return "ORDER-" + owner
}

// Price ...
func (o *MarketOrder) Price() Price { return o.Index.OrderPrice }

// BalanceAsset returns the stored balance in the asset it is held in: quote
// for bids and covers, base for asks, the native asset for shorts.
func (o *MarketOrder) BalanceAsset() (Asset, error) {
	price := o.Index.OrderPrice
	switch o.Type {
	case BidOrder, CoverOrder:
		return NewAsset(o.Balance, price.Quote), nil
	case AskOrder:
		return NewAsset(o.Balance, price.Base), nil
	case ShortOrder:
		return NewAsset(o.Balance, NativeAssetID), nil
	default:
		return Asset{}, fmt.Errorf("%w: %d", ErrInvalidOrderType, o.Type)
	}
}

// Quantity is the amount the order offers in base units. A cover offers
// three quarters of its collateral whatever the price.
func (o *MarketOrder) Quantity() (Asset, error) {
	switch o.Type {
	case BidOrder:
		balance, _ := o.BalanceAsset()
		return balance.Mul(o.Index.OrderPrice)
	case AskOrder, ShortOrder:
		return o.BalanceAsset()
	case CoverOrder:
		collateral, err := o.collateral()
		if err != nil {
			return Asset{}, err
		}
		q := uint256.NewInt(uint64(collateral))
		q.Mul(q, uint256.NewInt(3))
		q.Div(q, uint256.NewInt(4))
		return NewAsset(Amount(q.Uint64()), NativeAssetID), nil
	default:
		return Asset{}, fmt.Errorf("%w: %d", ErrInvalidOrderType, o.Type)
	}
}

// QuoteQuantity is the amount the order is worth in quote units.
func (o *MarketOrder) QuoteQuantity() (Asset, error) {
	switch o.Type {
	case BidOrder, CoverOrder:
		return o.BalanceAsset()
	case AskOrder, ShortOrder:
		balance, _ := o.BalanceAsset()
		return balance.Mul(o.Index.OrderPrice)
	default:
		return Asset{}, fmt.Errorf("%w: %d", ErrInvalidOrderType, o.Type)
	}
}

// HighestCoverPrice is the remaining debt over the collateral: the price
// above which the cover can no longer be paid for.
func (o *MarketOrder) HighestCoverPrice() (Price, error) {
	if o.Type != CoverOrder {
		return Price{}, fmt.Errorf("%w: %s order has no cover price", ErrInvalidOrderType, o.Type)
	}
	collateral, err := o.collateral()
	if err != nil {
		return Price{}, err
	}
	return PriceOf(
		NewAsset(o.Balance, o.Index.OrderPrice.Quote),
		NewAsset(collateral, NativeAssetID),
	)
}

func (o *MarketOrder) collateral() (Amount, error) {
	if o.Collateral == nil || *o.Collateral < 0 {
		return 0, fmt.Errorf("%w: cover order without collateral", ErrInvalidOrderType)
	}
	return *o.Collateral, nil
}

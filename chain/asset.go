// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

// AssetRecord tracks an asset's supply and the fees collected in it.
type AssetRecord struct {
	ID                 AssetID   `serialize:"true" json:"id"`
	Symbol             string    `serialize:"true" json:"symbol"`
	Name               string    `serialize:"true" json:"name"`
	Issuer             AccountID `serialize:"true" json:"issuerAccountID"`
	Precision          uint64    `serialize:"true" json:"precision"`
	CurrentShareSupply Amount    `serialize:"true" json:"currentShareSupply"`
	MaximumShareSupply Amount    `serialize:"true" json:"maximumShareSupply"`

	// CollectedFees is the pool market-issued assets pay yield from.
	CollectedFees Amount `serialize:"true" json:"collectedFees"`
}

// IsMarketIssued returns true for assets whose supply follows collateralized
// short positions.
func (a *AssetRecord) IsMarketIssued() bool { return a.Issuer == MarketIssuer }

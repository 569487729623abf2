// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

// Ledger is read/write access to the records operations evaluate against.
// Getters return database.ErrNotFound for absent records.
//
// A Ledger handed to Transaction.Apply is expected to be a discardable
// overlay: on error the caller drops every write the transaction made.
type Ledger interface {
	Now() int64
	HeadBlockHeight() uint32
	ChainID() Hash

	GetAccount(id AccountID) (*AccountRecord, error)
	GetAccountByName(name string) (*AccountRecord, error)
	GetAccountByAddress(addr Address) (*AccountRecord, error)
	PutAccount(account *AccountRecord) error
	NewAccountID() (AccountID, error)

	GetBalance(id BalanceID) (*BalanceRecord, error)
	PutBalance(balance *BalanceRecord) error

	GetAsset(id AssetID) (*AssetRecord, error)
	PutAsset(asset *AssetRecord) error

	GetSlate(id SlateID) (*Slate, error)
	PutSlate(slate *Slate) error

	PutBurn(burn *BurnRecord) error

	GetDomain(name string) (*DomainRecord, error)
	PutDomain(domain *DomainRecord) error
	PutDomainOffer(key OfferKey) error
	RemoveDomainOffer(key OfferKey) error
}

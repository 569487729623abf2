// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/ava-labs/keyidvm/chain"
)

func (s *State) GetBalance(id chain.BalanceID) (*chain.BalanceRecord, error) {
	balance := &chain.BalanceRecord{}
	if err := s.get(s.balanceDB, id[:], balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// PutBalance stores the record under the address of its condition. Empty
// balances are kept so the condition can be funded again.
func (s *State) PutBalance(balance *chain.BalanceRecord) error {
	id, err := balance.ID()
	if err != nil {
		return err
	}
	return s.put(s.balanceDB, id[:], balance)
}

func (s *State) GetAsset(id chain.AssetID) (*chain.AssetRecord, error) {
	if cached, ok := s.assetCache.Get(id); ok {
		asset := *cached.(*chain.AssetRecord)
		return &asset, nil
	}

	asset := &chain.AssetRecord{}
	if err := s.get(s.assetDB, id.Bytes(), asset); err != nil {
		return nil, err
	}
	cached := *asset
	s.assetCache.Put(id, &cached)
	return asset, nil
}

func (s *State) PutAsset(asset *chain.AssetRecord) error {
	if err := s.put(s.assetDB, asset.ID.Bytes(), asset); err != nil {
		return err
	}
	cached := *asset
	s.assetCache.Put(asset.ID, &cached)
	return nil
}

func (s *State) GetSlate(id chain.SlateID) (*chain.Slate, error) {
	slate := &chain.Slate{}
	if err := s.get(s.slateDB, id.Bytes(), slate); err != nil {
		return nil, err
	}
	return slate, nil
}

func (s *State) PutSlate(slate *chain.Slate) error {
	id, err := slate.ID()
	if err != nil {
		return err
	}
	return s.put(s.slateDB, id.Bytes(), slate)
}

func (s *State) GetBurn(accountID chain.AccountID, trxID chain.Hash) (*chain.BurnRecord, error) {
	burn := &chain.BurnRecord{AccountID: accountID, TrxID: trxID}
	if err := s.get(s.burnDB, burn.Key(), burn); err != nil {
		return nil, err
	}
	return burn, nil
}

func (s *State) PutBurn(burn *chain.BurnRecord) error {
	return s.put(s.burnDB, burn.Key(), burn)
}

func (s *State) GetDomain(name string) (*chain.DomainRecord, error) {
	domain := &chain.DomainRecord{}
	if err := s.get(s.domainDB, []byte(name), domain); err != nil {
		return nil, err
	}
	return domain, nil
}

func (s *State) PutDomain(domain *chain.DomainRecord) error {
	return s.put(s.domainDB, []byte(domain.Name), domain)
}

func (s *State) HasDomainOffer(key chain.OfferKey) (bool, error) {
	return s.offerDB.Has(key.Bytes())
}

func (s *State) PutDomainOffer(key chain.OfferKey) error {
	return s.offerDB.Put(key.Bytes(), nil)
}

func (s *State) RemoveDomainOffer(key chain.OfferKey) error {
	return s.offerDB.Delete(key.Bytes())
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/keyidvm/chain"
)

var errCorruptIndex = errors.New("corrupt account index")

// storedAccount is the encoding of chain.AccountRecord. The codec cannot
// write nil pointers, so the optional parts are zero or one element slices.
type storedAccount struct {
	ID               chain.AccountID       `serialize:"true"`
	Name             string                `serialize:"true"`
	PublicData       []byte                `serialize:"true"`
	OwnerKey         chain.PublicKey       `serialize:"true"`
	ActiveKeys       []chain.KeyActivation `serialize:"true"`
	RegistrationDate int64                 `serialize:"true"`
	LastUpdate       int64                 `serialize:"true"`
	DelegateInfo     []chain.DelegateStats `serialize:"true"`
	Meta             []chain.AccountMeta   `serialize:"true"`
	Points           chain.Amount          `serialize:"true"`
}

func toStored(a *chain.AccountRecord) *storedAccount {
	stored := &storedAccount{
		ID:               a.ID,
		Name:             a.Name,
		PublicData:       a.PublicData,
		OwnerKey:         a.OwnerKey,
		ActiveKeys:       a.ActiveKeys,
		RegistrationDate: a.RegistrationDate,
		LastUpdate:       a.LastUpdate,
		Points:           a.Points,
	}
	if a.DelegateInfo != nil {
		stored.DelegateInfo = []chain.DelegateStats{*a.DelegateInfo}
	}
	if a.Meta != nil {
		stored.Meta = []chain.AccountMeta{*a.Meta}
	}
	return stored
}

// record returns a new AccountRecord sharing no memory with [s].
func (s *storedAccount) record() *chain.AccountRecord {
	a := &chain.AccountRecord{
		ID:               s.ID,
		Name:             s.Name,
		PublicData:       append([]byte(nil), s.PublicData...),
		OwnerKey:         s.OwnerKey,
		ActiveKeys:       append([]chain.KeyActivation(nil), s.ActiveKeys...),
		RegistrationDate: s.RegistrationDate,
		LastUpdate:       s.LastUpdate,
		Points:           s.Points,
	}
	if len(s.DelegateInfo) > 0 {
		info := s.DelegateInfo[0]
		a.DelegateInfo = &info
	}
	if len(s.Meta) > 0 {
		meta := s.Meta[0]
		meta.Data = append([]byte(nil), meta.Data...)
		a.Meta = &meta
	}
	return a
}

// GetAccount returns a copy of the account, which the caller may modify
// before passing it to PutAccount.
func (s *State) GetAccount(id chain.AccountID) (*chain.AccountRecord, error) {
	if cached, ok := s.accountCache.Get(id); ok {
		return toStored(cached.(*chain.AccountRecord)).record(), nil
	}

	stored := &storedAccount{}
	if err := s.get(s.accountDB, id.Bytes(), stored); err != nil {
		return nil, err
	}
	account := stored.record()
	s.accountCache.Put(id, account)
	return stored.record(), nil
}

func (s *State) GetAccountByName(name string) (*chain.AccountRecord, error) {
	id, err := s.lookup(s.nameDB, []byte(name))
	if err != nil {
		return nil, err
	}
	return s.GetAccount(id)
}

func (s *State) GetAccountByAddress(addr chain.Address) (*chain.AccountRecord, error) {
	id, err := s.lookup(s.keyDB, addr[:])
	if err != nil {
		return nil, err
	}
	return s.GetAccount(id)
}

// PutAccount stores the account and indexes its name and active key. Keys
// an account used before stay indexed to it.
func (s *State) PutAccount(account *chain.AccountRecord) error {
	stored := toStored(account)
	if err := s.put(s.accountDB, account.ID.Bytes(), stored); err != nil {
		return err
	}
	s.accountCache.Put(account.ID, stored.record())

	id := account.ID.Bytes()
	if err := s.nameDB.Put([]byte(account.Name), id); err != nil {
		return err
	}
	if key := account.ActiveKey(); !key.IsZero() {
		addr := key.Address()
		if err := s.keyDB.Put(addr[:], id); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) lookup(db database.Database, key []byte) (chain.AccountID, error) {
	b, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, errCorruptIndex
	}
	return chain.AccountID(binary.BigEndian.Uint32(b)), nil
}

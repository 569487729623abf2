// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
)

var (
	_ Ledger = (*testLedger)(nil)

	testChainID = ids.ID{'k', 'e', 'y', 'i', 'd'}
)

const testNow int64 = 1_600_000_000

// testLedger is an in-memory Ledger. Getters hand out copies so that an
// operation only changes the ledger through the Put methods.
type testLedger struct {
	now     int64
	height  uint32
	chainID Hash

	nextAccountID AccountID
	accounts      map[AccountID]*AccountRecord
	balances      map[BalanceID]*BalanceRecord
	assets        map[AssetID]*AssetRecord
	slates        map[SlateID]*Slate
	burns         []*BurnRecord
	domains       map[string]*DomainRecord
	offers        map[string]OfferKey
}

func newTestLedger() *testLedger {
	l := &testLedger{
		now:           testNow,
		height:        1,
		chainID:       testChainID,
		nextAccountID: 1,
		accounts:      make(map[AccountID]*AccountRecord),
		balances:      make(map[BalanceID]*BalanceRecord),
		assets:        make(map[AssetID]*AssetRecord),
		slates:        make(map[SlateID]*Slate),
		domains:       make(map[string]*DomainRecord),
		offers:        make(map[string]OfferKey),
	}
	l.assets[NativeAssetID] = &AssetRecord{
		ID:                 NativeAssetID,
		Symbol:             "KID",
		Name:               "KeyID shares",
		Precision:          uint64(Precision),
		CurrentShareSupply: 1_000_000 * Precision,
		MaximumShareSupply: 2_000_000 * Precision,
	}
	return l
}

func (l *testLedger) Now() int64              { return l.now }
func (l *testLedger) HeadBlockHeight() uint32 { return l.height }
func (l *testLedger) ChainID() Hash           { return l.chainID }

func copyAccount(a *AccountRecord) *AccountRecord {
	c := *a
	c.ActiveKeys = append([]KeyActivation(nil), a.ActiveKeys...)
	if a.DelegateInfo != nil {
		info := *a.DelegateInfo
		c.DelegateInfo = &info
	}
	if a.Meta != nil {
		meta := *a.Meta
		c.Meta = &meta
	}
	return &c
}

func (l *testLedger) GetAccount(id AccountID) (*AccountRecord, error) {
	a, ok := l.accounts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyAccount(a), nil
}

func (l *testLedger) GetAccountByName(name string) (*AccountRecord, error) {
	for _, a := range l.accounts {
		if a.Name == name {
			return copyAccount(a), nil
		}
	}
	return nil, database.ErrNotFound
}

func (l *testLedger) GetAccountByAddress(addr Address) (*AccountRecord, error) {
	for _, a := range l.accounts {
		if a.ActiveAddress() == addr {
			return copyAccount(a), nil
		}
	}
	return nil, database.ErrNotFound
}

func (l *testLedger) PutAccount(a *AccountRecord) error {
	l.accounts[a.ID] = copyAccount(a)
	return nil
}

func (l *testLedger) NewAccountID() (AccountID, error) {
	id := l.nextAccountID
	l.nextAccountID++
	return id, nil
}

func (l *testLedger) GetBalance(id BalanceID) (*BalanceRecord, error) {
	b, ok := l.balances[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (l *testLedger) PutBalance(b *BalanceRecord) error {
	id, err := b.ID()
	if err != nil {
		return err
	}
	c := *b
	l.balances[id] = &c
	return nil
}

func (l *testLedger) GetAsset(id AssetID) (*AssetRecord, error) {
	a, ok := l.assets[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (l *testLedger) PutAsset(a *AssetRecord) error {
	c := *a
	l.assets[a.ID] = &c
	return nil
}

func (l *testLedger) GetSlate(id SlateID) (*Slate, error) {
	s, ok := l.slates[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &Slate{Delegates: append([]AccountID(nil), s.Delegates...)}, nil
}

func (l *testLedger) PutSlate(s *Slate) error {
	id, err := s.ID()
	if err != nil {
		return err
	}
	l.slates[id] = &Slate{Delegates: append([]AccountID(nil), s.Delegates...)}
	return nil
}

func (l *testLedger) PutBurn(b *BurnRecord) error {
	l.burns = append(l.burns, b)
	return nil
}

func (l *testLedger) GetDomain(name string) (*DomainRecord, error) {
	d, ok := l.domains[name]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (l *testLedger) PutDomain(d *DomainRecord) error {
	c := *d
	l.domains[d.Name] = &c
	return nil
}

func (l *testLedger) PutDomainOffer(key OfferKey) error {
	l.offers[string(key.Bytes())] = key
	return nil
}

func (l *testLedger) RemoveDomainOffer(key OfferKey) error {
	delete(l.offers, string(key.Bytes()))
	return nil
}

// addAccount registers [name] directly, bypassing fees and authorization.
func (l *testLedger) addAccount(name string, owner, active PublicKey, delegate bool) *AccountRecord {
	a := &AccountRecord{
		ID:               l.nextAccountID,
		Name:             name,
		OwnerKey:         owner,
		RegistrationDate: l.now,
		LastUpdate:       l.now,
	}
	l.nextAccountID++
	a.SetActiveKey(l.now, active)
	if delegate {
		a.DelegateInfo = &DelegateStats{PayRate: 50}
	}
	l.accounts[a.ID] = copyAccount(a)
	return a
}

// fund puts [amount] of [assetID] directly into [cond] and returns the
// balance id.
func (l *testLedger) fund(t *testing.T, cond WithdrawCondition, amount Amount, depositDate int64) BalanceID {
	record := &BalanceRecord{
		Condition:   cond,
		Balance:     amount,
		DepositDate: depositDate,
		LastUpdate:  depositDate,
	}
	id, err := record.ID()
	require.NoError(t, err)
	require.NoError(t, l.PutBalance(record))
	return id
}

func (l *testLedger) balance(t *testing.T, id BalanceID) *BalanceRecord {
	b, err := l.GetBalance(id)
	require.NoError(t, err)
	return b
}

func (l *testLedger) account(t *testing.T, id AccountID) *AccountRecord {
	a, err := l.GetAccount(id)
	require.NoError(t, err)
	return a
}

func (l *testLedger) sortedOffers() []OfferKey {
	keys := make([]string, 0, len(l.offers))
	for k := range l.offers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	offers := make([]OfferKey, len(keys))
	for i, k := range keys {
		offers[i] = l.offers[k]
	}
	return offers
}

type testKey struct {
	sk   *crypto.PrivateKeySECP256K1R
	pub  PublicKey
	addr Address
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	intf, err := factory.NewPrivateKey()
	require.NoError(t, err)
	sk := intf.(*crypto.PrivateKeySECP256K1R)
	pub := PublicKeyOf(sk)
	return testKey{sk: sk, pub: pub, addr: pub.Address()}
}

func newTestKeys(t *testing.T, n int) []testKey {
	keys := make([]testKey, n)
	for i := range keys {
		keys[i] = newTestKey(t)
	}
	return keys
}

// newTestEnv evaluates operations directly as if signed by [signers].
func newTestEnv(l *testLedger, signers ...testKey) *Env {
	set := NewKeySet()
	for _, k := range signers {
		set.Add(k.pub)
	}
	return &Env{
		Ledger:  l,
		Rules:   DefaultRules(),
		Signers: set,
	}
}

// applyTx signs [ops] with [signers] and applies them to [l].
func applyTx(t *testing.T, l *testLedger, signers []testKey, ops ...Operation) (*Effects, error) {
	t.Helper()
	tx := NewTransaction(l.now+60, ops...)
	sks := make([]*crypto.PrivateKeySECP256K1R, len(signers))
	for i, k := range signers {
		sks[i] = k.sk
	}
	require.NoError(t, tx.Sign(l.chainID, sks...))
	return tx.Apply(l, DefaultRules())
}

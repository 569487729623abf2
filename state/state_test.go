// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/keyidvm/chain"
)

func testKey(b byte) chain.PublicKey {
	var key chain.PublicKey
	key[0] = 0x02
	key[1] = b
	return key
}

func TestOverlayCommitAndAbort(t *testing.T) {
	assert := assert.New(t)
	db := memdb.New()
	root, err := New(db)
	assert.NoError(err)

	asset := &chain.AssetRecord{ID: chain.NativeAssetID, Symbol: "KID", CurrentShareSupply: 10}

	aborted := root.Overlay()
	assert.NoError(aborted.PutAsset(asset))
	_, err = aborted.GetAsset(chain.NativeAssetID)
	assert.NoError(err)
	aborted.Abort()
	_, err = root.GetAsset(chain.NativeAssetID)
	assert.ErrorIs(err, database.ErrNotFound)

	block := root.Overlay()
	tx := block.Overlay()
	assert.NoError(tx.PutAsset(asset))
	assert.NoError(tx.SetHead(3, 1000))
	assert.NoError(tx.Commit())

	// Committed into the block overlay only.
	_, err = root.GetAsset(chain.NativeAssetID)
	assert.ErrorIs(err, database.ErrNotFound)
	assert.EqualValues(3, block.HeadBlockHeight())

	assert.NoError(block.Commit())
	assert.NoError(root.Commit())

	reopened, err := New(db)
	assert.NoError(err)
	got, err := reopened.GetAsset(chain.NativeAssetID)
	assert.NoError(err)
	assert.Equal(asset, got)
	assert.EqualValues(3, reopened.HeadBlockHeight())
	assert.EqualValues(1000, reopened.Now())
}

func TestAssetCacheReturnsCopies(t *testing.T) {
	assert := assert.New(t)
	s, err := New(memdb.New())
	assert.NoError(err)

	assert.NoError(s.PutAsset(&chain.AssetRecord{ID: 4, CollectedFees: 1}))
	a, err := s.GetAsset(4)
	assert.NoError(err)
	a.CollectedFees = 100

	b, err := s.GetAsset(4)
	assert.NoError(err)
	assert.Equal(chain.Amount(1), b.CollectedFees)
}

func TestAccountIndexes(t *testing.T) {
	assert := assert.New(t)
	s, err := New(memdb.New())
	assert.NoError(err)

	id, err := s.NewAccountID()
	assert.NoError(err)
	assert.Equal(chain.AccountID(1), id)

	account := &chain.AccountRecord{
		ID:               id,
		Name:             "alice",
		PublicData:       []byte("hello"),
		OwnerKey:         testKey(1),
		RegistrationDate: 10,
		LastUpdate:       10,
		DelegateInfo:     &chain.DelegateStats{PayRate: 30, VotesFor: 5},
	}
	account.SetActiveKey(10, testKey(2))
	assert.NoError(s.PutAccount(account))

	byName, err := s.GetAccountByName("alice")
	assert.NoError(err)
	assert.Equal(account, byName)

	byAddr, err := s.GetAccountByAddress(testKey(2).Address())
	assert.NoError(err)
	assert.Equal(id, byAddr.ID)

	// Records handed out are copies.
	byName.DelegateInfo.VotesFor = 99
	again, err := s.GetAccount(id)
	assert.NoError(err)
	assert.Equal(chain.Amount(5), again.NetVotes())

	// A replaced active key still finds the account.
	again.SetActiveKey(20, testKey(3))
	assert.NoError(s.PutAccount(again))
	for _, b := range []byte{2, 3} {
		found, err := s.GetAccountByAddress(testKey(b).Address())
		assert.NoError(err)
		assert.Equal(id, found.ID)
	}

	_, err = s.GetAccountByName("bob")
	assert.ErrorIs(err, database.ErrNotFound)

	next, err := s.NewAccountID()
	assert.NoError(err)
	assert.Equal(chain.AccountID(2), next)
}

func TestBalancesAndDomains(t *testing.T) {
	assert := assert.New(t)
	s, err := New(memdb.New())
	assert.NoError(err)

	balance := &chain.BalanceRecord{
		Condition: chain.WithdrawCondition{
			AssetID:   chain.NativeAssetID,
			Condition: &chain.SignatureCondition{Owner: testKey(1).Address(), Memo: []byte("memo")},
		},
		Balance:     0,
		DepositDate: 5,
		LastUpdate:  5,
	}
	assert.NoError(s.PutBalance(balance))
	id, err := balance.ID()
	assert.NoError(err)
	got, err := s.GetBalance(id)
	assert.NoError(err)
	assert.Equal(balance, got)

	domain := &chain.DomainRecord{Name: "example", Owner: testKey(1).Address(), LastUpdate: 5}
	assert.NoError(s.PutDomain(domain))
	gotDomain, err := s.GetDomain("example")
	assert.NoError(err)
	assert.Equal(domain, gotDomain)

	offer := chain.OfferKey{DomainName: "example", Price: 10, Offer: testKey(2).Address()}
	assert.NoError(s.PutDomainOffer(offer))
	has, err := s.HasDomainOffer(offer)
	assert.NoError(err)
	assert.True(has)
	assert.NoError(s.RemoveDomainOffer(offer))
	has, err = s.HasDomainOffer(offer)
	assert.NoError(err)
	assert.False(has)
}

func TestBlockAndTransactionIndex(t *testing.T) {
	assert := assert.New(t)
	s, err := New(memdb.New())
	assert.NoError(err)

	blkID := ids.ID{1}
	assert.NoError(s.PutBlock(blkID, 7, []byte{1, 2, 3}))
	b, err := s.GetBlock(blkID)
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3}, b)
	atHeight, err := s.GetBlockIDAtHeight(7)
	assert.NoError(err)
	assert.Equal(blkID, atHeight)
	_, err = s.GetBlockIDAtHeight(8)
	assert.ErrorIs(err, database.ErrNotFound)

	txID := ids.ID{2}
	has, err := s.HasTransaction(txID)
	assert.NoError(err)
	assert.False(has)
	assert.NoError(s.PutTransaction(txID, blkID))
	has, err = s.HasTransaction(txID)
	assert.NoError(err)
	assert.True(has)

	_, err = s.GetLastAccepted()
	assert.ErrorIs(err, database.ErrNotFound)
	assert.NoError(s.SetLastAccepted(blkID))
	last, err := s.GetLastAccepted()
	assert.NoError(err)
	assert.Equal(blkID, last)
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ava-labs/avalanchego/ids"
)

func TestLegacyAddresses(t *testing.T) {
	require := require.New(t)
	key := newTestKey(t)

	addrs, err := LegacyAddresses(key.pub[:])
	require.NoError(err)
	require.Len(addrs, 5)
	require.Equal(key.addr, addrs[0])

	seen := make(map[Address]struct{})
	for _, addr := range addrs {
		seen[addr] = struct{}{}
	}
	require.Len(seen, 5)

	_, err = LegacyAddresses([]byte{1, 2, 3})
	require.ErrorIs(err, ErrInvalidPublicKey)
}

func TestLegacyClaim(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	legacy, next, other := newTestKey(t), newTestKey(t), newTestKey(t)

	addrs, err := LegacyAddresses(legacy.pub[:])
	require.NoError(err)
	owner := addrs[len(addrs)-1]
	id := l.fund(t, NewSignatureCondition(owner, NativeAssetID, 0), 100, testNow)

	claimData, err := NewLegacyClaim(l.chainID, legacy.sk, next.pub)
	require.NoError(err)
	claim, err := ParseLegacyClaim(claimData)
	require.NoError(err)
	require.Equal(next.pub, claim.NewKey)

	op := &WithdrawOperation{BalanceID: id, Amount: 100, ClaimData: claimData}

	// The new key must sign the transaction too.
	require.ErrorIs(op.Evaluate(newTestEnv(l, other), NewEffects()), ErrMissingSignature)

	// A claim made with a key that never owned the balance.
	forged, err := NewLegacyClaim(l.chainID, other.sk, next.pub)
	require.NoError(err)
	bad := &WithdrawOperation{BalanceID: id, Amount: 100, ClaimData: forged}
	require.ErrorIs(bad.Evaluate(newTestEnv(l, next), NewEffects()), ErrMissingSignature)

	garbage := &WithdrawOperation{BalanceID: id, Amount: 100, ClaimData: []byte{0xff}}
	require.ErrorIs(garbage.Evaluate(newTestEnv(l, next), NewEffects()), ErrInvalidClaimData)

	_, err = applyTx(t, l, []testKey{next},
		op,
		NewDeposit(next.addr, NewAsset(100, NativeAssetID), 0),
	)
	require.NoError(err)
	require.Zero(l.balance(t, id).Balance)
}

func TestDomainSale(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	seller, buyer, stranger := newTestKey(t), newTestKey(t), newTestKey(t)
	require.NoError(l.PutDomain(&DomainRecord{Name: "example", Owner: seller.addr, LastUpdate: testNow}))
	funds := l.fund(t, NewSignatureCondition(buyer.addr, NativeAssetID, 0), 1000, testNow)

	offer := WithdrawCondition{
		AssetID:   NativeAssetID,
		Condition: &DomainOfferCondition{Owner: buyer.addr, DomainName: "example", Price: 500},
	}
	_, err := applyTx(t, l, []testKey{buyer},
		&WithdrawOperation{BalanceID: funds, Amount: 500},
		&DepositOperation{Amount: 500, Condition: offer},
	)
	require.NoError(err)
	require.Equal([]OfferKey{{DomainName: "example", Price: 500, Offer: buyer.addr}}, l.sortedOffers())
	offerID, err := offer.Address()
	require.NoError(err)

	// A transfer to anyone but the bidder cannot release the offer.
	_, err = applyTx(t, newTestLedgerFrom(l), []testKey{seller},
		&DomainTransferOperation{DomainName: "example", Owner: stranger.addr},
		&WithdrawOperation{BalanceID: offerID, Amount: 500},
		NewDeposit(seller.addr, NewAsset(500, NativeAssetID), 0),
	)
	require.ErrorIs(err, ErrDomainTransfer)

	// Nor can the seller take the offer without transferring.
	_, err = applyTx(t, newTestLedgerFrom(l), []testKey{seller},
		&WithdrawOperation{BalanceID: offerID, Amount: 500},
		NewDeposit(seller.addr, NewAsset(500, NativeAssetID), 0),
	)
	require.ErrorIs(err, ErrMissingSignature)

	_, err = applyTx(t, l, []testKey{seller},
		&DomainTransferOperation{DomainName: "example", Owner: buyer.addr},
		&WithdrawOperation{BalanceID: offerID, Amount: 500},
		NewDeposit(seller.addr, NewAsset(500, NativeAssetID), 0),
	)
	require.NoError(err)

	domain, err := l.GetDomain("example")
	require.NoError(err)
	require.Equal(buyer.addr, domain.Owner)
	require.Empty(l.sortedOffers())
	require.Zero(l.balance(t, offerID).Balance)
}

func TestDomainOfferWithdrawnByBidder(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	buyer := newTestKey(t)
	offer := WithdrawCondition{
		AssetID:   NativeAssetID,
		Condition: &DomainOfferCondition{Owner: buyer.addr, DomainName: "example", Price: 500},
	}
	id := l.fund(t, offer, 500, testNow)
	require.NoError(l.PutDomainOffer(offer.Condition.(*DomainOfferCondition).OfferKey()))

	require.NoError((&WithdrawOperation{BalanceID: id, Amount: 500}).Evaluate(newTestEnv(l, buyer), NewEffects()))
	require.Empty(l.sortedOffers())

	require.ErrorIs((&DomainOfferCondition{Owner: buyer.addr, DomainName: "example"}).Verify(DefaultRules()), ErrNegativeAmount)
	require.ErrorIs((&DomainOfferCondition{Owner: buyer.addr, DomainName: "Bad!", Price: 1}).Verify(DefaultRules()), ErrInvalidDomainName)
}

func TestDomainTransferRequiresOwner(t *testing.T) {
	require := require.New(t)
	l := newTestLedger()
	owner, other := newTestKey(t), newTestKey(t)
	require.NoError(l.PutDomain(&DomainRecord{Name: "example", Owner: owner.addr}))

	op := &DomainTransferOperation{DomainName: "example", Owner: other.addr}
	require.ErrorIs(op.Evaluate(newTestEnv(l, other), NewEffects()), ErrMissingSignature)
	require.NoError(op.Evaluate(newTestEnv(l, owner), NewEffects()))

	domain, err := l.GetDomain("example")
	require.NoError(err)
	require.Equal(other.addr, domain.Owner)
	require.Equal(testNow, domain.LastUpdate)

	missing := &DomainTransferOperation{DomainName: "missing", Owner: other.addr}
	require.ErrorIs(missing.Evaluate(newTestEnv(l, owner), NewEffects()), ErrUnknownDomain)
}

func TestMultiSigThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "owners")
		required := rapid.Uint32Range(0, 8).Draw(t, "required")
		owners := make([]Address, n)
		for i := range owners {
			owners[i] = ids.ShortID{byte(i + 1)}
		}
		err := (&MultiSigCondition{Required: required, Owners: owners}).Verify(DefaultRules())
		valid := required > 0 && int(required) <= n
		if valid != (err == nil) {
			t.Fatalf("%d of %d: %v", required, n, err)
		}
	})
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	factory crypto.FactorySECP256K1R

	_ SignatureChecker = KeySet(nil)
)

// SignatureChecker answers whether a transaction was signed by a key.
type SignatureChecker interface {
	CheckAddress(addr Address) bool
	CheckKey(key PublicKey) bool
}

// KeySet is the set of keys that signed a transaction, by address.
type KeySet map[Address]PublicKey

// NewKeySet returns a KeySet holding [keys].
func NewKeySet(keys ...PublicKey) KeySet {
	set := make(KeySet, len(keys))
	for _, key := range keys {
		set.Add(key)
	}
	return set
}

func (s KeySet) Add(key PublicKey) { s[key.Address()] = key }

func (s KeySet) CheckAddress(addr Address) bool {
	_, ok := s[addr]
	return ok
}

func (s KeySet) CheckKey(key PublicKey) bool {
	if key.IsZero() {
		return false
	}
	return s.CheckAddress(key.Address())
}

// signingDigest is what every transaction signature commits to. Binding the
// chain id keeps a signed transaction from replaying on another chain.
func signingDigest(chainID Hash, unsigned []byte) [32]byte {
	msg := make([]byte, 0, len(chainID)+len(unsigned))
	msg = append(msg, chainID[:]...)
	msg = append(msg, unsigned...)
	return hashing.ComputeHash256Array(msg)
}

// RecoverSigners recovers the key behind each of [sigs].
func RecoverSigners(chainID Hash, unsigned []byte, sigs [][]byte) (KeySet, error) {
	digest := signingDigest(chainID, unsigned)
	signers := make(KeySet, len(sigs))
	for i, sig := range sigs {
		if len(sig) != crypto.SECP256K1RSigLen {
			return nil, fmt.Errorf("%w: signature %d has %d bytes", ErrInvalidSignature, i, len(sig))
		}
		pub, err := factory.RecoverHashPublicKey(digest[:], sig)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %v", ErrInvalidSignature, i, err)
		}
		key, err := PublicKeyFromBytes(pub.Bytes())
		if err != nil {
			return nil, err
		}
		signers.Add(key)
	}
	return signers, nil
}

// PublicKeyOf returns the compressed public key of [sk].
func PublicKeyOf(sk *crypto.PrivateKeySECP256K1R) PublicKey {
	var key PublicKey
	copy(key[:], sk.PublicKey().Bytes())
	return key
}

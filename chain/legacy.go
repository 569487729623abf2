// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/decred/dcrd/dcrec/secp256k1/v3"
)

// Network version bytes of the legacy address formats a balance may have
// been allocated to.
const (
	legacyVersionPTS byte = 56
	legacyVersionBTC byte = 0

	legacyAddressLen = 1 + 20 + 4
)

// LegacyClaim moves a balance owned by a legacy address to NewKey. The
// Signature is made by the legacy key over sha256(chainID || NewKey).
type LegacyClaim struct {
	NewKey    PublicKey                    `serialize:"true" json:"newKey"`
	Signature [crypto.SECP256K1RSigLen]byte `serialize:"true" json:"signature"`
}

// ParseLegacyClaim decodes withdraw claim data.
func ParseLegacyClaim(b []byte) (*LegacyClaim, error) {
	claim := &LegacyClaim{}
	if _, err := Codec.Unmarshal(b, claim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaimData, err)
	}
	return claim, nil
}

// NewLegacyClaim signs a claim moving [legacyKey]'s balances to [newKey].
func NewLegacyClaim(chainID Hash, legacyKey *crypto.PrivateKeySECP256K1R, newKey PublicKey) ([]byte, error) {
	claim := &LegacyClaim{NewKey: newKey}
	digest := claim.digest(chainID)
	sig, err := legacyKey.SignHash(digest[:])
	if err != nil {
		return nil, err
	}
	copy(claim.Signature[:], sig)
	return Codec.Marshal(CodecVersion, claim)
}

func (c *LegacyClaim) digest(chainID Hash) [32]byte {
	msg := make([]byte, 0, len(chainID)+len(c.NewKey))
	msg = append(msg, chainID[:]...)
	msg = append(msg, c.NewKey[:]...)
	return hashing.ComputeHash256Array(msg)
}

// Owns reports whether the key that made the claim's signature hashes to
// [owner] under any of the legacy address derivations.
func (c *LegacyClaim) Owns(chainID Hash, owner Address) (bool, error) {
	digest := c.digest(chainID)
	pub, err := factory.RecoverHashPublicKey(digest[:], c.Signature[:])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	addrs, err := LegacyAddresses(pub.Bytes())
	if err != nil {
		return false, err
	}
	for _, addr := range addrs {
		if addr == owner {
			return true, nil
		}
	}
	return false, nil
}

// LegacyAddresses returns every address [compressed] may have owned a
// balance under: the native address, then the legacy form with and without
// point compression, for each network version.
func LegacyAddresses(compressed []byte) ([]Address, error) {
	key, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	uncompressed := key.SerializeUncompressed()

	native, err := ids.ToShortID(hashing.PubkeyBytesToAddress(compressed))
	if err != nil {
		return nil, err
	}
	return []Address{
		native,
		legacyAddress(uncompressed, legacyVersionPTS),
		legacyAddress(compressed, legacyVersionPTS),
		legacyAddress(uncompressed, legacyVersionBTC),
		legacyAddress(compressed, legacyVersionBTC),
	}, nil
}

// legacyAddress hashes the checksummed version||ripemd160(sha256(key)) form
// down to an Address.
func legacyAddress(key []byte, version byte) Address {
	raw := make([]byte, legacyAddressLen)
	raw[0] = version
	copy(raw[1:21], hashing.PubkeyBytesToAddress(key))
	check := hashing.ComputeHash256(hashing.ComputeHash256(raw[:21]))
	copy(raw[21:], check[:4])
	return ids.ShortID(hashing.ComputeHash160Array(raw))
}

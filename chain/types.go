// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/holiman/uint256"
)

const (
	// NativeAssetID is the network's own share asset. Only balances of the
	// native asset carry vote weight.
	NativeAssetID AssetID = 0

	// PricePrecision is the fixed-point scale of Price.Ratio.
	PricePrecision = 100_000_000

	// MarketIssuer is the issuer id of assets whose supply is tracked through
	// collateralized short positions rather than issuer minting.
	MarketIssuer AccountID = -2

	publicKeyLen = 33
)

type (
	// Hash is a 32 byte digest.
	Hash = ids.ID

	// Address is the 20 byte hash of a public key (or of a withdraw condition).
	Address = ids.ShortID

	// BalanceID identifies a balance record. It is the address of the
	// record's withdraw condition.
	BalanceID = ids.ShortID

	AccountID int32
	AssetID   uint32

	// SlateID is a deterministic hash of a delegate slate. Zero means no slate.
	SlateID uint64

	// Amount is a signed share quantity.
	Amount int64
)

// PublicKey is a compressed secp256k1 public key. The zero key is the null
// key: an account whose owner key is null is retracted.
type PublicKey [publicKeyLen]byte

// EmptyPublicKey is the null key.
var EmptyPublicKey = PublicKey{}

// PublicKeyFromBytes copies [b] into a PublicKey.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var key PublicKey
	if len(b) != publicKeyLen {
		return key, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, publicKeyLen, len(b))
	}
	copy(key[:], b)
	return key, nil
}

// IsZero returns true for the null key.
func (k PublicKey) IsZero() bool { return k == EmptyPublicKey }

// Address returns ripemd160(sha256(compressed key)).
func (k PublicKey) Address() Address {
	var addr Address
	copy(addr[:], hashing.PubkeyBytesToAddress(k[:]))
	return addr
}

func (k PublicKey) String() string { return hex.EncodeToString(k[:]) }

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PublicKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	key, err := PublicKeyFromBytes(raw)
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// Abs returns the magnitude of a signed account id. Negative ids appear in
// slates and pay withdrawals.
func (id AccountID) Abs() AccountID {
	if id < 0 {
		return -id
	}
	return id
}

// Bytes returns the big-endian encoding used for database keys.
func (id AccountID) Bytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

// Bytes returns the big-endian encoding used for database keys.
func (id AssetID) Bytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

// Bytes returns the big-endian encoding used for database keys.
func (id SlateID) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

// Asset is an amount denominated in a specific asset.
type Asset struct {
	Amount  Amount  `serialize:"true" json:"amount"`
	AssetID AssetID `serialize:"true" json:"assetID"`
}

func NewAsset(amount Amount, assetID AssetID) Asset {
	return Asset{Amount: amount, AssetID: assetID}
}

// Price is the number of quote units per base unit, scaled by PricePrecision.
type Price struct {
	Ratio uint64  `serialize:"true" json:"ratio"`
	Base  AssetID `serialize:"true" json:"base"`
	Quote AssetID `serialize:"true" json:"quote"`
}

// Mul converts [a] across [p]: base amounts become quote amounts and quote
// amounts become base amounts.
func (a Asset) Mul(p Price) (Asset, error) {
	if p.Ratio == 0 {
		return Asset{}, ErrInvalidPrice
	}
	if a.Amount < 0 {
		return Asset{}, fmt.Errorf("%w: %d", ErrNegativeAmount, a.Amount)
	}
	amount := uint256.NewInt(uint64(a.Amount))
	ratio := uint256.NewInt(p.Ratio)
	precision := uint256.NewInt(PricePrecision)

	var (
		result = new(uint256.Int)
		target AssetID
	)
	switch a.AssetID {
	case p.Base:
		result.Mul(amount, ratio)
		result.Div(result, precision)
		target = p.Quote
	case p.Quote:
		result.Mul(amount, precision)
		result.Div(result, ratio)
		target = p.Base
	default:
		return Asset{}, fmt.Errorf("%w: asset %d against price %d/%d", ErrAssetPriceMismatch, a.AssetID, p.Quote, p.Base)
	}
	if !result.IsUint64() || result.Uint64() > math.MaxInt64 {
		return Asset{}, ErrOverflow
	}
	return Asset{Amount: Amount(result.Uint64()), AssetID: target}, nil
}

// AddAmounts returns a+b, or ErrOverflow if the sum does not fit an Amount.
func AddAmounts(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

// SubAmounts returns a-b, or ErrOverflow if the difference does not fit an
// Amount.
func SubAmounts(a, b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflow, a, b)
	}
	return diff, nil
}

// PriceOf returns the price of [base] expressed in [quote].
func PriceOf(quote, base Asset) (Price, error) {
	if base.Amount <= 0 || quote.Amount < 0 {
		return Price{}, ErrInvalidPrice
	}
	ratio := uint256.NewInt(uint64(quote.Amount))
	ratio.Mul(ratio, uint256.NewInt(PricePrecision))
	ratio.Div(ratio, uint256.NewInt(uint64(base.Amount)))
	if !ratio.IsUint64() {
		return Price{}, ErrOverflow
	}
	return Price{Ratio: ratio.Uint64(), Base: base.AssetID, Quote: quote.AssetID}, nil
}

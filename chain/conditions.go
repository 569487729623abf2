// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// ConditionType tags the variants of Condition in APIs and logs.
type ConditionType uint8

const (
	SignatureType ConditionType = iota + 1
	MultiSigType
	PasswordType
	OptionType
	DomainOfferType
)

func (t ConditionType) String() string {
	switch t {
	case SignatureType:
		return "signature"
	case MultiSigType:
		return "multiSig"
	case PasswordType:
		return "password"
	case OptionType:
		return "option"
	case DomainOfferType:
		return "domainOffer"
	default:
		return "unknown"
	}
}

var (
	_ Condition = (*SignatureCondition)(nil)
	_ Condition = (*MultiSigCondition)(nil)
	_ Condition = (*PasswordCondition)(nil)
	_ Condition = (*OptionCondition)(nil)
	_ Condition = (*DomainOfferCondition)(nil)
)

// Condition is one of the withdraw condition variants. The set is closed:
// authorize is unexported, so only this package's variants satisfy it.
type Condition interface {
	Type() ConditionType

	// Verify checks the condition is well formed before anything is
	// deposited under it.
	Verify(rules *Rules) error

	// authorize decides whether [claim] may spend a balance held under this
	// condition, adding any obligation it creates to [fx].
	authorize(env *Env, fx *Effects, claim *Claim) error
}

// Claim is the evidence a withdrawal presents against a balance.
type Claim struct {
	Amount Asset
	Data   []byte
}

// SignatureCondition is spent by a signature from the owner.
type SignatureCondition struct {
	Owner Address `serialize:"true" json:"owner"`
	Memo  []byte  `serialize:"true" json:"memo"`
}

func (*SignatureCondition) Type() ConditionType { return SignatureType }

func (c *SignatureCondition) Verify(rules *Rules) error {
	if len(c.Memo) > rules.MaxMemoSize {
		return fmt.Errorf("%w: %d bytes", ErrMemoTooLong, len(c.Memo))
	}
	return nil
}

// Claim data, when present, is a LegacyClaim moving the balance to a new key.
func (c *SignatureCondition) authorize(env *Env, _ *Effects, claim *Claim) error {
	if len(claim.Data) == 0 {
		if !env.CheckAddress(c.Owner) {
			return fmt.Errorf("%w: owner %s", ErrMissingSignature, c.Owner)
		}
		return nil
	}

	legacy, err := ParseLegacyClaim(claim.Data)
	if err != nil {
		return err
	}
	owns, err := legacy.Owns(env.Ledger.ChainID(), c.Owner)
	if err != nil {
		return err
	}
	if !owns {
		return fmt.Errorf("%w: claim does not prove ownership of %s", ErrMissingSignature, c.Owner)
	}
	if !env.CheckKey(legacy.NewKey) {
		return fmt.Errorf("%w: claimed key %s", ErrMissingSignature, legacy.NewKey)
	}
	return nil
}

// MultiSigCondition is spent by signatures from at least Required owners.
type MultiSigCondition struct {
	Required uint32    `serialize:"true" json:"required"`
	Owners   []Address `serialize:"true" json:"owners"`
}

func (*MultiSigCondition) Type() ConditionType { return MultiSigType }

func (c *MultiSigCondition) Verify(*Rules) error {
	if c.Required == 0 || int(c.Required) > len(c.Owners) {
		return fmt.Errorf("%w: %d of %d signatures", ErrInvalidCondition, c.Required, len(c.Owners))
	}
	seen := make(map[Address]struct{}, len(c.Owners))
	for _, owner := range c.Owners {
		if _, ok := seen[owner]; ok {
			return fmt.Errorf("%w: duplicate owner %s", ErrInvalidCondition, owner)
		}
		seen[owner] = struct{}{}
	}
	return nil
}

func (c *MultiSigCondition) authorize(env *Env, _ *Effects, _ *Claim) error {
	var valid uint32
	for _, owner := range c.Owners {
		if env.CheckAddress(owner) {
			valid++
		}
	}
	if valid < c.Required {
		return fmt.Errorf("%w: %d of %d required signatures", ErrMissingSignature, valid, c.Required)
	}
	return nil
}

// PasswordCondition is spent by the payee revealing the preimage of
// PasswordHash until Timeout, and by the payor after it.
type PasswordCondition struct {
	Payor        Address     `serialize:"true" json:"payor"`
	Payee        Address     `serialize:"true" json:"payee"`
	Timeout      int64       `serialize:"true" json:"timeout"`
	PasswordHash ids.ShortID `serialize:"true" json:"passwordHash"` // ripemd160
}

func (*PasswordCondition) Type() ConditionType { return PasswordType }

func (*PasswordCondition) Verify(*Rules) error { return nil }

func (c *PasswordCondition) authorize(env *Env, _ *Effects, claim *Claim) error {
	if c.Timeout < env.Now() {
		if !env.CheckAddress(c.Payor) {
			return fmt.Errorf("%w: payor %s", ErrMissingSignature, c.Payor)
		}
		return nil
	}

	if !env.CheckAddress(c.Payee) {
		return fmt.Errorf("%w: payee %s", ErrMissingSignature, c.Payee)
	}
	if len(claim.Data) < len(c.PasswordHash) {
		return fmt.Errorf("%w: password of %d bytes", ErrInvalidPassword, len(claim.Data))
	}
	hash := hashing.ComputeHash160(claim.Data)
	if !bytes.Equal(hash, c.PasswordHash[:]) {
		return ErrInvalidPassword
	}
	return nil
}

// OptionCondition lets the optionee buy the balance at StrikePrice until
// Date. After Date the optionor may take it back.
type OptionCondition struct {
	Optionor    Address `serialize:"true" json:"optionor"`
	Optionee    Address `serialize:"true" json:"optionee"`
	Date        int64   `serialize:"true" json:"date"`
	StrikePrice Price   `serialize:"true" json:"strikePrice"`
}

func (*OptionCondition) Type() ConditionType { return OptionType }

func (c *OptionCondition) Verify(*Rules) error {
	if c.StrikePrice.Ratio == 0 {
		return fmt.Errorf("%w: zero strike price", ErrInvalidPrice)
	}
	return nil
}

func (c *OptionCondition) authorize(env *Env, fx *Effects, claim *Claim) error {
	if env.Now() > c.Date {
		if !env.CheckAddress(c.Optionor) {
			return fmt.Errorf("%w: optionor %s", ErrMissingSignature, c.Optionor)
		}
		return nil
	}

	if !env.CheckAddress(c.Optionee) {
		return fmt.Errorf("%w: optionee %s", ErrMissingSignature, c.Optionee)
	}
	pay, err := claim.Amount.Mul(c.StrikePrice)
	if err != nil {
		return err
	}
	fx.AddRequiredDeposit(c.Optionee, pay)
	return nil
}

// DomainOfferCondition escrows a standing bid of Price for DomainName.
type DomainOfferCondition struct {
	Owner      Address `serialize:"true" json:"owner"`
	DomainName string  `serialize:"true" json:"domainName"`
	Price      Amount  `serialize:"true" json:"price"`
}

func (*DomainOfferCondition) Type() ConditionType { return DomainOfferType }

func (c *DomainOfferCondition) Verify(rules *Rules) error {
	if c.Price <= 0 {
		return fmt.Errorf("%w: offer of %d", ErrNegativeAmount, c.Price)
	}
	return rules.ValidateDomainName(c.DomainName)
}

// OfferKey is the order book entry this condition backs.
func (c *DomainOfferCondition) OfferKey() OfferKey {
	return OfferKey{DomainName: c.DomainName, Price: c.Price, Offer: c.Owner}
}

// The first domain transfer in the transaction must deliver the domain to
// the bidder. Without one, the bidder may withdraw the offer by signing.
func (c *DomainOfferCondition) authorize(env *Env, _ *Effects, _ *Claim) error {
	if transfer := env.Trx.firstDomainTransfer(); transfer != nil {
		if transfer.DomainName != c.DomainName || transfer.Owner != c.Owner {
			return fmt.Errorf("%w: transfer of %q to %s against offer for %q by %s",
				ErrDomainTransfer, transfer.DomainName, transfer.Owner, c.DomainName, c.Owner)
		}
		return env.Ledger.RemoveDomainOffer(c.OfferKey())
	}
	if env.CheckAddress(c.Owner) {
		return env.Ledger.RemoveDomainOffer(c.OfferKey())
	}
	return fmt.Errorf("%w: offer for %q needs a matching transfer or a signature from %s",
		ErrMissingSignature, c.DomainName, c.Owner)
}

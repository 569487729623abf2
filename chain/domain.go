// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/database"
)

var _ Operation = (*DomainTransferOperation)(nil)

// DomainRecord is a named asset that can be sold against standing offers.
type DomainRecord struct {
	Name       string  `serialize:"true" json:"name"`
	Owner      Address `serialize:"true" json:"owner"`
	LastUpdate int64   `serialize:"true" json:"lastUpdate"`
}

// OfferKey indexes a standing offer for a domain in the order book.
type OfferKey struct {
	DomainName string  `json:"domainName"`
	Price      Amount  `json:"price"`
	Offer      Address `json:"offerAddress"`
}

// Bytes orders offers by domain, then price, then bidder.
func (k OfferKey) Bytes() []byte {
	b := make([]byte, len(k.DomainName)+1+8, len(k.DomainName)+1+8+len(k.Offer))
	copy(b, k.DomainName)
	binary.BigEndian.PutUint64(b[len(k.DomainName)+1:], uint64(k.Price))
	return append(b, k.Offer[:]...)
}

// ValidateDomainName checks a domain name's length and characters.
func (r *Rules) ValidateDomainName(name string) error {
	if len(name) == 0 || len(name) > r.MaxDomainNameSize {
		return fmt.Errorf("%w: %q has length %d", ErrInvalidDomainName, name, len(name))
	}
	for _, segment := range strings.Split(name, NameSeparator) {
		if !validNameSegment(segment) {
			return fmt.Errorf("%w: %q", ErrInvalidDomainName, name)
		}
	}
	return nil
}

// DomainTransferOperation hands a domain to a new owner. Paired with a
// withdrawal from a matching DomainOfferCondition it sells the domain.
type DomainTransferOperation struct {
	DomainName string  `serialize:"true" json:"domainName"`
	Owner      Address `serialize:"true" json:"owner"`
}

func (*DomainTransferOperation) Type() OperationType { return DomainTransferOpType }

func (op *DomainTransferOperation) Evaluate(env *Env, _ *Effects) error {
	if err := env.Rules.ValidateDomainName(op.DomainName); err != nil {
		return err
	}
	domain, err := env.Ledger.GetDomain(op.DomainName)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, op.DomainName)
	}
	if err != nil {
		return err
	}
	if !env.CheckAddress(domain.Owner) {
		return fmt.Errorf("%w: owner of %q", ErrMissingSignature, op.DomainName)
	}
	domain.Owner = op.Owner
	domain.LastUpdate = env.Now()
	return env.Ledger.PutDomain(domain)
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"
	"strings"
)

// NameSeparator splits a child name from its parent: "alice.bob" is a child
// of "bob".
const NameSeparator = "."

// MaxPayRate is the highest delegate pay rate, in percent.
const MaxPayRate = 100

// DelegateStats are held by an account only while it is a delegate.
type DelegateStats struct {
	VotesFor             Amount `serialize:"true" json:"votesFor"`
	BlocksProduced       uint32 `serialize:"true" json:"blocksProduced"`
	BlocksMissed         uint32 `serialize:"true" json:"blocksMissed"`
	PayRate              uint8  `serialize:"true" json:"payRate"`
	PayBalance           Amount `serialize:"true" json:"payBalance"` // escrowed, forfeitable for cause
	NextSecretHash       Hash   `serialize:"true" json:"nextSecretHash"`
	LastBlockNumProduced uint32 `serialize:"true" json:"lastBlockNumProduced"`
}

// AccountMeta is opaque typed metadata attached to an account.
type AccountMeta struct {
	Type uint32 `serialize:"true" json:"type"`
	Data []byte `serialize:"true" json:"data"`
}

// KeyActivation is one entry of an account's active key history.
type KeyActivation struct {
	Since int64     `serialize:"true" json:"since"`
	Key   PublicKey `serialize:"true" json:"key"`
}

// AccountRecord is a named account.
type AccountRecord struct {
	ID               AccountID       `json:"id"`
	Name             string          `json:"name"`
	PublicData       []byte          `json:"publicData"`
	OwnerKey         PublicKey       `json:"ownerKey"`
	ActiveKeys       []KeyActivation `json:"activeKeyHistory"` // ordered by Since
	RegistrationDate int64           `json:"registrationDate"`
	LastUpdate       int64           `json:"lastUpdate"`
	DelegateInfo     *DelegateStats  `json:"delegateInfo,omitempty"`
	Meta             *AccountMeta    `json:"metaData,omitempty"`
	Points           Amount          `json:"points"`
}

// IsRetracted returns true if the owner key is the null key.
func (a *AccountRecord) IsRetracted() bool { return a.OwnerKey.IsZero() }

// IsDelegate returns true if the account currently holds delegate stats.
func (a *AccountRecord) IsDelegate() bool { return a.DelegateInfo != nil }

// ActiveKey returns the most recently activated key.
func (a *AccountRecord) ActiveKey() PublicKey {
	if len(a.ActiveKeys) == 0 {
		return EmptyPublicKey
	}
	return a.ActiveKeys[len(a.ActiveKeys)-1].Key
}

// ActiveAddress returns the address of the active key.
func (a *AccountRecord) ActiveAddress() Address { return a.ActiveKey().Address() }

// SetActiveKey activates [key] at [now]. A key activated twice at the same
// time replaces the earlier one.
func (a *AccountRecord) SetActiveKey(now int64, key PublicKey) {
	if n := len(a.ActiveKeys); n > 0 && a.ActiveKeys[n-1].Since == now {
		a.ActiveKeys[n-1].Key = key
		return
	}
	a.ActiveKeys = append(a.ActiveKeys, KeyActivation{Since: now, Key: key})
}

// DelegatePayRate returns the pay rate, or 0 for non-delegates.
func (a *AccountRecord) DelegatePayRate() uint8 {
	if a.DelegateInfo == nil {
		return 0
	}
	return a.DelegateInfo.PayRate
}

// NetVotes returns the delegate's votes, or 0 for non-delegates.
func (a *AccountRecord) NetVotes() Amount {
	if a.DelegateInfo == nil {
		return 0
	}
	return a.DelegateInfo.VotesFor
}

// ParentName returns everything after the first separator of [name], or ""
// for top level names.
func ParentName(name string) string {
	pos := strings.Index(name, NameSeparator)
	if pos < 0 {
		return ""
	}
	return name[pos+1:]
}

// ValidateAccountName checks length, character set and reserved words.
func (r *Rules) ValidateAccountName(name string) error {
	if len(name) < r.MinNameSize || len(name) > r.MaxNameSize {
		return fmt.Errorf("%w: %q has length %d", ErrInvalidAccountName, name, len(name))
	}
	for _, segment := range strings.Split(name, NameSeparator) {
		if !validNameSegment(segment) {
			return fmt.Errorf("%w: %q", ErrInvalidAccountName, name)
		}
	}
	if strings.Count(name, NameSeparator) >= r.MaxNameDepth {
		return fmt.Errorf("%w: %q is nested too deeply", ErrInvalidAccountName, name)
	}
	if r.isReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// validNameSegment accepts a lowercase letter followed by lowercase letters,
// digits and inner dashes.
func validNameSegment(segment string) bool {
	if len(segment) == 0 {
		return false
	}
	if segment[0] < 'a' || segment[0] > 'z' {
		return false
	}
	if segment[len(segment)-1] == '-' {
		return false
	}
	for i := 1; i < len(segment); i++ {
		c := segment[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

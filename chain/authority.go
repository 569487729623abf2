// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
)

// Authority is the outcome of looking for a signature up an account's
// parent chain.
type Authority uint8

const (
	Unauthorized Authority = iota
	Authorized
	AncestorRetracted
)

func (a Authority) String() string {
	switch a {
	case Authorized:
		return "authorized"
	case AncestorRetracted:
		return "ancestorRetracted"
	default:
		return "unauthorized"
	}
}

// ParentAuthority walks the ancestors of [name], nearest first, until one
// of them has signed with its owner or active key. The walk stops at the
// first missing ancestor, at the first retracted one, or after
// Rules.MaxNameDepth steps. It also returns the ancestor it stopped at.
func ParentAuthority(env *Env, name string) (Authority, string, error) {
	parent := ParentName(name)
	for depth := 0; parent != "" && depth < env.Rules.MaxNameDepth; depth++ {
		account, err := env.Ledger.GetAccountByName(parent)
		if errors.Is(err, database.ErrNotFound) {
			return Unauthorized, parent, nil
		}
		if err != nil {
			return Unauthorized, parent, err
		}
		if account.IsRetracted() {
			return AncestorRetracted, parent, nil
		}
		if env.CheckKey(account.OwnerKey) || env.CheckAddress(account.ActiveAddress()) {
			return Authorized, parent, nil
		}
		parent = ParentName(parent)
	}
	return Unauthorized, parent, nil
}

// requireParentAuthority turns the outcome of ParentAuthority into an error.
func requireParentAuthority(env *Env, name string) error {
	authority, ancestor, err := ParentAuthority(env, name)
	if err != nil {
		return err
	}
	switch authority {
	case Authorized:
		return nil
	case AncestorRetracted:
		return fmt.Errorf("%w: %q", ErrParentRetracted, ancestor)
	default:
		return fmt.Errorf("%w: updating %q requires the signature of its owner or one of its parent accounts",
			ErrMissingSignature, name)
	}
}

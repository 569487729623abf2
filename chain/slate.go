// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var _ Operation = (*DefineSlateOperation)(nil)

// Slate is a sorted set of delegates a balance votes for. Negative ids are
// votes against the delegate with the absolute id.
type Slate struct {
	Delegates []AccountID `serialize:"true" json:"supportedDelegates"`
}

// NewSlate returns the canonical slate of [delegates]: sorted, without
// duplicates.
func NewSlate(delegates []AccountID) *Slate {
	sorted := make([]AccountID, len(delegates))
	copy(sorted, delegates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	unique := sorted[:0]
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		unique = append(unique, id)
	}
	return &Slate{Delegates: unique}
}

// ID is the first eight bytes of sha256 over the slate's encoding.
func (s *Slate) ID() (SlateID, error) {
	b, err := Codec.Marshal(CodecVersion, s)
	if err != nil {
		return 0, err
	}
	hash := hashing.ComputeHash256(b)
	return SlateID(binary.BigEndian.Uint64(hash[:8])), nil
}

// DefineSlateOperation stores a slate so balances can reference it by id.
// Defining a slate that already exists is a no-op.
type DefineSlateOperation struct {
	Delegates []AccountID `serialize:"true" json:"supportedDelegates"`
}

func (*DefineSlateOperation) Type() OperationType { return DefineSlateOpType }

func (op *DefineSlateOperation) Evaluate(env *Env, _ *Effects) error {
	if len(op.Delegates) > env.Rules.MaxSlateSize {
		return fmt.Errorf("%w: %d > %d", ErrTooManyDelegates, len(op.Delegates), env.Rules.MaxSlateSize)
	}

	slate := NewSlate(op.Delegates)
	slateID, err := slate.ID()
	if err != nil {
		return err
	}
	_, err = env.Ledger.GetSlate(slateID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	for _, id := range slate.Delegates {
		if err := env.VerifyDelegateID(id); err != nil {
			return err
		}
	}
	log.Debug("defined slate", "slateID", slateID, "delegates", len(slate.Delegates))
	return env.Ledger.PutSlate(slate)
}

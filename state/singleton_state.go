// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/keyidvm/chain"
)

const (
	IsInitializedKey byte = iota
	HeadKey
	NextAccountIDKey
	LastAcceptedKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}
	headKey          = []byte{HeadKey}
	nextAccountIDKey = []byte{NextAccountIDKey}
	lastAcceptedKey  = []byte{LastAcceptedKey}
)

// head is the chain metadata operations read: the chain id, and the height
// and time of the block being applied.
type head struct {
	ChainID   ids.ID `serialize:"true"`
	Height    uint32 `serialize:"true"`
	Timestamp int64  `serialize:"true"`
}

func (s *State) loadHead() (head, error) {
	h := head{}
	err := s.get(s.singletonDB, headKey, &h)
	if errors.Is(err, database.ErrNotFound) {
		return head{}, nil
	}
	return h, err
}

func (s *State) Now() int64              { return s.head.Timestamp }
func (s *State) HeadBlockHeight() uint32 { return s.head.Height }
func (s *State) ChainID() chain.Hash     { return s.head.ChainID }

// SetChainID is written once, at genesis.
func (s *State) SetChainID(chainID ids.ID) error {
	s.head.ChainID = chainID
	return s.put(s.singletonDB, headKey, &s.head)
}

// SetHead moves the chain to the block at [height] made at [timestamp].
func (s *State) SetHead(height uint32, timestamp int64) error {
	s.head.Height = height
	s.head.Timestamp = timestamp
	return s.put(s.singletonDB, headKey, &s.head)
}

func (s *State) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *State) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

// NewAccountID hands out account ids in sequence, starting at 1.
func (s *State) NewAccountID() (chain.AccountID, error) {
	next := uint32(1)
	b, err := s.singletonDB.Get(nextAccountIDKey)
	switch {
	case err == nil:
		next = binary.BigEndian.Uint32(b)
	case !errors.Is(err, database.ErrNotFound):
		return 0, err
	}
	if err := s.singletonDB.Put(nextAccountIDKey, chain.AccountID(next+1).Bytes()); err != nil {
		return 0, err
	}
	return chain.AccountID(next), nil
}

func (s *State) GetLastAccepted() (ids.ID, error) {
	b, err := s.singletonDB.Get(lastAcceptedKey)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func (s *State) SetLastAccepted(blkID ids.ID) error {
	return s.singletonDB.Put(lastAcceptedKey, blkID[:])
}

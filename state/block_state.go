// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
)

const (
	blockCacheSize = 512
)

// GetBlock returns the bytes of an accepted block.
func (s *State) GetBlock(blkID ids.ID) ([]byte, error) {
	if cached, ok := s.blockCache.Get(blkID); ok {
		return cached.([]byte), nil
	}
	blkBytes, err := s.blockDB.Get(blkID[:])
	if err != nil {
		return nil, err
	}
	s.blockCache.Put(blkID, blkBytes)
	return blkBytes, nil
}

// PutBlock stores an accepted block and indexes it by height.
func (s *State) PutBlock(blkID ids.ID, height uint64, blkBytes []byte) error {
	if err := s.blockDB.Put(blkID[:], blkBytes); err != nil {
		return err
	}
	if err := s.heightDB.Put(heightKey(height), blkID[:]); err != nil {
		return err
	}
	s.blockCache.Put(blkID, blkBytes)
	return nil
}

func (s *State) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	b, err := s.heightDB.Get(heightKey(height))
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func heightKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}

// HasTransaction reports whether [txID] was included in an accepted block.
func (s *State) HasTransaction(txID ids.ID) (bool, error) {
	return s.txDB.Has(txID[:])
}

// PutTransaction records that [txID] was included in the block [blkID].
func (s *State) PutTransaction(txID ids.ID, blkID ids.ID) error {
	return s.txDB.Put(txID[:], blkID[:])
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/keyidvm/chain"
)

// Block is an ordered batch of transactions applied against the state left
// by its parent.
type Block struct {
	PrntID ids.ID               `serialize:"true" json:"parentID"`  // parent's ID
	Hght   uint64               `serialize:"true" json:"height"`    // This block's height. The genesis block is at height 0.
	Tmstmp int64                `serialize:"true" json:"timestamp"` // Time this block was proposed at
	Txs    []*chain.Transaction `serialize:"true" json:"txs"`

	id    ids.ID // hold this block's ID
	bytes []byte // this block's encoded bytes
}

// NewBlock encodes a block and fills in its ID.
func NewBlock(parentID ids.ID, height uint64, timestamp int64, txs []*chain.Transaction) (*Block, error) {
	block := &Block{
		PrntID: parentID,
		Hght:   height,
		Tmstmp: timestamp,
		Txs:    txs,
	}
	bytes, err := chain.Codec.Marshal(chain.CodecVersion, block)
	if err != nil {
		return nil, err
	}
	block.bytes = bytes
	block.id = hashing.ComputeHash256Array(bytes)
	return block, nil
}

// ParseBlock decodes [b] into a Block.
func ParseBlock(b []byte) (*Block, error) {
	block := &Block{}
	parsedVersion, err := chain.Codec.Unmarshal(b, block)
	if err != nil {
		return nil, err
	}
	if parsedVersion != chain.CodecVersion {
		return nil, errBlockWrongVersion
	}
	block.id = hashing.ComputeHash256Array(b)
	block.bytes = b
	return block, nil
}

// ID returns the ID of this block
func (b *Block) ID() ids.ID { return b.id }

// Parent returns [b]'s parent's ID
func (b *Block) Parent() ids.ID { return b.PrntID }

// Height returns this block's height. The genesis block has height 0.
func (b *Block) Height() uint64 { return b.Hght }

// Timestamp returns this block's time.
func (b *Block) Timestamp() time.Time { return time.Unix(b.Tmstmp, 0) }

// Bytes returns the byte repr. of this block
func (b *Block) Bytes() []byte { return b.bytes }

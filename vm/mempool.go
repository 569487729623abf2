// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/keyidvm/chain"
)

var (
	errEmptyMempool = errors.New("empty mempool")
	errDuplicateTx  = errors.New("transaction already pending")

	defaultMempoolSize = 1024
)

type mempool struct {
	lock    sync.Mutex
	pending map[ids.ID]struct{}
	txs     chan *chain.Transaction
}

func newMempool(size int) *mempool {
	if size <= 0 {
		size = defaultMempoolSize
	}
	return &mempool{
		pending: make(map[ids.ID]struct{}, size),
		txs:     make(chan *chain.Transaction, size),
	}
}

// Add queues [tx] unless it is already pending or the pool is full.
func (m *mempool) Add(tx *chain.Transaction) error {
	txID, err := tx.ID()
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.pending[txID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateTx, txID)
	}
	select {
	case m.txs <- tx:
		m.pending[txID] = struct{}{}
		return nil
	default:
		return fmt.Errorf("failed to add tx %s to mempool due to full at size (%d)", txID, cap(m.txs))
	}
}

// Next pops the oldest pending transaction.
func (m *mempool) Next() (*chain.Transaction, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	select {
	case tx := <-m.txs:
		if txID, err := tx.ID(); err == nil {
			delete(m.pending, txID)
		}
		return tx, nil
	default:
		return nil, errEmptyMempool
	}
}

func (m *mempool) Len() int {
	return len(m.txs)
}

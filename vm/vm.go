// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/version"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/keyidvm/chain"
	"github.com/ava-labs/keyidvm/state"
)

const (
	Name = "keyidvm"

	futureBlockLimit    = time.Minute // Maximum amount of time that a block can be in the future
	defaultBlockTxLimit = 256
)

var (
	Version = &version.Semantic{Major: 0, Minor: 1, Patch: 0}

	errBlockWrongVersion = errors.New("block has wrong codec version")
	errNoPendingTxs      = errors.New("there are no transactions to put in a block")
	errChainIDMismatch   = errors.New("database belongs to another chain")
	errReplayedTx        = errors.New("transaction already accepted")
	errNotInitialized    = errors.New("vm is not initialized")
)

// Config is the VM's JSON config.
type Config struct {
	// StrictBlocks rejects a block if any of its transactions fails to
	// apply. Otherwise failing transactions are skipped and reported.
	StrictBlocks bool `json:"strictBlocks"`
	MempoolSize  int  `json:"mempoolSize"`
	BlockTxLimit int  `json:"blockTxLimit"`
}

// TxResult reports the outcome of one transaction of a block.
type TxResult struct {
	TxID  ids.ID         `json:"txID"`
	Fees  chain.Amount   `json:"fees"`
	Error string         `json:"error,omitempty"`
	Class string         `json:"class,omitempty"`
	Fx    *chain.Effects `json:"-"`
}

// BlockResult is what applying a block did.
type BlockResult struct {
	BlockID ids.ID     `json:"blockID"`
	Height  uint64     `json:"height"`
	Results []TxResult `json:"results"`
}

// Applied counts the transactions that took effect.
func (r *BlockResult) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.Error == "" {
			n++
		}
	}
	return n
}

// VM is a single chain of blocks, each applying its transactions in order
// against the ledger left by its parent.
type VM struct {
	lock sync.Mutex

	config  Config
	genesis *Genesis
	rules   *chain.Rules

	// Clock used for block building and verification
	clock mockable.Clock
	log   log.Logger

	state        *state.State
	lastAccepted *Block

	mempool *mempool
	metrics *metrics
}

// Initialize opens the chain over [db], writing the genesis ledger if the
// database is empty.
func (vm *VM) Initialize(
	ctx context.Context,
	db database.Database,
	genesisBytes []byte,
	configBytes []byte,
	registerer prometheus.Registerer,
) error {
	vm.log = log.New("vm", Name)
	vm.log.Info("initializing keyid VM", "version", Version)

	if len(configBytes) > 0 {
		if err := json.Unmarshal(configBytes, &vm.config); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if vm.config.BlockTxLimit <= 0 {
		vm.config.BlockTxLimit = defaultBlockTxLimit
	}

	genesis, err := ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	vm.genesis = genesis
	vm.rules = genesis.Rules

	if vm.state, err = state.New(db); err != nil {
		return err
	}
	if vm.metrics, err = newMetrics(registerer); err != nil {
		return err
	}
	vm.mempool = newMempool(vm.config.MempoolSize)

	return vm.initGenesis(ctx)
}

func (vm *VM) initGenesis(ctx context.Context) error {
	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		if vm.state.ChainID() != vm.genesis.ID() {
			return fmt.Errorf("%w: have %s, genesis is %s", errChainIDMismatch, vm.state.ChainID(), vm.genesis.ID())
		}
		lastAcceptedID, err := vm.state.GetLastAccepted()
		if err != nil {
			return fmt.Errorf("failed to get last accepted blockID: %w", err)
		}
		if vm.lastAccepted, err = vm.GetBlock(ctx, lastAcceptedID); err != nil {
			return err
		}
		vm.log.Info("loaded chain", "chainID", vm.genesis.ChainID, "height", vm.lastAccepted.Height())
		return nil
	}

	genesisBlock, err := NewBlock(ids.Empty, 0, vm.genesis.Timestamp, nil)
	if err != nil {
		return fmt.Errorf("failed to create genesis block: %w", err)
	}

	s := vm.state.Overlay()
	if err := vm.genesis.Apply(s); err != nil {
		s.Abort()
		return fmt.Errorf("failed to apply genesis: %w", err)
	}
	if err := vm.putBlock(s, genesisBlock); err != nil {
		s.Abort()
		return err
	}
	if err := s.SetInitialized(); err != nil {
		s.Abort()
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}
	if err := vm.commit(s); err != nil {
		return err
	}
	vm.lastAccepted = genesisBlock
	vm.log.Info("created genesis", "chainID", vm.genesis.ChainID, "blkID", genesisBlock.ID())
	return nil
}

// ParseBlock decodes [b] into a Block.
func (vm *VM) ParseBlock(_ context.Context, b []byte) (*Block, error) {
	return ParseBlock(b)
}

// BuildBlock fills a block on top of the last accepted one with the
// pending transactions that apply cleanly. Transactions that fail are
// dropped.
func (vm *VM) BuildBlock(ctx context.Context) (*Block, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	return vm.buildBlock(ctx)
}

func (vm *VM) buildBlock(ctx context.Context) (*Block, error) {
	if vm.lastAccepted == nil {
		return nil, errNotInitialized
	}
	parent := vm.lastAccepted
	timestamp := vm.clock.Time().Unix()
	if timestamp < parent.Tmstmp {
		timestamp = parent.Tmstmp
	}

	s := vm.state.Overlay()
	defer s.Abort()
	if err := s.SetHead(uint32(parent.Hght+1), timestamp); err != nil {
		return nil, err
	}

	txs := make([]*chain.Transaction, 0, vm.config.BlockTxLimit)
	for len(txs) < vm.config.BlockTxLimit {
		tx, err := vm.mempool.Next()
		if errors.Is(err, errEmptyMempool) {
			break
		}
		res := vm.applyTx(s, tx)
		if res.Error != "" {
			vm.log.Debug("dropping transaction", "txID", res.TxID, "err", res.Error)
			continue
		}
		txs = append(txs, tx)
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
	if len(txs) == 0 {
		return nil, errNoPendingTxs
	}
	return NewBlock(parent.ID(), parent.Hght+1, timestamp, txs)
}

// Verify checks [block] extends [parent] and that its transactions apply.
// Nothing is written.
func (vm *VM) Verify(ctx context.Context, parent *Block, block *Block) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	s, _, err := vm.execute(parent, block)
	if err != nil {
		return err
	}
	s.Abort()
	return nil
}

// Accept applies [block] on top of the last accepted block and persists it.
func (vm *VM) Accept(ctx context.Context, block *Block) (*BlockResult, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	return vm.accept(block)
}

func (vm *VM) accept(block *Block) (*BlockResult, error) {
	if vm.lastAccepted == nil {
		return nil, errNotInitialized
	}
	s, result, err := vm.execute(vm.lastAccepted, block)
	if err != nil {
		return nil, err
	}
	if err := vm.putBlock(s, block); err != nil {
		s.Abort()
		return nil, err
	}
	for _, res := range result.Results {
		if res.Error != "" {
			continue
		}
		if err := s.PutTransaction(res.TxID, block.ID()); err != nil {
			s.Abort()
			return nil, err
		}
	}
	if err := vm.commit(s); err != nil {
		return nil, fmt.Errorf("failed to commit database accepting block %s: %w", block.ID(), err)
	}
	vm.lastAccepted = block

	vm.metrics.blocksAccepted.Inc()
	vm.metrics.height.Set(float64(block.Hght))
	for i, res := range result.Results {
		if res.Error != "" {
			continue
		}
		vm.metrics.txsAccepted.Inc()
		vm.metrics.feesCollected.Add(float64(res.Fees))
		for _, op := range block.Txs[i].Operations {
			vm.metrics.opsApplied.WithLabelValues(op.Type().String()).Inc()
		}
	}
	vm.log.Info("accepted block", "blkID", block.ID(), "height", block.Height(), "txs", len(block.Txs), "applied", result.Applied())
	return result, nil
}

// execute checks [block] against [parent] and applies its transactions to
// a fresh overlay the caller must commit or abort.
func (vm *VM) execute(parent *Block, block *Block) (*state.State, *BlockResult, error) {
	// Ensure [b]'s height comes right after its parent's height
	if expectedHeight := parent.Height() + 1; expectedHeight != block.Hght {
		return nil, nil, fmt.Errorf(
			"expected block to have height %d, but found %d",
			expectedHeight,
			block.Hght,
		)
	}
	if block.PrntID != parent.ID() {
		return nil, nil, fmt.Errorf("block parent %s is not %s", block.PrntID, parent.ID())
	}

	// Ensure [b]'s timestamp is >= its parent's timestamp.
	if block.Timestamp().Unix() < parent.Timestamp().Unix() {
		return nil, nil, fmt.Errorf("block cannot have timestamp (%s) < parent timestamp (%s)", block.Timestamp(), parent.Timestamp())
	}

	// Ensure [b]'s timestamp is not more than [futureBlockLimit]
	// ahead of this node's time
	now := vm.clock.Time()
	if block.Timestamp().Unix() >= now.Add(futureBlockLimit).Unix() {
		return nil, nil, fmt.Errorf("block cannot have timestamp (%s) further than (%s) past current time (%s)", block.Timestamp(), futureBlockLimit, now)
	}

	if parent.ID() != vm.lastAccepted.ID() {
		return nil, nil, fmt.Errorf("block %s does not extend the last accepted block %s", block.ID(), vm.lastAccepted.ID())
	}

	s := vm.state.Overlay()
	if err := s.SetHead(uint32(block.Hght), block.Tmstmp); err != nil {
		s.Abort()
		return nil, nil, err
	}
	result := &BlockResult{
		BlockID: block.ID(),
		Height:  block.Hght,
		Results: make([]TxResult, 0, len(block.Txs)),
	}
	for i, tx := range block.Txs {
		res := vm.applyTx(s, tx)
		if res.Error != "" && vm.config.StrictBlocks {
			s.Abort()
			return nil, nil, fmt.Errorf("transaction %d (%s) of block %s: %s", i, res.TxID, block.ID(), res.Error)
		}
		result.Results = append(result.Results, res)
	}
	return s, result, nil
}

// applyTx runs [tx] in its own overlay of [s], keeping its writes only if
// every operation and the settlement succeed.
func (vm *VM) applyTx(s *state.State, tx *chain.Transaction) TxResult {
	res := TxResult{}
	fail := func(err error) TxResult {
		res.Error = err.Error()
		res.Class = chain.ClassOf(err).String()
		vm.metrics.txsRejected.WithLabelValues(res.Class).Inc()
		if chain.IsFatal(err) {
			vm.log.Error("fatal transaction error", "txID", res.TxID, "err", err)
		}
		return res
	}

	txID, err := tx.ID()
	if err != nil {
		return fail(err)
	}
	res.TxID = txID
	replayed, err := s.HasTransaction(txID)
	if err != nil {
		return fail(err)
	}
	if replayed {
		return fail(fmt.Errorf("%w: %s", errReplayedTx, txID))
	}

	txState := s.Overlay()
	fx, err := tx.Apply(txState, vm.rules)
	if err != nil {
		txState.Abort()
		return fail(err)
	}
	if err := txState.PutTransaction(txID, ids.Empty); err != nil {
		txState.Abort()
		return fail(err)
	}
	if err := txState.Commit(); err != nil {
		return fail(err)
	}
	res.Fees = fx.RequiredFees
	res.Fx = fx
	return res
}

// Evaluate dry-runs [tx] on top of the last accepted block as if it were
// included in the next one. Nothing is written.
func (vm *VM) Evaluate(ctx context.Context, tx *chain.Transaction) (*chain.Effects, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.lastAccepted == nil {
		return nil, errNotInitialized
	}
	s := vm.state.Overlay()
	defer s.Abort()

	timestamp := vm.clock.Time().Unix()
	if timestamp < vm.lastAccepted.Tmstmp {
		timestamp = vm.lastAccepted.Tmstmp
	}
	if err := s.SetHead(uint32(vm.lastAccepted.Hght+1), timestamp); err != nil {
		return nil, err
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, err
	}
	replayed, err := s.HasTransaction(txID)
	if err != nil {
		return nil, err
	}
	if replayed {
		return nil, fmt.Errorf("%w: %s", errReplayedTx, txID)
	}
	return tx.Apply(s, vm.rules)
}

// IssueTx adds [tx] to the mempool after checking it would apply now.
func (vm *VM) IssueTx(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
	txID, err := tx.ID()
	if err != nil {
		return ids.Empty, err
	}
	if _, err := vm.Evaluate(ctx, tx); err != nil {
		return txID, err
	}
	if err := vm.mempool.Add(tx); err != nil {
		return txID, err
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
	vm.log.Debug("issued transaction", "txID", txID)
	return txID, nil
}

// BuildAndAccept builds a block from the mempool and accepts it at once.
func (vm *VM) BuildAndAccept(ctx context.Context) (*Block, *BlockResult, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	block, err := vm.buildBlock(ctx)
	if err != nil {
		return nil, nil, err
	}
	result, err := vm.accept(block)
	if err != nil {
		return nil, nil, err
	}
	return block, result, nil
}

func (vm *VM) putBlock(s *state.State, block *Block) error {
	if err := s.PutBlock(block.ID(), block.Height(), block.Bytes()); err != nil {
		return fmt.Errorf("failed to put block %s: %w", block.ID(), err)
	}
	if err := s.SetLastAccepted(block.ID()); err != nil {
		return fmt.Errorf("failed to update last accepted block to %s: %w", block.ID(), err)
	}
	return nil
}

// commit flushes an overlay of the root state down to the database.
func (vm *VM) commit(s *state.State) error {
	if err := s.Commit(); err != nil {
		vm.state.Abort()
		return err
	}
	return vm.state.Commit()
}

func (vm *VM) GetBlockIDAtHeight(_ context.Context, height uint64) (ids.ID, error) {
	blkID, err := vm.state.GetBlockIDAtHeight(height)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ids.ID{}, err
	case err != nil:
		return ids.ID{}, fmt.Errorf("failed to get height index at %d: %w", height, err)
	}
	return blkID, nil
}

func (vm *VM) GetBlock(ctx context.Context, blkID ids.ID) (*Block, error) {
	blkBytes, err := vm.state.GetBlock(blkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", blkID, err)
	}

	blk, err := vm.ParseBlock(ctx, blkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block from disk %s: %w", blkID, err)
	}
	return blk, nil
}

func (vm *VM) LastAccepted(_ context.Context) (ids.ID, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.lastAccepted == nil {
		return ids.ID{}, errNotInitialized
	}
	return vm.lastAccepted.ID(), nil
}

// View runs [f] against the accepted state. [f] must not write to it.
func (vm *VM) View(f func(*state.State) error) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	return f(vm.state)
}

// Rules returns the consensus rules the chain runs under.
func (vm *VM) Rules() *chain.Rules { return vm.rules }

// Shutdown is called when the node is shutting down.
func (vm *VM) Shutdown(_ context.Context) error {
	if vm.state == nil {
		return nil
	}
	return vm.state.Close()
}

// Version returns the version of the VM.
func (vm *VM) Version(_ context.Context) (string, error) {
	return Version.String(), nil
}

// CreateHandlers returns the VM's JSON-RPC API keyed by path extension.
func (vm *VM) CreateHandlers(_ context.Context) (map[string]*rpc.Server, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}

	staticServer := rpc.NewServer()
	staticServer.RegisterCodec(codec, "application/json")
	staticServer.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := staticServer.RegisterService(CreateStaticService(), Name); err != nil {
		return nil, err
	}

	return map[string]*rpc.Server{
		"":        server,
		"/static": staticServer,
	}, nil
}

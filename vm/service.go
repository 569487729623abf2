// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/keyidvm/chain"
	"github.com/ava-labs/keyidvm/state"
)

var (
	errCannotGetLastAccepted = errors.New("cannot get last accepted block")
	errNoAccountSelector     = errors.New("either name or id is required")
)

// Service is the API service for this VM
type Service struct{ vm *VM }

// TxArgs carries a hex encoded signed transaction.
type TxArgs struct {
	Tx string `json:"tx"`
}

func (args *TxArgs) parse() (*chain.Transaction, error) {
	b, err := formatting.Decode(formatting.Hex, args.Tx)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode transaction: %w", err)
	}
	return chain.ParseTransaction(b)
}

// IssueTxReply is the reply from IssueTx
type IssueTxReply struct {
	TxID ids.ID `json:"txID"`
}

// IssueTx checks a transaction applies on the accepted state and queues it
// for the next block.
func (s *Service) IssueTx(r *http.Request, args *TxArgs, reply *IssueTxReply) error {
	tx, err := args.parse()
	if err != nil {
		return err
	}
	reply.TxID, err = s.vm.IssueTx(r.Context(), tx)
	return err
}

// EvaluateTxReply summarizes what a transaction would do.
type EvaluateTxReply struct {
	TxID         ids.ID        `json:"txID"`
	RequiredFees cjson.Uint64  `json:"requiredFees"`
	Remainders   []chain.Asset `json:"remainders"`
	Yield        []chain.Asset `json:"yield"`
}

// EvaluateTx dry-runs a transaction without queueing it.
func (s *Service) EvaluateTx(r *http.Request, args *TxArgs, reply *EvaluateTxReply) error {
	tx, err := args.parse()
	if err != nil {
		return err
	}
	if reply.TxID, err = tx.ID(); err != nil {
		return err
	}
	fx, err := s.vm.Evaluate(r.Context(), tx)
	if err != nil {
		return err
	}
	reply.RequiredFees = cjson.Uint64(fx.RequiredFees)
	for _, assetID := range fx.AssetIDs() {
		reply.Remainders = append(reply.Remainders, chain.NewAsset(fx.Balance[assetID], assetID))
	}
	for _, assetID := range sortedAssetIDs(fx.Yield) {
		reply.Yield = append(reply.Yield, chain.NewAsset(fx.Yield[assetID], assetID))
	}
	return nil
}

// BuildBlockReply is the reply from BuildBlock
type BuildBlockReply struct {
	BlockResult
}

// BuildBlock puts the pending transactions into a block and accepts it.
func (s *Service) BuildBlock(r *http.Request, _ *api.EmptyReply, reply *BuildBlockReply) error {
	_, result, err := s.vm.BuildAndAccept(r.Context())
	if err != nil {
		return err
	}
	reply.BlockResult = *result
	return nil
}

// BlockIDArgs is an API request where the only argument is a single block ID
type BlockIDArgs struct {
	ID ids.ID `json:"id"`
}

// GetBlockReply is the reply from GetBlock
type GetBlockReply struct {
	ID        ids.ID       `json:"id"`
	ParentID  ids.ID       `json:"parentID"`
	Height    cjson.Uint64 `json:"height"`
	Timestamp cjson.Uint64 `json:"timestamp"`
	TxIDs     []ids.ID     `json:"txIDs"`
	Bytes     string       `json:"bytes"`
}

// GetBlock gets the block whose ID is [args.ID]
// If [args.ID] is empty, get the latest block
func (s *Service) GetBlock(r *http.Request, args *BlockIDArgs, reply *GetBlockReply) error {
	var (
		requestedBlockID = args.ID
		err              error
	)
	if requestedBlockID == ids.Empty {
		requestedBlockID, err = s.vm.LastAccepted(r.Context())
		if err != nil {
			return errCannotGetLastAccepted
		}
	}
	block, err := s.vm.GetBlock(r.Context(), requestedBlockID)
	if err != nil {
		return err
	}

	reply.ID = block.ID()
	reply.ParentID = block.Parent()
	reply.Height = cjson.Uint64(block.Height())
	reply.Timestamp = cjson.Uint64(block.Tmstmp)
	reply.TxIDs = make([]ids.ID, 0, len(block.Txs))
	for _, tx := range block.Txs {
		txID, err := tx.ID()
		if err != nil {
			return err
		}
		reply.TxIDs = append(reply.TxIDs, txID)
	}
	reply.Bytes, err = formatting.Encode(formatting.Hex, block.Bytes())
	return err
}

// AccountArgs selects an account by name or by id.
type AccountArgs struct {
	Name string          `json:"name"`
	ID   chain.AccountID `json:"id"`
}

// GetAccount returns an account record.
func (s *Service) GetAccount(_ *http.Request, args *AccountArgs, reply *chain.AccountRecord) error {
	if args.Name == "" && args.ID == 0 {
		return errNoAccountSelector
	}
	return s.vm.View(func(l *state.State) error {
		var (
			account *chain.AccountRecord
			err     error
		)
		if args.Name != "" {
			account, err = l.GetAccountByName(args.Name)
		} else {
			account, err = l.GetAccount(args.ID)
		}
		if err != nil {
			return err
		}
		*reply = *account
		return nil
	})
}

// BalanceArgs selects a balance by id, or by the owner of a signature
// condition.
type BalanceArgs struct {
	ID      chain.BalanceID `json:"id"`
	Owner   chain.Address   `json:"owner"`
	AssetID chain.AssetID   `json:"assetID"`
	SlateID chain.SlateID   `json:"slateID"`
}

// GetBalanceReply is the reply from GetBalance
type GetBalanceReply struct {
	ID            chain.BalanceID `json:"id"`
	AssetID       chain.AssetID   `json:"assetID"`
	SlateID       chain.SlateID   `json:"slateID"`
	ConditionType string          `json:"conditionType"`
	Balance       chain.Amount    `json:"balance"`
	DepositDate   int64           `json:"depositDate"`
	LastUpdate    int64           `json:"lastUpdate"`
}

// GetBalance returns a balance record.
func (s *Service) GetBalance(_ *http.Request, args *BalanceArgs, reply *GetBalanceReply) error {
	balanceID := args.ID
	if balanceID == ids.ShortEmpty {
		condition := chain.NewSignatureCondition(args.Owner, args.AssetID, args.SlateID)
		var err error
		if balanceID, err = condition.Address(); err != nil {
			return err
		}
	}
	return s.vm.View(func(l *state.State) error {
		balance, err := l.GetBalance(balanceID)
		if err != nil {
			return err
		}
		reply.ID = balanceID
		reply.AssetID = balance.AssetID()
		reply.SlateID = balance.Condition.SlateID
		if balance.Condition.Condition != nil {
			reply.ConditionType = balance.Condition.Condition.Type().String()
		}
		reply.Balance = balance.Balance
		reply.DepositDate = balance.DepositDate
		reply.LastUpdate = balance.LastUpdate
		return nil
	})
}

// AssetArgs ...
type AssetArgs struct {
	ID chain.AssetID `json:"id"`
}

// GetAsset returns an asset record.
func (s *Service) GetAsset(_ *http.Request, args *AssetArgs, reply *chain.AssetRecord) error {
	return s.vm.View(func(l *state.State) error {
		asset, err := l.GetAsset(args.ID)
		if err != nil {
			return err
		}
		*reply = *asset
		return nil
	})
}

// SlateArgs ...
type SlateArgs struct {
	ID chain.SlateID `json:"id"`
}

// GetSlate returns the delegates of a slate.
func (s *Service) GetSlate(_ *http.Request, args *SlateArgs, reply *chain.Slate) error {
	return s.vm.View(func(l *state.State) error {
		slate, err := l.GetSlate(args.ID)
		if err != nil {
			return err
		}
		*reply = *slate
		return nil
	})
}

// DomainArgs ...
type DomainArgs struct {
	Name string `json:"name"`
}

// GetDomain returns a domain record.
func (s *Service) GetDomain(_ *http.Request, args *DomainArgs, reply *chain.DomainRecord) error {
	return s.vm.View(func(l *state.State) error {
		domain, err := l.GetDomain(args.Name)
		if err != nil {
			return err
		}
		*reply = *domain
		return nil
	})
}

// FeeArgs are arguments for RegistrationFee
type FeeArgs struct {
	Height   uint32 `json:"height"`
	Delegate bool   `json:"delegate"`
	PayRate  uint8  `json:"payRate"`
}

// FeeReply ...
type FeeReply struct {
	Fee cjson.Uint64 `json:"fee"`
}

// RegistrationFee returns the fee for registering an account at
// [args.Height] under the rules this chain was started with.
func (s *Service) RegistrationFee(_ *http.Request, args *FeeArgs, reply *FeeReply) error {
	if args.Delegate && args.PayRate > chain.MaxPayRate {
		return fmt.Errorf("%w: %d", chain.ErrInvalidPayRate, args.PayRate)
	}
	reply.Fee = cjson.Uint64(s.vm.Rules().RegistrationFee(args.Height, args.Delegate, args.PayRate))
	return nil
}

func sortedAssetIDs(m map[chain.AssetID]chain.Amount) []chain.AssetID {
	assetIDs := make([]chain.AssetID, 0, len(m))
	for id := range m {
		assetIDs = append(assetIDs, id)
	}
	sort.Slice(assetIDs, func(i, j int) bool { return assetIDs[i] < assetIDs[j] })
	return assetIDs
}

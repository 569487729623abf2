// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/keyidvm/chain"
	"github.com/ava-labs/keyidvm/vm"
)

// Client defines keyidvm client operations.
type Client interface {
	// IssueTx submits a signed transaction to the mempool
	IssueTx(ctx context.Context, tx *chain.Transaction) (ids.ID, error)

	// EvaluateTx dry-runs a signed transaction against the accepted state
	EvaluateTx(ctx context.Context, tx *chain.Transaction) (*vm.EvaluateTxReply, error)

	// BuildBlock puts the pending transactions into a block and accepts it
	BuildBlock(ctx context.Context) (*vm.BlockResult, error)

	// GetBlock fetches the contents of a block.
	// Fetches the last accepted block if [blockID] is the empty ID
	GetBlock(ctx context.Context, blockID ids.ID) (*vm.GetBlockReply, error)

	GetAccount(ctx context.Context, name string) (*chain.AccountRecord, error)
	GetBalance(ctx context.Context, owner chain.Address, assetID chain.AssetID, slate chain.SlateID) (*vm.GetBalanceReply, error)
	GetAsset(ctx context.Context, assetID chain.AssetID) (*chain.AssetRecord, error)
	GetSlate(ctx context.Context, slateID chain.SlateID) (*chain.Slate, error)
	GetDomain(ctx context.Context, name string) (*chain.DomainRecord, error)

	// RegistrationFee returns the fee for registering an account at [height]
	RegistrationFee(ctx context.Context, height uint32, delegate bool, payRate uint8) (uint64, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func txArgs(tx *chain.Transaction) (*vm.TxArgs, error) {
	b, err := tx.Bytes()
	if err != nil {
		return nil, err
	}
	encoded, err := formatting.Encode(formatting.Hex, b)
	if err != nil {
		return nil, err
	}
	return &vm.TxArgs{Tx: encoded}, nil
}

func (cli *client) IssueTx(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
	args, err := txArgs(tx)
	if err != nil {
		return ids.Empty, err
	}
	resp := new(vm.IssueTxReply)
	err = cli.req.SendRequest(ctx, vm.Name+".issueTx", args, resp)
	return resp.TxID, err
}

func (cli *client) EvaluateTx(ctx context.Context, tx *chain.Transaction) (*vm.EvaluateTxReply, error) {
	args, err := txArgs(tx)
	if err != nil {
		return nil, err
	}
	resp := new(vm.EvaluateTxReply)
	return resp, cli.req.SendRequest(ctx, vm.Name+".evaluateTx", args, resp)
}

func (cli *client) BuildBlock(ctx context.Context) (*vm.BlockResult, error) {
	resp := new(vm.BuildBlockReply)
	if err := cli.req.SendRequest(ctx, vm.Name+".buildBlock", &api.EmptyReply{}, resp); err != nil {
		return nil, err
	}
	return &resp.BlockResult, nil
}

func (cli *client) GetBlock(ctx context.Context, blockID ids.ID) (*vm.GetBlockReply, error) {
	resp := new(vm.GetBlockReply)
	return resp, cli.req.SendRequest(ctx,
		vm.Name+".getBlock",
		&vm.BlockIDArgs{ID: blockID},
		resp,
	)
}

func (cli *client) GetAccount(ctx context.Context, name string) (*chain.AccountRecord, error) {
	resp := new(chain.AccountRecord)
	return resp, cli.req.SendRequest(ctx, vm.Name+".getAccount", &vm.AccountArgs{Name: name}, resp)
}

func (cli *client) GetBalance(ctx context.Context, owner chain.Address, assetID chain.AssetID, slate chain.SlateID) (*vm.GetBalanceReply, error) {
	resp := new(vm.GetBalanceReply)
	return resp, cli.req.SendRequest(ctx,
		vm.Name+".getBalance",
		&vm.BalanceArgs{Owner: owner, AssetID: assetID, SlateID: slate},
		resp,
	)
}

func (cli *client) GetAsset(ctx context.Context, assetID chain.AssetID) (*chain.AssetRecord, error) {
	resp := new(chain.AssetRecord)
	return resp, cli.req.SendRequest(ctx, vm.Name+".getAsset", &vm.AssetArgs{ID: assetID}, resp)
}

func (cli *client) GetSlate(ctx context.Context, slateID chain.SlateID) (*chain.Slate, error) {
	resp := new(chain.Slate)
	return resp, cli.req.SendRequest(ctx, vm.Name+".getSlate", &vm.SlateArgs{ID: slateID}, resp)
}

func (cli *client) GetDomain(ctx context.Context, name string) (*chain.DomainRecord, error) {
	resp := new(chain.DomainRecord)
	return resp, cli.req.SendRequest(ctx, vm.Name+".getDomain", &vm.DomainArgs{Name: name}, resp)
}

func (cli *client) RegistrationFee(ctx context.Context, height uint32, delegate bool, payRate uint8) (uint64, error) {
	resp := new(vm.FeeReply)
	err := cli.req.SendRequest(ctx, vm.Name+".registrationFee", &vm.FeeArgs{
		Height:   height,
		Delegate: delegate,
		PayRate:  payRate,
	}, resp)
	return uint64(resp.Fee), err
}

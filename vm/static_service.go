// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"net/http"

	"github.com/ava-labs/avalanchego/ids"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/keyidvm/chain"
)

// StaticService answers questions that need no chain state.
type StaticService struct{}

// CreateStaticService ...
func CreateStaticService() *StaticService {
	return &StaticService{}
}

// DecodeTxReply is the reply from DecodeTx
type DecodeTxReply struct {
	TxID           ids.ID   `json:"txID"`
	Expiration     int64    `json:"expiration"`
	OperationTypes []string `json:"operationTypes"`
	Signatures     int      `json:"signatures"`
}

// DecodeTx parses a hex encoded transaction.
func (ss *StaticService) DecodeTx(_ *http.Request, args *TxArgs, reply *DecodeTxReply) error {
	tx, err := args.parse()
	if err != nil {
		return err
	}
	if reply.TxID, err = tx.ID(); err != nil {
		return err
	}
	reply.Expiration = tx.Expiration
	reply.Signatures = len(tx.Signatures)
	reply.OperationTypes = make([]string, 0, len(tx.Operations))
	for _, op := range tx.Operations {
		if op == nil {
			return chain.ErrNilOperation
		}
		reply.OperationTypes = append(reply.OperationTypes, op.Type().String())
	}
	return nil
}

// SlateIDArgs are arguments for ComputeSlateID
type SlateIDArgs struct {
	Delegates []chain.AccountID `json:"delegates"`
}

// SlateIDReply is the reply from ComputeSlateID
type SlateIDReply struct {
	ID        cjson.Uint64      `json:"id"`
	Delegates []chain.AccountID `json:"delegates"`
}

// ComputeSlateID returns the id a slate of [args.Delegates] is stored under.
func (ss *StaticService) ComputeSlateID(_ *http.Request, args *SlateIDArgs, reply *SlateIDReply) error {
	slate := chain.NewSlate(args.Delegates)
	id, err := slate.ID()
	if err != nil {
		return err
	}
	reply.ID = cjson.Uint64(id)
	reply.Delegates = slate.Delegates
	return nil
}

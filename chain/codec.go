// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codec does serialization and deserialization of everything hashed or
// signed on chain. The registration order fixes the type ids of withdraw
// conditions and operations, so new types may only be appended.
var Codec codec.Manager

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}

	// Withdraw conditions
	errs.Add(
		c.RegisterType(&SignatureCondition{}),
		c.RegisterType(&MultiSigCondition{}),
		c.RegisterType(&PasswordCondition{}),
		c.RegisterType(&OptionCondition{}),
		c.RegisterType(&DomainOfferCondition{}),
	)

	// Operations
	errs.Add(
		c.RegisterType(&RegisterAccountOperation{}),
		c.RegisterType(&UpdateAccountOperation{}),
		c.RegisterType(&WithdrawPayOperation{}),
		c.RegisterType(&DepositOperation{}),
		c.RegisterType(&WithdrawOperation{}),
		c.RegisterType(&DefineSlateOperation{}),
		c.RegisterType(&BurnOperation{}),
		c.RegisterType(&DomainTransferOperation{}),
	)

	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

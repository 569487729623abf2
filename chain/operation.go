// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

// OperationType tags operations in APIs, logs and metrics.
type OperationType uint8

const (
	RegisterAccountOpType OperationType = iota + 1
	UpdateAccountOpType
	WithdrawPayOpType
	DepositOpType
	WithdrawOpType
	DefineSlateOpType
	BurnOpType
	DomainTransferOpType
)

func (t OperationType) String() string {
	switch t {
	case RegisterAccountOpType:
		return "registerAccount"
	case UpdateAccountOpType:
		return "updateAccount"
	case WithdrawPayOpType:
		return "withdrawPay"
	case DepositOpType:
		return "deposit"
	case WithdrawOpType:
		return "withdraw"
	case DefineSlateOpType:
		return "defineSlate"
	case BurnOpType:
		return "burn"
	case DomainTransferOpType:
		return "domainTransfer"
	default:
		return "unknown"
	}
}

// Operation is a single ledger mutation inside a transaction.
//
// Evaluate reads and writes records through env.Ledger and reports fees,
// balance movements and votes to [fx]. It either succeeds or leaves the
// transaction to be discarded; it never retries.
type Operation interface {
	Type() OperationType
	Evaluate(env *Env, fx *Effects) error
}

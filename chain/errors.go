// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

// ErrorClass groups consensus errors by how a caller should react to them.
type ErrorClass uint8

const (
	ClassUnknown ErrorClass = iota
	// ClassMalformed errors are caused by the operation's own fields.
	ClassMalformed
	// ClassConflict errors are caused by the ledger state the operation met.
	ClassConflict
	// ClassUnauthorized errors are missing or invalid authorization evidence.
	ClassUnauthorized
	// ClassEconomic errors are insufficient funds or fees.
	ClassEconomic
	// ClassFatal errors should never be produced by a well-formed chain.
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassMalformed:
		return "malformed"
	case ClassConflict:
		return "conflict"
	case ClassUnauthorized:
		return "unauthorized"
	case ClassEconomic:
		return "economic"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a consensus error. Errors are compared by identity, so wrap them
// with fmt.Errorf("%w: ...") to add context.
type Error struct {
	Class   ErrorClass
	Code    string
	Message string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return err.Message
}

func newError(class ErrorClass, code, message string) *Error {
	return &Error{Class: class, Code: code, Message: message}
}

// ClassOf returns the class of the first *Error in [err]'s chain.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassUnknown
}

// CodeOf returns the code of the first *Error in [err]'s chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether [err] is a protocol-contract violation.
func IsFatal(err error) bool {
	return ClassOf(err) == ClassFatal
}

// Malformed input
var (
	ErrInvalidAccountName = newError(ClassMalformed, "invalid_account_name", "invalid account name")
	ErrReservedName       = newError(ClassMalformed, "reserved_name", "name is a reserved word")
	ErrNegativeAmount     = newError(ClassMalformed, "negative_amount", "amount must be positive")
	ErrMemoTooLong        = newError(ClassMalformed, "memo_too_long", "memo too long")
	ErrInvalidPrice       = newError(ClassMalformed, "invalid_price", "invalid price")
	ErrInvalidPayRate     = newError(ClassMalformed, "invalid_pay_rate", "pay rate must be between 0 and 100")
	ErrInvalidPublicKey   = newError(ClassMalformed, "invalid_public_key", "invalid public key")
	ErrInvalidUpdate      = newError(ClassMalformed, "invalid_update", "points updates cannot be combined with other changes")
	ErrOverflow           = newError(ClassMalformed, "overflow", "amount out of range")
	ErrInvalidClaimData   = newError(ClassMalformed, "invalid_claim_data", "invalid claim input data")
	ErrBurnMessage        = newError(ClassMalformed, "invalid_burn_message", "burn messages are only allowed on the native asset")
	ErrInvalidCondition   = newError(ClassMalformed, "invalid_withdraw_condition", "invalid withdraw condition")
	ErrTrxExpired         = newError(ClassMalformed, "expired_transaction", "transaction expired")
	ErrTrxExpiration      = newError(ClassMalformed, "invalid_transaction_expiration", "transaction expiration too far in the future")
	ErrAssetPriceMismatch = newError(ClassMalformed, "asset_price_mismatch", "asset is neither side of the price")
	ErrEmptyTransaction   = newError(ClassMalformed, "empty_transaction", "transaction has no operations")
	ErrInvalidSignature   = newError(ClassMalformed, "invalid_signature", "invalid signature")
	ErrInvalidDomainName  = newError(ClassMalformed, "invalid_domain_name", "invalid domain name")
	ErrNilOperation       = newError(ClassMalformed, "nil_operation", "nil operation")
)

// State conflicts
var (
	ErrAccountRegistered = newError(ClassConflict, "account_already_registered", "account already registered")
	ErrUnknownAccount    = newError(ClassConflict, "unknown_account", "unknown account")
	ErrUnknownParent     = newError(ClassConflict, "unknown_parent_account", "unknown parent account")
	ErrAccountRetracted  = newError(ClassConflict, "account_retracted", "account retracted")
	ErrKeyInUse          = newError(ClassConflict, "account_key_in_use", "key already in use by another account")
	ErrUnknownBalance    = newError(ClassConflict, "unknown_balance_record", "unknown balance record")
	ErrUnknownAsset      = newError(ClassConflict, "unknown_asset", "unknown asset")
	ErrUnknownSlate      = newError(ClassConflict, "unknown_delegate_slate", "unknown delegate slate")
	ErrNotADelegate      = newError(ClassConflict, "not_a_delegate", "account is not a delegate")
	ErrPayRateIncrease   = newError(ClassConflict, "pay_rate_increase", "delegate pay rate can only be lowered")
	ErrUnknownDomain     = newError(ClassConflict, "unknown_domain", "unknown domain")
	ErrDomainTransfer    = newError(ClassConflict, "domain_transfer_mismatch", "paired domain transfer does not match the offer")
)

// Authorization failures
var (
	ErrMissingSignature       = newError(ClassUnauthorized, "missing_signature", "missing signature")
	ErrMissingParentSignature = newError(ClassUnauthorized, "missing_parent_account_signature", "missing parent account signature")
	ErrParentRetracted        = newError(ClassUnauthorized, "parent_account_retracted", "parent account retracted")
	ErrInvalidPassword        = newError(ClassUnauthorized, "invalid_claim_password", "invalid claim password")
)

// Economic failures
var (
	ErrInsufficientFunds = newError(ClassEconomic, "insufficient_funds", "insufficient funds")
	ErrInsufficientFees  = newError(ClassEconomic, "insufficient_fees", "fees paid are less than the fees required")
	ErrMissingDeposit    = newError(ClassEconomic, "missing_required_deposit", "required deposit not made")
	ErrTooManyDelegates  = newError(ClassEconomic, "too_many_delegates_in_slate", "too many delegates in slate")
	ErrBurnBelowMinimum  = newError(ClassEconomic, "burn_below_minimum", "burn amount below the minimum")
)

// Protocol-contract violations
var (
	ErrInvalidOrderType = newError(ClassFatal, "invalid_order_type", "invalid market order type")
	ErrNilCondition     = newError(ClassFatal, "nil_withdraw_condition", "balance has no withdraw condition")
)

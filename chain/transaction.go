// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// UnsignedTransaction is the part of a transaction its signatures cover.
type UnsignedTransaction struct {
	Expiration int64       `serialize:"true" json:"expiration"`
	Operations []Operation `serialize:"true" json:"operations"`
}

// Transaction is an ordered list of operations applied atomically.
type Transaction struct {
	UnsignedTransaction `serialize:"true"`

	Signatures [][crypto.SECP256K1RSigLen]byte `serialize:"true" json:"signatures"`
}

// NewTransaction ...
func NewTransaction(expiration int64, ops ...Operation) *Transaction {
	return &Transaction{
		UnsignedTransaction: UnsignedTransaction{
			Expiration: expiration,
			Operations: ops,
		},
	}
}

// ParseTransaction decodes a signed transaction.
func ParseTransaction(b []byte) (*Transaction, error) {
	tx := &Transaction{}
	if _, err := Codec.Unmarshal(b, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Bytes returns the signed encoding.
func (tx *Transaction) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, tx)
}

// UnsignedBytes returns the encoding signatures are made over.
func (tx *Transaction) UnsignedBytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, &tx.UnsignedTransaction)
}

// ID is sha256 of the unsigned encoding, so it does not depend on who signed.
func (tx *Transaction) ID() (ids.ID, error) {
	b, err := tx.UnsignedBytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// Sign appends a signature from each of [keys] for [chainID].
func (tx *Transaction) Sign(chainID Hash, keys ...*crypto.PrivateKeySECP256K1R) error {
	unsigned, err := tx.UnsignedBytes()
	if err != nil {
		return err
	}
	digest := signingDigest(chainID, unsigned)
	for _, key := range keys {
		sig, err := key.SignHash(digest[:])
		if err != nil {
			return err
		}
		var fixed [crypto.SECP256K1RSigLen]byte
		copy(fixed[:], sig)
		tx.Signatures = append(tx.Signatures, fixed)
	}
	return nil
}

// Signers recovers the keys that signed the transaction on [chainID].
func (tx *Transaction) Signers(chainID Hash) (KeySet, error) {
	unsigned, err := tx.UnsignedBytes()
	if err != nil {
		return nil, err
	}
	sigs := make([][]byte, len(tx.Signatures))
	for i := range tx.Signatures {
		sigs[i] = tx.Signatures[i][:]
	}
	return RecoverSigners(chainID, unsigned, sigs)
}

// Verify checks the transaction is non-empty and expires inside the window
// the rules allow from [now].
func (tx *Transaction) Verify(rules *Rules, now int64) error {
	if len(tx.Operations) == 0 {
		return ErrEmptyTransaction
	}
	for i, op := range tx.Operations {
		if op == nil {
			return fmt.Errorf("operation %d: %w", i, ErrNilOperation)
		}
	}
	if tx.Expiration < now {
		return fmt.Errorf("%w: at %d, now %d", ErrTrxExpired, tx.Expiration, now)
	}
	if tx.Expiration > now+rules.MaxTrxExpiration {
		return fmt.Errorf("%w: at %d, now %d", ErrTrxExpiration, tx.Expiration, now)
	}
	return nil
}

// Apply evaluates every operation in order against [ledger], then settles
// the accumulated effects. On error the caller must discard [ledger].
func (tx *Transaction) Apply(ledger Ledger, rules *Rules) (*Effects, error) {
	if err := tx.Verify(rules, ledger.Now()); err != nil {
		return nil, err
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, err
	}
	signers, err := tx.Signers(ledger.ChainID())
	if err != nil {
		return nil, err
	}

	env := &Env{
		Ledger:  ledger,
		Rules:   rules,
		Trx:     tx,
		TrxID:   txID,
		Signers: signers,
	}
	fx := NewEffects()
	for i, op := range tx.Operations {
		if err := op.Evaluate(env, fx); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Type(), err)
		}
	}
	if err := fx.Settle(ledger); err != nil {
		return nil, err
	}
	log.Debug("applied transaction", "txID", txID, "operations", len(tx.Operations), "fees", fx.RequiredFees)
	return fx, nil
}

func (tx *Transaction) firstDomainTransfer() *DomainTransferOperation {
	if tx == nil {
		return nil
	}
	for _, op := range tx.Operations {
		if transfer, ok := op.(*DomainTransferOperation); ok {
			return transfer
		}
	}
	return nil
}

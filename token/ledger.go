// Package token defines the fungible-asset ledger collaborator the
// engine trades against, together with safe-transfer semantics for
// ledgers that give no boolean feedback, and an in-memory reference
// implementation with journaled snapshot/revert.
package token

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrTransferFailed is returned when a ledger reports an explicit
	// failure, either as an error or as a boolean false result.
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrInsufficientBalance is returned by the in-memory ledger when a
	// transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// Ledger is the minimal surface the engine requires of a traded asset.
// Implementations are not controlled by the engine; a nil error from
// Transfer/TransferFrom is taken as success, matching assets that
// provide no boolean feedback. Snapshot/RevertToSnapshot give the
// engine its all-or-nothing failure semantics: every balance mutation
// since the matching Snapshot call is undone by RevertToSnapshot.
type Ledger interface {
	BalanceOf(holder common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error

	Snapshot() int
	RevertToSnapshot(id int)
}

// ResultLedger is optionally implemented by ledgers that report
// transfer success as an explicit boolean alongside the error, the way
// standard-conforming fungible assets do.
type ResultLedger interface {
	TransferWithResult(from, to common.Address, amount *uint256.Int) (bool, error)
	TransferFromWithResult(spender, from, to common.Address, amount *uint256.Int) (bool, error)
}

// SafeTransfer moves amount from -> to on the ledger, normalizing the
// collaborator's feedback: an error or an explicit false result becomes
// ErrTransferFailed; a nil error with no boolean result is success.
func SafeTransfer(l Ledger, from, to common.Address, amount *uint256.Int) error {
	if rl, ok := l.(ResultLedger); ok {
		success, err := rl.TransferWithResult(from, to, amount)
		if err != nil {
			return errors.Join(ErrTransferFailed, err)
		}
		if !success {
			return ErrTransferFailed
		}
		return nil
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return errors.Join(ErrTransferFailed, err)
	}
	return nil
}

// SafeTransferFrom is SafeTransfer for spender-mediated transfers.
func SafeTransferFrom(l Ledger, spender, from, to common.Address, amount *uint256.Int) error {
	if rl, ok := l.(ResultLedger); ok {
		success, err := rl.TransferFromWithResult(spender, from, to, amount)
		if err != nil {
			return errors.Join(ErrTransferFailed, err)
		}
		if !success {
			return ErrTransferFailed
		}
		return nil
	}
	if err := l.TransferFrom(spender, from, to, amount); err != nil {
		return errors.Join(ErrTransferFailed, err)
	}
	return nil
}

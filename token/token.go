package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// balanceChange records one holder's balance before a mutation, so a
// revert can restore it. The journal replays entries in reverse.
type balanceChange struct {
	holder common.Address
	prev   uint256.Int
}

// Token is an in-memory fungible-asset ledger. It is not safe for
// concurrent use; the engine serializes access per top-level call.
type Token struct {
	symbol   string
	balances map[common.Address]*uint256.Int
	journal  []balanceChange
}

// NewToken creates an empty ledger labeled with symbol.
func NewToken(symbol string) *Token {
	return &Token{
		symbol:   symbol,
		balances: make(map[common.Address]*uint256.Int),
	}
}

// Symbol returns the ledger's label.
func (t *Token) Symbol() string {
	return t.symbol
}

// BalanceOf returns a copy of holder's balance; absent holders have a
// zero balance.
func (t *Token) BalanceOf(holder common.Address) *uint256.Int {
	if b, ok := t.balances[holder]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Mint credits amount to holder. Used for test and simulation setup.
func (t *Token) Mint(holder common.Address, amount *uint256.Int) {
	t.setBalance(holder, new(uint256.Int).Add(t.BalanceOf(holder), amount))
}

// Transfer moves amount from -> to, failing with
// ErrInsufficientBalance when the sender's balance is too small.
func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) error {
	fromBalance := t.BalanceOf(from)
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s of %s",
			ErrInsufficientBalance, from, fromBalance.Dec(), amount.Dec(), t.symbol)
	}
	t.setBalance(from, fromBalance.Sub(fromBalance, amount))
	t.setBalance(to, new(uint256.Int).Add(t.BalanceOf(to), amount))
	return nil
}

// TransferFrom moves amount from -> to on behalf of spender. The
// in-memory ledger does not model allowances; the spender argument is
// accepted for interface compatibility.
func (t *Token) TransferFrom(_, from, to common.Address, amount *uint256.Int) error {
	return t.Transfer(from, to, amount)
}

// Snapshot marks the current journal position. Balance mutations after
// this point are undone by RevertToSnapshot with the returned id.
func (t *Token) Snapshot() int {
	return len(t.journal)
}

// RevertToSnapshot undoes every balance mutation recorded since the
// snapshot id was taken. Reverting to an id from a stale snapshot after
// an enclosing revert is a caller error and panics.
func (t *Token) RevertToSnapshot(id int) {
	if id < 0 || id > len(t.journal) {
		panic(fmt.Sprintf("token: invalid snapshot id %d (journal length %d)", id, len(t.journal)))
	}
	for i := len(t.journal) - 1; i >= id; i-- {
		change := t.journal[i]
		prev := change.prev
		if prev.IsZero() {
			delete(t.balances, change.holder)
		} else {
			t.balances[change.holder] = new(uint256.Int).Set(&prev)
		}
	}
	t.journal = t.journal[:id]
}

// setBalance writes holder's balance, journaling the prior value.
func (t *Token) setBalance(holder common.Address, balance *uint256.Int) {
	var prev uint256.Int
	if b, ok := t.balances[holder]; ok {
		prev.Set(b)
	}
	t.journal = append(t.journal, balanceChange{holder: holder, prev: prev})
	if balance.IsZero() {
		delete(t.balances, holder)
	} else {
		t.balances[holder] = new(uint256.Int).Set(balance)
	}
}

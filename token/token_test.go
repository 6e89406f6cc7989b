package token

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func TestTransfer(t *testing.T) {
	tok := NewToken("TEST")
	tok.Mint(alice, uint256.NewInt(100))

	require.NoError(t, tok.Transfer(alice, bob, uint256.NewInt(40)))
	assert.Equal(t, uint64(60), tok.BalanceOf(alice).Uint64())
	assert.Equal(t, uint64(40), tok.BalanceOf(bob).Uint64())

	err := tok.Transfer(alice, bob, uint256.NewInt(61))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(60), tok.BalanceOf(alice).Uint64())
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	tok := NewToken("TEST")
	tok.Mint(alice, uint256.NewInt(100))

	tok.BalanceOf(alice).SetUint64(0)
	assert.Equal(t, uint64(100), tok.BalanceOf(alice).Uint64())
}

func TestSnapshotRevert(t *testing.T) {
	tok := NewToken("TEST")
	tok.Mint(alice, uint256.NewInt(100))

	snap := tok.Snapshot()
	require.NoError(t, tok.Transfer(alice, bob, uint256.NewInt(30)))
	require.NoError(t, tok.Transfer(bob, carol, uint256.NewInt(10)))
	tok.Mint(carol, uint256.NewInt(5))

	tok.RevertToSnapshot(snap)
	assert.Equal(t, uint64(100), tok.BalanceOf(alice).Uint64())
	assert.True(t, tok.BalanceOf(bob).IsZero())
	assert.True(t, tok.BalanceOf(carol).IsZero())
}

func TestNestedSnapshots(t *testing.T) {
	tok := NewToken("TEST")
	tok.Mint(alice, uint256.NewInt(100))

	outer := tok.Snapshot()
	require.NoError(t, tok.Transfer(alice, bob, uint256.NewInt(10)))

	inner := tok.Snapshot()
	require.NoError(t, tok.Transfer(alice, bob, uint256.NewInt(20)))

	tok.RevertToSnapshot(inner)
	assert.Equal(t, uint64(90), tok.BalanceOf(alice).Uint64())

	tok.RevertToSnapshot(outer)
	assert.Equal(t, uint64(100), tok.BalanceOf(alice).Uint64())
}

// falseLedger reports transfers as an explicit boolean false with no
// error, the way some asset implementations signal failure.
type falseLedger struct {
	*Token
}

func (f *falseLedger) TransferWithResult(from, to common.Address, amount *uint256.Int) (bool, error) {
	return false, nil
}

func (f *falseLedger) TransferFromWithResult(spender, from, to common.Address, amount *uint256.Int) (bool, error) {
	return false, nil
}

// trueLedger reports success as an explicit boolean.
type trueLedger struct {
	*Token
}

func (l *trueLedger) TransferWithResult(from, to common.Address, amount *uint256.Int) (bool, error) {
	return true, l.Transfer(from, to, amount)
}

func (l *trueLedger) TransferFromWithResult(spender, from, to common.Address, amount *uint256.Int) (bool, error) {
	return true, l.TransferFrom(spender, from, to, amount)
}

func TestSafeTransfer(t *testing.T) {
	t.Run("no boolean feedback, nil error is success", func(t *testing.T) {
		tok := NewToken("TEST")
		tok.Mint(alice, uint256.NewInt(10))
		require.NoError(t, SafeTransfer(tok, alice, bob, uint256.NewInt(10)))
	})

	t.Run("no boolean feedback, error is failure", func(t *testing.T) {
		tok := NewToken("TEST")
		err := SafeTransfer(tok, alice, bob, uint256.NewInt(10))
		require.ErrorIs(t, err, ErrTransferFailed)
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("explicit false is failure", func(t *testing.T) {
		tok := NewToken("TEST")
		tok.Mint(alice, uint256.NewInt(10))
		err := SafeTransfer(&falseLedger{tok}, alice, bob, uint256.NewInt(10))
		require.ErrorIs(t, err, ErrTransferFailed)
	})

	t.Run("explicit true is success", func(t *testing.T) {
		tok := NewToken("TEST")
		tok.Mint(alice, uint256.NewInt(10))
		require.NoError(t, SafeTransfer(&trueLedger{tok}, alice, bob, uint256.NewInt(10)))
		assert.Equal(t, uint64(10), tok.BalanceOf(bob).Uint64())
	})
}

func TestSafeTransferFrom(t *testing.T) {
	tok := NewToken("TEST")
	tok.Mint(alice, uint256.NewInt(10))
	require.NoError(t, SafeTransferFrom(tok, carol, alice, bob, uint256.NewInt(10)))
	assert.Equal(t, uint64(10), tok.BalanceOf(bob).Uint64())

	err := SafeTransferFrom(&falseLedger{tok}, carol, alice, bob, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.False(t, errors.Is(err, ErrInsufficientBalance))
}

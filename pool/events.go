package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is implemented by every pool event. Sinks type-switch on the
// concrete event structs.
type Event interface {
	Pool() common.Address
}

// EventSink receives pool events synchronously as operations commit.
// A nil sink drops events.
type EventSink func(Event)

// MintEvent records a liquidity provision.
type MintEvent struct {
	PoolAddr  common.Address
	To        common.Address
	Amount0   *uint256.Int
	Amount1   *uint256.Int
	Liquidity *uint256.Int
}

// BurnEvent records a liquidity withdrawal.
type BurnEvent struct {
	PoolAddr  common.Address
	To        common.Address
	Amount0   *uint256.Int
	Amount1   *uint256.Int
	Liquidity *uint256.Int
}

// SwapEvent records a completed swap.
type SwapEvent struct {
	PoolAddr   common.Address
	Caller     common.Address
	To         common.Address
	Amount0In  *uint256.Int
	Amount1In  *uint256.Int
	Amount0Out *uint256.Int
	Amount1Out *uint256.Int
}

// SyncEvent records a reserve resync.
type SyncEvent struct {
	PoolAddr common.Address
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

func (e MintEvent) Pool() common.Address { return e.PoolAddr }
func (e BurnEvent) Pool() common.Address { return e.PoolAddr }
func (e SwapEvent) Pool() common.Address { return e.PoolAddr }
func (e SyncEvent) Pool() common.Address { return e.PoolAddr }

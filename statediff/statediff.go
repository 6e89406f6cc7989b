// Package statediff captures registry-wide pool state snapshots and
// computes compact diffs between them. Off-engine consumers (oracles,
// indexers) follow the engine by applying diffs to a base snapshot
// instead of re-reading every pool.
package statediff

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/factory"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	// ErrPoolRemoved is returned when a pool present in the old
	// snapshot is missing from the new one; pools are never destroyed,
	// so this means the snapshots are unrelated.
	ErrPoolRemoved = errors.New("pool missing from newer snapshot")

	// ErrDiffMismatch is returned by Apply when the diff does not
	// build on the given base snapshot.
	ErrDiffMismatch = errors.New("diff does not apply to base snapshot")
)

// PoolView is one pool's observable state surface.
type PoolView struct {
	Address          common.Address `json:"address"`
	Token0           common.Address `json:"token0"`
	Token1           common.Address `json:"token1"`
	Reserve0         *uint256.Int   `json:"reserve0"`
	Reserve1         *uint256.Int   `json:"reserve1"`
	TimestampLast    uint64         `json:"timestampLast"`
	Price0Cumulative *uint256.Int   `json:"price0Cumulative"`
	Price1Cumulative *uint256.Int   `json:"price1Cumulative"`
	TotalShares      *uint256.Int   `json:"totalShares"`
}

func (v PoolView) clone() PoolView {
	out := v
	out.Reserve0 = new(uint256.Int).Set(v.Reserve0)
	out.Reserve1 = new(uint256.Int).Set(v.Reserve1)
	out.Price0Cumulative = new(uint256.Int).Set(v.Price0Cumulative)
	out.Price1Cumulative = new(uint256.Int).Set(v.Price1Cumulative)
	out.TotalShares = new(uint256.Int).Set(v.TotalShares)
	return out
}

func (v PoolView) equal(other PoolView) bool {
	return v.Address == other.Address &&
		v.Reserve0.Eq(other.Reserve0) &&
		v.Reserve1.Eq(other.Reserve1) &&
		v.TimestampLast == other.TimestampLast &&
		v.Price0Cumulative.Eq(other.Price0Cumulative) &&
		v.Price1Cumulative.Eq(other.Price1Cumulative) &&
		v.TotalShares.Eq(other.TotalShares)
}

// Snapshot is the full observable state of a registry at one instant.
type Snapshot struct {
	Timestamp uint64                      `json:"timestamp"`
	Pools     map[common.Address]PoolView `json:"pools"`
}

// Capture reads every pool's observable surface from the registry.
func Capture(f *factory.Factory, timestamp uint64) *Snapshot {
	pools := make(map[common.Address]PoolView, f.Len())
	for _, p := range f.AllPools() {
		reserve0, reserve1, last := p.GetReserves()
		token0, token1 := p.Assets()
		pools[p.Address()] = PoolView{
			Address:          p.Address(),
			Token0:           token0,
			Token1:           token1,
			Reserve0:         reserve0.ToUint256(),
			Reserve1:         reserve1.ToUint256(),
			TimestampLast:    last,
			Price0Cumulative: p.Price0Cumulative(),
			Price1Cumulative: p.Price1Cumulative(),
			TotalShares:      p.TotalShares(),
		}
	}
	return &Snapshot{Timestamp: timestamp, Pools: pools}
}

// Diff lists what changed between two snapshots.
type Diff struct {
	FromTimestamp uint64     `json:"fromTimestamp"`
	ToTimestamp   uint64     `json:"toTimestamp"`
	Changed       []PoolView `json:"changed"`
	Added         []PoolView `json:"added"`
}

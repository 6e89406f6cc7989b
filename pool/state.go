package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
)

// State is a full copy of a pool's mutable state. Orchestrators that
// chain several pool operations capture it before the first call and
// restore it if a later call fails, keeping multi-pool trades
// all-or-nothing. Ledger balances are rolled back separately through
// the ledgers' own snapshots.
type State struct {
	reserve0           fixedpoint.Uint112
	reserve1           fixedpoint.Uint112
	blockTimestampLast uint64
	price0Cumulative   uint256.Int
	price1Cumulative   uint256.Int
	totalShares        uint256.Int
	shares             map[common.Address]*uint256.Int
}

// CaptureState copies the pool's mutable state.
func (p *Pool) CaptureState() State {
	shares := make(map[common.Address]*uint256.Int, len(p.shares))
	for holder, amount := range p.shares {
		shares[holder] = new(uint256.Int).Set(amount)
	}
	return State{
		reserve0:           p.reserve0,
		reserve1:           p.reserve1,
		blockTimestampLast: p.blockTimestampLast,
		price0Cumulative:   p.price0Cumulative,
		price1Cumulative:   p.price1Cumulative,
		totalShares:        p.totalShares,
		shares:             shares,
	}
}

// RestoreState overwrites the pool's mutable state with a capture taken
// earlier. The asset pair and dependencies are untouched.
func (p *Pool) RestoreState(s State) {
	p.reserve0 = s.reserve0
	p.reserve1 = s.reserve1
	p.blockTimestampLast = s.blockTimestampLast
	p.price0Cumulative = s.price0Cumulative
	p.price1Cumulative = s.price1Cumulative
	p.totalShares = s.totalShares
	p.shares = make(map[common.Address]*uint256.Int, len(s.shares))
	for holder, amount := range s.shares {
		p.shares[holder] = new(uint256.Int).Set(amount)
	}
}

package router

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/pool"
	"github.com/pairswap/pairswap-engine-go/quote"
	"github.com/pairswap/pairswap-engine-go/token"
)

// SwapExactTokensForTokens trades a fixed input along the path and
// fails with ErrInsufficientOutputAmount when the quoted final output
// is below amountOutMin. It returns the per-hop amounts,
// amounts[0] == amountIn.
func (r *Router) SwapExactTokensForTokens(
	amountIn, amountOutMin *uint256.Int,
	path []common.Address,
	from, to common.Address,
) ([]*uint256.Int, error) {
	amounts, err := quote.GetAmountsOut(r.factory, path, amountIn)
	if err != nil {
		r.metrics.tradesFailed.Inc()
		return nil, err
	}
	if amounts[len(amounts)-1].Lt(amountOutMin) {
		r.metrics.tradesFailed.Inc()
		return nil, fmt.Errorf("%w: final output %s below minimum %s",
			ErrInsufficientOutputAmount, amounts[len(amounts)-1].Dec(), amountOutMin.Dec())
	}
	if err := r.executeTrade(amounts, path, from, to); err != nil {
		r.metrics.tradesFailed.Inc()
		return nil, err
	}
	r.metrics.tradesRouted.WithLabelValues("exact_in").Inc()
	return amounts, nil
}

// SwapTokensForExactTokens trades along the path for a fixed final
// output, failing with ErrExcessiveInputAmount when the required
// first-hop input exceeds amountInMax. The bound is checked against
// amounts[0], the input the bound constrains.
func (r *Router) SwapTokensForExactTokens(
	amountOut, amountInMax *uint256.Int,
	path []common.Address,
	from, to common.Address,
) ([]*uint256.Int, error) {
	amounts, err := quote.GetAmountsIn(r.factory, path, amountOut)
	if err != nil {
		r.metrics.tradesFailed.Inc()
		return nil, err
	}
	if amounts[0].Gt(amountInMax) {
		r.metrics.tradesFailed.Inc()
		return nil, fmt.Errorf("%w: required input %s above maximum %s",
			ErrExcessiveInputAmount, amounts[0].Dec(), amountInMax.Dec())
	}
	if err := r.executeTrade(amounts, path, from, to); err != nil {
		r.metrics.tradesFailed.Inc()
		return nil, err
	}
	r.metrics.tradesRouted.WithLabelValues("exact_out").Inc()
	return amounts, nil
}

// executeTrade moves amounts[0] of path[0] from the trader into the
// first pool, then runs the hop chain. Every involved ledger and pool
// is snapshotted first; any failure restores all of them, so a trade
// either completes whole or leaves no trace.
func (r *Router) executeTrade(amounts []*uint256.Int, path []common.Address, from, to common.Address) error {
	pools := make([]*pool.Pool, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		p := r.factory.GetPool(path[i], path[i+1])
		if p == nil {
			return fmt.Errorf("%w: %s / %s", ErrPoolNotFound, path[i], path[i+1])
		}
		pools[i] = p
	}

	ledgers := make(map[common.Address]token.Ledger, len(path))
	for _, asset := range path {
		if _, seen := ledgers[asset]; seen {
			continue
		}
		l, err := r.ledgers(asset)
		if err != nil {
			return fmt.Errorf("resolving ledger for %s: %w", asset, err)
		}
		ledgers[asset] = l
	}

	ledgerSnaps := make(map[common.Address]int, len(ledgers))
	for asset, l := range ledgers {
		ledgerSnaps[asset] = l.Snapshot()
	}
	poolStates := make([]pool.State, len(pools))
	for i, p := range pools {
		poolStates[i] = p.CaptureState()
	}
	revert := func() {
		for asset, l := range ledgers {
			l.RevertToSnapshot(ledgerSnaps[asset])
		}
		for i, p := range pools {
			p.RestoreState(poolStates[i])
		}
	}

	if err := token.SafeTransferFrom(ledgers[path[0]], from, from, pools[0].Address(), amounts[0]); err != nil {
		revert()
		return err
	}
	if err := r.executeHops(amounts, path, pools, from, to); err != nil {
		revert()
		return err
	}
	return nil
}

// executeHops runs the swap chain. Each hop's output recipient is the
// next pool's address, so intermediate amounts move pool to pool and
// never pass through router-held balances; only the last hop pays the
// trader's recipient.
func (r *Router) executeHops(amounts []*uint256.Int, path []common.Address, pools []*pool.Pool, from, to common.Address) error {
	for i, p := range pools {
		input := path[i]
		amountOut := amounts[i+1]

		token0, _ := p.Assets()
		amount0Out, amount1Out := new(uint256.Int), new(uint256.Int)
		if input == token0 {
			amount1Out.Set(amountOut)
		} else {
			amount0Out.Set(amountOut)
		}

		recipient := to
		if i < len(pools)-1 {
			recipient = pools[i+1].Address()
		}

		if err := p.Swap(amount0Out, amount1Out, recipient, nil, from); err != nil {
			return fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
	}
	r.logger.Debug("trade executed", "hops", len(pools), "from", from, "to", to,
		"amountIn", amounts[0].Dec(), "amountOut", amounts[len(amounts)-1].Dec())
	return nil
}

// FindPath searches the registry's asset graph breadth-first for the
// shortest path between two assets, up to maxHops pools long. It
// returns ErrNoRoute when the assets are not connected within the
// limit.
func (r *Router) FindPath(from, to common.Address, maxHops int) ([]common.Address, error) {
	if from == to {
		return nil, fmt.Errorf("%w: identical assets", ErrNoRoute)
	}
	type node struct {
		asset common.Address
		depth int
	}
	parent := map[common.Address]common.Address{from: from}
	queue := []node{{asset: from}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth == maxHops {
			continue
		}
		for _, p := range r.factory.PoolsForAsset(current.asset) {
			token0, token1 := p.Assets()
			next := token0
			if next == current.asset {
				next = token1
			}
			if _, visited := parent[next]; visited {
				continue
			}
			parent[next] = current.asset
			if next == to {
				return rebuildPath(parent, from, to), nil
			}
			queue = append(queue, node{asset: next, depth: current.depth + 1})
		}
	}
	return nil, fmt.Errorf("%w: %s -> %s within %d hops", ErrNoRoute, from, to, maxHops)
}

func rebuildPath(parent map[common.Address]common.Address, from, to common.Address) []common.Address {
	var reversed []common.Address
	for at := to; at != from; at = parent[at] {
		reversed = append(reversed, at)
	}
	reversed = append(reversed, from)
	path := make([]common.Address, len(reversed))
	for i, asset := range reversed {
		path[len(path)-1-i] = asset
	}
	return path
}

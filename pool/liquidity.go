package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/token"
)

// TotalShares returns a copy of the outstanding liquidity-share supply.
func (p *Pool) TotalShares() *uint256.Int {
	return new(uint256.Int).Set(&p.totalShares)
}

// SharesOf returns a copy of holder's liquidity-share balance.
func (p *Pool) SharesOf(holder common.Address) *uint256.Int {
	if s, ok := p.shares[holder]; ok {
		return new(uint256.Int).Set(s)
	}
	return new(uint256.Int)
}

// TransferShares moves liquidity shares between holders. Callers move
// shares into the pool's own address ahead of Burn.
func (p *Pool) TransferShares(from, to common.Address, amount *uint256.Int) error {
	fromShares := p.SharesOf(from)
	if fromShares.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientShares, from, fromShares.Dec(), amount.Dec())
	}
	p.setShares(from, fromShares.Sub(fromShares, amount))
	p.setShares(to, new(uint256.Int).Add(p.SharesOf(to), amount))
	return nil
}

func (p *Pool) setShares(holder common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		delete(p.shares, holder)
		return
	}
	p.shares[holder] = new(uint256.Int).Set(amount)
}

func (p *Pool) mintShares(to common.Address, amount *uint256.Int) {
	p.totalShares.Add(&p.totalShares, amount)
	p.setShares(to, new(uint256.Int).Add(p.SharesOf(to), amount))
}

func (p *Pool) burnShares(from common.Address, amount *uint256.Int) {
	p.totalShares.Sub(&p.totalShares, amount)
	held := p.SharesOf(from)
	p.setShares(from, held.Sub(held, amount))
}

// Mint credits liquidity shares for assets the caller has already
// deposited into the pool. On the first provision the geometric mean of
// the deposit is minted, less MinimumLiquidity locked at the burn sink;
// afterwards the lower of the two deposit/reserve ratios is used, so a
// deposit off the current price ratio is penalized rather than diluting
// existing holders.
func (p *Pool) Mint(to common.Address) (*uint256.Int, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}

	balance0, balance1 := p.balances()
	amount0 := depositedAmount(balance0, p.reserve0.ToUint256())
	amount1 := depositedAmount(balance1, p.reserve1.ToUint256())

	liquidity := new(uint256.Int)
	first := p.totalShares.IsZero()
	if first {
		product, overflow := new(uint256.Int).MulOverflow(amount0, amount1)
		if overflow {
			return nil, fmt.Errorf("%w: initial deposit product", ErrBalanceOverflow)
		}
		liquidity.Sqrt(product)
		if !liquidity.GtUint64(MinimumLiquidity) {
			return nil, fmt.Errorf("%w: sqrt(%s*%s) <= locked minimum", ErrInsufficientLiquidityMinted, amount0.Dec(), amount1.Dec())
		}
		liquidity.SubUint64(liquidity, MinimumLiquidity)
	} else {
		byAmount0, overflow := new(uint256.Int).MulDivOverflow(amount0, &p.totalShares, p.reserve0.ToUint256())
		if overflow {
			return nil, fmt.Errorf("%w: share ratio for token0", ErrBalanceOverflow)
		}
		byAmount1, overflow := new(uint256.Int).MulDivOverflow(amount1, &p.totalShares, p.reserve1.ToUint256())
		if overflow {
			return nil, fmt.Errorf("%w: share ratio for token1", ErrBalanceOverflow)
		}
		liquidity.Set(byAmount0)
		if byAmount1.Lt(liquidity) {
			liquidity.Set(byAmount1)
		}
	}
	if liquidity.IsZero() {
		return nil, ErrInsufficientLiquidityMinted
	}

	if err := p.update(balance0, balance1); err != nil {
		return nil, err
	}
	if first {
		p.mintShares(BurnSink, uint256.NewInt(MinimumLiquidity))
	}
	p.mintShares(to, liquidity)

	p.logger.Debug("liquidity minted", "pool", p.addr, "to", to, "liquidity", liquidity.Dec())
	p.emit(MintEvent{
		PoolAddr:  p.addr,
		To:        to,
		Amount0:   amount0,
		Amount1:   amount1,
		Liquidity: new(uint256.Int).Set(liquidity),
	})
	return new(uint256.Int).Set(liquidity), nil
}

// Burn destroys the liquidity shares held at the pool's own address
// (moved there by the caller beforehand) and pays out the proportional
// amount of both assets to the recipient.
func (p *Pool) Burn(to common.Address) (amount0, amount1 *uint256.Int, err error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}

	balance0, balance1 := p.balances()
	liquidity := p.SharesOf(p.addr)

	if p.totalShares.IsZero() {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	amount0, overflow := new(uint256.Int).MulDivOverflow(liquidity, balance0, &p.totalShares)
	if overflow {
		return nil, nil, fmt.Errorf("%w: payout for token0", ErrBalanceOverflow)
	}
	amount1, overflow = new(uint256.Int).MulDivOverflow(liquidity, balance1, &p.totalShares)
	if overflow {
		return nil, nil, fmt.Errorf("%w: payout for token1", ErrBalanceOverflow)
	}
	if amount0.IsZero() || amount1.IsZero() {
		return nil, nil, fmt.Errorf("%w: payouts %s / %s", ErrInsufficientLiquidityBurned, amount0.Dec(), amount1.Dec())
	}

	snap0, snap1 := p.ledger0.Snapshot(), p.ledger1.Snapshot()
	revert := func() {
		p.ledger1.RevertToSnapshot(snap1)
		p.ledger0.RevertToSnapshot(snap0)
	}
	if err := token.SafeTransfer(p.ledger0, p.addr, to, amount0); err != nil {
		revert()
		return nil, nil, err
	}
	if err := token.SafeTransfer(p.ledger1, p.addr, to, amount1); err != nil {
		revert()
		return nil, nil, err
	}

	balance0, balance1 = p.balances()
	if err := p.update(balance0, balance1); err != nil {
		revert()
		return nil, nil, err
	}
	p.burnShares(p.addr, liquidity)

	p.logger.Debug("liquidity burned", "pool", p.addr, "to", to, "liquidity", liquidity.Dec())
	p.emit(BurnEvent{
		PoolAddr:  p.addr,
		To:        to,
		Amount0:   new(uint256.Int).Set(amount0),
		Amount1:   new(uint256.Int).Set(amount1),
		Liquidity: liquidity,
	})
	return amount0, amount1, nil
}

// depositedAmount computes balance - reserve, clamping at zero; a
// balance below the reserve means nothing was deposited on that side.
func depositedAmount(balance, reserve *uint256.Int) *uint256.Int {
	if balance.Gt(reserve) {
		return new(uint256.Int).Sub(balance, reserve)
	}
	return new(uint256.Int)
}

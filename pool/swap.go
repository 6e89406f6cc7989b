package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/token"
)

// Fee constants: 0.3% charged on the input side, retained by the pool.
// The invariant check scales balances by feeScale and deducts
// feeNumerator per unit of input.
const (
	feeScale     = 1000
	feeNumerator = 3
)

// Swap sends the requested output amounts to the recipient and
// verifies, from live balances, that enough input was deposited to keep
// the fee-adjusted constant product from decreasing. When data is
// non-empty the recipient's settlement callback is invoked between
// output delivery and the re-check, enabling flash swaps. caller is the
// identity forwarded to that callback.
//
// Every failure after the optimistic transfer reverts the ledgers to
// their pre-swap state; reserves are only written once the invariant
// holds.
func (p *Pool) Swap(amount0Out, amount1Out *uint256.Int, to common.Address, data []byte, caller common.Address) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if p.locked {
		return ErrLocked
	}
	p.locked = true
	defer func() { p.locked = false }()

	if amount0Out.IsZero() && amount1Out.IsZero() {
		return ErrInsufficientOutputAmount
	}
	reserve0, reserve1 := p.reserve0.ToUint256(), p.reserve1.ToUint256()
	if !amount0Out.Lt(reserve0) || !amount1Out.Lt(reserve1) {
		return fmt.Errorf("%w: requested %s / %s against reserves %s / %s",
			ErrInsufficientLiquidity, amount0Out.Dec(), amount1Out.Dec(), reserve0.Dec(), reserve1.Dec())
	}
	if to == p.token0 || to == p.token1 {
		return fmt.Errorf("%w: %s", ErrInvalidRecipient, to)
	}

	snap0, snap1 := p.ledger0.Snapshot(), p.ledger1.Snapshot()
	revert := func() {
		p.ledger1.RevertToSnapshot(snap1)
		p.ledger0.RevertToSnapshot(snap0)
	}

	// Optimistic output delivery, then settlement. The invariant is
	// re-derived from live balances afterwards, so nothing the
	// callback does can be trusted or needs to be.
	if !amount0Out.IsZero() {
		if err := token.SafeTransfer(p.ledger0, p.addr, to, amount0Out); err != nil {
			revert()
			return err
		}
	}
	if !amount1Out.IsZero() {
		if err := token.SafeTransfer(p.ledger1, p.addr, to, amount1Out); err != nil {
			revert()
			return err
		}
	}
	if len(data) > 0 {
		if err := p.invokeCallback(caller, amount0Out, amount1Out, to, data); err != nil {
			revert()
			return err
		}
	}

	balance0, balance1 := p.balances()
	amount0In := impliedInput(balance0, reserve0, amount0Out)
	amount1In := impliedInput(balance1, reserve1, amount1Out)
	if amount0In.IsZero() && amount1In.IsZero() {
		revert()
		return ErrInsufficientInputAmount
	}

	adjusted0, err := feeAdjusted(balance0, amount0In)
	if err != nil {
		revert()
		return err
	}
	adjusted1, err := feeAdjusted(balance1, amount1In)
	if err != nil {
		revert()
		return err
	}

	// adjusted0 * adjusted1 >= reserve0 * reserve1 * feeScale^2.
	// Reserves are bounded to 112 bits so the right side fits; the
	// left side overflowing means the balances themselves are out of
	// range and would fail the reserve-width check anyway.
	left, overflow := new(uint256.Int).MulOverflow(adjusted0, adjusted1)
	if overflow {
		revert()
		return fmt.Errorf("%w: fee-adjusted product", ErrBalanceOverflow)
	}
	right := new(uint256.Int).Mul(reserve0, reserve1)
	right.Mul(right, uint256.NewInt(feeScale*feeScale))
	if left.Lt(right) {
		revert()
		return fmt.Errorf("%w: %s < %s", ErrInvalidK, left.Dec(), right.Dec())
	}

	if err := p.update(balance0, balance1); err != nil {
		revert()
		return err
	}

	p.logger.Debug("swap executed",
		"pool", p.addr, "caller", caller, "to", to,
		"amount0In", amount0In.Dec(), "amount1In", amount1In.Dec(),
		"amount0Out", amount0Out.Dec(), "amount1Out", amount1Out.Dec())
	p.emit(SwapEvent{
		PoolAddr:   p.addr,
		Caller:     caller,
		To:         to,
		Amount0In:  amount0In,
		Amount1In:  amount1In,
		Amount0Out: new(uint256.Int).Set(amount0Out),
		Amount1Out: new(uint256.Int).Set(amount1Out),
	})
	return nil
}

// invokeCallback resolves and runs the recipient's settlement callback.
func (p *Pool) invokeCallback(caller common.Address, amount0Out, amount1Out *uint256.Int, to common.Address, data []byte) error {
	if p.callbacks == nil {
		return fmt.Errorf("%w: no callback resolver configured", ErrCallbackFailed)
	}
	cb, ok := p.callbacks(to)
	if !ok {
		return fmt.Errorf("%w: recipient %s exposes no settlement callback", ErrCallbackFailed, to)
	}
	if err := cb.AmountsReceived(caller, new(uint256.Int).Set(amount0Out), new(uint256.Int).Set(amount1Out), data); err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackFailed, err)
	}
	return nil
}

// impliedInput derives how much input was deposited on one side:
// anything above the reserve less the delivered output.
func impliedInput(balance, reserve, amountOut *uint256.Int) *uint256.Int {
	ideal := new(uint256.Int).Sub(reserve, amountOut)
	if balance.Gt(ideal) {
		return ideal.Sub(balance, ideal)
	}
	return new(uint256.Int)
}

// feeAdjusted computes balance*feeScale - amountIn*feeNumerator, the
// balance net of the input fee at feeScale resolution.
func feeAdjusted(balance, amountIn *uint256.Int) (*uint256.Int, error) {
	scaled, overflow := new(uint256.Int).MulOverflow(balance, uint256.NewInt(feeScale))
	if overflow {
		return nil, fmt.Errorf("%w: scaled balance", ErrBalanceOverflow)
	}
	fee := new(uint256.Int).Mul(amountIn, uint256.NewInt(feeNumerator))
	if scaled.Lt(fee) {
		return nil, fmt.Errorf("%w: fee exceeds scaled balance", ErrInvalidK)
	}
	return scaled.Sub(scaled, fee), nil
}

// Package quote computes swap amounts from reserve snapshots: the pure
// constant-product pricing formulas and their composition across a
// multi-hop path. The router replicates pool pricing off-path with
// these functions before committing on-path swaps; GetAmountIn rounds
// up so a quoted input always satisfies the pool's invariant check.
package quote

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
)

// The input-side fee: feeRetained/feeScale of the input participates in
// pricing, the 0.3% remainder stays in the pool.
const (
	feeScale    = 1000
	feeRetained = 997
)

var (
	// ErrInsufficientAmount is returned when the amount to quote is zero.
	ErrInsufficientAmount = errors.New("insufficient amount")

	// ErrInsufficientLiquidity is returned when a reserve is zero or an
	// output request cannot be covered by the reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvalidPath is returned for paths of fewer than two assets.
	ErrInvalidPath = errors.New("path must contain at least two assets")

	// ErrAmountTooLarge is returned when a quote's intermediate product
	// exceeds 256 bits.
	ErrAmountTooLarge = errors.New("amount too large to quote")
)

// ReserveSource supplies live reserves for an asset pair, oriented to
// the argument order. The factory implements it.
type ReserveSource interface {
	PairReserves(assetA, assetB common.Address) (reserveA, reserveB fixedpoint.Uint112, err error)
}

// Quote returns the proportional amount of asset B matching amountA at
// the current reserve ratio: amountA * reserveB / reserveA. No fee is
// applied; it prices liquidity deposits, never swaps.
func Quote(amountA *uint256.Int, reserveA, reserveB fixedpoint.Uint112) (*uint256.Int, error) {
	if amountA.IsZero() {
		return nil, ErrInsufficientAmount
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	amountB, overflow := new(uint256.Int).MulDivOverflow(amountA, reserveB.ToUint256(), reserveA.ToUint256())
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrAmountTooLarge, amountA.Dec(), reserveB.String())
	}
	return amountB, nil
}

// GetAmountOut returns the output of a single swap net of the fee:
// floor(amountIn * 997 * reserveOut / (reserveIn * 1000 + amountIn * 997)).
func GetAmountOut(amountIn *uint256.Int, reserveIn, reserveOut fixedpoint.Uint112) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, ErrInsufficientAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(feeRetained))
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountTooLarge, amountIn.Dec())
	}
	numerator, overflow := new(uint256.Int).MulOverflow(amountInWithFee, reserveOut.ToUint256())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountTooLarge, amountIn.Dec())
	}
	denominator := new(uint256.Int).Mul(reserveIn.ToUint256(), uint256.NewInt(feeScale))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn returns the input required to receive exactly amountOut,
// rounded up by one unit so that truncation never leaves the pool's
// invariant check short:
// floor(reserveIn * amountOut * 1000 / ((reserveOut - amountOut) * 997)) + 1.
func GetAmountIn(amountOut *uint256.Int, reserveIn, reserveOut fixedpoint.Uint112) (*uint256.Int, error) {
	if amountOut.IsZero() {
		return nil, ErrInsufficientAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	if !amountOut.Lt(reserveOut.ToUint256()) {
		return nil, fmt.Errorf("%w: requested %s of reserve %s", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.String())
	}

	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn.ToUint256(), amountOut)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountTooLarge, amountOut.Dec())
	}
	numerator, overflow = numerator.MulOverflow(numerator, uint256.NewInt(feeScale))
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountTooLarge, amountOut.Dec())
	}
	denominator := new(uint256.Int).Sub(reserveOut.ToUint256(), amountOut)
	denominator.Mul(denominator, uint256.NewInt(feeRetained))
	amountIn := numerator.Div(numerator, denominator)
	return amountIn.AddUint64(amountIn, 1), nil
}

// GetAmountsOut walks the path forward: amounts[0] is amountIn and each
// subsequent element is the previous hop's output, priced against that
// hop's live reserves at the time of the call.
func GetAmountsOut(src ReserveSource, path []common.Address, amountIn *uint256.Int) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*uint256.Int, len(path))
	amounts[0] = new(uint256.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := src.PairReserves(path[i], path[i+1])
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
		amounts[i+1], err = GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i, path[i], path[i+1], err)
		}
	}
	return amounts, nil
}

// GetAmountsIn walks the path backward: amounts[len-1] is amountOut and
// each preceding element is the input the hop requires.
func GetAmountsIn(src ReserveSource, path []common.Address, amountOut *uint256.Int) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*uint256.Int, len(path))
	amounts[len(amounts)-1] = new(uint256.Int).Set(amountOut)
	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := src.PairReserves(path[i-1], path[i])
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i-1, path[i-1], path[i], err)
		}
		amounts[i-1], err = GetAmountIn(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d (%s -> %s): %w", i-1, path[i-1], path[i], err)
		}
	}
	return amounts, nil
}

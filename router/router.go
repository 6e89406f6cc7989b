// Package router orchestrates liquidity provisioning and multi-hop
// swaps across pools. Every trade is planned off-path with the quote
// package against live reserves, then executed hop by hop with each
// pool's output delivered straight into the next pool; the pools
// re-verify the invariant themselves, so the router's arithmetic is a
// plan, never an authority.
package router

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pairswap/pairswap-engine-go/factory"
	"github.com/pairswap/pairswap-engine-go/pool"
	"github.com/pairswap/pairswap-engine-go/quote"
	"github.com/pairswap/pairswap-engine-go/token"
)

var (
	// ErrInsufficientAAmount is returned when the A-side deposit or
	// withdrawal falls below its minimum.
	ErrInsufficientAAmount = errors.New("insufficient A amount")

	// ErrInsufficientBAmount is the B-side counterpart.
	ErrInsufficientBAmount = errors.New("insufficient B amount")

	// ErrInsufficientOutputAmount is returned when a trade's final
	// output is below the caller's minimum.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")

	// ErrExcessiveInputAmount is returned when a trade's required
	// first-hop input exceeds the caller's maximum.
	ErrExcessiveInputAmount = errors.New("excessive input amount")

	// ErrPoolNotFound is returned when a hop has no pool.
	ErrPoolNotFound = errors.New("pool not found for hop")

	// ErrNoRoute is returned by FindPath when the assets are not
	// connected within the hop limit.
	ErrNoRoute = errors.New("no route between assets")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config carries the router's dependencies.
type Config struct {
	Factory  *factory.Factory
	Ledgers  pool.LedgerResolver
	Logger   Logger
	Registry prometheus.Registerer
}

func (c *Config) validate() error {
	if c.Factory == nil {
		return errors.New("config: Factory is required")
	}
	if c.Ledgers == nil {
		return errors.New("config: Ledgers resolver is required")
	}
	return nil
}

// Router holds only its collaborator references; it has no trade state
// of its own and independent trade plans may use separate routers
// freely, subject to each pool being a serialization point.
type Router struct {
	factory *factory.Factory
	ledgers pool.LedgerResolver
	logger  Logger
	metrics *Metrics
}

// New creates a router over the registry.
func New(cfg Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Router{
		factory: cfg.Factory,
		ledgers: cfg.Ledgers,
		logger:  logger,
		metrics: NewMetrics(cfg.Registry),
	}, nil
}

// AddLiquidity deposits up to the desired amounts of both assets into
// the pair's pool (creating the pool when absent) and mints liquidity
// shares to the recipient. On a fresh pool the full desired amounts are
// used; otherwise the deposit is fitted to the current reserve ratio,
// quoting B against desiredA first and falling back to quoting A
// against desiredB, with each chosen amount checked against its
// minimum.
func (r *Router) AddLiquidity(
	assetA, assetB common.Address,
	desiredA, desiredB, minA, minB *uint256.Int,
	from, to common.Address,
) (usedA, usedB, liquidity *uint256.Int, err error) {
	p := r.factory.GetPool(assetA, assetB)
	if p == nil {
		p, err = r.factory.CreatePool(assetA, assetB)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	usedA, usedB, err = r.fitDeposit(assetA, assetB, desiredA, desiredB, minA, minB)
	if err != nil {
		return nil, nil, nil, err
	}

	ledgerA, ledgerB, err := r.pairLedgers(assetA, assetB)
	if err != nil {
		return nil, nil, nil, err
	}

	poolState := p.CaptureState()
	snapA, snapB := ledgerA.Snapshot(), ledgerB.Snapshot()
	revert := func() {
		ledgerB.RevertToSnapshot(snapB)
		ledgerA.RevertToSnapshot(snapA)
		p.RestoreState(poolState)
	}

	if err := token.SafeTransferFrom(ledgerA, from, from, p.Address(), usedA); err != nil {
		revert()
		return nil, nil, nil, err
	}
	if err := token.SafeTransferFrom(ledgerB, from, from, p.Address(), usedB); err != nil {
		revert()
		return nil, nil, nil, err
	}
	liquidity, err = p.Mint(to)
	if err != nil {
		revert()
		return nil, nil, nil, err
	}

	r.metrics.liquidityOps.WithLabelValues("add").Inc()
	return usedA, usedB, liquidity, nil
}

// fitDeposit selects the deposit amounts for the current reserves.
func (r *Router) fitDeposit(
	assetA, assetB common.Address,
	desiredA, desiredB, minA, minB *uint256.Int,
) (*uint256.Int, *uint256.Int, error) {
	reserveA, reserveB, err := r.factory.PairReserves(assetA, assetB)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.IsZero() && reserveB.IsZero() {
		return new(uint256.Int).Set(desiredA), new(uint256.Int).Set(desiredB), nil
	}

	quotedB, err := quote.Quote(desiredA, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if !quotedB.Gt(desiredB) {
		if quotedB.Lt(minB) {
			return nil, nil, fmt.Errorf("%w: quoted %s below minimum %s", ErrInsufficientBAmount, quotedB.Dec(), minB.Dec())
		}
		return new(uint256.Int).Set(desiredA), quotedB, nil
	}

	quotedA, err := quote.Quote(desiredB, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if quotedA.Gt(desiredA) {
		// Both quotes exceeding their desired amounts cannot happen at
		// a consistent reserve ratio.
		return nil, nil, fmt.Errorf("%w: quoted %s above desired %s", ErrInsufficientAAmount, quotedA.Dec(), desiredA.Dec())
	}
	if quotedA.Lt(minA) {
		return nil, nil, fmt.Errorf("%w: quoted %s below minimum %s", ErrInsufficientAAmount, quotedA.Dec(), minA.Dec())
	}
	return quotedA, new(uint256.Int).Set(desiredB), nil
}

// RemoveLiquidity moves the caller's liquidity shares into the pool,
// burns them, and checks both payouts against their minimums. The
// payout check runs against the exact burn arithmetic before anything
// moves, so a failed check mutates nothing.
func (r *Router) RemoveLiquidity(
	assetA, assetB common.Address,
	liquidity, minA, minB *uint256.Int,
	from, to common.Address,
) (amountA, amountB *uint256.Int, err error) {
	p := r.factory.GetPool(assetA, assetB)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %s / %s", ErrPoolNotFound, assetA, assetB)
	}
	token0, _ := p.Assets()
	ledgerA, ledgerB, err := r.pairLedgers(assetA, assetB)
	if err != nil {
		return nil, nil, err
	}

	// Predict the burn payouts with the burn's own formula:
	// amount = shares * balance / totalShares, where shares covers
	// everything the burn will consume. Burn pays out every share
	// parked at the pool's address, so strays already there count.
	total := p.TotalShares()
	if total.IsZero() {
		return nil, nil, fmt.Errorf("%w: pool has no shares", pool.ErrInsufficientLiquidityBurned)
	}
	burnShares := new(uint256.Int).Add(p.SharesOf(p.Address()), liquidity)
	expectedA, overflow := new(uint256.Int).MulDivOverflow(burnShares, ledgerA.BalanceOf(p.Address()), total)
	if overflow {
		return nil, nil, quote.ErrAmountTooLarge
	}
	expectedB, overflow := new(uint256.Int).MulDivOverflow(burnShares, ledgerB.BalanceOf(p.Address()), total)
	if overflow {
		return nil, nil, quote.ErrAmountTooLarge
	}
	if expectedA.Lt(minA) {
		return nil, nil, fmt.Errorf("%w: payout %s below minimum %s", ErrInsufficientAAmount, expectedA.Dec(), minA.Dec())
	}
	if expectedB.Lt(minB) {
		return nil, nil, fmt.Errorf("%w: payout %s below minimum %s", ErrInsufficientBAmount, expectedB.Dec(), minB.Dec())
	}

	poolState := p.CaptureState()
	snapA, snapB := ledgerA.Snapshot(), ledgerB.Snapshot()
	revert := func() {
		ledgerB.RevertToSnapshot(snapB)
		ledgerA.RevertToSnapshot(snapA)
		p.RestoreState(poolState)
	}

	if err := p.TransferShares(from, p.Address(), liquidity); err != nil {
		return nil, nil, err
	}
	amount0, amount1, err := p.Burn(to)
	if err != nil {
		revert()
		return nil, nil, err
	}

	r.metrics.liquidityOps.WithLabelValues("remove").Inc()
	if assetA == token0 {
		return amount0, amount1, nil
	}
	return amount1, amount0, nil
}

// pairLedgers resolves both assets' ledgers.
func (r *Router) pairLedgers(assetA, assetB common.Address) (token.Ledger, token.Ledger, error) {
	ledgerA, err := r.ledgers(assetA)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving ledger for %s: %w", assetA, err)
	}
	ledgerB, err := r.ledgers(assetB)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving ledger for %s: %w", assetB, err)
	}
	return ledgerA, ledgerB, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

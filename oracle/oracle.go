// Package oracle consumes a pool's cumulative price accumulators to
// produce manipulation-resistant time-weighted average prices. An
// Observer samples one pool on a fixed period; the average between two
// samples weights every intermediate spot price by how long it
// prevailed, so skewing it requires holding a skewed reserve ratio for
// a large share of the window.
package oracle

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
	"github.com/pairswap/pairswap-engine-go/pool"
)

var (
	// ErrPeriodNotElapsed is returned by Update before a full period
	// has passed since the previous sample.
	ErrPeriodNotElapsed = errors.New("observation period not elapsed")

	// ErrNotReady is returned by Consult before the first complete
	// window has been observed.
	ErrNotReady = errors.New("no complete observation window yet")

	// ErrUnknownAsset is returned when Consult is asked about an asset
	// outside the observed pair.
	ErrUnknownAsset = errors.New("asset not in observed pair")
)

// Config carries an observer's dependencies.
type Config struct {
	// Pool is the observed pool.
	Pool *pool.Pool

	// Period is the minimum window length in seconds.
	Period uint64

	// Clock is optional and defaults to wall time.
	Clock pool.Clock
}

func (c *Config) validate() error {
	if c.Pool == nil {
		return errors.New("config: Pool is required")
	}
	if c.Period == 0 {
		return errors.New("config: Period must be positive")
	}
	return nil
}

// Observer samples one pool's accumulators. Not safe for concurrent
// use.
type Observer struct {
	pool   *pool.Pool
	period uint64
	clock  pool.Clock

	lastSampleTime  uint64
	last0Cumulative uint256.Int
	last1Cumulative uint256.Int
	price0Average   fixedpoint.UQ112x112
	price1Average   fixedpoint.UQ112x112
	haveWindow      bool
}

// New creates an observer and takes its first sample immediately; the
// first Consult becomes possible one period later.
func New(cfg Config) (*Observer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	o := &Observer{
		pool:   cfg.Pool,
		period: cfg.Period,
		clock:  clock,
	}
	now := o.clock()
	cum0, cum1 := currentCumulatives(o.pool, now)
	o.lastSampleTime = now
	o.last0Cumulative.Set(cum0)
	o.last1Cumulative.Set(cum1)
	return o, nil
}

// Update closes the current window if a full period has elapsed,
// fixing the average prices consulted until the next update.
func (o *Observer) Update() error {
	now := o.clock()
	if now < o.lastSampleTime+o.period {
		return fmt.Errorf("%w: %ds of %ds", ErrPeriodNotElapsed, now-o.lastSampleTime, o.period)
	}
	elapsed := now - o.lastSampleTime

	cum0, cum1 := currentCumulatives(o.pool, now)

	// Accumulators wrap modulo 2^256; the subtraction wraps the same
	// way, so the difference stays correct across a single overflow.
	delta0 := new(uint256.Int).Sub(cum0, &o.last0Cumulative)
	delta1 := new(uint256.Int).Sub(cum1, &o.last1Cumulative)
	elapsedInt := uint256.NewInt(elapsed)
	o.price0Average = fixedpoint.FromRaw(delta0.Div(delta0, elapsedInt))
	o.price1Average = fixedpoint.FromRaw(delta1.Div(delta1, elapsedInt))

	o.lastSampleTime = now
	o.last0Cumulative.Set(cum0)
	o.last1Cumulative.Set(cum1)
	o.haveWindow = true
	return nil
}

// Consult prices amountIn of the given asset at the last window's
// average, returning the amount of the pair's other asset.
func (o *Observer) Consult(asset common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if !o.haveWindow {
		return nil, ErrNotReady
	}
	token0, token1 := o.pool.Assets()
	switch asset {
	case token0:
		return o.price0Average.MulAmountDecoded(amountIn)
	case token1:
		return o.price1Average.MulAmountDecoded(amountIn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
}

// currentCumulatives extends the pool's accumulators counterfactually
// to `now` using the current reserves, without mutating the pool. This
// is the accumulator value a sync at `now` would produce.
func currentCumulatives(p *pool.Pool, now uint64) (*uint256.Int, *uint256.Int) {
	cum0, cum1 := p.Price0Cumulative(), p.Price1Cumulative()
	reserve0, reserve1, last := p.GetReserves()
	if now > last && !reserve0.IsZero() && !reserve1.IsZero() {
		elapsed := now - last
		price0, _ := fixedpoint.Ratio(reserve1, reserve0)
		price1, _ := fixedpoint.Ratio(reserve0, reserve1)
		cum0.Add(cum0, price0.MulElapsed(elapsed))
		cum1.Add(cum1, price1.MulElapsed(elapsed))
	}
	return cum0, cum1
}

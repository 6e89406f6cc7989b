// Package pool implements the constant-product pool state machine:
// reserve accounting, liquidity-share mint/burn, invariant-checked
// swaps with flash-swap settlement, and the time-weighted price
// accumulators consumed by off-engine oracles.
package pool

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
	"github.com/pairswap/pairswap-engine-go/token"
)

// MinimumLiquidity is the share amount permanently locked at the burn
// sink on the first provision, keeping the per-share price
// representable even after a manipulated first deposit.
const MinimumLiquidity = 1000

// BurnSink is the address holding permanently locked shares.
var BurnSink = common.Address{}

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Clock supplies the current unix time in seconds. Injectable so the
// accumulator is deterministic under test.
type Clock func() uint64

// LedgerResolver maps an asset identity to its ledger collaborator.
type LedgerResolver func(asset common.Address) (token.Ledger, error)

// SettlementCallback is the flash-swap capability: a recipient of a
// swap carrying auxiliary data is called inline, after output delivery
// and before the invariant re-check, and must deposit the owed input
// into the pool before returning.
type SettlementCallback interface {
	AmountsReceived(caller common.Address, amount0Out, amount1Out *uint256.Int, data []byte) error
}

// CallbackResolver maps a swap recipient to its settlement callback,
// if it exposes one.
type CallbackResolver func(recipient common.Address) (SettlementCallback, bool)

// Config carries a pool's dependencies.
type Config struct {
	// Address is the pool's own identity; it holds the pool's asset
	// balances on the ledgers.
	Address common.Address

	// Ledgers resolves asset identities to ledger collaborators.
	Ledgers LedgerResolver

	// Callbacks resolves flash-swap recipients. Optional; without it
	// every data-carrying swap fails.
	Callbacks CallbackResolver

	// Clock is optional and defaults to wall time.
	Clock Clock

	// Logger is optional and defaults to a no-op logger.
	Logger Logger

	// Events is optional; a nil sink drops events.
	Events EventSink
}

func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.Ledgers == nil {
		return errors.New("config: Ledgers resolver is required")
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Pool owns the state of exactly one asset pair. It is not safe for
// concurrent use; a pool is the serialization point for its own state.
type Pool struct {
	addr      common.Address
	ledgers   LedgerResolver
	callbacks CallbackResolver
	clock     Clock
	logger    Logger
	events    EventSink

	initialized bool
	token0      common.Address
	token1      common.Address
	ledger0     token.Ledger
	ledger1     token.Ledger

	reserve0           fixedpoint.Uint112
	reserve1           fixedpoint.Uint112
	blockTimestampLast uint64

	price0Cumulative uint256.Int
	price1Cumulative uint256.Int

	totalShares uint256.Int
	shares      map[common.Address]*uint256.Int

	locked bool
}

// New creates an uninitialized pool from the config.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Pool{
		addr:      cfg.Address,
		ledgers:   cfg.Ledgers,
		callbacks: cfg.Callbacks,
		clock:     clock,
		logger:    logger,
		events:    cfg.Events,
		shares:    make(map[common.Address]*uint256.Int),
	}, nil
}

// Initialize fixes the pool's asset pair for its lifetime. It must be
// called exactly once, with the assets in canonical order, before any
// other operation.
func (p *Pool) Initialize(token0, token1 common.Address) error {
	if p.initialized {
		return ErrAlreadyInitialized
	}
	if bytes.Compare(token0.Bytes(), token1.Bytes()) >= 0 {
		return fmt.Errorf("%w: %s / %s must be distinct and canonically ordered", ErrInvalidAssetPair, token0, token1)
	}
	ledger0, err := p.ledgers(token0)
	if err != nil {
		return fmt.Errorf("resolving ledger for %s: %w", token0, err)
	}
	ledger1, err := p.ledgers(token1)
	if err != nil {
		return fmt.Errorf("resolving ledger for %s: %w", token1, err)
	}
	p.token0 = token0
	p.token1 = token1
	p.ledger0 = ledger0
	p.ledger1 = ledger1
	p.initialized = true
	return nil
}

// Address returns the pool's identity.
func (p *Pool) Address() common.Address {
	return p.addr
}

// Assets returns the canonical asset pair.
func (p *Pool) Assets() (token0, token1 common.Address) {
	return p.token0, p.token1
}

// GetReserves returns the last-synced reserves and their timestamp.
func (p *Pool) GetReserves() (reserve0, reserve1 fixedpoint.Uint112, blockTimestampLast uint64) {
	return p.reserve0, p.reserve1, p.blockTimestampLast
}

// Price0Cumulative returns a copy of the token0-in-token1 accumulator.
func (p *Pool) Price0Cumulative() *uint256.Int {
	return new(uint256.Int).Set(&p.price0Cumulative)
}

// Price1Cumulative returns a copy of the token1-in-token0 accumulator.
func (p *Pool) Price1Cumulative() *uint256.Int {
	return new(uint256.Int).Set(&p.price1Cumulative)
}

// balances reads both live asset balances held by the pool.
func (p *Pool) balances() (balance0, balance1 *uint256.Int) {
	return p.ledger0.BalanceOf(p.addr), p.ledger1.BalanceOf(p.addr)
}

// update is the shared resync rule: accumulate the price integral over
// the elapsed interval using the prior reserves, then overwrite the
// reserves from the live balances. Fails with ErrBalanceOverflow when
// a balance no longer fits the reserve width, mutating nothing.
func (p *Pool) update(balance0, balance1 *uint256.Int) error {
	newReserve0, err := fixedpoint.FromUint256(balance0)
	if err != nil {
		return fmt.Errorf("%w: token0 balance %s", ErrBalanceOverflow, balance0.Dec())
	}
	newReserve1, err := fixedpoint.FromUint256(balance1)
	if err != nil {
		return fmt.Errorf("%w: token1 balance %s", ErrBalanceOverflow, balance1.Dec())
	}

	now := p.clock()
	if now > p.blockTimestampLast && !p.reserve0.IsZero() && !p.reserve1.IsZero() {
		elapsed := now - p.blockTimestampLast
		// Accumulation uses the reserves that prevailed for the
		// interval, before they are overwritten. Additions wrap
		// modulo 2^256; consumers subtract two samples.
		price0, _ := fixedpoint.Ratio(p.reserve1, p.reserve0)
		price1, _ := fixedpoint.Ratio(p.reserve0, p.reserve1)
		p.price0Cumulative.Add(&p.price0Cumulative, price0.MulElapsed(elapsed))
		p.price1Cumulative.Add(&p.price1Cumulative, price1.MulElapsed(elapsed))
	}

	p.reserve0 = newReserve0
	p.reserve1 = newReserve1
	p.blockTimestampLast = now
	p.emit(SyncEvent{PoolAddr: p.addr, Reserve0: newReserve0.ToUint256(), Reserve1: newReserve1.ToUint256()})
	return nil
}

// Sync force-matches reserves to the live balances without minting or
// burning. Anyone may call it to recover from a direct transfer into
// the pool.
func (p *Pool) Sync() error {
	if !p.initialized {
		return ErrNotInitialized
	}
	balance0, balance1 := p.balances()
	return p.update(balance0, balance1)
}

// Skim transfers any balance in excess of the reserves out to the
// recipient, the counterpart recovery to Sync.
func (p *Pool) Skim(to common.Address) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	balance0, balance1 := p.balances()
	excess0 := new(uint256.Int)
	if balance0.Gt(p.reserve0.ToUint256()) {
		excess0.Sub(balance0, p.reserve0.ToUint256())
	}
	excess1 := new(uint256.Int)
	if balance1.Gt(p.reserve1.ToUint256()) {
		excess1.Sub(balance1, p.reserve1.ToUint256())
	}

	snap0, snap1 := p.ledger0.Snapshot(), p.ledger1.Snapshot()
	revert := func() {
		p.ledger1.RevertToSnapshot(snap1)
		p.ledger0.RevertToSnapshot(snap0)
	}
	if !excess0.IsZero() {
		if err := token.SafeTransfer(p.ledger0, p.addr, to, excess0); err != nil {
			revert()
			return err
		}
	}
	if !excess1.IsZero() {
		if err := token.SafeTransfer(p.ledger1, p.addr, to, excess1); err != nil {
			revert()
			return err
		}
	}
	return nil
}

// emit delivers an event to the sink, if any.
func (p *Pool) emit(event Event) {
	if p.events != nil {
		p.events(event)
	}
}

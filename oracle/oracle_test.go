package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
	"github.com/pairswap/pairswap-engine-go/pool"
	"github.com/pairswap/pairswap-engine-go/token"
)

var (
	asset0   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	asset1   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000f0")
)

type fixture struct {
	pool    *pool.Pool
	ledgers map[common.Address]*token.Token
	now     uint64
}

// newFixture builds a pool with the given reserves at t=1000.
func newFixture(t *testing.T, reserve0, reserve1 uint64) *fixture {
	t.Helper()
	fx := &fixture{
		ledgers: map[common.Address]*token.Token{
			asset0: token.NewToken("T0"),
			asset1: token.NewToken("T1"),
		},
		now: 1_000,
	}
	p, err := pool.New(pool.Config{
		Address: poolAddr,
		Ledgers: func(asset common.Address) (token.Ledger, error) {
			return fx.ledgers[asset], nil
		},
		Clock: func() uint64 { return fx.now },
	})
	require.NoError(t, err)
	require.NoError(t, p.Initialize(asset0, asset1))
	fx.pool = p
	fx.setReserves(t, reserve0, reserve1)
	return fx
}

// setReserves tops the pool's balances up to the targets and syncs.
func (fx *fixture) setReserves(t *testing.T, reserve0, reserve1 uint64) {
	t.Helper()
	for asset, target := range map[common.Address]uint64{asset0: reserve0, asset1: reserve1} {
		held := fx.ledgers[asset].BalanceOf(poolAddr)
		fx.ledgers[asset].Mint(poolAddr, new(uint256.Int).Sub(uint256.NewInt(target), held))
	}
	require.NoError(t, fx.pool.Sync())
}

func TestObserverLifecycle(t *testing.T) {
	fx := newFixture(t, 1_000, 2_000)
	o, err := New(Config{Pool: fx.pool, Period: 100, Clock: func() uint64 { return fx.now }})
	require.NoError(t, err)

	// No complete window yet.
	_, err = o.Consult(asset0, uint256.NewInt(1_000))
	require.ErrorIs(t, err, ErrNotReady)

	fx.now += 99
	require.ErrorIs(t, o.Update(), ErrPeriodNotElapsed)

	fx.now += 1
	require.NoError(t, o.Update())

	// Constant reserves over the window: the average is the spot
	// price, 2 units of asset1 per unit of asset0.
	out, err := o.Consult(asset0, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), out.Uint64())

	out, err = o.Consult(asset1, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), out.Uint64())
}

func TestConsultUnknownAsset(t *testing.T) {
	fx := newFixture(t, 1_000, 1_000)
	o, err := New(Config{Pool: fx.pool, Period: 100, Clock: func() uint64 { return fx.now }})
	require.NoError(t, err)

	fx.now += 100
	require.NoError(t, o.Update())

	_, err = o.Consult(common.HexToAddress("0x99"), uint256.NewInt(1))
	require.ErrorIs(t, err, ErrUnknownAsset)
}

func TestConsultOverflowingAmount(t *testing.T) {
	fx := newFixture(t, 1_000, 2_000)
	o, err := New(Config{Pool: fx.pool, Period: 100, Clock: func() uint64 { return fx.now }})
	require.NoError(t, err)

	fx.now += 100
	require.NoError(t, o.Update())

	_, err = o.Consult(asset0, new(uint256.Int).Lsh(uint256.NewInt(1), 255))
	require.ErrorIs(t, err, fixedpoint.ErrAmountTooLarge)
}

func TestAverageIsTimeWeighted(t *testing.T) {
	fx := newFixture(t, 1_000, 1_000)
	o, err := New(Config{Pool: fx.pool, Period: 100, Clock: func() uint64 { return fx.now }})
	require.NoError(t, err)

	// Price 1 for the first half of the window, then 4 for the second.
	fx.now += 50
	fx.setReserves(t, 1_000, 4_000)
	fx.now += 50
	require.NoError(t, o.Update())

	// (50*1 + 50*4) / 100 = 2.5 asset1 per asset0.
	out, err := o.Consult(asset0, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500), out.Uint64())

	// (50*1 + 50*0.25) / 100 = 0.625 asset0 per asset1.
	out, err = o.Consult(asset1, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(625), out.Uint64())
}

func TestWindowsAreIndependent(t *testing.T) {
	fx := newFixture(t, 1_000, 1_000)
	o, err := New(Config{Pool: fx.pool, Period: 100, Clock: func() uint64 { return fx.now }})
	require.NoError(t, err)

	fx.now += 100
	require.NoError(t, o.Update())

	// Shift the price; the fixed average from the closed window must
	// not move until the next update.
	fx.setReserves(t, 1_000, 3_000)
	out, err := o.Consult(asset0, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), out.Uint64())

	fx.now += 100
	require.NoError(t, o.Update())
	out, err = o.Consult(asset0, uint256.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000), out.Uint64())
}

func TestConfigValidation(t *testing.T) {
	fx := newFixture(t, 1_000, 1_000)

	_, err := New(Config{Period: 100})
	require.Error(t, err)

	_, err = New(Config{Pool: fx.pool})
	require.Error(t, err)
}

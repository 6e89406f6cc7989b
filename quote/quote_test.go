package quote

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairswap/pairswap-engine-go/fixedpoint"
)

var (
	assetA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	assetB = common.HexToAddress("0x0000000000000000000000000000000000000002")
	assetC = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

// stubSource serves fixed reserves per directed pair and records the
// order pairs were read in.
type stubSource struct {
	reserves map[[2]common.Address][2]uint64
	reads    [][2]common.Address
}

func (s *stubSource) PairReserves(a, b common.Address) (fixedpoint.Uint112, fixedpoint.Uint112, error) {
	s.reads = append(s.reads, [2]common.Address{a, b})
	r, ok := s.reserves[[2]common.Address{a, b}]
	if !ok {
		return fixedpoint.Uint112{}, fixedpoint.Uint112{}, fmt.Errorf("no pool for %s / %s", a, b)
	}
	return fixedpoint.FromUint64(r[0]), fixedpoint.FromUint64(r[1]), nil
}

func TestQuote(t *testing.T) {
	testCases := []struct {
		name        string
		amountA     uint64
		reserveA    uint64
		reserveB    uint64
		expected    uint64
		expectedErr error
	}{
		{name: "proportional", amountA: 100, reserveA: 1000, reserveB: 2000, expected: 200},
		{name: "rounds down", amountA: 1, reserveA: 3, reserveB: 2, expected: 0},
		{name: "zero amount", amountA: 0, reserveA: 1000, reserveB: 1000, expectedErr: ErrInsufficientAmount},
		{name: "zero reserve in", amountA: 100, reserveA: 0, reserveB: 1000, expectedErr: ErrInsufficientLiquidity},
		{name: "zero reserve out", amountA: 100, reserveA: 1000, reserveB: 0, expectedErr: ErrInsufficientLiquidity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Quote(uint256.NewInt(tc.amountA), fixedpoint.FromUint64(tc.reserveA), fixedpoint.FromUint64(tc.reserveB))
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.Uint64())
		})
	}
}

func TestGetAmountOut(t *testing.T) {
	testCases := []struct {
		name        string
		amountIn    uint64
		reserveIn   uint64
		reserveOut  uint64
		expected    uint64
		expectedErr error
	}{
		{
			// floor(100*997*1000 / (1000*1000 + 100*997)) = 90.
			name: "reference scenario", amountIn: 100, reserveIn: 1000, reserveOut: 1000, expected: 90,
		},
		{
			name: "large pool small trade", amountIn: 1_000_000, reserveIn: 100_000_000, reserveOut: 100_000_000, expected: 987_158,
		},
		{name: "zero amount", amountIn: 0, reserveIn: 1000, reserveOut: 1000, expectedErr: ErrInsufficientAmount},
		{name: "zero reserves", amountIn: 100, reserveIn: 0, reserveOut: 0, expectedErr: ErrInsufficientLiquidity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := GetAmountOut(uint256.NewInt(tc.amountIn), fixedpoint.FromUint64(tc.reserveIn), fixedpoint.FromUint64(tc.reserveOut))
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.Uint64())
		})
	}
}

func TestGetAmountIn(t *testing.T) {
	testCases := []struct {
		name        string
		amountOut   uint64
		reserveIn   uint64
		reserveOut  uint64
		expected    uint64
		expectedErr error
	}{
		{
			// floor(1000*90*1000 / ((1000-90)*997)) + 1 = 100.
			name: "reference scenario inverse", amountOut: 90, reserveIn: 1000, reserveOut: 1000, expected: 100,
		},
		{name: "zero amount", amountOut: 0, reserveIn: 1000, reserveOut: 1000, expectedErr: ErrInsufficientAmount},
		{name: "zero reserves", amountOut: 10, reserveIn: 0, reserveOut: 0, expectedErr: ErrInsufficientLiquidity},
		{name: "output equals reserve", amountOut: 1000, reserveIn: 1000, reserveOut: 1000, expectedErr: ErrInsufficientLiquidity},
		{name: "output exceeds reserve", amountOut: 1001, reserveIn: 1000, reserveOut: 1000, expectedErr: ErrInsufficientLiquidity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := GetAmountIn(uint256.NewInt(tc.amountOut), fixedpoint.FromUint64(tc.reserveIn), fixedpoint.FromUint64(tc.reserveOut))
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, in.Uint64())
		})
	}
}

func TestRoundTripFavorsPool(t *testing.T) {
	// GetAmountOut(GetAmountIn(y)) >= y: an input quoted for a desired
	// output always buys at least that output. The forward composition
	// carries no such guarantee near saturation, where many inputs
	// floor to the same output and GetAmountIn returns the smallest of
	// them.
	reservePairs := [][2]uint64{
		{1000, 1000},
		{1000, 2000},
		{123_456, 7_890_123},
		{99_999_999, 1_000},
	}
	outputs := []uint64{1, 7, 90, 500, 999, 54_321, 999_999}

	for _, reserves := range reservePairs {
		reserveIn := fixedpoint.FromUint64(reserves[0])
		reserveOut := fixedpoint.FromUint64(reserves[1])
		for _, y := range outputs {
			in, err := GetAmountIn(uint256.NewInt(y), reserveIn, reserveOut)
			if errors.Is(err, ErrInsufficientLiquidity) {
				// y is not coverable by this reserve.
				continue
			}
			require.NoError(t, err)
			out, err := GetAmountOut(in, reserveIn, reserveOut)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, out.Uint64(), y,
				"quoted input bought less than requested at reserves %v output %d", reserves, y)
		}
	}
}

func TestGetAmountsOut(t *testing.T) {
	src := &stubSource{reserves: map[[2]common.Address][2]uint64{
		{assetA, assetB}: {1000, 1000},
		{assetB, assetC}: {1000, 1000},
	}}

	amounts, err := GetAmountsOut(src, []common.Address{assetA, assetB, assetC}, uint256.NewInt(100))
	require.NoError(t, err)
	require.Len(t, amounts, 3)

	assert.Equal(t, uint64(100), amounts[0].Uint64())
	assert.Equal(t, uint64(90), amounts[1].Uint64())
	// Second hop prices the 90 from the first: floor(90*997*1000 / (1000*1000+90*997)) = 82.
	assert.Equal(t, uint64(82), amounts[2].Uint64())

	// Hops read reserves in path order.
	require.Len(t, src.reads, 2)
	assert.Equal(t, [2]common.Address{assetA, assetB}, src.reads[0])
	assert.Equal(t, [2]common.Address{assetB, assetC}, src.reads[1])
}

func TestGetAmountsIn(t *testing.T) {
	src := &stubSource{reserves: map[[2]common.Address][2]uint64{
		{assetA, assetB}: {1000, 1000},
		{assetB, assetC}: {1000, 1000},
	}}

	amounts, err := GetAmountsIn(src, []common.Address{assetA, assetB, assetC}, uint256.NewInt(82))
	require.NoError(t, err)
	require.Len(t, amounts, 3)

	assert.Equal(t, uint64(82), amounts[2].Uint64())
	// floor(1000*82*1000/((1000-82)*997)) + 1 = 90.
	assert.Equal(t, uint64(90), amounts[1].Uint64())
	// floor(1000*90*1000/((1000-90)*997)) + 1 = 100.
	assert.Equal(t, uint64(100), amounts[0].Uint64())

	// The backward walk reads the last pair first.
	require.Len(t, src.reads, 2)
	assert.Equal(t, [2]common.Address{assetB, assetC}, src.reads[0])
	assert.Equal(t, [2]common.Address{assetA, assetB}, src.reads[1])
}

func TestPathValidation(t *testing.T) {
	src := &stubSource{}

	_, err := GetAmountsOut(src, []common.Address{assetA}, uint256.NewInt(100))
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = GetAmountsIn(src, nil, uint256.NewInt(100))
	require.ErrorIs(t, err, ErrInvalidPath)
}

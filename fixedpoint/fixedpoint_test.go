package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUint256Bounds(t *testing.T) {
	testCases := []struct {
		name        string
		value       *uint256.Int
		expectError bool
	}{
		{
			name:  "zero",
			value: new(uint256.Int),
		},
		{
			name:  "one",
			value: uint256.NewInt(1),
		},
		{
			name:  "max uint112",
			value: MaxUint112(),
		},
		{
			name:        "max uint112 plus one",
			value:       new(uint256.Int).AddUint64(MaxUint112(), 1),
			expectError: true,
		},
		{
			name:        "way out of range",
			value:       new(uint256.Int).Lsh(uint256.NewInt(1), 200),
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := FromUint256(tc.value)
			if tc.expectError {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.value.Dec(), r.ToUint256().Dec())
		})
	}
}

func TestToUint256ReturnsCopy(t *testing.T) {
	r := FromUint64(42)
	out := r.ToUint256()
	out.SetUint64(7)
	assert.Equal(t, uint64(42), r.Uint64())
}

func TestRatio(t *testing.T) {
	testCases := []struct {
		name        string
		numerator   uint64
		denominator uint64
		// expected integer part of the ratio
		expectedFloor uint64
	}{
		{name: "two to one", numerator: 2000, denominator: 1000, expectedFloor: 2},
		{name: "equal reserves", numerator: 1000, denominator: 1000, expectedFloor: 1},
		{name: "half", numerator: 1000, denominator: 2000, expectedFloor: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Ratio(FromUint64(tc.numerator), FromUint64(tc.denominator))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedFloor, q.DecodeFloor().Uint64())
		})
	}
}

func TestRatioByZeroReserve(t *testing.T) {
	_, err := Ratio(FromUint64(1), FromUint64(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestRatioFractionalPrecision(t *testing.T) {
	// 1/3 as UQ112x112, multiplied back by 3_000_000, must land within
	// rounding of 1_000_000.
	q, err := Ratio(FromUint64(1), FromUint64(3))
	require.NoError(t, err)

	out, err := q.MulAmountDecoded(uint256.NewInt(3_000_000))
	require.NoError(t, err)
	assert.InDelta(t, 1_000_000, float64(out.Uint64()), 1)
}

func TestMulAmountDecodedOverflow(t *testing.T) {
	q, err := Ratio(FromUint64(2000), FromUint64(1000))
	require.NoError(t, err)

	_, err = q.MulAmountDecoded(new(uint256.Int).Lsh(uint256.NewInt(1), 255))
	require.ErrorIs(t, err, ErrAmountTooLarge)
}

func TestMulElapsed(t *testing.T) {
	// ratio 2 integrated over 100 seconds = 200 in UQ112x112.
	q, err := Ratio(FromUint64(2000), FromUint64(1000))
	require.NoError(t, err)

	acc := q.MulElapsed(100)
	expected := new(uint256.Int).Lsh(uint256.NewInt(200), FractionBits)
	assert.Equal(t, expected.Dec(), acc.Dec())
}

func TestFromRawRoundTrip(t *testing.T) {
	q, err := Ratio(FromUint64(12345), FromUint64(678))
	require.NoError(t, err)
	assert.Equal(t, q.Raw().Dec(), FromRaw(q.Raw()).Raw().Dec())
}

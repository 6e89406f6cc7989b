// Package fixedpoint provides the bounded reserve integer and the
// UQ112x112 fixed-point ratio format used by pool price accumulators.
//
// A UQ112x112 carries 112 integer bits and 112 fractional bits, so the
// full range of one Uint112 reserve divided by another is representable
// without loss. Accumulator sums are carried in 256 bits and wrap
// modulo 2^256; consumers take differences between two samples, which
// stay correct across a single wrap.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// ReserveBits is the width of a pool reserve.
	ReserveBits = 112

	// FractionBits is the number of fractional bits in a UQ112x112.
	FractionBits = 112
)

var (
	// ErrOverflow is returned when a value does not fit in a Uint112.
	ErrOverflow = errors.New("value exceeds 112-bit bound")

	// ErrDivisionByZero is returned when a ratio is taken against a
	// zero reserve.
	ErrDivisionByZero = errors.New("division by zero reserve")

	// ErrAmountTooLarge is returned when a decoded product exceeds
	// 256 bits.
	ErrAmountTooLarge = errors.New("product exceeds 256 bits")

	// maxUint112 = 2^112 - 1, the largest representable reserve.
	maxUint112 = func() *uint256.Int {
		max := new(uint256.Int).Lsh(uint256.NewInt(1), ReserveBits)
		return max.SubUint64(max, 1)
	}()
)

// MaxUint112 returns a copy of the largest representable reserve value.
func MaxUint112() *uint256.Int {
	return new(uint256.Int).Set(maxUint112)
}

// Uint112 is a reserve quantity bounded to 112 bits. The zero value is
// a valid zero reserve. Values can only be widened in via FromUint256,
// which makes overflow an explicit, reported failure rather than a
// silent truncation.
type Uint112 struct {
	v uint256.Int
}

// FromUint256 converts a 256-bit balance into a bounded reserve.
// It returns ErrOverflow if v exceeds 2^112-1.
func FromUint256(v *uint256.Int) (Uint112, error) {
	if v.Gt(maxUint112) {
		return Uint112{}, ErrOverflow
	}
	var r Uint112
	r.v.Set(v)
	return r, nil
}

// FromUint64 converts a machine word into a bounded reserve. It cannot
// fail; every uint64 fits in 112 bits.
func FromUint64(v uint64) Uint112 {
	var r Uint112
	r.v.SetUint64(v)
	return r
}

// ToUint256 returns the reserve widened to 256 bits. The result is a
// fresh value owned by the caller.
func (u Uint112) ToUint256() *uint256.Int {
	return new(uint256.Int).Set(&u.v)
}

// IsZero reports whether the reserve is zero.
func (u Uint112) IsZero() bool {
	return u.v.IsZero()
}

// Eq reports whether two reserves are equal.
func (u Uint112) Eq(other Uint112) bool {
	return u.v.Eq(&other.v)
}

// Uint64 returns the low 64 bits; callers use it only when the reserve
// is known to fit.
func (u Uint112) Uint64() uint64 {
	return u.v.Uint64()
}

// String renders the reserve in decimal.
func (u Uint112) String() string {
	return u.v.Dec()
}

// UQ112x112 is a fixed-point ratio with 112 fractional bits.
type UQ112x112 struct {
	v uint256.Int
}

// Encode lifts an integer reserve into UQ112x112 (multiplies by 2^112).
// The result occupies at most 224 bits and cannot overflow.
func Encode(x Uint112) UQ112x112 {
	var q UQ112x112
	q.v.Lsh(&x.v, FractionBits)
	return q
}

// Div divides the fixed-point value by an integer reserve, yielding the
// fixed-point ratio.
func (q UQ112x112) Div(x Uint112) (UQ112x112, error) {
	if x.v.IsZero() {
		return UQ112x112{}, ErrDivisionByZero
	}
	var out UQ112x112
	out.v.Div(&q.v, &x.v)
	return out, nil
}

// Ratio encodes numerator/denominator as a UQ112x112 in one step.
func Ratio(numerator, denominator Uint112) (UQ112x112, error) {
	return Encode(numerator).Div(denominator)
}

// MulElapsed multiplies the ratio by an elapsed duration in seconds,
// producing the accumulator increment. Multiplication wraps modulo
// 2^256, matching the accumulator's modular contract.
func (q UQ112x112) MulElapsed(seconds uint64) *uint256.Int {
	return new(uint256.Int).Mul(&q.v, uint256.NewInt(seconds))
}

// Raw returns a copy of the underlying 256-bit representation.
func (q UQ112x112) Raw() *uint256.Int {
	return new(uint256.Int).Set(&q.v)
}

// DecodeFloor returns the integer part of the ratio (value >> 112).
func (q UQ112x112) DecodeFloor() *uint256.Int {
	return new(uint256.Int).Rsh(&q.v, FractionBits)
}

// MulAmountDecoded multiplies an amount by the ratio and strips the
// fractional bits, i.e. amount * ratio in plain integers. Used by TWAP
// consumers to price an input amount at an average ratio. Unlike the
// accumulator arithmetic this product has no modular contract, so it
// fails with ErrAmountTooLarge instead of wrapping.
func (q UQ112x112) MulAmountDecoded(amount *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulOverflow(&q.v, amount)
	if overflow {
		return nil, ErrAmountTooLarge
	}
	return out.Rsh(out, FractionBits), nil
}

// FromRaw reinterprets a 256-bit value as a UQ112x112. Consumers use it
// to turn an accumulator difference divided by elapsed time back into a
// ratio.
func FromRaw(v *uint256.Int) UQ112x112 {
	var q UQ112x112
	q.v.Set(v)
	return q
}

//
// float.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"errors"
	"math"

	"github.com/applied-crypto-lab/bioauth/circuit"
)

// IEEE 754 single precision realized as a 36-wire bundle: 23 mantissa
// bits with a hidden leading one, 8 biased exponent bits, a sign bit,
// and three redundant flag bits maintained by every float operator so
// downstream operators need not recompute them.
const (
	Mantissa     = 0
	MantZeroFlag = 23
	Exponent     = 24
	ExpZeroFlag  = 32
	ExpSpecFlag  = 33
	ZeroFlag     = 34
	FloatSign    = 35

	// SingleLength is the float bundle width in wires.
	SingleLength = FloatSign + 1

	floatBias = 127
)

// InfMode selects the treatment of infinities and NaNs in float
// comparisons and shifts.
type InfMode int

// Infinity modes.
const (
	// InfEqNaN treats infinities like NaNs: any special input yields
	// the fixed special result.
	InfEqNaN InfMode = iota

	// InfNeqNaN would implement full IEEE-754 special arithmetic. It
	// is not supported and is refused at the public API.
	InfNeqNaN
)

// ErrInfMode signals a request for the unsupported InfNeqNaN mode.
var ErrInfMode = errors.New("circuits: INFTY_NEQ_NAN mode is not supported")

// unsigned switches the builder to the unsigned integer
// representation and returns the previous mode for restore.
func (b *Builder) unsigned() Mode {
	old := b.IntMode
	b.IntMode = Unsigned
	return old
}

func (b *Builder) restore(m Mode) {
	b.IntMode = m
}

// SetRawFloat converts 32 IEEE-754 bits (LSB first) into the 36-wire
// bundle, computing the three flag wires.
func (b *Builder) SetRawFloat(raw []int) []int {
	defer b.restore(b.unsigned())

	raw = copyWires(raw)

	out := make([]int, SingleLength)
	copy(out[Mantissa:], raw[0:23])
	copy(out[Exponent:], raw[23:31])
	out[FloatSign] = raw[31]

	zero23 := b.zeros(23)
	ones8 := b.SetConst(8, -1)

	out[MantZeroFlag] = b.Cmp(EQ, raw[0:23], zero23)[0]
	out[ExpZeroFlag] = b.Cmp(EQ, raw[23:31], zero23[:8])[0]
	out[ExpSpecFlag] = b.Cmp(EQ, raw[23:31], ones8)[0]
	out[ZeroFlag] = b.Gate(circuit.AND, out[ExpZeroFlag], out[MantZeroFlag])

	return out
}

// SetConstFloat hardwires a float from its mantissa, biased exponent,
// and sign fields.
func (b *Builder) SetConstFloat(mantissa, exponent, sign int64) []int {
	defer b.restore(b.unsigned())

	out := make([]int, SingleLength)
	copy(out[Mantissa:], b.SetConst(23, mantissa))
	copy(out[Exponent:], b.SetConst(8, exponent))
	out[FloatSign] = b.SetConst(1, sign)[0]

	out[MantZeroFlag] = b.constBit(mantissa&0x7fffff == 0)
	out[ExpZeroFlag] = b.constBit(exponent&0xff == 0)
	out[ExpSpecFlag] = b.constBit(exponent&0xff == 0xff)
	out[ZeroFlag] = b.constBit(mantissa&0x7fffff == 0 && exponent&0xff == 0)

	return out
}

// SetConstFloat32 hardwires the float32 constant.
func (b *Builder) SetConstFloat32(value float32) []int {
	bits := math.Float32bits(value)
	return b.SetConstFloat(int64(bits&0x7fffff), int64((bits>>23)&0xff),
		int64(bits>>31))
}

func (b *Builder) constBit(set bool) int {
	if set {
		return b.One()
	}
	return b.Zero()
}

// floatNaN returns the fixed NaN representation.
func (b *Builder) floatNaN() []int {
	return b.SetConstFloat(1, -1, 0)
}

// floatZero returns the canonical zero.
func (b *Builder) floatZero() []int {
	return b.SetConstFloat(0, 0, 0)
}

// floatExpBias adds (add == true) or removes the exponent bias.
func (b *Builder) floatExpBias(add bool, f []int) []int {
	defer b.restore(b.unsigned())

	out := copyWires(f)
	bias := int64(floatBias)
	if !add {
		bias = -floatBias
	}
	biasBits := b.SetConst(8, bias)
	copy(out[Exponent:Exponent+8], b.Add(NoOverflow, biasBits, f[Exponent:Exponent+8]))
	return out
}

// IntToFloat converts an unsigned or signed integer of up to 128 bits
// into a float. Only the top 23 bits of the (absolute) value word are
// converted: for inputs wider than 23 bits the low bits are dropped,
// truncating towards zero. Inputs wider than 128 bits yield NaN.
func (b *Builder) IntToFloat(x []int) []int {
	signedIn := b.IntMode == Signed
	defer b.restore(b.unsigned())

	x = copyWires(x)
	n := len(x)

	if n > 128 {
		return b.floatNaN()
	}

	sign := b.Zero()
	if signedIn {
		sign = x[n-1]
		x = b.Mux(sign, b.Neg(x), x)
	}

	k := n
	if k > 23 {
		k = 23
	}
	work := copyWires(x[n-k:])

	_, idx, nonzero := b.Msb(work, true)

	exponent := b.zeroExtend(idx, 8)
	if n > k {
		offset := b.SetConst(8, int64(n-k))
		exponent = b.Add(NoOverflow, offset, exponent)
	}

	if k < 23 {
		work = b.Shift(b.zeroExtend(work, 23), 23-k, Left, Trunc, false)
	} else {
		work = b.zeroExtend(work, 23)
	}

	// Shift the leading one just past the top of the 23-bit window so
	// the mantissa keeps only the fraction bits.
	amount := b.Sub(NoUnderflow, b.SetConst(8, int64(k)), b.zeroExtend(idx, 8))
	mant := b.OblivShift(work, amount, k, Left, Trunc, false)

	out := make([]int, SingleLength)
	copy(out[Mantissa:], mant[:23])
	copy(out[Exponent:], exponent)
	out[FloatSign] = sign

	out = b.floatExpBias(true, out)
	copy(out[Exponent:Exponent+8], b.BitMul(out[Exponent:Exponent+8], nonzero))

	out[MantZeroFlag] = b.Not(nonzero)
	out[ExpZeroFlag] = out[MantZeroFlag]
	out[ExpSpecFlag] = b.Zero()
	out[ZeroFlag] = out[MantZeroFlag]

	return out
}

// floatCheckZero collapses a denormal result to the canonical zero.
// The hidden wire is the reconstructed leading-one bit of the result
// significand; when it is clear the value has underflowed out of the
// normal range and both fields are zeroed. It must only run once,
// right after a primitive operation on the mantissa.
func (b *Builder) floatCheckZero(f []int, hidden int) []int {
	defer b.restore(b.unsigned())

	out := copyWires(f)

	copy(out[Mantissa:Mantissa+23],
		b.BitMul(f[Mantissa:Mantissa+23], hidden))
	copy(out[Exponent:Exponent+8],
		b.BitMul(f[Exponent:Exponent+8], hidden))

	out[MantZeroFlag] = b.Cmp(EQ, out[Mantissa:Mantissa+23], b.zeros(23))[0]
	out[ExpZeroFlag] = b.Not(hidden)
	out[ExpSpecFlag] = f[ExpSpecFlag]
	out[ZeroFlag] = out[ExpZeroFlag]

	return out
}

// floatCheckSpecial builds the special-input path for a two-input
// float operation: it returns a wire that is one iff both inputs are
// normal, and the value to emit otherwise (NaN when any input has a
// special exponent). The caller ANDs its normal result with the flag
// and XORs in the special value.
func (b *Builder) floatCheckSpecial(inA, inB []int) (normal int, special []int) {
	defer b.restore(b.unsigned())

	atLeastOne := b.Gate(circuit.OR, inA[ExpSpecFlag], inB[ExpSpecFlag])
	normal = b.Not(atLeastOne)
	special = b.BitMul(b.floatNaN(), atLeastOne)
	return
}

// floatCheckSpecialBatch is floatCheckSpecial over an input vector.
func (b *Builder) floatCheckSpecialBatch(inputs [][]int) (
	normal int, special []int) {

	defer b.restore(b.unsigned())

	atLeastOne := inputs[0][ExpSpecFlag]
	for _, in := range inputs[1:] {
		atLeastOne = b.Gate(circuit.OR, atLeastOne, in[ExpSpecFlag])
	}
	normal = b.Not(atLeastOne)
	special = b.BitMul(b.floatNaN(), atLeastOne)
	return
}

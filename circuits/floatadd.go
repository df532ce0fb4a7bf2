//
// floatadd.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// varFloat is the widened float bundle used inside FloatSum: the
// mantissa carries the reconstructed hidden one and extra overflow
// bits so a whole addition tree can run without intermediate
// normalization.
type varFloat struct {
	// mant is 24+Δ bits: 23 fraction bits, the hidden one at
	// position 23, and Δ overflow bits.
	mant    []int
	exp     []int
	sign    int
	expZero int
	expSpec int
}

func (b *Builder) widenFloat(f []int, overflowBits int) varFloat {
	mant := make([]int, 0, 24+overflowBits)
	mant = append(mant, f[Mantissa:Mantissa+23]...)
	mant = append(mant, b.Not(f[ExpZeroFlag]))
	mant = append(mant, b.zeros(overflowBits)...)

	return varFloat{
		mant:    mant,
		exp:     copyWires(f[Exponent : Exponent+8]),
		sign:    f[FloatSign],
		expZero: f[ExpZeroFlag],
		expSpec: f[ExpSpecFlag],
	}
}

// floatAddRaw adds two widened floats without normalizing. The
// smaller-exponent mantissa is right-shifted by the exponent
// difference with an oblivious barrel shifter; the candidate results
// for every branch are computed unconditionally for uniform depth and
// combined with one-hot multiplexing.
func (b *Builder) floatAddRaw(x, y varFloat) varFloat {
	defer b.restore(b.unsigned())

	width := len(x.mant)

	dXY := b.Sub(NoUnderflow, x.exp, y.exp)
	dYX := b.Neg(dXY)

	widthBits := b.SetConst(8, int64(width))
	cmp := b.Cmp(GEQ, x.exp, y.exp)
	expGeq, expNeq := cmp[0], cmp[1]
	expLes := b.Not(expGeq)
	expGrt := b.Gate(circuit.AND, expGeq, expNeq)
	expEq := b.Not(expNeq)

	// Overshift: |Δexp| covers the whole widened mantissa, so the
	// smaller operand vanishes. The raw compares are gated by the
	// exponent order since only one difference is meaningful.
	overX := b.Gate(circuit.AND, b.Cmp(GEQ, dXY, widthBits)[0], expGeq)
	overY := b.Gate(circuit.AND, b.Cmp(GEQ, dYX, widthBits)[0], expLes)
	normal := b.Not(b.Gate(circuit.OR, overX, overY))

	mixed := b.Gate(circuit.XOR, x.sign, y.sign)
	same := b.Not(mixed)

	shrY := b.OblivShift(y.mant, dXY, width-1, Right, Trunc, false)
	shrX := b.OblivShift(x.mant, dYX, width-1, Right, Trunc, false)

	xPlusY := b.Add(NoOverflow, x.mant, shrY)
	yPlusX := b.Add(NoOverflow, y.mant, shrX)
	xMinusY := b.Sub(NoUnderflow, x.mant, shrY)
	yMinusX := b.Sub(NoUnderflow, y.mant, shrX)

	// The mantissa-magnitude compare matters only when the exponents
	// are equal but is evaluated unconditionally for uniform depth.
	mantGeq := b.Cmp(GEQ, x.mant, y.mant)[0]
	magXgeY := b.Gate(circuit.OR, expGrt, b.Gate(circuit.AND, expEq, mantGeq))

	and3 := func(a, bb, c int) int {
		return b.Gate(circuit.AND, a, b.Gate(circuit.AND, bb, c))
	}

	cand := b.GateVec(circuit.XOR,
		b.BitMul(x.mant, overX), b.BitMul(y.mant, overY))

	cases := []struct {
		cond int
		val  []int
	}{
		{and3(same, normal, expGeq), xPlusY},
		{and3(same, normal, expLes), yPlusX},
		{and3(mixed, normal, magXgeY), xMinusY},
		{and3(mixed, normal, b.Not(magXgeY)), yMinusX},
	}
	for _, c := range cases {
		cand = b.GateVec(circuit.XOR, cand, b.BitMul(c.val, c.cond))
	}

	// The output exponent is the max of the two exponents; the sign
	// follows the same branch selection.
	exponent := b.Mux(expGeq, x.exp, y.exp)

	sameCase := b.Gate(circuit.AND, y.sign, same)
	mixedSel := b.Mux(magXgeY, []int{x.sign}, []int{y.sign})[0]
	mixedCase := b.Gate(circuit.AND, mixedSel, mixed)
	sign := b.Gate(circuit.XOR, sameCase, mixedCase)

	// The zero flags are placeholders until the final zero check.
	return varFloat{
		mant:    cand,
		exp:     exponent,
		sign:    sign,
		expZero: x.expZero,
		expSpec: b.Zero(),
	}
}

// FloatSum adds a vector of floats with a balanced binary tree of
// raw additions over widened mantissas, followed by a single final
// normalization: the leading one of the whole widened significand
// selects the renormalizing shift and the matching exponent
// adjustment, up or down. Exponent overflow yields NaN; special inputs
// dominate the result.
func (b *Builder) FloatSum(inputs [][]int) []int {
	if len(inputs) == 0 {
		return nil
	}
	if len(inputs) == 1 {
		return copyWires(inputs[0])
	}
	defer b.restore(b.unsigned())

	overflowBits := 1 + lgFloor(len(inputs)-1)

	normalAll, special := b.floatCheckSpecialBatch(inputs)

	values := make([]varFloat, len(inputs))
	for i, in := range inputs {
		values[i] = b.widenFloat(in, overflowBits)
	}

	for len(values) > 1 {
		if len(values)%2 != 0 {
			values[0] = b.floatAddRaw(values[0], values[len(values)-1])
			values = values[:len(values)-1]
		}
		next := make([]varFloat, 0, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			next = append(next, b.floatAddRaw(values[i], values[i+1]))
		}
		values = next
	}
	res := values[0]

	// Single final normalization: locate the leading one of the whole
	// widened significand, shift it to the top, and fold the shift
	// into the exponent. This renormalizes both overflowed sums and
	// mixed-sign cancellations.
	width := len(res.mant)
	_, idx, nonzero := b.Msb(res.mant, true)

	shiftAmt := b.Sub(NoUnderflow, b.SetConst(8, int64(width-1)),
		b.zeroExtend(idx, 8))
	norm := b.OblivShift(res.mant, shiftAmt, width-1, Left, Trunc, false)
	fraction := norm[width-24 : width-1]

	// exp' = exp + idx - 23, with the hidden position at bit 23.
	expSum := b.Add(Overflow, res.exp, b.zeroExtend(idx, 8))
	expDiff := b.Sub3(Underflow, expSum, b.SetConst(9, 23))
	expUnder := expDiff[9]
	expOver := b.Cmp(GEQ, expDiff[:9], b.SetConst(9, 255))[0]

	out := make([]int, SingleLength)
	copy(out[Mantissa:], fraction)
	copy(out[Exponent:], expDiff[:8])
	out[FloatSign] = res.sign
	out[MantZeroFlag] = res.expZero
	out[ExpZeroFlag] = res.expZero
	out[ExpSpecFlag] = res.expSpec
	out[ZeroFlag] = res.expZero

	hidden := b.Gate(circuit.AND, nonzero, b.Not(expUnder))
	out = b.floatCheckZero(out, hidden)
	out = b.Mux(b.Gate(circuit.AND, expOver, b.Not(expUnder)),
		b.floatNaN(), out)

	out = b.BitMul(out, normalAll)
	return b.GateVec(circuit.XOR, special, out)
}

//
// floatcmp.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// FloatCmp compares two floats. Exponents and significands (with
// reconstructed hidden ones) are compared separately as unsigned
// integers and combined: under equal signs the result follows the
// exponent-then-mantissa magnitude order, reversed for negative
// operands; under mixed signs the negative operand is less. As with
// the integer comparison, order comparisons return two wires
// [requested, A≠B] while EQ and NEQ return one. NaN or infinity
// inputs force the fixed result one. Only the InfEqNaN infinity mode
// is supported.
func (b *Builder) FloatCmp(cmpType CmpType, infMode InfMode,
	inputA, inputB []int) []int {

	defer b.restore(b.unsigned())

	if infMode != InfEqNaN {
		b.setErr(ErrInfMode)
		return []int{b.Zero(), b.Zero()}
	}

	a := copyWires(inputA)
	bv := copyWires(inputB)

	mixed := b.Gate(circuit.XOR, a[FloatSign], bv[FloatSign])
	same := b.Not(mixed)

	mantA := append(copyWires(a[Mantissa:Mantissa+23]), b.Not(a[ExpZeroFlag]))
	mantB := append(copyWires(bv[Mantissa:Mantissa+23]), b.Not(bv[ExpZeroFlag]))

	// Branch swap: the magnitude compare runs on X vs Y where X is
	// the branch operand.
	expX, expY := a[Exponent:Exponent+8], bv[Exponent:Exponent+8]
	mantX, mantY := mantA, mantB
	signX, signY := a[FloatSign], bv[FloatSign]
	if cmpType.branch() == 1 {
		expX, expY = expY, expX
		mantX, mantY = mantY, mantX
		signX, signY = signY, signX
	}

	nan := b.Gate(circuit.OR, a[ExpSpecFlag], bv[ExpSpecFlag])
	noNaN := b.Not(nan)

	if cmpType.eqOnly() {
		expNeq := b.Cmp(NEQ, expX, expY)[0]
		mantNeq := b.Cmp(NEQ, mantX, mantY)[0]

		neq := b.Gate(circuit.OR, mixed, expNeq)
		neq = b.Gate(circuit.OR, neq, mantNeq)

		out := neq
		if cmpType == EQ {
			out = b.Not(out)
		}
		out = b.Gate(circuit.AND, out, noNaN)
		out = b.Gate(circuit.XOR, out, nan)
		return []int{out}
	}

	expCmp := b.Cmp(GRT, expX, expY)
	mantCmp := b.Cmp(GRT, mantX, mantY)
	expGrt, expNeq := expCmp[0], expCmp[1]
	mantGrt, mantNeq := mantCmp[0], mantCmp[1]
	expEq := b.Not(expNeq)

	neq := b.Gate(circuit.OR, mixed, expNeq)
	neq = b.Gate(circuit.OR, neq, mantNeq)

	// |X| > |Y| and |X| ≠ |Y| by magnitude.
	magGrt := b.Gate(circuit.OR, expGrt, b.Gate(circuit.AND, expEq, mantGrt))
	magNeq := b.Gate(circuit.OR, expNeq, mantNeq)
	magLes := b.Gate(circuit.AND, magNeq, b.Not(magGrt))

	// Same sign: positive order follows magnitude, negative order
	// reverses it. Mixed sign: X > Y iff Y is the negative one.
	posCase := b.Gate(circuit.AND, b.Not(signX), magGrt)
	negCase := b.Gate(circuit.AND, signX, magLes)
	sameCase := b.Gate(circuit.AND, same, b.Gate(circuit.OR, posCase, negCase))
	mixedCase := b.Gate(circuit.AND, mixed, signY)
	xGrtY := b.Gate(circuit.OR, sameCase, mixedCase)

	out := xGrtY
	if !cmpType.strict() {
		out = b.Not(out)
	}

	out = b.Gate(circuit.AND, out, noNaN)
	out = b.Gate(circuit.XOR, out, nan)
	neq = b.Gate(circuit.AND, neq, noNaN)
	neq = b.Gate(circuit.XOR, neq, nan)

	return []int{out, neq}
}

// FloatShift multiplies the float by the compile-time power of two by
// adjusting the exponent, with overflow and underflow detection. On
// overflow the result collapses to NaN, on underflow to zero; the
// sign and mantissa are unchanged. Only the InfEqNaN infinity mode is
// supported.
func (b *Builder) FloatShift(amount int, dir Direction, infMode InfMode,
	x []int) []int {

	defer b.restore(b.unsigned())

	if infMode != InfEqNaN {
		b.setErr(ErrInfMode)
		return b.floatZero()
	}

	x = copyWires(x)
	out := copyWires(x)

	amtBits := b.SetConst(8, int64(amount))

	var adjusted []int
	var flowed int
	if dir == Left {
		sum := b.Add(Overflow, x[Exponent:Exponent+8], amtBits)
		// Incrementing makes the carry also catch an exponent of
		// all ones; the increment is removed below.
		sum = b.Inc(NoOverflow, sum)
		flowed = sum[8]
		adjusted = b.Dec(NoUnderflow, sum)[:8]
	} else {
		diff := b.Sub3(Underflow, x[Exponent:Exponent+8], amtBits)
		flowed = diff[8]
		adjusted = diff[:8]
	}
	noFlow := b.Not(flowed)

	copy(out[Exponent:Exponent+8], adjusted)

	var flowedOut []int
	if dir == Left {
		flowedOut = b.BitMul(b.floatNaN(), flowed)
	} else {
		flowedOut = b.BitMul(b.floatZero(), flowed)
	}

	out = b.BitMul(out, noFlow)
	return b.GateVec(circuit.XOR, flowedOut, out)
}

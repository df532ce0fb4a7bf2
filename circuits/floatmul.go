//
// floatmul.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// FloatNeg negates the float by flipping its sign bit.
func (b *Builder) FloatNeg(x []int) []int {
	defer b.restore(b.unsigned())

	out := copyWires(x)
	out[FloatSign] = b.Not(out[FloatSign])
	return out
}

// FloatMul multiplies two floats. The exponents are added and
// de-biased with out-of-range detection (overflow yields NaN,
// underflow yields zero); the 24-bit significands with reconstructed
// hidden ones are multiplied with the integer multiplier, and the
// product is conditionally renormalized by one position. The sign is
// the XOR of the signs and special inputs dominate.
func (b *Builder) FloatMul(x, y []int) []int {
	defer b.restore(b.unsigned())

	normal, special := b.floatCheckSpecial(x, y)

	x = copyWires(x)
	y = copyWires(y)

	expSum := b.Add(Overflow, x[Exponent:Exponent+8], y[Exponent:Exponent+8])

	expOver := b.Cmp(GEQ, expSum, b.SetConst(9, 384))[0]
	expUnder := b.Cmp(LEQ, expSum, b.SetConst(9, 126))[0]
	expNormal := b.Not(b.Gate(circuit.OR, expOver, expUnder))

	mantX := append(copyWires(x[Mantissa:Mantissa+23]), b.Not(x[ExpZeroFlag]))
	mantY := append(copyWires(y[Mantissa:Mantissa+23]), b.Not(y[ExpZeroFlag]))

	prod := b.mul(mantX, mantY)

	ovf := prod[47]
	hidden := b.Gate(circuit.OR, prod[46], prod[47])
	fraction := b.Mux(ovf, prod[24:47], prod[23:46])

	exponent := b.Add(NoOverflow, expSum[:8], b.SetConst(8, -floatBias))
	exponent = b.AddBit(NoOverflow, exponent, ovf)

	out := make([]int, SingleLength)
	copy(out[Mantissa:], fraction)
	copy(out[Exponent:], exponent)
	out[FloatSign] = b.Gate(circuit.XOR, x[FloatSign], y[FloatSign])
	out[MantZeroFlag] = x[MantZeroFlag]
	out[ExpZeroFlag] = x[ExpZeroFlag]
	out[ExpSpecFlag] = b.Zero()
	out[ZeroFlag] = x[ZeroFlag]

	out = b.floatCheckZero(out, hidden)

	nanOut := b.BitMul(b.floatNaN(), expOver)
	zeroOut := b.BitMul(b.floatZero(), expUnder)
	out = b.BitMul(out, expNormal)
	out = b.GateVec(circuit.XOR, nanOut, out)
	out = b.GateVec(circuit.XOR, zeroOut, out)

	out = b.BitMul(out, normal)
	return b.GateVec(circuit.XOR, special, out)
}

// FloatSquare squares the float. The skeleton follows FloatMul but
// the significand goes through the recursive squaring routine, the
// exponent is doubled less the bias, and the sign is forced positive.
func (b *Builder) FloatSquare(x []int) []int {
	defer b.restore(b.unsigned())

	normal, special := b.floatCheckSpecial(x, x)

	x = copyWires(x)

	exp := x[Exponent : Exponent+8]
	doubled := append([]int{b.Zero()}, exp...)
	expOver := b.Cmp(GEQ, doubled, b.SetConst(9, 384))[0]
	expUnder := b.Cmp(LEQ, doubled, b.SetConst(9, 126))[0]
	expNormal := b.Not(b.Gate(circuit.OR, expOver, expUnder))

	mantX := append(copyWires(x[Mantissa:Mantissa+23]), b.Not(x[ExpZeroFlag]))

	prod := b.Square(mantX, squareStop(len(mantX)))

	ovf := prod[47]
	hidden := b.Gate(circuit.OR, prod[46], prod[47])
	fraction := b.Mux(ovf, prod[24:47], prod[23:46])

	exponent := b.Add(NoOverflow, doubled[:8], b.SetConst(8, -floatBias))
	exponent = b.AddBit(NoOverflow, exponent, ovf)

	out := make([]int, SingleLength)
	copy(out[Mantissa:], fraction)
	copy(out[Exponent:], exponent)
	out[FloatSign] = b.Zero()
	out[MantZeroFlag] = x[MantZeroFlag]
	out[ExpZeroFlag] = x[ExpZeroFlag]
	out[ExpSpecFlag] = b.Zero()
	out[ZeroFlag] = x[ZeroFlag]

	out = b.floatCheckZero(out, hidden)

	nanOut := b.BitMul(b.floatNaN(), expOver)
	zeroOut := b.BitMul(b.floatZero(), expUnder)
	out = b.BitMul(out, expNormal)
	out = b.GateVec(circuit.XOR, nanOut, out)
	out = b.GateVec(circuit.XOR, zeroOut, out)

	out = b.BitMul(out, normal)
	return b.GateVec(circuit.XOR, special, out)
}

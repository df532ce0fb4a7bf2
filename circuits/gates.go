//
// gates.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// Gate emits one AND, OR, or XOR gate with constant folding. If
// either input is a fixed wire, or the inputs alias, the gate is
// resolved at build time and no gate is allocated. Every circuit in
// this package is written in terms of Gate so constants propagate
// through the whole library.
func (b *Builder) Gate(op circuit.Op, x, y int) int {
	xZero := b.isZero(x)
	xOne := b.isOne(x)
	yZero := b.isZero(y)
	yOne := b.isOne(y)

	if xZero || xOne || yZero || yOne {
		switch op {
		case circuit.AND:
			if xZero || yZero {
				return b.Zero()
			}
			if xOne {
				return y
			}
			return x

		case circuit.OR:
			if xOne || yOne {
				return b.One()
			}
			if xZero {
				return y
			}
			return x

		case circuit.XOR:
			if xZero {
				return y
			}
			if yZero {
				return x
			}
			if xOne && yOne {
				return b.Zero()
			}
			// XOR with a fixed one is NOT; the gate stays free.
			return b.addGate(circuit.XOR, x, y)
		}
	}

	if x == y {
		switch op {
		case circuit.AND, circuit.OR:
			return x
		case circuit.XOR:
			return b.Zero()
		}
	}

	return b.addGate(op, x, y)
}

// Not negates the wire as XOR with the fixed-one wire, keeping the
// gate kernel uniform.
func (b *Builder) Not(x int) int {
	return b.Gate(circuit.XOR, x, b.One())
}

// GateVec applies the gate operation bitwise over two equal-length
// wire vectors.
func (b *Builder) GateVec(op circuit.Op, xs, ys []int) []int {
	xs = copyWires(xs)
	ys = copyWires(ys)

	result := make([]int, len(xs))
	for i := range xs {
		result[i] = b.Gate(op, xs[i], ys[i])
	}
	return result
}

// NotVec negates every wire in the vector.
func (b *Builder) NotVec(xs []int) []int {
	xs = copyWires(xs)

	result := make([]int, len(xs))
	for i, x := range xs {
		result[i] = b.Not(x)
	}
	return result
}

// BitMul multiplies the n-bit value by a single bit: a broadcast AND.
func (b *Builder) BitMul(xs []int, bit int) []int {
	xs = copyWires(xs)

	result := make([]int, len(xs))
	for i, x := range xs {
		result[i] = b.Gate(circuit.AND, x, bit)
	}
	return result
}

// Mux selects bitwise between two equal-length vectors: sel == 1
// yields xs, sel == 0 yields ys.
func (b *Builder) Mux(sel int, xs, ys []int) []int {
	notSel := b.Not(sel)
	hi := b.BitMul(xs, sel)
	lo := b.BitMul(ys, notSel)
	return b.GateVec(circuit.XOR, hi, lo)
}

func copyWires(xs []int) []int {
	result := make([]int, len(xs))
	copy(result, xs)
	return result
}

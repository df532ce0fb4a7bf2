//
// subtractor.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// sub22 is a half subtractor: difference and borrow of x - y.
func (b *Builder) sub22(x, y int) (diff, borrow int) {
	notX := b.Not(x)
	diff = b.Gate(circuit.XOR, x, y)
	borrow = b.Gate(circuit.AND, notX, y)
	return
}

// sub32 is a full subtractor for x - y with borrow-in.
func (b *Builder) sub32(x, y, bin int) (diff, bout int) {
	notX := b.Not(x)
	w1 := b.Gate(circuit.AND, bin, y)
	w2 := b.Gate(circuit.XOR, bin, y)
	diff = b.Gate(circuit.XOR, x, w2)
	w3 := b.Gate(circuit.AND, notX, w2)
	bout = b.Gate(circuit.XOR, w1, w3)
	return
}

// Neg is two's-complement negation: increment of the bitwise
// complement.
func (b *Builder) Neg(x []int) []int {
	return b.Inc(NoOverflow, b.NotVec(x))
}

// Sub computes x - y as x + (-y). With Underflow the final carry bit
// is retained.
func (b *Builder) Sub(mode OverflowMode, x, y []int) []int {
	x = copyWires(x)
	negY := b.Neg(y)

	addMode := NoOverflow
	if mode.keep() {
		addMode = Overflow
	}
	return b.addCarry(addMode, x, negY, -1)
}

// Sub3 computes x - y with a direct ripple-borrow subtractor. With
// Underflow the final borrow bit is retained and set when x < y;
// both inputs are treated as unsigned.
func (b *Builder) Sub3(mode OverflowMode, x, y []int) []int {
	x = copyWires(x)
	y = copyWires(y)
	n := len(x)

	outLen := n
	if mode.keep() {
		outLen++
	}
	result := make([]int, outLen)

	var borrow int = -1
	for i := 0; i < n; i++ {
		last := i == n-1
		switch {
		case borrow < 0:
			if last && !mode.keep() {
				result[i] = b.Gate(circuit.XOR, x[i], y[i])
			} else {
				result[i], borrow = b.sub22(x[i], y[i])
			}
		case last && !mode.keep():
			s := b.Gate(circuit.XOR, x[i], borrow)
			result[i] = b.Gate(circuit.XOR, y[i], s)
		default:
			result[i], borrow = b.sub32(x[i], y[i], borrow)
		}
	}
	if mode.keep() {
		result[n] = borrow
	}
	return result
}

// SubBit subtracts a single bit from the n-bit input, rippling with
// half subtractors only.
func (b *Builder) SubBit(mode OverflowMode, x []int, bit int) []int {
	x = copyWires(x)
	n := len(x)

	outLen := n
	if mode.keep() {
		outLen++
	}
	result := make([]int, outLen)

	borrow := bit
	for i := 0; i < n; i++ {
		if i == n-1 && !mode.keep() {
			result[i] = b.Gate(circuit.XOR, x[i], borrow)
		} else {
			result[i], borrow = b.sub22(x[i], borrow)
		}
	}
	if mode.keep() {
		result[n] = borrow
	}
	return result
}

// Dec decrements the input by one.
func (b *Builder) Dec(mode OverflowMode, x []int) []int {
	return b.SubBit(mode, x, b.One())
}

// ReprSwitch toggles the words between signed and unsigned
// representation by flipping the most significant bit of each word.
func (b *Builder) ReprSwitch(words [][]int) [][]int {
	result := make([][]int, len(words))
	for i, w := range words {
		out := copyWires(w)
		out[len(out)-1] = b.Not(out[len(out)-1])
		result[i] = out
	}
	return result
}

//
// adder.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// OverflowMode selects whether the final carry or borrow bit of an
// arithmetic operation is retained in the result.
type OverflowMode int

// Overflow handling modes.
const (
	Overflow OverflowMode = iota
	NoOverflow
	Underflow
	NoUnderflow
)

func (m OverflowMode) keep() bool {
	return m == Overflow || m == Underflow
}

// add22 is a half adder: sum and carry of two bits.
func (b *Builder) add22(x, y int) (sum, carry int) {
	sum = b.Gate(circuit.XOR, x, y)
	carry = b.Gate(circuit.AND, x, y)
	return
}

// add32 is a full adder built from three XORs and one AND:
//
//	s = x ⊕ y ⊕ cin
//	cout = x ⊕ ((x ⊕ cin) ∧ (x ⊕ y))
func (b *Builder) add32(x, y, cin int) (sum, cout int) {
	w1 := b.Gate(circuit.XOR, x, cin)
	w2 := b.Gate(circuit.XOR, x, y)
	sum = b.Gate(circuit.XOR, cin, w2)
	w3 := b.Gate(circuit.AND, w1, w2)
	cout = b.Gate(circuit.XOR, x, w3)
	return
}

// Add computes x + y over two equal-length inputs with a ripple-carry
// adder. With Overflow the final carry is retained and the result is
// one bit wider than the inputs.
func (b *Builder) Add(mode OverflowMode, x, y []int) []int {
	return b.addCarry(mode, x, y, -1)
}

// addCarry is Add with an optional carry-in wire (cin < 0 for none).
func (b *Builder) addCarry(mode OverflowMode, x, y []int, cin int) []int {
	x = copyWires(x)
	y = copyWires(y)
	n := len(x)

	outLen := n
	if mode.keep() {
		outLen++
	}
	result := make([]int, outLen)

	carry := cin
	for i := 0; i < n; i++ {
		last := i == n-1
		switch {
		case carry < 0:
			if last && !mode.keep() {
				result[i] = b.Gate(circuit.XOR, x[i], y[i])
			} else {
				result[i], carry = b.add22(x[i], y[i])
			}
		case last && !mode.keep():
			s := b.Gate(circuit.XOR, x[i], carry)
			result[i] = b.Gate(circuit.XOR, y[i], s)
		default:
			result[i], carry = b.add32(x[i], y[i], carry)
		}
	}
	if mode.keep() {
		result[n] = carry
	}
	return result
}

// AddBit adds a single bit to the n-bit input, rippling with half
// adders only.
func (b *Builder) AddBit(mode OverflowMode, x []int, bit int) []int {
	x = copyWires(x)
	n := len(x)

	outLen := n
	if mode.keep() {
		outLen++
	}
	result := make([]int, outLen)

	carry := bit
	for i := 0; i < n; i++ {
		if i == n-1 && !mode.keep() {
			result[i] = b.Gate(circuit.XOR, x[i], carry)
		} else {
			result[i], carry = b.add22(x[i], carry)
		}
	}
	if mode.keep() {
		result[n] = carry
	}
	return result
}

// Inc increments the input by one.
func (b *Builder) Inc(mode OverflowMode, x []int) []int {
	return b.AddBit(mode, x, b.One())
}

// Sum adds the equal-width inputs with a balanced binary tree of
// adders. The result is input-width + 1 + ⌊lg(k-1)⌋ bits wide so no
// addition overflows; odd counts are folded into position zero before
// halving.
func (b *Builder) Sum(inputs [][]int) []int {
	if len(inputs) == 0 {
		return nil
	}
	if len(inputs) == 1 {
		return copyWires(inputs[0])
	}

	width := len(inputs[0]) + 1 + lgFloor(len(inputs)-1)
	values := make([][]int, len(inputs))
	for i, in := range inputs {
		values[i] = b.zeroExtend(in, width)
	}

	for len(values) > 1 {
		if len(values)%2 != 0 {
			values[0] = b.Add(NoOverflow, values[0], values[len(values)-1])
			values = values[:len(values)-1]
		}
		next := make([][]int, 0, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			next = append(next, b.Add(NoOverflow, values[i], values[i+1]))
		}
		values = next
	}
	return values[0]
}

// lgFloor returns ⌊lg x⌋ for x ≥ 1 and 0 otherwise.
func lgFloor(x int) int {
	var r int
	for x > 1 {
		x >>= 1
		r++
	}
	return r
}

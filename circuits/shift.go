//
// shift.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// ShiftMode selects between truncating and circular shifts.
type ShiftMode int

// Shift modes.
const (
	Trunc ShiftMode = iota
	Circular
)

// Shift shifts the input by the compile-time amount. With Trunc the
// vacated positions are filled with the fixed-zero wire, or with the
// fixed-one wire for a right shift of a negative value (arithmetic
// shift).
func (b *Builder) Shift(x []int, amount int, dir Direction, mode ShiftMode,
	negative bool) []int {

	x = copyWires(x)
	n := len(x)
	result := make([]int, n)

	for i := 0; i < n; i++ {
		var j int
		var wrapped bool
		if dir == Left {
			j = i + amount
			wrapped = j >= n
		} else {
			j = i - amount
			wrapped = j < 0
		}
		j = ((j % n) + n) % n

		if !wrapped || mode == Circular {
			result[j] = x[i]
		} else if negative && dir == Right {
			result[j] = b.One()
		} else {
			result[j] = b.Zero()
		}
	}
	return result
}

// OblivShift shifts the input by an oblivious amount: a log-stage
// barrel shifter of MUX stages. The amount is read from the low
// 1+⌊lg maxShift⌋ wires of amount.
func (b *Builder) OblivShift(x []int, amount []int, maxShift int,
	dir Direction, mode ShiftMode, negative bool) []int {

	shiftBits := 1 + lgFloor(maxShift)
	if shiftBits > len(amount) {
		shiftBits = len(amount)
	}

	shifted := copyWires(x)
	shiftAmount := 1

	for i := 0; i < shiftBits; i++ {
		prev := shifted
		moved := b.Shift(prev, shiftAmount, dir, mode, negative)

		notBit := b.Not(amount[i])
		set := b.BitMul(moved, amount[i])
		unset := b.BitMul(prev, notBit)
		shifted = b.GateVec(circuit.XOR, set, unset)

		shiftAmount *= 2
	}
	return shifted
}

//
// compare.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// CmpType selects the comparison A CMP B. The low bit selects the
// branch operand, bit 1 selects strict inequality, and bit 2 selects
// equality-only tests.
type CmpType int

// Comparison types.
const (
	LEQ CmpType = iota
	GEQ
	GRT
	LES
	NEQ
	EQ
)

func (c CmpType) String() string {
	switch c {
	case LEQ:
		return "LEQ"
	case GEQ:
		return "GEQ"
	case GRT:
		return "GRT"
	case LES:
		return "LES"
	case NEQ:
		return "NEQ"
	case EQ:
		return "EQ"
	default:
		return "unknown"
	}
}

func (c CmpType) eqOnly() bool {
	return c&4 != 0
}

func (c CmpType) strict() bool {
	return c&2 != 0
}

func (c CmpType) branch() int {
	return int(c) & 1
}

// Cmp compares the two equal-length inputs. For EQ and NEQ the result
// is a single wire. For the order comparisons the result is two
// wires: the requested comparison and A ≠ B, so all relations between
// A and B are available from one call.
//
// The algorithm XORs the inputs, runs a prefix-OR from the MSB to
// find the highest differing bit, isolates it with an inverse
// prefix-XOR, ANDs the mask with the branch operand, and collapses
// the single set bit with a prefix-XOR. In signed mode the sign bits
// are flipped before the comparison; for the order comparisons the
// result bit is flipped after, while EQ and NEQ return unflipped.
func (b *Builder) Cmp(cmpType CmpType, inputA, inputB []int) []int {
	a := copyWires(inputA)
	bv := copyWires(inputB)
	n := len(a)

	if b.IntMode == Signed {
		words := b.ReprSwitch([][]int{a, bv})
		a, bv = words[0], words[1]
	}

	diff := b.GateVec(circuit.XOR, a, bv)
	pref := b.prefixOrMSB(diff)
	isNotEq := pref[0]

	if cmpType.eqOnly() {
		out := isNotEq
		if cmpType == EQ {
			out = b.Not(out)
		}
		return []int{out}
	}

	ext := b.zeroExtend(pref, n+1)
	adj := b.InvPrefixXor(ext, 0, n, 0, FromLSB, FromLSB)
	mask := b.Shift(adj, 1, Right, Trunc, false)[:n]

	branch := a
	if cmpType.branch() == 1 {
		branch = bv
	}
	conj := b.GateVec(circuit.AND, mask, branch)
	// At most one bit of conj is set, so a prefix-XOR collapses it.
	collapsed := b.Prefix(circuit.XOR, conj, n-1, 0, n-1, FromMSB, FromMSB)

	out := collapsed[0]
	if !cmpType.strict() {
		out = b.Not(out)
	}
	if b.IntMode == Signed {
		out = b.Not(out)
	}
	return []int{out, isNotEq}
}

// MiniMax returns the minimum and maximum of the two inputs via a
// single comparison and a bit-multiplex.
func (b *Builder) MiniMax(inputA, inputB []int) (min, max []int) {
	a := copyWires(inputA)
	bv := copyWires(inputB)

	aLesB := b.Cmp(LES, a, bv)[0]
	aGeqB := b.Not(aLesB)

	minCase1 := b.BitMul(a, aLesB)
	minCase2 := b.BitMul(bv, aGeqB)
	min = b.GateVec(circuit.XOR, minCase1, minCase2)

	maxCase1 := b.BitMul(bv, aLesB)
	maxCase2 := b.BitMul(a, aGeqB)
	max = b.GateVec(circuit.XOR, maxCase1, maxCase2)
	return
}

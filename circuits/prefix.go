//
// prefix.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// Direction selects the iteration direction of the cyclic prefix
// operations and the shift direction of the shifters.
type Direction int

// Iteration and shift directions.
const (
	FromLSB Direction = iota
	FromMSB
	Left  = FromLSB
	Right = FromMSB
)

func step(n, idx int, dir Direction) int {
	if dir == FromLSB {
		return (n + idx + 1) % n
	}
	return (n + idx - 1) % n
}

// Prefix computes the cyclic prefix of the AND, OR, or XOR operation:
// inputs[inBegin] is copied to outputs[outBegin] and the running
// operation moves in inDir while the outputs move in outDir, with
// modular wraparound on all indices.
func (b *Builder) Prefix(op circuit.Op, inputs []int,
	inBegin, inEnd, outBegin int, inDir, outDir Direction) []int {

	inputs = copyWires(inputs)
	n := len(inputs)
	outputs := make([]int, n)

	outIdx := outBegin
	inIdx := inBegin
	next := inputs[inIdx]

	for inIdx != inEnd {
		outputs[outIdx] = next
		inIdx = step(n, inIdx, inDir)
		next = b.Gate(op, outputs[outIdx], inputs[inIdx])
		outIdx = step(n, outIdx, outDir)
	}
	outputs[outIdx] = next

	return outputs
}

// InvPrefixXor computes the inverse of the cyclic prefix-XOR: the XOR
// of each adjacent input pair. Equivalently, from the LSB the result
// is a ⊕ (a << 1) and from the MSB it is a ⊕ (a >> 1).
func (b *Builder) InvPrefixXor(inputs []int,
	inBegin, inEnd, outBegin int, inDir, outDir Direction) []int {

	inputs = copyWires(inputs)
	n := len(inputs)
	outputs := make([]int, n)

	outIdx := outBegin
	inIdx := inBegin
	next := inputs[inIdx]

	for inIdx != inEnd {
		prev := inIdx
		inIdx = step(n, inIdx, inDir)
		outputs[outIdx] = next
		next = b.Gate(circuit.XOR, inputs[prev], inputs[inIdx])
		outIdx = step(n, outIdx, outDir)
	}
	outputs[outIdx] = next

	return outputs
}

// prefixOrMSB returns p where p[i] = OR(x[i..n-1]).
func (b *Builder) prefixOrMSB(x []int) []int {
	n := len(x)
	return b.Prefix(circuit.OR, x, n-1, 0, n-1, FromMSB, FromMSB)
}

//
// msb.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// Msb locates the most significant set bit of the input. It returns a
// mask with only that bit set, optionally the ⌈lg n⌉-bit oblivious
// index of the bit, and a wire that is one iff any input bit is set.
// The mask is computed as a prefix-OR from the MSB followed by an
// inverse prefix-XOR and a one-bit right shift.
func (b *Builder) Msb(x []int, withIndex bool) (
	mask []int, index []int, isNotZero int) {

	n := len(x)

	pref := b.prefixOrMSB(x)
	isNotZero = pref[0]

	ext := b.zeroExtend(pref, n+1)
	adj := b.InvPrefixXor(ext, 0, n, 0, FromLSB, FromLSB)
	adj = b.Shift(adj, 1, Right, Trunc, false)
	mask = copyWires(adj[:n])

	if !withIndex {
		return mask, nil, isNotZero
	}

	l := 1 + lgFloor(n-1)
	index = b.zeros(l)
	for i := 0; i < n; i++ {
		repr := b.SetConst(l, int64(i))
		sel := b.BitMul(repr, mask[i])
		index = b.GateVec(circuit.XOR, sel, index)
	}
	return mask, index, isNotZero
}

//
// countbits.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

// CountBits counts the set bits of the input, producing a population
// count of width ⌈lg(n+1)⌉ or slightly above for awkward n. A seed
// round of full adders keeps one bit per adder out of the sum proper,
// compressing the bits three at a time, and each following round adds
// count pairs so the width grows by one bit per round.
func (b *Builder) CountBits(bits []int) []int {
	bits = copyWires(bits)

	if len(bits) == 1 {
		return bits
	}

	// Seed round: each full adder turns three bits into a two-bit
	// count.
	var counts [][]int
	pool := bits
	for len(pool) >= 3 {
		sum, carry := b.add32(pool[0], pool[1], pool[2])
		pool = pool[3:]
		counts = append(counts, []int{sum, carry})
	}
	for _, bit := range pool {
		counts = append(counts, []int{bit, b.Zero()})
	}

	for len(counts) > 1 {
		var next [][]int
		i := 0
		for ; i+1 < len(counts); i += 2 {
			next = append(next, b.Add(Overflow, counts[i], counts[i+1]))
		}
		if i < len(counts) {
			next = append(next, b.zeroExtend(counts[i], len(counts[i])+1))
		}
		counts = next
	}
	return counts[0]
}

//
// sha2.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// SHA-256 per FIPS 180-4 as a Boolean circuit. The message is a bit
// vector in transmission order: bit i is bit i%8 (LSB first) of
// message byte i/8. The padding bits are fixed wires, so the schedule
// of the final block folds substantially. The digest is returned in
// the same bit order.

var sha2K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5,
	0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3,
	0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc,
	0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7,
	0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13,
	0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3,
	0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5,
	0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208,
	0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

var sha2H0 = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// rotr32 rotates the LSB-first 32-bit word right by r positions.
func rotr32(w []int, r int) []int {
	out := make([]int, 32)
	for i := 0; i < 32; i++ {
		out[i] = w[(i+r)%32]
	}
	return out
}

// shr32 shifts the LSB-first 32-bit word right by s positions.
func (b *Builder) shr32(w []int, s int) []int {
	out := make([]int, 32)
	for i := 0; i < 32-s; i++ {
		out[i] = w[i+s]
	}
	for i := 32 - s; i < 32; i++ {
		out[i] = b.Zero()
	}
	return out
}

func (b *Builder) xor3(x, y, z []int) []int {
	return b.GateVec(circuit.XOR, b.GateVec(circuit.XOR, x, y), z)
}

// shaCh computes Ch(x,y,z) = (x ∧ y) ⊕ (¬x ∧ z) bitwise.
func (b *Builder) shaCh(x, y, z []int) []int {
	out := make([]int, len(x))
	for i := range x {
		xy := b.Gate(circuit.AND, x[i], y[i])
		nxz := b.Gate(circuit.AND, b.Not(x[i]), z[i])
		out[i] = b.Gate(circuit.XOR, xy, nxz)
	}
	return out
}

// shaMaj computes Maj(x,y,z) = (x ∧ y) ⊕ (x ∧ z) ⊕ (y ∧ z) bitwise.
func (b *Builder) shaMaj(x, y, z []int) []int {
	out := make([]int, len(x))
	for i := range x {
		xy := b.Gate(circuit.AND, x[i], y[i])
		xz := b.Gate(circuit.AND, x[i], z[i])
		yz := b.Gate(circuit.AND, y[i], z[i])
		out[i] = b.Gate(circuit.XOR, b.Gate(circuit.XOR, xy, xz), yz)
	}
	return out
}

func (b *Builder) addMod32(x, y []int) []int {
	return b.Add(NoOverflow, x, y)
}

// SHA2 hashes the message bits with SHA-256 and returns the 256
// digest bits.
func (b *Builder) SHA2(message []int) []int {
	defer b.restore(b.unsigned())

	message = copyWires(message)
	length := len(message)

	// Pad: append 1, zeros, and the 64-bit big-endian bit length so
	// the total is a multiple of 512. In the bit-string order used by
	// the compression function the appended one is the MSB of the
	// byte following the message.
	bits := messageToShaOrder(message)
	bits = append(bits, b.One())
	for len(bits)%512 != 448 {
		bits = append(bits, b.Zero())
	}
	for i := 63; i >= 0; i-- {
		if (uint64(length)>>uint(i))&1 != 0 {
			bits = append(bits, b.One())
		} else {
			bits = append(bits, b.Zero())
		}
	}

	// Initial hash value.
	h := make([][]int, 8)
	for i, v := range sha2H0 {
		h[i] = b.SetConst(32, int64(v))
	}

	for block := 0; block < len(bits); block += 512 {
		var w [64][]int
		for t := 0; t < 16; t++ {
			// Word bit 31-k is message bit 32t+k.
			word := make([]int, 32)
			for k := 0; k < 32; k++ {
				word[31-k] = bits[block+32*t+k]
			}
			w[t] = word
		}
		for t := 16; t < 64; t++ {
			s0 := b.xor3(rotr32(w[t-15], 7), rotr32(w[t-15], 18),
				b.shr32(w[t-15], 3))
			s1 := b.xor3(rotr32(w[t-2], 17), rotr32(w[t-2], 19),
				b.shr32(w[t-2], 10))
			sum := b.addMod32(w[t-16], s0)
			sum = b.addMod32(sum, w[t-7])
			w[t] = b.addMod32(sum, s1)
		}

		a, bb, c, d := h[0], h[1], h[2], h[3]
		e, f, g, hh := h[4], h[5], h[6], h[7]

		for t := 0; t < 64; t++ {
			S1 := b.xor3(rotr32(e, 6), rotr32(e, 11), rotr32(e, 25))
			ch := b.shaCh(e, f, g)
			t1 := b.addMod32(hh, S1)
			t1 = b.addMod32(t1, ch)
			t1 = b.addMod32(t1, b.SetConst(32, int64(sha2K[t])))
			t1 = b.addMod32(t1, w[t])

			S0 := b.xor3(rotr32(a, 2), rotr32(a, 13), rotr32(a, 22))
			maj := b.shaMaj(a, bb, c)
			t2 := b.addMod32(S0, maj)

			hh = g
			g = f
			f = e
			e = b.addMod32(d, t1)
			d = c
			c = bb
			bb = a
			a = b.addMod32(t1, t2)
		}

		h[0] = b.addMod32(h[0], a)
		h[1] = b.addMod32(h[1], bb)
		h[2] = b.addMod32(h[2], c)
		h[3] = b.addMod32(h[3], d)
		h[4] = b.addMod32(h[4], e)
		h[5] = b.addMod32(h[5], f)
		h[6] = b.addMod32(h[6], g)
		h[7] = b.addMod32(h[7], hh)
	}

	// Digest words back to transmission bit order.
	out := make([]int, 256)
	for u := 0; u < 8; u++ {
		for i := 0; i < 32; i++ {
			out[(4*u+(3-i/8))*8+i%8] = h[u][i]
		}
	}
	return out
}

// messageToShaOrder reorders transmission-order bits (LSB first per
// byte) into the big-endian bit-string order of FIPS 180-4. A partial
// final byte keeps its low bits.
func messageToShaOrder(message []int) []int {
	out := make([]int, 0, len(message))
	for base := 0; base < len(message); base += 8 {
		end := base + 8
		if end > len(message) {
			end = len(message)
		}
		for i := end - 1; i >= base; i-- {
			out = append(out, message[i])
		}
	}
	return out
}

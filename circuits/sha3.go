//
// sha3.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
)

// SHA3-256 per FIPS 202 as a Boolean circuit. The Keccak state is an
// explicit 5x5x64 wire array addressed as state[x][y][z]; the message
// bit order is Keccak's native order, which matches the transmission
// order used throughout the protocol (bit i is bit i%8 of byte i/8).

const (
	sha3Rate = 1088
)

var sha3RC = [24]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

var sha3Rho = [5][5]int{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 39, 8, 14, 8},
}

type keccakState [5][5][64]int

func (b *Builder) keccakTheta(a *keccakState) {
	var c [5][64]int
	for x := 0; x < 5; x++ {
		for z := 0; z < 64; z++ {
			w := a[x][0][z]
			for y := 1; y < 5; y++ {
				w = b.Gate(circuit.XOR, w, a[x][y][z])
			}
			c[x][z] = w
		}
	}
	var d [5][64]int
	for x := 0; x < 5; x++ {
		for z := 0; z < 64; z++ {
			d[x][z] = b.Gate(circuit.XOR, c[(x+4)%5][z], c[(x+1)%5][(z+63)%64])
		}
	}
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 64; z++ {
				a[x][y][z] = b.Gate(circuit.XOR, a[x][y][z], d[x][z])
			}
		}
	}
}

func keccakRhoPi(a *keccakState) {
	var out keccakState
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			r := sha3Rho[x][y]
			for z := 0; z < 64; z++ {
				out[y][(2*x+3*y)%5][(z+r)%64] = a[x][y][z]
			}
		}
	}
	*a = out
}

func (b *Builder) keccakChi(a *keccakState) {
	var out keccakState
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			for z := 0; z < 64; z++ {
				notNext := b.Not(a[(x+1)%5][y][z])
				and := b.Gate(circuit.AND, notNext, a[(x+2)%5][y][z])
				out[x][y][z] = b.Gate(circuit.XOR, a[x][y][z], and)
			}
		}
	}
	*a = out
}

func (b *Builder) keccakIota(a *keccakState, round int) {
	rc := sha3RC[round]
	for z := 0; z < 64; z++ {
		if (rc>>uint(z))&1 != 0 {
			a[0][0][z] = b.Not(a[0][0][z])
		}
	}
}

func (b *Builder) keccakF(a *keccakState) {
	for round := 0; round < 24; round++ {
		b.keccakTheta(a)
		keccakRhoPi(a)
		b.keccakChi(a)
		b.keccakIota(a, round)
	}
}

// SHA3 hashes the message bits with SHA3-256 and returns the 256
// digest bits.
func (b *Builder) SHA3(message []int) []int {
	defer b.restore(b.unsigned())

	message = copyWires(message)

	// Pad: domain suffix 01, then the 10*1 pad, to a multiple of the
	// rate.
	padded := append(message, b.Zero(), b.One(), b.One())
	for (len(padded)+1)%sha3Rate != 0 {
		padded = append(padded, b.Zero())
	}
	padded = append(padded, b.One())

	var state keccakState
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 64; z++ {
				state[x][y][z] = b.Zero()
			}
		}
	}

	for block := 0; block < len(padded); block += sha3Rate {
		for i := 0; i < sha3Rate; i++ {
			lane := i / 64
			x := lane % 5
			y := lane / 5
			z := i % 64
			state[x][y][z] = b.Gate(circuit.XOR, state[x][y][z],
				padded[block+i])
		}
		b.keccakF(&state)
	}

	out := make([]int, 256)
	for i := 0; i < 256; i++ {
		lane := i / 64
		out[i] = state[lane%5][lane/5][i%64]
	}
	return out
}

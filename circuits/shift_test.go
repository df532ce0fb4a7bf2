//
// shift_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"math/bits"
	"math/rand"
	"testing"
)

func TestShift(t *testing.T) {
	const n = 8
	rng := rand.New(rand.NewSource(55))

	for iter := 0; iter < 20; iter++ {
		v := rng.Uint64() & 0xff
		amount := rng.Intn(n)

		cases := []struct {
			name     string
			dir      Direction
			mode     ShiftMode
			negative bool
			expected uint64
		}{
			{"shl", Left, Trunc, false, (v << uint(amount)) & 0xff},
			{"shr", Right, Trunc, false, v >> uint(amount)},
			{"rol", Left, Circular, false,
				uint64(bits.RotateLeft8(uint8(v), amount))},
			{"asr", Right, Trunc, true,
				(v >> uint(amount)) | (0xff &^ (0xff >> uint(amount)))},
		}
		for _, c := range cases {
			out := buildAndRun(t, Unsigned, uintBits(v, n),
				func(b *Builder) []int {
					return b.Shift(inputRange(b, 0, n), amount,
						c.dir, c.mode, c.negative)
				})
			if got := bitsToUint(out); got != c.expected {
				t.Errorf("%s %#x by %d: got %#x, expected %#x",
					c.name, v, amount, got, c.expected)
			}
		}
	}
}

func TestOblivShift(t *testing.T) {
	const n = 8
	const maxShift = 7
	rng := rand.New(rand.NewSource(56))

	for iter := 0; iter < 20; iter++ {
		v := rng.Uint64() & 0xff
		amount := uint64(rng.Intn(maxShift + 1))

		shiftBits := 1 + lgFloor(maxShift)
		inputs := catBits(uintBits(v, n), uintBits(amount, shiftBits))

		out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			return b.OblivShift(inputRange(b, 0, n),
				inputRange(b, n, shiftBits), maxShift, Left, Trunc, false)
		})
		if got := bitsToUint(out); got != (v<<amount)&0xff {
			t.Errorf("oblv shl %#x by %d: got %#x", v, amount, got)
		}

		out = buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			return b.OblivShift(inputRange(b, 0, n),
				inputRange(b, n, shiftBits), maxShift, Right, Trunc, false)
		})
		if got := bitsToUint(out); got != v>>amount {
			t.Errorf("oblv shr %#x by %d: got %#x", v, amount, got)
		}
	}
}

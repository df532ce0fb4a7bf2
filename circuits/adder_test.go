//
// adder_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

import (
	"math/rand"
	"testing"
)

func TestAdd(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 2, 8, 16} {
		for iter := 0; iter < 20; iter++ {
			x := rng.Uint64() & ((1 << uint(n)) - 1)
			y := rng.Uint64() & ((1 << uint(n)) - 1)

			inputs := catBits(uintBits(x, n), uintBits(y, n))

			out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
				return b.Add(Overflow,
					inputRange(b, 0, n), inputRange(b, n, n))
			})
			if got := bitsToUint(out); got != x+y {
				t.Errorf("n=%d: %d+%d: got %d", n, x, y, got)
			}

			out = buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
				return b.Add(NoOverflow,
					inputRange(b, 0, n), inputRange(b, n, n))
			})
			if got := bitsToUint(out); got != (x+y)&((1<<uint(n))-1) {
				t.Errorf("n=%d: %d+%d mod: got %d", n, x, y, got)
			}
		}
	}
}

func TestSub(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	const n = 12

	for iter := 0; iter < 30; iter++ {
		x := rng.Uint64() & ((1 << n) - 1)
		y := rng.Uint64() & ((1 << n) - 1)

		inputs := catBits(uintBits(x, n), uintBits(y, n))

		out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			return b.Sub(NoUnderflow,
				inputRange(b, 0, n), inputRange(b, n, n))
		})
		if got := bitsToUint(out); got != (x-y)&((1<<n)-1) {
			t.Errorf("%d-%d: got %d", x, y, got)
		}

		// Direct ripple-borrow variant with borrow bit.
		out = buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			return b.Sub3(Underflow,
				inputRange(b, 0, n), inputRange(b, n, n))
		})
		if got := bitsToUint(out[:n]); got != (x-y)&((1<<n)-1) {
			t.Errorf("sub3 %d-%d: got %d", x, y, got)
		}
		borrow := out[n]
		if borrow != (x < y) {
			t.Errorf("sub3 %d-%d: borrow %v", x, y, borrow)
		}
	}
}

func TestIncDec(t *testing.T) {
	const n = 8
	for _, v := range []uint64{0, 1, 127, 254, 255} {
		out := buildAndRun(t, Unsigned, uintBits(v, n), func(b *Builder) []int {
			return b.Inc(NoOverflow, inputRange(b, 0, n))
		})
		if got := bitsToUint(out); got != (v+1)&0xff {
			t.Errorf("inc %d: got %d", v, got)
		}

		out = buildAndRun(t, Unsigned, uintBits(v, n), func(b *Builder) []int {
			return b.Dec(NoUnderflow, inputRange(b, 0, n))
		})
		if got := bitsToUint(out); got != (v-1)&0xff {
			t.Errorf("dec %d: got %d", v, got)
		}
	}
}

func TestNegInvolution(t *testing.T) {
	const n = 10
	rng := rand.New(rand.NewSource(44))

	for iter := 0; iter < 20; iter++ {
		v := rng.Uint64() & ((1 << n) - 1)

		out := buildAndRun(t, Unsigned, uintBits(v, n), func(b *Builder) []int {
			return b.Neg(b.Neg(inputRange(b, 0, n)))
		})
		if got := bitsToUint(out); got != v {
			t.Errorf("neg(neg(%d)): got %d", v, got)
		}
	}
}

func TestSum(t *testing.T) {
	const n = 8
	rng := rand.New(rand.NewSource(45))

	for _, k := range []int{1, 2, 3, 5, 8} {
		values := make([]uint64, k)
		var expected uint64
		var inputs []bool
		for i := range values {
			values[i] = rng.Uint64() & 0xff
			expected += values[i]
			inputs = append(inputs, uintBits(values[i], n)...)
		}

		out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			words := make([][]int, k)
			for i := 0; i < k; i++ {
				words[i] = inputRange(b, i*n, n)
			}
			return b.Sum(words)
		})
		if got := bitsToUint(out); got != expected {
			t.Errorf("sum k=%d: got %d, expected %d", k, got, expected)
		}
		if k > 1 {
			expectedWidth := n + 1 + lgFloor(k-1)
			if len(out) != expectedWidth {
				t.Errorf("sum k=%d: width %d, expected %d",
					k, len(out), expectedWidth)
			}
		}
	}
}

func TestSumBoundaries(t *testing.T) {
	const n = 8
	const k = 8

	// All zeros.
	inputs := make([]bool, k*n)
	out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
		words := make([][]int, k)
		for i := 0; i < k; i++ {
			words[i] = inputRange(b, i*n, n)
		}
		return b.Sum(words)
	})
	if got := bitsToUint(out); got != 0 {
		t.Errorf("sum of zeros: got %d", got)
	}

	// All maximal.
	for i := range inputs {
		inputs[i] = true
	}
	out = buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
		words := make([][]int, k)
		for i := 0; i < k; i++ {
			words[i] = inputRange(b, i*n, n)
		}
		return b.Sum(words)
	})
	if got := bitsToUint(out); got != k*255 {
		t.Errorf("sum of max: got %d, expected %d", got, k*255)
	}
}

func TestSetConst(t *testing.T) {
	for _, v := range []int64{0, 1, 100, 255} {
		out := buildAndRun(t, Unsigned, nil, func(b *Builder) []int {
			return b.SetConst(8, v)
		})
		if got := bitsToUint(out); got != uint64(v) {
			t.Errorf("const %d: got %d", v, got)
		}
	}

	// Signed mode negates the MSB.
	out := buildAndRun(t, Signed, nil, func(b *Builder) []int {
		return b.SetConst(8, 0x80)
	})
	if got := bitsToUint(out); got != 0 {
		t.Errorf("signed const 0x80: got %#x", got)
	}
}

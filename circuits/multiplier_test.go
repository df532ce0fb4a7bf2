//
// multiplier_test.go
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

func TestMulUnsigned(t *testing.T) {
	rng := rand.New(rand.NewSource(50))

	for _, n := range []int{1, 2, 4, 8, 12} {
		for iter := 0; iter < 15; iter++ {
			x := rng.Uint64() & ((1 << uint(n)) - 1)
			y := rng.Uint64() & ((1 << uint(n)) - 1)
			inputs := catBits(uintBits(x, n), uintBits(y, n))

			out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
				return b.Mul(inputRange(b, 0, n), inputRange(b, n, n))
			})
			if len(out) != 2*n {
				t.Fatalf("n=%d: output width %d", n, len(out))
			}
			if got := bitsToUint(out); got != x*y {
				t.Errorf("n=%d: %d*%d: got %d", n, x, y, got)
			}
		}
	}
}

func TestMulSigned(t *testing.T) {
	rng := rand.New(rand.NewSource(51))
	const n = 8

	values := []int64{-128, -127, -1, 0, 1, 127}
	for iter := 0; iter < 15; iter++ {
		values = append(values, int64(int8(rng.Uint64())))
	}

	for _, x := range values {
		for _, y := range values {
			inputs := catBits(uintBits(uint64(x)&0xff, n),
				uintBits(uint64(y)&0xff, n))

			out := buildAndRun(t, Signed, inputs, func(b *Builder) []int {
				return b.Mul(inputRange(b, 0, n), inputRange(b, n, n))
			})
			got := signExtend(bitsToUint(out), 2*n)
			if got != x*y {
				t.Errorf("%d*%d: got %d", x, y, got)
			}
		}
	}
}

func TestMulSignedBoundary(t *testing.T) {
	// Baugh-Wooley sign handling: (-2^(n-1)) * (-2^(n-1)) = 2^(2n-2).
	const n = 8
	inputs := catBits(uintBits(0x80, n), uintBits(0x80, n))

	out := buildAndRun(t, Signed, inputs, func(b *Builder) []int {
		return b.Mul(inputRange(b, 0, n), inputRange(b, n, n))
	})
	if got := bitsToUint(out); got != 1<<(2*n-2) {
		t.Errorf("(-128)^2: got %d, expected %d", got, 1<<(2*n-2))
	}
}

func TestSquare(t *testing.T) {
	rng := rand.New(rand.NewSource(52))

	for _, n := range []int{4, 8, 16, 24} {
		stop := squareStop(n)
		for iter := 0; iter < 10; iter++ {
			x := rng.Uint64() & ((1 << uint(n)) - 1)

			out := buildAndRun(t, Unsigned, uintBits(x, n),
				func(b *Builder) []int {
					return b.Square(inputRange(b, 0, n), stop)
				})
			if got := bitsToUint(out); got != x*x {
				t.Errorf("n=%d stop=%d: %d^2: got %d", n, stop, x, got)
			}
		}
	}
}

func TestMulAliasDispatch(t *testing.T) {
	// Aliased inputs go through the squaring routine.
	const n = 8
	for _, v := range []uint64{0, 1, 17, 255} {
		out := buildAndRun(t, Unsigned, uintBits(v, n), func(b *Builder) []int {
			wires := inputRange(b, 0, n)
			return b.Mul(wires, wires)
		})
		if got := bitsToUint(out); got != v*v {
			t.Errorf("%d^2: got %d", v, got)
		}
	}
}

func TestKMul(t *testing.T) {
	rng := rand.New(rand.NewSource(53))

	for _, n := range []int{4, 8, 16} {
		for iter := 0; iter < 10; iter++ {
			x := rng.Uint64() & ((1 << uint(n)) - 1)
			y := rng.Uint64() & ((1 << uint(n)) - 1)
			inputs := catBits(uintBits(x, n), uintBits(y, n))

			out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
				return b.KMul(inputRange(b, 0, n), inputRange(b, n, n), 4)
			})
			if got := bitsToUint(out); got != x*y {
				t.Errorf("n=%d: karatsuba %d*%d: got %d", n, x, y, got)
			}
		}
	}
}

func TestDotProd(t *testing.T) {
	const n = 8
	const k = 4
	rng := rand.New(rand.NewSource(54))

	for iter := 0; iter < 10; iter++ {
		xs := make([]uint64, k)
		ys := make([]uint64, k)
		var expected uint64
		var inputs []bool
		for i := 0; i < k; i++ {
			xs[i] = rng.Uint64() & 0xff
			ys[i] = rng.Uint64() & 0xff
			expected += xs[i] * ys[i]
		}
		for i := 0; i < k; i++ {
			inputs = append(inputs, uintBits(xs[i], n)...)
		}
		for i := 0; i < k; i++ {
			inputs = append(inputs, uintBits(ys[i], n)...)
		}

		out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
			xw := make([][]int, k)
			yw := make([][]int, k)
			for i := 0; i < k; i++ {
				xw[i] = inputRange(b, i*n, n)
				yw[i] = inputRange(b, (k+i)*n, n)
			}
			return b.DotProd(xw, yw)
		})
		if got := bitsToUint(out); got != expected {
			t.Errorf("dotprod: got %d, expected %d", got, expected)
		}
	}
}

func TestDotProdSelf(t *testing.T) {
	// Aliased vectors compute the sum of squares via the squaring
	// routine.
	const n = 8
	const k = 4

	values := []uint64{3, 200, 17, 255}
	var expected uint64
	var inputs []bool
	for _, v := range values {
		expected += v * v
		inputs = append(inputs, uintBits(v, n)...)
	}

	out := buildAndRun(t, Unsigned, inputs, func(b *Builder) []int {
		words := make([][]int, k)
		for i := 0; i < k; i++ {
			words[i] = inputRange(b, i*n, n)
		}
		return b.DotProd(words, words)
	})
	if got := bitsToUint(out); got != expected {
		t.Errorf("self dotprod: got %d, expected %d", got, expected)
	}
}

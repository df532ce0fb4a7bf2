//
// multiplier.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuits

// squareStop is the recursion cutoff for the squaring routine. For
// 8-bit through 32-bit inputs this evaluates to the near-optimal
// choice of ⌊√n⌋-sized leaves.
func squareStop(n int) int {
	s := 1
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}

func aliased(x, y []int) bool {
	return len(x) > 0 && len(y) > 0 && &x[0] == &y[0] && len(x) == len(y)
}

// Mul multiplies the two equal-length inputs, producing a
// double-width result. Unsigned multiplication is schoolbook
// conjunction-and-sum; signed multiplication uses the Baugh-Wooley
// layout which avoids sign extension. Aliased inputs dispatch to the
// recursive squaring routine.
func (b *Builder) Mul(x, y []int) []int {
	if aliased(x, y) {
		return b.Square(x, squareStop(len(x)))
	}
	return b.mul(x, y)
}

func (b *Builder) mul(x, y []int) []int {
	x = copyWires(x)
	y = copyWires(y)
	split := len(x)

	if split == 1 {
		prod := b.BitMul(x, y[0])
		return b.zeroExtend(prod, 2)
	}

	var signed int
	if b.IntMode == Signed {
		signed = 1
	}
	width := split + signed

	pp := make([][]int, split)
	for i := 0; i < split; i++ {
		pp[i] = b.BitMul(x, y[i])
	}

	if signed == 1 {
		// Baugh-Wooley: invert the last-column bit of every row but
		// the last, and the last-row bits except the diagonal; then
		// force the two correction ones at (0, split) and
		// (split-1, split).
		for i := 0; i < split-1; i++ {
			pp[i][split-1] = b.Not(pp[i][split-1])
			pp[split-1][i] = b.Not(pp[split-1][i])
		}
		for i := 0; i < split; i++ {
			pp[i] = append(pp[i], b.Zero())
		}
		pp[0][split] = b.One()
		pp[split-1][split] = b.One()
	}

	acc := make([]int, 2*width)
	copy(acc, pp[0])
	for i := width; i < len(acc); i++ {
		acc[i] = b.Zero()
	}

	for i := 1; i < split; i++ {
		sum := b.Add(Overflow, acc[i:i+width], pp[i])
		copy(acc[i:], sum)
	}

	return copyWires(acc[:2*split])
}

// Square squares the input with a recursive split x = xH·2^k + xL:
// xL² and xH² recurse, the middle term 2·xL·xH uses the schoolbook
// multiplier, and a single wide addition reassembles the result.
// Recursion stops at the stop width or at an odd split.
func (b *Builder) Square(x []int, stop int) []int {
	x = copyWires(x)
	split := len(x)
	is := (split / 2) + (split % 2)

	if split == 1 {
		return b.zeroExtend(x, 2)
	}

	lo := copyWires(x[:is])
	hi := b.zeroExtend(x[is:], is)

	endOfRecursion := split <= stop || split%2 != 0

	var loSq, hiSq []int
	if endOfRecursion {
		loSq = b.mul(lo, lo)
		hiSq = b.mul(hi, hi)
	} else {
		loSq = b.Square(lo, stop)
		hiSq = b.Square(hi, stop)
	}
	mid := b.mul(lo, hi)

	// X = xL² + xH²·2^(2k), Y = 2·xL·xH·2^k.
	xv := make([]int, 0, 4*is)
	xv = append(xv, loSq...)
	xv = append(xv, hiSq...)

	yv := make([]int, 0, 4*is)
	yv = append(yv, b.zeros(is+1)...)
	yv = append(yv, mid...)
	yv = append(yv, b.zeros(4*is-len(yv))...)

	sum := b.Add(NoOverflow, xv, yv)
	return copyWires(sum[:2*split])
}

// KMul multiplies with Karatsuba's three-product recursion. It is
// only more efficient than Mul when the input length exceeds the
// builder-chosen crossover.
func (b *Builder) KMul(x, y []int, stop int) []int {
	x = copyWires(x)
	y = copyWires(y)
	split := len(x)
	is := (split / 2) + (split % 2)

	if split < 4 {
		return b.mul(x, y)
	}

	xL := copyWires(x[:is])
	xH := b.zeroExtend(x[is:], is)
	yL := copyWires(y[:is])
	yH := b.zeroExtend(y[is:], is)

	midX := b.Add(Overflow, xL, xH)
	midY := b.Add(Overflow, yL, yH)

	endOfRecursion := split <= stop || split%2 != 0

	var loP, hiP, midP []int
	if endOfRecursion {
		loP = b.mul(xL, yL)
		hiP = b.mul(xH, yH)
		midP = b.mul(midX, midY)
	} else {
		loP = b.KMul(xL, yL, stop)
		hiP = b.KMul(xH, yH, stop)
		midP = b.KMul(midX, midY, stop)
	}

	// xM - (xL·yL + xH·yH)
	hiloSum := b.Add(Overflow, loP, hiP)
	sub := b.Sub(NoUnderflow, midP, b.zeroExtend(hiloSum, len(midP)))

	// Reassemble: (xL·yL + xH·yH·2^(2k)) + (xM - xL·yL - xH·yH)·2^k.
	xv := make([]int, 0, 4*is)
	xv = append(xv, loP...)
	xv = append(xv, hiP...)

	yv := make([]int, 0, 4*is)
	yv = append(yv, b.zeros(is)...)
	yv = append(yv, sub...)
	yv = append(yv, b.zeros(4*is-len(yv))...)

	sum := b.Add(NoOverflow, xv, yv)
	return copyWires(sum[:2*split])
}

// DotProd computes the dot product of two vectors of equal-width
// words: per-pair multiplication (squaring when the vectors alias)
// followed by a balanced summation tree. The result is
// 2·width + ⌈lg k⌉ bits wide.
func (b *Builder) DotProd(xs, ys [][]int) []int {
	k := len(xs)
	products := make([][]int, k)
	for i := 0; i < k; i++ {
		if aliased(xs[i], ys[i]) {
			width := len(xs[i])
			products[i] = b.Square(xs[i], squareStop(width))
		} else {
			products[i] = b.mul(xs[i], ys[i])
		}
	}
	return b.Sum(products)
}

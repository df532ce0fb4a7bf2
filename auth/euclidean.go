//
// euclidean.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"github.com/applied-crypto-lab/bioauth/circuits"
)

// emitEuclidean builds the squared Euclidean distance over the
// decompressed features f_i = range·x_i + min:
//
//	D² = rx²·Σx² + ry²·Σy² − 2·rx·ry·Σxy
//	   + 2·d·rx·Σx − 2·d·ry·Σy + n·d²       with d = mx − my
//
// from three integer dot products, two integer sums, five int→float
// conversions, and a six-term float sum. The distance is accepted
// when it is strictly below the float threshold 2^6.
func (bb *builder) emitEuclidean() {
	b := bb.b
	x := bb.runtime
	y := bb.enroll

	sumX := b.Sum(x.features)
	sumY := b.Sum(y.features)
	dotXX := b.DotProd(x.features, x.features)
	dotYY := b.DotProd(y.features, y.features)
	dotXY := b.DotProd(x.features, y.features)

	fSumX := b.IntToFloat(sumX)
	fSumY := b.IntToFloat(sumY)
	fDotXX := b.IntToFloat(dotXX)
	fDotYY := b.IntToFloat(dotYY)
	fDotXY := b.IntToFloat(dotXY)

	rxSq := b.FloatSquare(x.rng)
	rySq := b.FloatSquare(y.rng)

	// d = mx − my
	d := b.FloatSum([][]int{x.min, b.FloatNeg(y.min)})
	dSq := b.FloatSquare(d)

	rxRy := b.FloatMul(x.rng, y.rng)
	rxRy2 := b.FloatShift(1, circuits.Left, circuits.InfEqNaN, rxRy)

	dRx2 := b.FloatShift(1, circuits.Left, circuits.InfEqNaN,
		b.FloatMul(d, x.rng))
	dRy2 := b.FloatShift(1, circuits.Left, circuits.InfEqNaN,
		b.FloatMul(d, y.rng))

	floatN := b.SetConstFloat32(float32(bb.params.NumInputs))

	terms := [][]int{
		b.FloatMul(rxSq, fDotXX),
		b.FloatMul(rySq, fDotYY),
		b.FloatNeg(b.FloatMul(rxRy2, fDotXY)),
		b.FloatMul(dRx2, fSumX),
		b.FloatNeg(b.FloatMul(dRy2, fSumY)),
		b.FloatMul(floatN, dSq),
	}
	bb.distance = b.FloatSum(terms)
	bb.threshold = b.SetConstFloat32(64)
	bb.thresholdCmp = circuits.LES

	bb.outputs[1] = bb.emitNormCheck(sumX, dotXX)
}

//
// cosine.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"github.com/applied-crypto-lab/bioauth/circuits"
)

// emitCosine builds the inner product of the decompressed features:
//
//	⟨fx, fy⟩ = rx·ry·Σxy + rx·my·Σx + ry·mx·Σy + n·mx·my
//
// from one integer dot product, two integer sums, three int→float
// conversions, four float multiplications, and a four-term float sum.
// Pre-normalized inputs make this the cosine similarity; it is
// accepted when strictly above the float threshold 1 − 2^6.
func (bb *builder) emitCosine() {
	b := bb.b
	x := bb.runtime
	y := bb.enroll

	sumX := b.Sum(x.features)
	sumY := b.Sum(y.features)
	dotXY := b.DotProd(x.features, y.features)

	fSumX := b.IntToFloat(sumX)
	fSumY := b.IntToFloat(sumY)
	fDotXY := b.IntToFloat(dotXY)

	floatN := b.SetConstFloat32(float32(bb.params.NumInputs))

	terms := [][]int{
		b.FloatMul(b.FloatMul(x.rng, y.rng), fDotXY),
		b.FloatMul(b.FloatMul(x.rng, y.min), fSumX),
		b.FloatMul(b.FloatMul(y.rng, x.min), fSumY),
		b.FloatMul(b.FloatMul(x.min, y.min), floatN),
	}
	bb.distance = b.FloatSum(terms)
	bb.threshold = b.SetConstFloat32(1 - 64)
	bb.thresholdCmp = circuits.GRT

	dotXX := b.DotProd(x.features, x.features)
	bb.outputs[1] = bb.emitNormCheck(sumX, dotXX)
}

//
// reference.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"crypto/sha256"
	"fmt"
	"math"
	"math/bits"

	"golang.org/x/crypto/sha3"
)

// Biometric is one compressed biometric reading: ℓ-bit unsigned
// features plus the affine decompression parameters, so that the
// approximate real feature i is Range·Features[i] + Min.
type Biometric struct {
	Features []uint32
	Range    float32
	Min      float32
}

// CompressFeatures maps real-valued features to ℓ-bit unsigned
// integers and the (range, min) decompression parameters.
func CompressFeatures(features []float32, inputLength int) Biometric {
	min, max := features[0], features[0]
	for _, f := range features[1:] {
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}

	maxCompressed := float32(uint32(1)<<uint(inputLength) - 1)
	span := max - min
	if span == 0 {
		span = 1
	}
	scale := maxCompressed / span

	compressed := make([]uint32, len(features))
	for i, f := range features {
		compressed[i] = uint32((f - min) * scale)
	}
	return Biometric{
		Features: compressed,
		Range:    span / maxCompressed,
		Min:      min,
	}
}

// Bits packs the biometric into circuit input-wire order: the ℓ-bit
// features LSB first, then the raw range and min floats.
func (bio Biometric) Bits(inputLength int) []bool {
	var out []bool
	for _, f := range bio.Features {
		for i := 0; i < inputLength; i++ {
			out = append(out, (f>>uint(i))&1 != 0)
		}
	}
	out = append(out, float32Bits(bio.Range)...)
	out = append(out, float32Bits(bio.Min)...)
	return out
}

func float32Bits(v float32) []bool {
	word := math.Float32bits(v)
	out := make([]bool, 32)
	for i := range out {
		out[i] = (word>>uint(i))&1 != 0
	}
	return out
}

// BitsToBytes packs transmission-order bits into bytes, LSB first
// within each byte.
func BitsToBytes(in []bool) []byte {
	out := make([]byte, (len(in)+7)/8)
	for i, bit := range in {
		if bit {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// BytesToBits unpacks bytes into transmission-order bits.
func BytesToBits(in []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = (in[i/8]>>(i%8))&1 != 0
	}
	return out
}

// CommitDigest computes the enrollment commitment digest over the
// message bits with the selected hash, in the same bit order as the
// in-circuit hash.
func CommitDigest(message []bool, hash HashAlg) []bool {
	data := BitsToBytes(message)

	var digest [32]byte
	if hash == SHA3_256 {
		digest = sha3.Sum256(data)
	} else {
		digest = sha256.Sum256(data)
	}
	return BytesToBits(digest[:], CommitDigestBits)
}

// decodeBiometric parses circuit input bits back into a biometric.
func decodeBiometric(bits []bool, p Params) Biometric {
	bio := Biometric{
		Features: make([]uint32, p.NumInputs),
	}
	for i := 0; i < p.NumInputs; i++ {
		var v uint32
		for j := 0; j < p.InputLength; j++ {
			if bits[i*p.InputLength+j] {
				v |= 1 << uint(j)
			}
		}
		bio.Features[i] = v
	}
	var rawRange, rawMin uint32
	for j := 0; j < 32; j++ {
		if bits[p.FeatureBits()+j] {
			rawRange |= 1 << uint(j)
		}
		if bits[p.FeatureBits()+32+j] {
			rawMin |= 1 << uint(j)
		}
	}
	bio.Range = math.Float32frombits(rawRange)
	bio.Min = math.Float32frombits(rawMin)
	return bio
}

// ReferenceOutputs computes the expected circuit outputs natively.
// The Hamming outputs are exact; the float distances are computed
// with float32 arithmetic mirroring the circuit term structure, so
// rare rounding disagreements against the circuit are possible. The
// second return value reports whether the reference is exact.
func ReferenceOutputs(p Params, inputs []bool) ([]bool, bool, error) {
	if len(inputs) != p.CircuitInputs() {
		return nil, false, fmt.Errorf(
			"invalid inputs: got %d, expected %d",
			len(inputs), p.CircuitInputs())
	}
	x := decodeBiometric(inputs[p.runtimeOffset():], p)
	y := decodeBiometric(inputs[p.enrollOffset():], p)

	outputs := make([]bool, p.CircuitOutputs())
	exact := true

	switch p.Distance {
	case HD:
		var count int
		for i := range x.Features {
			count += bits.OnesCount32(x.Features[i] ^ y.Features[i])
		}
		outputs[0] = count <= p.HDThreshold
		outputs[1] = true

	case ED:
		var sumX, sumY, dotXX, dotYY, dotXY uint64
		for i := range x.Features {
			sumX += uint64(x.Features[i])
			sumY += uint64(y.Features[i])
			dotXX += uint64(x.Features[i]) * uint64(x.Features[i])
			dotYY += uint64(y.Features[i]) * uint64(y.Features[i])
			dotXY += uint64(x.Features[i]) * uint64(y.Features[i])
		}
		d := x.Min - y.Min
		dist := x.Range*x.Range*float32(dotXX) +
			y.Range*y.Range*float32(dotYY) -
			2*x.Range*y.Range*float32(dotXY) +
			2*d*x.Range*float32(sumX) -
			2*d*y.Range*float32(sumY) +
			float32(p.NumInputs)*d*d
		outputs[0] = dist < 64
		outputs[1] = referenceNorm(p, x, sumX, dotXX)
		exact = false

	case CS:
		var sumX, sumY, dotXX, dotXY uint64
		for i := range x.Features {
			sumX += uint64(x.Features[i])
			sumY += uint64(y.Features[i])
			dotXX += uint64(x.Features[i]) * uint64(x.Features[i])
			dotXY += uint64(x.Features[i]) * uint64(y.Features[i])
		}
		sim := x.Range*y.Range*float32(dotXY) +
			x.Range*y.Min*float32(sumX) +
			y.Range*x.Min*float32(sumY) +
			float32(p.NumInputs)*x.Min*y.Min
		outputs[0] = sim > 1-64
		outputs[1] = referenceNorm(p, x, sumX, dotXX)
		exact = false
	}

	if p.Malicious {
		message := inputs[p.enrollOffset() : p.enrollOffset()+p.BiometricBits()]
		message = append(append([]bool{}, message...),
			inputs[p.nonceOffset():p.nonceOffset()+CommitNonceBits]...)
		digest := CommitDigest(message, p.Hash)

		match := true
		for i, bit := range digest {
			match = match && bit == inputs[p.digestOffset()+i]
		}
		outputs[2] = match
	}
	return outputs, exact, nil
}

func referenceNorm(p Params, x Biometric, sumX, dotXX uint64) bool {
	norm := x.Range*x.Range*float32(dotXX) +
		2*x.Range*x.Min*float32(sumX) +
		float32(p.NumInputs)*x.Min*x.Min
	return norm == 1
}

//
// builder.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"fmt"
	"os"

	"github.com/applied-crypto-lab/bioauth/circuit"
	"github.com/applied-crypto-lab/bioauth/circuits"
)

// biometricInput is one parsed biometric circuit input: the
// compressed feature vector and the affine decompression parameters
// range and min as float bundles.
type biometricInput struct {
	features [][]int
	rng      []int
	min      []int
}

// builder carries the build state shared by the distance-function
// builders: the prelude parses both biometric inputs, the distance
// emitters fill in the distance and normalization outputs, and
// finalize applies the threshold comparison and closes the circuit.
type builder struct {
	params  Params
	b       *circuits.Builder
	inputs  []int
	runtime biometricInput
	enroll  biometricInput

	// threshold and thresholdCmp define the acceptance comparison
	// distance CMP threshold for the float distances.
	threshold    []int
	thresholdCmp circuits.CmpType
	distance     []int

	outputs []int
}

// newBuilder runs the shared prelude.
func newBuilder(params Params) (*builder, error) {
	cb, err := circuits.NewBuilder(params.CircuitInputs(),
		params.gateBound(), params.wireBound())
	if err != nil {
		return nil, err
	}

	bb := &builder{
		params:       params,
		b:            cb,
		inputs:       cb.Inputs(),
		thresholdCmp: circuits.LEQ,
		outputs:      make([]int, params.CircuitOutputs()),
	}
	bb.runtime = bb.parseBiometric(params.runtimeOffset())
	bb.enroll = bb.parseBiometric(params.enrollOffset())
	return bb, nil
}

func (bb *builder) parseBiometric(offset int) biometricInput {
	p := bb.params

	features := make([][]int, p.NumInputs)
	for i := 0; i < p.NumInputs; i++ {
		start := offset + i*p.InputLength
		features[i] = bb.inputs[start : start+p.InputLength]
	}
	rawRng := bb.inputs[offset+p.FeatureBits() : offset+p.FeatureBits()+32]
	rawMin := bb.inputs[offset+p.FeatureBits()+32 : offset+p.FeatureBits()+64]

	return biometricInput{
		features: features,
		rng:      bb.b.SetRawFloat(rawRng),
		min:      bb.b.SetRawFloat(rawMin),
	}
}

// featureBits returns the flat feature-vector wires of the input.
func (bi biometricInput) featureBits() []int {
	var bits []int
	for _, f := range bi.features {
		bits = append(bits, f...)
	}
	return bits
}

// emitCommitment hashes the enrollment biometric input together with
// the reassembled nonce and compares the digest against the expected
// digest input wires.
func (bb *builder) emitCommitment() {
	p := bb.params

	message := make([]int, 0, p.BiometricBits()+CommitNonceBits)
	message = append(message,
		bb.inputs[p.enrollOffset():p.enrollOffset()+p.BiometricBits()]...)
	message = append(message,
		bb.inputs[p.nonceOffset():p.nonceOffset()+CommitNonceBits]...)
	// Byte-align so the digest matches the byte-packed reference
	// computation for any feature width.
	for len(message)%8 != 0 {
		message = append(message, bb.b.Zero())
	}

	var digest []int
	if p.Hash == SHA3_256 {
		digest = bb.b.SHA3(message)
	} else {
		digest = bb.b.SHA2(message)
	}

	expected := bb.inputs[p.digestOffset() : p.digestOffset()+CommitDigestBits]
	bb.outputs[2] = bb.b.Cmp(circuits.EQ, digest, expected)[0]
}

// finalize applies the threshold comparison and closes the circuit.
func (bb *builder) finalize() (*circuit.Circuit, error) {
	if bb.distance != nil {
		cmp := bb.b.FloatCmp(bb.thresholdCmp, circuits.InfEqNaN,
			bb.distance, bb.threshold)
		bb.outputs[0] = cmp[0]
	}
	if bb.params.Malicious {
		bb.emitCommitment()
	}
	return bb.b.Finish(bb.outputs)
}

// emitNormCheck emits the normalization check shared by the Euclidean
// and cosine builders: range²·Σx² + 2·range·min·Σx + n·min² compared
// for equality against 1.0. Only the runtime-side parameters are
// checked; see DESIGN.md for the open question on the enrollment
// side.
func (bb *builder) emitNormCheck(sumX, dotXX []int) int {
	b := bb.b

	rngSq := b.FloatSquare(bb.runtime.rng)
	minSq := b.FloatSquare(bb.runtime.min)
	minRng := b.FloatMul(bb.runtime.rng, bb.runtime.min)
	minRng2 := b.FloatShift(1, circuits.Left, circuits.InfEqNaN, minRng)

	floatSumX := b.IntToFloat(sumX)
	floatDotXX := b.IntToFloat(dotXX)
	floatN := b.SetConstFloat32(float32(bb.params.NumInputs))

	terms := [][]int{
		b.FloatMul(rngSq, floatDotXX),
		b.FloatMul(minRng2, floatSumX),
		b.FloatMul(minSq, floatN),
	}
	norm := b.FloatSum(terms)

	one := b.SetConstFloat32(1)
	return b.FloatCmp(circuits.EQ, circuits.InfEqNaN, one, norm)[0]
}

// Build builds the authentication circuit for the parameters.
func Build(params Params) (*circuit.Circuit, error) {
	bb, err := newBuilder(params)
	if err != nil {
		return nil, err
	}

	switch params.Distance {
	case HD:
		bb.emitHamming()
	case ED:
		bb.emitEuclidean()
	case CS:
		bb.emitCosine()
	default:
		return nil, fmt.Errorf("unknown distance function %d", params.Distance)
	}
	return bb.finalize()
}

// LoadOrBuild reads the SCD circuit from the cache directory,
// building and caching it on a miss or when rebuild is forced.
func LoadOrBuild(params Params, dir string, rebuild bool) (
	*circuit.Circuit, error) {

	path := params.FileName(dir)
	if !rebuild {
		if circ, err := circuit.ReadFile(path); err == nil {
			return circ, nil
		}
	}

	circ, err := Build(params)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := circ.WriteFile(path); err != nil {
		return nil, err
	}
	return circ, nil
}

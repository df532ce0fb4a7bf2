//
// params.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

// Package auth implements privacy-preserving biometric authentication
// between two non-colluding servers and a client: the distance
// function circuit builders, the SCD circuit cache, and the
// three-party garbled-circuit protocol with oblivious transfer.
package auth

import (
	"fmt"
	"path/filepath"
)

// DistanceFunc selects the biometric distance function.
type DistanceFunc int

// Distance functions.
const (
	HD DistanceFunc = iota // Hamming distance
	CS                     // cosine similarity
	ED                     // Euclidean distance
)

func (df DistanceFunc) String() string {
	switch df {
	case HD:
		return "hd"
	case CS:
		return "cs"
	case ED:
		return "ed"
	default:
		return "unknown"
	}
}

// ParseDistanceFunc parses a distance function name.
func ParseDistanceFunc(name string) (DistanceFunc, error) {
	switch name {
	case "hd":
		return HD, nil
	case "cs":
		return CS, nil
	case "ed":
		return ED, nil
	default:
		return 0, fmt.Errorf("unknown distance function %q", name)
	}
}

// HashAlg selects the commitment hash of the malicious mode.
type HashAlg int

// Commitment hash algorithms.
const (
	SHA2_256 HashAlg = iota
	SHA3_256
)

func (h HashAlg) String() string {
	switch h {
	case SHA2_256:
		return "sha2-256"
	case SHA3_256:
		return "sha3-256"
	default:
		return "unknown"
	}
}

// ParseHashAlg parses a commitment hash name.
func ParseHashAlg(name string) (HashAlg, error) {
	switch name {
	case "sha2-256":
		return SHA2_256, nil
	case "sha3-256":
		return SHA3_256, nil
	default:
		return 0, fmt.Errorf("unknown verification function %q", name)
	}
}

// Commitment sizes in bits.
const (
	CommitDigestBits = 256
	CommitNonceBits  = 128
)

// Label and float sizes.
const (
	LabelBytes = 16
	// RawFloatBits is the width of one raw IEEE-754 parameter.
	RawFloatBits = 32
)

// Params describes one authentication circuit.
type Params struct {
	// Distance is the distance function.
	Distance DistanceFunc

	// NumInputs is the feature-vector length n.
	NumInputs int

	// InputLength is the per-feature bit width ℓ.
	InputLength int

	// Malicious enables the commitment verification sub-circuit and
	// the stronger OT flavor.
	Malicious bool

	// Hash is the commitment hash in malicious mode.
	Hash HashAlg

	// HDThreshold is the Hamming-distance acceptance threshold.
	HDThreshold int
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.NumInputs < 8 {
		return fmt.Errorf("number of inputs %d below 8", p.NumInputs)
	}
	if p.InputLength < 4 {
		return fmt.Errorf("input length %d below 4", p.InputLength)
	}
	if p.Distance == HD && p.HDThreshold < 0 {
		return fmt.Errorf("negative Hamming threshold %d", p.HDThreshold)
	}
	return nil
}

// FeatureBits is the feature-vector width ℓ·n.
func (p Params) FeatureBits() int {
	return p.NumInputs * p.InputLength
}

// BiometricBits is the width of one biometric input: the feature
// vector plus the raw range and min floats.
func (p Params) BiometricBits() int {
	return p.FeatureBits() + 2*RawFloatBits
}

// OTBits is the number of input wires delivered to the evaluator with
// oblivious transfer.
func (p Params) OTBits() int {
	bits := 2 * p.BiometricBits()
	if p.Malicious {
		bits += CommitNonceBits
	}
	return bits
}

// CircuitInputs is the circuit input-wire count n.
func (p Params) CircuitInputs() int {
	n := 2 * p.BiometricBits()
	if p.Malicious {
		n += CommitNonceBits + CommitDigestBits
	}
	return n
}

// CircuitOutputs is the circuit output count m: distance-accept and
// normalization-valid, plus commitment-verified in malicious mode.
func (p Params) CircuitOutputs() int {
	if p.Malicious {
		return 3
	}
	return 2
}

// Input-wire layout offsets.

func (p Params) runtimeOffset() int {
	return 0
}

func (p Params) enrollOffset() int {
	return p.BiometricBits()
}

func (p Params) nonceOffset() int {
	return 2 * p.BiometricBits()
}

func (p Params) digestOffset() int {
	return 2*p.BiometricBits() + CommitNonceBits
}

// FileName is the SCD file name in the circuit directory.
func (p Params) FileName(dir string) string {
	name := "bio_auth_" + p.Distance.String() + "_"
	if p.Malicious {
		name += "mal_" + p.Hash.String() + "_"
	}
	name += fmt.Sprintf("%d_%d.scd", p.NumInputs, p.InputLength)
	return filepath.Join(dir, name)
}

// gateBound estimates an upper bound for the circuit gate count; the
// wire bound is eight times the gate bound. Exceeding either is fatal
// to the build.
func (p Params) gateBound() int {
	var q int
	switch p.Distance {
	case HD:
		q = p.FeatureBits()*lgf(p.NumInputs)*lgf(p.InputLength) + 1<<12
	case ED, CS:
		q = 4 * int(qEdEstimate(p.NumInputs, p.InputLength))
	}
	// Float library headroom.
	q += 1 << 19
	if p.Malicious {
		q += 1 << 21
	}
	return q
}

func (p Params) wireBound() int {
	return 8 * p.gateBound()
}

// qEdEstimate estimates the Euclidean-distance gate count with the
// doubling recurrence of the reference implementation, capped by a
// fixed ceiling.
func qEdEstimate(numInputs, inputLength int) int64 {
	const ceiling = int64(1) << 27

	n, l := 1, 1
	delta := int64(63)
	epsilon := int64(5)
	estimate := int64(39)

	for l < inputLength {
		estimate = 4*estimate - delta
		delta = 2*delta + epsilon
		epsilon = 2*epsilon + 9
		l *= 2
	}
	for n < numInputs {
		estimate = 2*estimate + int64(10*n)
		n *= 2
	}

	if estimate > ceiling {
		return ceiling
	}
	return estimate
}

func lgf(x int) int {
	var r int
	for x > 1 {
		x >>= 1
		r++
	}
	return r
}

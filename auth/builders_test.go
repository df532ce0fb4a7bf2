//
// builders_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// circuitInputs assembles the full circuit input-bit vector.
func circuitInputs(t *testing.T, p Params, runtime, enroll Biometric,
	nonce, digest []bool) []bool {

	t.Helper()

	inputs := append([]bool{}, runtime.Bits(p.InputLength)...)
	inputs = append(inputs, enroll.Bits(p.InputLength)...)
	if p.Malicious {
		require.Len(t, nonce, CommitNonceBits)
		require.Len(t, digest, CommitDigestBits)
		inputs = append(inputs, nonce...)
		inputs = append(inputs, digest...)
	}
	require.Len(t, inputs, p.CircuitInputs())
	return inputs
}

func repeated(value uint32, count int) []uint32 {
	out := make([]uint32, count)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestHammingAccept(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	runtime := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enroll := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}

	outputs, err := circ.Compute(circuitInputs(t, p, runtime, enroll,
		nil, nil))
	require.NoError(t, err)
	require.True(t, outputs[0], "distance accept")
	require.True(t, outputs[1], "normalization")
}

func TestHammingReject(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	runtime := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enroll := Biometric{Features: repeated(0, 8), Range: 1, Min: 0}

	outputs, err := circ.Compute(circuitInputs(t, p, runtime, enroll,
		nil, nil))
	require.NoError(t, err)
	require.False(t, outputs[0], "distance over threshold")
}

func TestHammingReference(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 20,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	cases := []struct {
		runtime, enroll uint32
	}{
		{17, 17}, {17, 0}, {255, 0}, {0x55, 0xaa}, {1, 3},
	}
	for _, c := range cases {
		runtime := Biometric{Features: repeated(c.runtime, 8), Range: 1}
		enroll := Biometric{Features: repeated(c.enroll, 8), Range: 1}
		inputs := circuitInputs(t, p, runtime, enroll, nil, nil)

		outputs, err := circ.Compute(inputs)
		require.NoError(t, err)

		expected, exact, err := ReferenceOutputs(p, inputs)
		require.NoError(t, err)
		require.True(t, exact)
		require.Equal(t, expected, outputs,
			"runtime %d enroll %d", c.runtime, c.enroll)
	}
}

func TestCosineSelfSimilarity(t *testing.T) {
	// A self-comparison with range 1/2 and min 0 has inner product
	// and norm Σ(x_i/2)² = 1 for the all-ones vector of length four.
	p := Params{
		Distance:    CS,
		NumInputs:   4,
		InputLength: 8,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	bio := Biometric{Features: repeated(1, 4), Range: 0.5, Min: 0}

	outputs, err := circ.Compute(circuitInputs(t, p, bio, bio, nil, nil))
	require.NoError(t, err)
	require.True(t, outputs[0], "similarity accept")
	require.True(t, outputs[1], "normalization")
}

func TestEuclideanSelfDistance(t *testing.T) {
	p := Params{
		Distance:    ED,
		NumInputs:   4,
		InputLength: 8,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	bio := Biometric{Features: repeated(1, 4), Range: 0.5, Min: 0}

	outputs, err := circ.Compute(circuitInputs(t, p, bio, bio, nil, nil))
	require.NoError(t, err)
	require.True(t, outputs[0], "zero distance accept")
	require.True(t, outputs[1], "normalization")
}

func TestEuclideanDistant(t *testing.T) {
	p := Params{
		Distance:    ED,
		NumInputs:   4,
		InputLength: 8,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	// Range 1 makes the integer features the real features; distance
	// 4·100² is far above the threshold.
	runtime := Biometric{Features: repeated(0, 4), Range: 1, Min: 0}
	enroll := Biometric{Features: repeated(100, 4), Range: 1, Min: 0}

	outputs, err := circ.Compute(circuitInputs(t, p, runtime, enroll,
		nil, nil))
	require.NoError(t, err)
	require.False(t, outputs[0], "large distance rejected")
}

func TestCommitmentVerification(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
		Malicious:   true,
		Hash:        SHA2_256,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	bio := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}

	nonce := make([]bool, CommitNonceBits)
	for i := range nonce {
		nonce[i] = i%3 == 0
	}
	message := append(append([]bool{}, bio.Bits(p.InputLength)...), nonce...)
	digest := CommitDigest(message, p.Hash)

	// Matching digest: all three outputs set.
	outputs, err := circ.Compute(circuitInputs(t, p, bio, bio, nonce, digest))
	require.NoError(t, err)
	require.True(t, outputs[0])
	require.True(t, outputs[1])
	require.True(t, outputs[2], "commitment verified")

	// A wrong nonce flips the commitment output even though the
	// distance matches.
	badNonce := append([]bool{}, nonce...)
	badNonce[0] = !badNonce[0]
	outputs, err = circ.Compute(circuitInputs(t, p, bio, bio, badNonce,
		digest))
	require.NoError(t, err)
	require.True(t, outputs[0])
	require.False(t, outputs[2], "commitment mismatch")
}

func TestCommitmentSHA3(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
		Malicious:   true,
		Hash:        SHA3_256,
	}
	circ, err := Build(p)
	require.NoError(t, err)

	bio := Biometric{Features: repeated(3, 8), Range: 1, Min: 0}
	nonce := make([]bool, CommitNonceBits)
	message := append(append([]bool{}, bio.Bits(p.InputLength)...), nonce...)
	digest := CommitDigest(message, p.Hash)

	outputs, err := circ.Compute(circuitInputs(t, p, bio, bio, nonce, digest))
	require.NoError(t, err)
	require.True(t, outputs[2], "SHA3 commitment verified")
}

func TestSCDCache(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 4,
		HDThreshold: 2,
	}
	dir := t.TempDir()

	built, err := LoadOrBuild(p, dir, false)
	require.NoError(t, err)

	loaded, err := LoadOrBuild(p, dir, false)
	require.NoError(t, err)
	require.Equal(t, built.NumGates(), loaded.NumGates())
	require.Equal(t, built.NumWires, loaded.NumWires)
	require.Equal(t, built.Outputs, loaded.Outputs)
}

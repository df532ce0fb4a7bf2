//
// hamming.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"github.com/applied-crypto-lab/bioauth/circuit"
	"github.com/applied-crypto-lab/bioauth/circuits"
)

// emitHamming builds the Hamming-distance core: XOR of the two
// feature vectors, a population count, and a threshold comparison.
// The normalization output is hardwired to one since the compressed
// feature domain needs no normalization here.
func (bb *builder) emitHamming() {
	b := bb.b

	diff := b.GateVec(circuit.XOR,
		bb.runtime.featureBits(), bb.enroll.featureBits())
	count := b.CountBits(diff)

	threshold := b.SetConst(len(count), int64(bb.params.HDThreshold))
	bb.outputs[0] = b.Cmp(circuits.LEQ, count, threshold)[0]
	bb.outputs[1] = b.One()
}

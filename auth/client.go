//
// client.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"math"
	"math/rand"

	"github.com/getamis/sirius/log"
)

// Client is the C protocol driver. C samples a biometric, compresses
// it, XOR-splits it, sends the shares to the servers, and receives
// the decision bit.
type Client struct {
	ProtoConfig

	// Biometric is the reading to authenticate with. A nil reading is
	// sampled at random.
	Biometric *Biometric

	// Rand drives biometric sampling for a nil Biometric.
	Rand *rand.Rand
}

// SampleBiometric draws a random real-valued feature vector,
// normalizes it to unit length, and compresses it into the ℓ-bit
// feature domain.
func SampleBiometric(rng *rand.Rand, p Params) Biometric {
	features := make([]float32, p.NumInputs)
	var norm float64
	for i := range features {
		features[i] = float32(rng.Float64() - 0.5)
		norm += float64(features[i]) * float64(features[i])
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range features {
			features[i] *= scale
		}
	}
	return CompressFeatures(features, p.InputLength)
}

// Run executes the C state machine and returns the decision byte.
func (c *Client) Run(t Transport) (byte, error) {
	p := c.Params

	if err := t.MulticastAck(1); err != nil {
		return DecisionError, err
	}
	if !c.Online {
		return DecisionError, nil
	}

	s1, err := t.Peer(S1)
	if err != nil {
		return DecisionError, err
	}
	s2, err := t.Peer(S2)
	if err != nil {
		return DecisionError, err
	}

	// Phase synchronization before the online run.
	if err := s1.Send([]byte{0x06}, false); err != nil {
		return DecisionError, err
	}
	if _, err := s1.Receive(1, false); err != nil {
		return DecisionError, err
	}

	bio := c.Biometric
	if bio == nil {
		rng := c.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		sampled := SampleBiometric(rng, p)
		bio = &sampled
	}

	bits := BitsToBytes(bio.Bits(p.InputLength))
	mask, err := randomBits(p.BiometricBits())
	if err != nil {
		return DecisionError, err
	}

	shareS1 := xorBytes(bits, mask)
	shareS2 := mask

	if c.Verbose {
		log.Info("sending XOR shares", "party", PartyName(C),
			"bytes", len(bits))
	}
	if err := s1.Send(shareS1, true); err != nil {
		return DecisionError, err
	}
	if err := s2.Send(shareS2, true); err != nil {
		return DecisionError, err
	}

	decision, err := s1.Receive(1, true)
	if err != nil {
		return DecisionError, err
	}
	if c.Verbose {
		log.Info("received decision", "party", PartyName(C),
			"decision", decision[0])
	}
	return decision[0], nil
}

//
// ot.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.

// Package ot implements oblivious transfer protocols.
package ot

// OT defines the base 1-out-of-2 Oblivious Transfer protocol. The
// sender uses the Send function to send a []Wire array where each
// wire has zero and one Label. The receiver calls Receive with a
// []bool array of selection bits. The higher level protocol must
// ensure the []Wire and []bool array lengths match.
type OT interface {
	// InitSender initializes the OT sender.
	InitSender(io IO) error

	// InitReceiver initializes the OT receiver.
	InitReceiver(io IO) error

	// Send sends the wire labels with OT.
	Send(wires []Wire) error

	// Receive receives the wire labels with OT based on the flag values.
	Receive(flags []bool, result []Label) error
}

// Flavor selects the oblivious transfer protocol.
type Flavor int

// Known OT flavors.
const (
	// FlavorCO runs one Chou-Orlandi base OT per wire label. It
	// tolerates a deviating receiver and is used in the malicious
	// threat model.
	FlavorCO Flavor = iota

	// FlavorIKNP extends a batch of base OTs with the IKNP protocol.
	// Secure against semi-honest parties only.
	FlavorIKNP
)

func (f Flavor) String() string {
	switch f {
	case FlavorCO:
		return "CO"
	case FlavorIKNP:
		return "IKNP"
	default:
		return "unknown"
	}
}

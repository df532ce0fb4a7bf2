//
// protocol.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"crypto/rand"
	"fmt"

	"github.com/markkurossi/text/superscript"

	"github.com/applied-crypto-lab/bioauth/ot"
	"github.com/applied-crypto-lab/bioauth/p2p"
)

// Party identifiers.
const (
	S1 = 0 // garbler
	S2 = 1 // evaluator
	C  = 2 // client
)

// Decision codes sent to the client.
const (
	DecisionReject byte = 0
	DecisionAccept byte = 1
	DecisionError  byte = 4
)

// PartyName renders a party identifier.
func PartyName(id int) string {
	switch id {
	case S1, S2:
		return "S" + superscript.Itoa(id+1)
	case C:
		return "C"
	default:
		return fmt.Sprintf("party %d", id)
	}
}

// Transport is the peer mesh used by the protocol drivers; *p2p.Network
// implements it.
type Transport interface {
	// Peer returns the channel to the peer.
	Peer(id int) (*p2p.Conn, error)

	// MulticastAck is the blocking all-to-all barrier.
	MulticastAck(rounds int) error
}

// ProtoConfig carries the protocol settings common to all parties.
type ProtoConfig struct {
	// Params describes the authentication circuit.
	Params Params

	// CircuitDir is the SCD cache directory.
	CircuitDir string

	// NumBaseOTs and NumChecks configure the OT extension. The
	// malicious threat model requires at least 190 base OTs with at
	// least twice as many consistency checks.
	NumBaseOTs int
	NumChecks  int

	// Offline and Online select the protocol phases to run.
	Offline bool
	Online  bool

	// Verbose enables per-phase progress output.
	Verbose bool
}

// Flavor returns the OT flavor for the threat model: the IKNP
// extension for semi-honest runs and per-wire base OTs for malicious
// runs.
func (cfg *ProtoConfig) Flavor() ot.Flavor {
	if cfg.Params.Malicious {
		return ot.FlavorCO
	}
	return ot.FlavorIKNP
}

// Validate checks the OT parameters for the threat model.
func (cfg *ProtoConfig) Validate() error {
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	if cfg.Params.Malicious {
		if cfg.NumBaseOTs < 190 {
			return fmt.Errorf("malicious mode needs at least 190 base OTs")
		}
		if cfg.NumChecks < 2*cfg.NumBaseOTs {
			return fmt.Errorf(
				"malicious mode needs at least %d consistency checks",
				2*cfg.NumBaseOTs)
		}
	}
	return nil
}

func (cfg *ProtoConfig) newOT() ot.OT {
	if cfg.Flavor() == ot.FlavorCO {
		return ot.NewCO()
	}
	return ot.NewIKNP(ot.NewCO(), rand.Reader)
}

// offlineBytes is the size of the offline garbled-circuit message:
// the oracle key, the row-reduced table, and the two active
// fixed-wire labels.
func offlineBytes(numNonFree int) int {
	return LabelBytes * (1 + 3*numNonFree + 2)
}

// outputBytes is the size of the evaluator's output-label message:
// one label per output wire plus the success flag.
func outputBytes(m int) int {
	return m*LabelBytes + 1
}

// shareBytes is the size of one client XOR-share message.
func (p Params) shareBytes() int {
	return (p.BiometricBits() + 7) / 8
}

// randomBits samples n packed random bits.
func randomBits(n int) ([]byte, error) {
	buf := make([]byte, (n+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	// Clear the bits above n so shares stay canonical.
	if n%8 != 0 {
		buf[len(buf)-1] &= byte(1<<(n%8)) - 1
	}
	return buf, nil
}

func bitOf(buf []byte, i int) int {
	return int(buf[i/8]>>(i%8)) & 1
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// verifyCircuit checks a loaded SCD against the expected dimensions.
func verifyCircuit(p Params, n, m int) error {
	if n != p.CircuitInputs() {
		return fmt.Errorf("unexpected circuit inputs: got %d, expected %d",
			n, p.CircuitInputs())
	}
	if m != p.CircuitOutputs() {
		return fmt.Errorf("unexpected circuit outputs: got %d, expected %d",
			m, p.CircuitOutputs())
	}
	return nil
}

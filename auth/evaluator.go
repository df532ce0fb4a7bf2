//
// evaluator.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"fmt"

	"github.com/getamis/sirius/log"

	"github.com/applied-crypto-lab/bioauth/circuit"
	"github.com/applied-crypto-lab/bioauth/ot"
)

// Evaluator is the S2 protocol driver. S2 receives the garbled table
// offline, obtains its wire labels with OT, evaluates the circuit,
// and ships the output labels back to S1.
type Evaluator struct {
	ProtoConfig

	// EnrollShare is S2's packed XOR share of the enrollment
	// biometric input. A nil share is sampled at random.
	EnrollShare []byte

	// NonceShare is S2's packed share of the commitment nonce
	// (malicious mode).
	NonceShare []byte
}

// Run executes the S2 state machine.
func (e *Evaluator) Run(t Transport) error {
	p := e.Params

	circ, err := circuit.ReadFile(p.FileName(e.CircuitDir))
	if err != nil {
		return err
	}
	if err := verifyCircuit(p, circ.NumInputs, circ.NumOutputs); err != nil {
		return err
	}

	enrollShare := e.EnrollShare
	if enrollShare == nil {
		enrollShare, err = randomBits(p.BiometricBits())
		if err != nil {
			return err
		}
	}
	nonceShare := e.NonceShare
	if p.Malicious && nonceShare == nil {
		nonceShare, err = randomBits(CommitNonceBits)
		if err != nil {
			return err
		}
	}

	s1, err := t.Peer(S1)
	if err != nil {
		return err
	}

	if err := t.MulticastAck(1); err != nil {
		return err
	}

	var key []byte
	table := make([]ot.Label, circuit.RowsPerGate*circ.NumNonFree())
	wires := make([]ot.Label, circ.NumWires)

	if e.Offline {
		if e.Verbose {
			log.Info("receiving garbled circuit", "party", PartyName(S2))
		}
		data, err := s1.Receive(offlineBytes(circ.NumNonFree()), false)
		if err != nil {
			return err
		}
		key = data[:LabelBytes]
		ofs := LabelBytes
		for i := range table {
			table[i].SetBytes(data[ofs:])
			ofs += LabelBytes
		}
		wires[circ.FixedZero()].SetBytes(data[ofs:])
		wires[circ.FixedOne()].SetBytes(data[ofs+LabelBytes:])

		if p.Malicious {
			labels, err := s1.Receive(CommitDigestBits*LabelBytes, true)
			if err != nil {
				return err
			}
			for i := 0; i < CommitDigestBits; i++ {
				wires[p.digestOffset()+i].SetBytes(labels[i*LabelBytes:])
			}
		}
	}
	if !e.Online {
		return nil
	}

	client, err := t.Peer(C)
	if err != nil {
		return err
	}

	// Phase synchronization before the online run.
	if err := s1.Send([]byte{0x06}, false); err != nil {
		return err
	}
	if _, err := s1.Receive(1, false); err != nil {
		return err
	}

	if e.Verbose {
		log.Info("receiving XOR share", "party", PartyName(S2))
	}
	clientShare, err := client.Receive(p.shareBytes(), true)
	if err != nil {
		return err
	}

	// OT: the selection bits are the client share for the runtime
	// side, S2's enrollment share, and S2's nonce share.
	flags := make([]bool, 0, p.OTBits())
	for i := 0; i < p.BiometricBits(); i++ {
		flags = append(flags, bitOf(clientShare, i) == 1)
	}
	for i := 0; i < p.BiometricBits(); i++ {
		flags = append(flags, bitOf(enrollShare, i) == 1)
	}
	if p.Malicious {
		for i := 0; i < CommitNonceBits; i++ {
			flags = append(flags, bitOf(nonceShare, i) == 1)
		}
	}

	if e.Verbose {
		log.Info("engaging in OT", "party", PartyName(S2),
			"flavor", e.Flavor(), "bits", len(flags))
	}
	received := make([]ot.Label, len(flags))
	receiver := e.newOT()
	if err := receiver.InitReceiver(s1); err != nil {
		return err
	}
	if err := receiver.Receive(flags, received); err != nil {
		return err
	}

	copy(wires[p.runtimeOffset():], received[:p.BiometricBits()])
	copy(wires[p.enrollOffset():], received[p.BiometricBits():2*p.BiometricBits()])
	if p.Malicious {
		copy(wires[p.nonceOffset():], received[2*p.BiometricBits():])
	}

	if e.Verbose {
		log.Info("evaluating circuit", "party", PartyName(S2),
			"gates", circ.NumGates())
	}
	outputs, err := circ.Eval(key, wires, table)
	success := byte(1)
	if err != nil {
		log.Warn("evaluation failed", "party", PartyName(S2), "err", err)
		success = 0
	}

	buf := make([]byte, outputBytes(p.CircuitOutputs()))
	var data ot.LabelData
	for i := range outputs {
		copy(buf[i*LabelBytes:], outputs[i].Bytes(&data))
	}
	buf[len(buf)-1] = success

	if e.Verbose {
		log.Info("sending output labels", "party", PartyName(S2))
	}
	if err := s1.Send(buf, true); err != nil {
		return err
	}
	if success == 0 {
		return fmt.Errorf("circuit evaluation failed")
	}
	return nil
}

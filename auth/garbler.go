//
// garbler.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/getamis/sirius/log"

	"github.com/applied-crypto-lab/bioauth/circuit"
	"github.com/applied-crypto-lab/bioauth/ot"
	"github.com/applied-crypto-lab/bioauth/p2p"
)

// Garbler is the S1 protocol driver. S1 garbles the circuit, ships
// the garbled table offline, delivers the evaluator's wire labels
// with OT, reconciles the output labels against the output map, and
// sends the decision bit to the client.
type Garbler struct {
	ProtoConfig

	// EnrollShare is S1's packed XOR share of the enrollment
	// biometric input. A nil share is sampled at random.
	EnrollShare []byte

	// NonceShare is S1's packed share of the commitment nonce
	// (malicious mode).
	NonceShare []byte

	// Digest is the expected enrollment-commitment digest (malicious
	// mode), packed LSB first.
	Digest []byte

	// Timing collects the per-phase timing samples of the run.
	Timing *circuit.Timing
}

// Run executes the S1 state machine. It returns the decision it sent
// to the client; protocol failures are reported to the client as
// DecisionError before the error returns.
func (g *Garbler) Run(t Transport) (byte, error) {
	decision, err := g.run(t)
	if err != nil && g.Online {
		// Surface the failure to the client; the connection may
		// itself be the failure, so the send is best effort.
		if conn, cerr := t.Peer(C); cerr == nil {
			if serr := conn.Send([]byte{DecisionError}, true); serr == nil {
				decision = DecisionError
			}
		}
	}
	return decision, err
}

func (g *Garbler) run(t Transport) (byte, error) {
	p := g.Params
	g.Timing = circuit.NewTiming()

	// Preamble: load the circuit and verify its dimensions.
	circ, err := circuit.ReadFile(p.FileName(g.CircuitDir))
	if err != nil {
		return DecisionError, err
	}
	if err := verifyCircuit(p, circ.NumInputs, circ.NumOutputs); err != nil {
		return DecisionError, err
	}

	enrollShare := g.EnrollShare
	if enrollShare == nil {
		enrollShare, err = randomBits(p.BiometricBits())
		if err != nil {
			return DecisionError, err
		}
	}
	nonceShare := g.NonceShare
	if p.Malicious && nonceShare == nil {
		nonceShare, err = randomBits(CommitNonceBits)
		if err != nil {
			return DecisionError, err
		}
	}

	if g.Verbose {
		log.Info("garbling circuit", "party", PartyName(S1),
			"gates", circ.NumGates(), "wires", circ.NumWires)
	}
	garbled, err := circ.Garble(rand.Reader)
	if err != nil {
		return DecisionError, err
	}
	g.Timing.Sample("Garble", nil)

	s2, err := t.Peer(S2)
	if err != nil {
		return DecisionError, err
	}

	if err := t.MulticastAck(1); err != nil {
		return DecisionError, err
	}

	if g.Offline {
		if err := g.sendOffline(s2, circ, garbled); err != nil {
			return DecisionError, err
		}
		g.Timing.Sample("Offline",
			[]string{circuit.FileSize(s2.Stats.Sent).String()})
	}
	if !g.Online {
		return DecisionError, nil
	}

	client, err := t.Peer(C)
	if err != nil {
		return DecisionError, err
	}

	// Phase synchronization before the online run.
	if _, err := client.Receive(1, false); err != nil {
		return DecisionError, err
	}
	if _, err := s2.Receive(1, false); err != nil {
		return DecisionError, err
	}
	if err := client.Send([]byte{0x06}, false); err != nil {
		return DecisionError, err
	}
	if err := s2.Send([]byte{0x06}, false); err != nil {
		return DecisionError, err
	}

	if g.Verbose {
		log.Info("receiving XOR share", "party", PartyName(S1))
	}
	clientShare, err := client.Receive(p.shareBytes(), true)
	if err != nil {
		return DecisionError, err
	}
	g.Timing.Sample("Share", nil)

	if g.Verbose {
		log.Info("engaging in OT", "party", PartyName(S1),
			"flavor", g.Flavor(), "bits", p.OTBits())
	}
	if err := g.sendLabels(s2, garbled, clientShare, enrollShare,
		nonceShare); err != nil {
		return DecisionError, err
	}
	g.Timing.Sample("OT", nil)

	if g.Verbose {
		log.Info("receiving output labels", "party", PartyName(S1))
	}
	labels, err := s2.Receive(outputBytes(p.CircuitOutputs()), true)
	if err != nil {
		return DecisionError, err
	}

	decision, err := g.reconcile(circ, garbled, labels)
	if err != nil {
		return DecisionError, err
	}
	g.Timing.Sample("Map", nil)

	if g.Verbose {
		log.Info("sending decision", "party", PartyName(S1),
			"decision", decision)
	}
	if err := client.Send([]byte{decision}, true); err != nil {
		return DecisionError, err
	}
	g.Timing.Sample("Decision", nil)

	if g.Verbose {
		g.Timing.Print(os.Stdout)
	}
	return decision, nil
}

// sendOffline ships the oracle key, the garbled table, and the
// fixed-wire labels in plaintext, followed by the digest-wire labels
// selected by the expected commitment digest, encrypted, in malicious
// mode.
func (g *Garbler) sendOffline(s2 *p2p.Conn, circ *circuit.Circuit,
	garbled *circuit.Garbled) error {

	p := g.Params

	buf := make([]byte, 0, offlineBytes(circ.NumNonFree()))
	buf = append(buf, garbled.Key[:]...)

	var data ot.LabelData
	for _, row := range garbled.Table {
		buf = append(buf, row.Bytes(&data)...)
	}
	zero, one := garbled.FixedLabels(circ)
	buf = append(buf, zero.Bytes(&data)...)
	buf = append(buf, one.Bytes(&data)...)

	if err := s2.Send(buf, false); err != nil {
		return err
	}

	if !p.Malicious {
		return nil
	}
	if len(g.Digest) != CommitDigestBits/8 {
		return fmt.Errorf("missing commitment digest")
	}

	buf = buf[:0]
	for i := 0; i < CommitDigestBits; i++ {
		w := garbled.Wires[p.digestOffset()+i]
		label := w.L0
		if bitOf(g.Digest, i) == 1 {
			label = w.L1
		}
		buf = append(buf, label.Bytes(&data)...)
	}
	return s2.Send(buf, true)
}

// sendLabels runs the OT sender for the evaluator's input wires. The
// runtime-side label pairs are permuted by the client share received
// by S1, the enrollment side by S1's enrollment share, and the nonce
// wires by S1's nonce share, so the evaluator's selections yield the
// labels of the reconstructed input bits.
func (g *Garbler) sendLabels(s2 ot.IO, garbled *circuit.Garbled,
	clientShare, enrollShare, nonceShare []byte) error {

	p := g.Params

	permuted := func(w ot.Wire, bit int) ot.Wire {
		if bit == 1 {
			return ot.Wire{
				L0: w.L1,
				L1: w.L0,
			}
		}
		return w
	}

	wires := make([]ot.Wire, 0, p.OTBits())
	for i := 0; i < p.BiometricBits(); i++ {
		wires = append(wires, permuted(
			garbled.Wires[p.runtimeOffset()+i], bitOf(clientShare, i)))
	}
	for i := 0; i < p.BiometricBits(); i++ {
		wires = append(wires, permuted(
			garbled.Wires[p.enrollOffset()+i], bitOf(enrollShare, i)))
	}
	if p.Malicious {
		for i := 0; i < CommitNonceBits; i++ {
			wires = append(wires, permuted(
				garbled.Wires[p.nonceOffset()+i], bitOf(nonceShare, i)))
		}
	}

	sender := g.newOT()
	if err := sender.InitSender(s2); err != nil {
		return err
	}
	if err := sender.Send(wires); err != nil {
		return err
	}
	return s2.Flush()
}

// reconcile maps the evaluator's output labels to Boolean values via
// the output map and folds them into the decision bit. A label
// matching neither output label indicates a corrupt garbled table or
// an incorrect OT response and is fatal.
func (g *Garbler) reconcile(circ *circuit.Circuit,
	garbled *circuit.Garbled, data []byte) (byte, error) {

	m := g.Params.CircuitOutputs()
	if data[m*LabelBytes] != 1 {
		return DecisionError, fmt.Errorf("evaluator signaled failure")
	}

	accept := true
	for i := 0; i < m; i++ {
		var label ot.Label
		label.SetBytes(data[i*LabelBytes:])

		w := garbled.OutputWire(circ, i)
		switch {
		case label.Equal(w.L0):
			accept = false
		case label.Equal(w.L1):
		default:
			return DecisionError,
				fmt.Errorf("output %d: label matches neither value", i)
		}
	}
	if accept {
		return DecisionAccept, nil
	}
	return DecisionReject, nil
}

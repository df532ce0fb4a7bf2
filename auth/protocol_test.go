//
// protocol_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package auth

import (
	"crypto/rand"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/applied-crypto-lab/bioauth/circuit"
	"github.com/applied-crypto-lab/bioauth/ot"
	"github.com/applied-crypto-lab/bioauth/p2p"
)

// testBarrier is a reusable three-way barrier for the in-memory
// transport.
type testBarrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	count      int
	generation int
}

func newTestBarrier(parties int) *testBarrier {
	b := &testBarrier{
		parties: parties,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *testBarrier) await() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.count++
	if b.count == b.parties {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// testTransport wires three parties with in-memory pipes.
type testTransport struct {
	id      int
	conns   map[int]*p2p.Conn
	barrier *testBarrier
}

func (t *testTransport) Peer(id int) (*p2p.Conn, error) {
	return t.conns[id], nil
}

func (t *testTransport) MulticastAck(rounds int) error {
	for i := 0; i < rounds; i++ {
		t.barrier.await()
	}
	return nil
}

func newTestMesh(t *testing.T) [3]*testTransport {
	t.Helper()

	barrier := newTestBarrier(3)
	var mesh [3]*testTransport
	for i := 0; i < 3; i++ {
		mesh[i] = &testTransport{
			id:      i,
			conns:   make(map[int]*p2p.Conn),
			barrier: barrier,
		}
	}

	key := make([]byte, p2p.SessionKeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			a, b := net.Pipe()
			ca := p2p.NewConn(a)
			cb := p2p.NewConn(b)
			require.NoError(t, ca.SetSession(key))
			require.NoError(t, cb.SetSession(key))
			mesh[i].conns[j] = ca
			mesh[j].conns[i] = cb
		}
	}
	return mesh
}

func testConfig(t *testing.T, p Params) ProtoConfig {
	t.Helper()

	dir := t.TempDir()
	_, err := LoadOrBuild(p, dir, false)
	require.NoError(t, err)

	return ProtoConfig{
		Params:     p,
		CircuitDir: dir,
		NumBaseOTs: 190,
		NumChecks:  380,
		Offline:    true,
		Online:     true,
	}
}

// runProtocol runs all three parties to completion and returns the
// decision observed by S1 and C.
func runProtocol(t *testing.T, g *Garbler, e *Evaluator, c *Client,
	mesh [3]*testTransport) (byte, byte) {

	t.Helper()

	var wg sync.WaitGroup
	var s1Decision, cDecision byte
	var s1Err, s2Err, cErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		s1Decision, s1Err = g.Run(mesh[S1])
	}()
	go func() {
		defer wg.Done()
		s2Err = e.Run(mesh[S2])
	}()
	go func() {
		defer wg.Done()
		cDecision, cErr = c.Run(mesh[C])
	}()
	wg.Wait()

	require.NoError(t, s1Err, "S1")
	require.NoError(t, s2Err, "S2")
	require.NoError(t, cErr, "C")
	return s1Decision, cDecision
}

func TestProtocolHammingAccept(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
	}
	cfg := testConfig(t, p)

	bio := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enrollBits := BitsToBytes(bio.Bits(p.InputLength))

	g := &Garbler{ProtoConfig: cfg, EnrollShare: enrollBits}
	e := &Evaluator{ProtoConfig: cfg,
		EnrollShare: make([]byte, len(enrollBits))}
	c := &Client{ProtoConfig: cfg, Biometric: &bio}

	s1Decision, cDecision := runProtocol(t, g, e, c, newTestMesh(t))
	require.Equal(t, DecisionAccept, s1Decision)
	require.Equal(t, DecisionAccept, cDecision)
}

func TestProtocolHammingReject(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
	}
	cfg := testConfig(t, p)

	enroll := Biometric{Features: repeated(0, 8), Range: 1, Min: 0}
	runtime := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enrollBits := BitsToBytes(enroll.Bits(p.InputLength))

	g := &Garbler{ProtoConfig: cfg, EnrollShare: enrollBits}
	e := &Evaluator{ProtoConfig: cfg,
		EnrollShare: make([]byte, len(enrollBits))}
	c := &Client{ProtoConfig: cfg, Biometric: &runtime}

	s1Decision, cDecision := runProtocol(t, g, e, c, newTestMesh(t))
	require.Equal(t, DecisionReject, s1Decision)
	require.Equal(t, DecisionReject, cDecision)
}

func TestProtocolMaliciousCommitment(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
		Malicious:   true,
		Hash:        SHA2_256,
	}
	cfg := testConfig(t, p)

	bio := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enrollBits := BitsToBytes(bio.Bits(p.InputLength))

	nonce := make([]bool, CommitNonceBits)
	for i := range nonce {
		nonce[i] = i%5 == 0
	}
	message := append(append([]bool{}, bio.Bits(p.InputLength)...), nonce...)
	digest := BitsToBytes(CommitDigest(message, p.Hash))
	nonceBytes := BitsToBytes(nonce)

	run := func(s1Nonce []byte) byte {
		g := &Garbler{
			ProtoConfig: cfg,
			EnrollShare: enrollBits,
			NonceShare:  s1Nonce,
			Digest:      digest,
		}
		e := &Evaluator{
			ProtoConfig: cfg,
			EnrollShare: make([]byte, len(enrollBits)),
			NonceShare:  make([]byte, CommitNonceBits/8),
		}
		c := &Client{ProtoConfig: cfg, Biometric: &bio}

		decision, _ := runProtocol(t, g, e, c, newTestMesh(t))
		return decision
	}

	// Matching nonce shares reconstruct the committed nonce: accept.
	require.Equal(t, DecisionAccept, run(nonceBytes))

	// A wrong nonce share rejects even though the distance is zero.
	bad := append([]byte{}, nonceBytes...)
	bad[0] ^= 1
	require.Equal(t, DecisionReject, run(bad))
}

// TestProtocolTruncatedLabels injects a one-byte truncation into the
// evaluator's output-label message; S1 must surface decision 4.
func TestProtocolTruncatedLabels(t *testing.T) {
	p := Params{
		Distance:    HD,
		NumInputs:   8,
		InputLength: 8,
		HDThreshold: 1,
	}
	cfg := testConfig(t, p)

	bio := Biometric{Features: repeated(17, 8), Range: 1, Min: 0}
	enrollBits := BitsToBytes(bio.Bits(p.InputLength))
	mesh := newTestMesh(t)

	g := &Garbler{ProtoConfig: cfg, EnrollShare: enrollBits}
	c := &Client{ProtoConfig: cfg, Biometric: &bio}

	var wg sync.WaitGroup
	var s1Decision, cDecision byte
	var s1Err, cErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		s1Decision, s1Err = g.Run(mesh[S1])
	}()
	go func() {
		defer wg.Done()
		cDecision, cErr = c.Run(mesh[C])
	}()
	go func() {
		defer wg.Done()
		truncatingEvaluator(t, cfg, mesh[S2])
	}()
	wg.Wait()

	require.Error(t, s1Err, "S1 must fail on the byte-count mismatch")
	require.Equal(t, DecisionError, s1Decision)
	require.NoError(t, cErr)
	require.Equal(t, DecisionError, cDecision)
}

// truncatingEvaluator follows the S2 state machine but ships an
// output-label message that is one byte short.
func truncatingEvaluator(t *testing.T, cfg ProtoConfig, tr Transport) {
	t.Helper()
	p := cfg.Params

	circ, err := circuit.ReadFile(p.FileName(cfg.CircuitDir))
	require.NoError(t, err)

	s1, err := tr.Peer(S1)
	require.NoError(t, err)
	client, err := tr.Peer(C)
	require.NoError(t, err)

	require.NoError(t, tr.MulticastAck(1))

	_, err = s1.Receive(offlineBytes(circ.NumNonFree()), false)
	require.NoError(t, err)

	require.NoError(t, s1.Send([]byte{0x06}, false))
	_, err = s1.Receive(1, false)
	require.NoError(t, err)

	_, err = client.Receive(p.shareBytes(), true)
	require.NoError(t, err)

	flags := make([]bool, p.OTBits())
	received := make([]ot.Label, len(flags))
	receiver := cfg.newOT()
	require.NoError(t, receiver.InitReceiver(s1))
	require.NoError(t, receiver.Receive(flags, received))

	// One byte short of the expected m·16+1 message.
	buf := make([]byte, outputBytes(p.CircuitOutputs())-1)
	require.NoError(t, s1.Send(buf, true))
}

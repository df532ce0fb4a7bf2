//
// iknp.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//
// IKNP OT extension:
//  - Ishai, Kilian, Nissim, Petrank: Extending Oblivious Transfers
//    Efficiently. CRYPTO 2003.

package ot

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

const (
	// IKNPK defines the security parameter k of the IKNP protocol;
	// the number of base OTs.
	IKNPK = 128
)

var (
	_ OT = &IKNP{}
)

// IKNPSender implements the random correlated OT sender.
type IKNPSender struct {
	// Delta defines the correlation delta: b1 = b0 ⊕ Δ
	Delta Label
	io    IO
	g0    [IKNPK]cipher.Stream
}

// NewIKNPSender creates a new correlated OT sender. The base OT runs
// in the reverse direction: the sender acts as the base OT receiver
// with its correlation bits as the choices.
func NewIKNPSender(base OT, io IO, r io.Reader) (*IKNPSender, error) {
	delta, err := NewLabel(r)
	if err != nil {
		return nil, err
	}

	s := &IKNPSender{
		Delta: delta,
		io:    io,
	}

	var flags [IKNPK]bool
	for i := 0; i < IKNPK; i++ {
		flags[i] = delta.Bit(i) == 1
	}

	var seeds [IKNPK]Label
	if err := base.Receive(flags[:], seeds[:]); err != nil {
		return nil, err
	}

	var iv [16]byte
	var key LabelData

	for i := 0; i < IKNPK; i++ {
		block, err := aes.NewCipher(seeds[i].Bytes(&key))
		if err != nil {
			return nil, err
		}
		s.g0[i] = cipher.NewCTR(block, iv[:])
	}

	return s, nil
}

// Send generates n correlated labels. The function returns the b0
// labels; the b1 labels are b0[i] ⊕ s.Delta.
func (s *IKNPSender) Send(n int) ([]Label, error) {
	rowBytes := (n + 7) / 8

	// The receiver sends the K xor-rows U = T0 ⊕ T1 ⊕ b.
	U, err := s.io.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(U) != IKNPK*rowBytes {
		return nil, fmt.Errorf("invalid U size: got %d, expected %d",
			len(U), IKNPK*rowBytes)
	}

	// Q_i = PRG(seed_i) ⊕ Δ_i·U_i. Column j of Q is the b0 label of
	// transfer j.
	rows := make([]byte, IKNPK*rowBytes)
	for i := 0; i < IKNPK; i++ {
		row := rows[i*rowBytes : (i+1)*rowBytes]
		prg(s.g0[i], row)
		if s.Delta.Bit(i) == 1 {
			xor(row, U[i*rowBytes:(i+1)*rowBytes])
		}
	}

	result := make([]Label, n)
	transpose(result, rows, rowBytes)

	return result, nil
}

// IKNPReceiver implements the random correlated OT receiver.
type IKNPReceiver struct {
	io IO
	g0 [IKNPK]cipher.Stream
	g1 [IKNPK]cipher.Stream
}

// NewIKNPReceiver creates a new correlated OT receiver.
func NewIKNPReceiver(base OT, io IO, rand io.Reader) (*IKNPReceiver, error) {
	var wires [IKNPK]Wire
	for i := 0; i < IKNPK; i++ {
		l0, err := NewLabel(rand)
		if err != nil {
			return nil, err
		}
		l1, err := NewLabel(rand)
		if err != nil {
			return nil, err
		}
		wires[i] = Wire{
			L0: l0,
			L1: l1,
		}
	}
	if err := base.Send(wires[:]); err != nil {
		return nil, err
	}

	r := &IKNPReceiver{
		io: io,
	}

	var key LabelData
	var iv [16]byte

	for i := 0; i < IKNPK; i++ {
		block, err := aes.NewCipher(wires[i].L0.Bytes(&key))
		if err != nil {
			return nil, err
		}
		r.g0[i] = cipher.NewCTR(block, iv[:])

		block, err = aes.NewCipher(wires[i].L1.Bytes(&key))
		if err != nil {
			return nil, err
		}
		r.g1[i] = cipher.NewCTR(block, iv[:])
	}

	return r, nil
}

// Receive receives labels based on the selection flags b. The
// returned labels implement the correlation: br[i] = b0[i] ⊕
// b[i]·Delta.
func (r *IKNPReceiver) Receive(b []bool) ([]Label, error) {
	rowBytes := (len(b) + 7) / 8

	bbuf := make([]byte, rowBytes)
	for i, f := range b {
		if f {
			bbuf[i/8] |= 1 << (i % 8)
		}
	}

	t0 := make([]byte, IKNPK*rowBytes)
	U := make([]byte, IKNPK*rowBytes)
	tmp := make([]byte, rowBytes)

	for i := 0; i < IKNPK; i++ {
		row0 := t0[i*rowBytes : (i+1)*rowBytes]
		prg(r.g0[i], row0)
		prg(r.g1[i], tmp)

		urow := U[i*rowBytes : (i+1)*rowBytes]
		copy(urow, row0)
		xor(urow, tmp)
		xor(urow, bbuf)
	}

	if err := r.io.SendData(U); err != nil {
		return nil, err
	}
	if err := r.io.Flush(); err != nil {
		return nil, err
	}

	result := make([]Label, len(b))
	transpose(result, t0, rowBytes)

	return result, nil
}

func prg(c cipher.Stream, buf []byte) {
	// Clear the buffer as it is shared between iterations.
	for i := 0; i < len(buf); i++ {
		buf[i] = 0
	}
	c.XORKeyStream(buf, buf)
}

// transpose turns the w-byte matrix rows into column labels.
func transpose(l []Label, buf []byte, w int) {
	for j := 0; j < len(l); j++ {
		row := j / 8
		bit := j % 8
		for i := 0; i < IKNPK; i++ {
			v := uint((buf[i*w+row] >> bit) & 1)
			l[j].SetBit(i, v)
		}
	}
}

// IKNP implements the IKNP OT extension as the OT interface. The
// correlated labels are turned into chosen-message OTs by hashing
// them under a tweakable correlation-robust hash seeded by the
// sender.
type IKNP struct {
	base  OT
	r     io.Reader
	io    IO
	iknpS *IKNPSender
	iknpR *IKNPReceiver
}

// NewIKNP creates an IKNP OT extension over the base OT.
func NewIKNP(base OT, r io.Reader) *IKNP {
	return &IKNP{
		base: base,
		r:    r,
	}
}

// InitSender implements OT.InitSender.
func (iknp *IKNP) InitSender(io IO) error {
	if iknp.iknpS != nil || iknp.iknpR != nil {
		return fmt.Errorf("already initialized")
	}
	if err := iknp.base.InitReceiver(io); err != nil {
		return err
	}
	s, err := NewIKNPSender(iknp.base, io, iknp.r)
	if err != nil {
		return err
	}
	iknp.io = io
	iknp.iknpS = s

	return nil
}

// InitReceiver implements OT.InitReceiver.
func (iknp *IKNP) InitReceiver(io IO) error {
	if iknp.iknpS != nil || iknp.iknpR != nil {
		return fmt.Errorf("already initialized")
	}
	if err := iknp.base.InitSender(io); err != nil {
		return err
	}
	r, err := NewIKNPReceiver(iknp.base, io, iknp.r)
	if err != nil {
		return err
	}
	iknp.io = io
	iknp.iknpR = r

	return nil
}

// Send implements OT.Send.
func (iknp *IKNP) Send(wires []Wire) error {
	if iknp.iknpS == nil {
		return fmt.Errorf("not initialized as sender")
	}
	b0, err := iknp.iknpS.Send(len(wires))
	if err != nil {
		return err
	}
	seed, err := NewLabel(iknp.r)
	if err != nil {
		return err
	}
	crh, err := newCRHash(seed)
	if err != nil {
		return err
	}

	var ld LabelData
	if err := iknp.io.SendLabel(seed, &ld); err != nil {
		return err
	}

	for i, w := range wires {
		b1 := b0[i]
		b1.Xor(iknp.iknpS.Delta)

		e0 := crh.Hash(b0[i], uint32(i))
		e0.Xor(w.L0)
		e1 := crh.Hash(b1, uint32(i))
		e1.Xor(w.L1)

		if err := iknp.io.SendLabel(e0, &ld); err != nil {
			return err
		}
		if err := iknp.io.SendLabel(e1, &ld); err != nil {
			return err
		}
	}
	return iknp.io.Flush()
}

// Receive implements OT.Receive.
func (iknp *IKNP) Receive(flags []bool, result []Label) error {
	if iknp.iknpR == nil {
		return fmt.Errorf("not initialized as receiver")
	}
	br, err := iknp.iknpR.Receive(flags)
	if err != nil {
		return err
	}
	var seed Label
	var ld LabelData
	if err := iknp.io.ReceiveLabel(&seed, &ld); err != nil {
		return err
	}
	crh, err := newCRHash(seed)
	if err != nil {
		return err
	}

	var e0, e1 Label
	for i := range flags {
		if err := iknp.io.ReceiveLabel(&e0, &ld); err != nil {
			return err
		}
		if err := iknp.io.ReceiveLabel(&e1, &ld); err != nil {
			return err
		}
		pad := crh.Hash(br[i], uint32(i))
		if flags[i] {
			result[i] = e1
		} else {
			result[i] = e0
		}
		result[i].Xor(pad)
	}

	return nil
}

// crHash is a tweakable correlation-robust hash: H(x, i) = π(k) ⊕ k
// where k = 2x ⊕ i and π is AES-128 under the session seed.
type crHash struct {
	alg cipher.Block
}

func newCRHash(seed Label) (*crHash, error) {
	var key LabelData
	alg, err := aes.NewCipher(seed.Bytes(&key))
	if err != nil {
		return nil, err
	}
	return &crHash{
		alg: alg,
	}, nil
}

func (h *crHash) Hash(x Label, i uint32) Label {
	k := x
	k.Mul2()
	k.Xor(NewTweak(i))

	var data LabelData
	k.GetData(&data)
	h.alg.Encrypt(data[:], data[:])

	var pi Label
	pi.SetData(&data)
	pi.Xor(k)

	return pi
}

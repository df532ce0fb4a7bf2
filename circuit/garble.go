//
// garble.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuit

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/applied-crypto-lab/bioauth/ot"
)

// RowsPerGate is the number of garbled-table rows per non-free gate
// under row reduction.
const RowsPerGate = 3

// Garbled contains the garbled circuit: the per-wire label pairs, the
// garbled table, and the random-oracle key. Only the table, the key,
// and the two active fixed-wire labels leave the garbler.
type Garbled struct {
	// R is the free-XOR delta. Its least significant bit is one so
	// that the two labels of every wire differ in their
	// point-and-permute bit.
	R ot.Label

	// Key seeds the tweakable random oracle.
	Key [16]byte

	// Wires holds both labels for every circuit wire.
	Wires []ot.Wire

	// Table is the garbled table: RowsPerGate rows per non-free gate,
	// in gate order.
	Table []ot.Label
}

// OutputWire returns both labels of the circuit output wire idx.
func (g *Garbled) OutputWire(c *Circuit, idx int) ot.Wire {
	return g.Wires[c.Outputs[idx]]
}

// FixedLabels returns the active labels of the fixed-zero and
// fixed-one wires. The evaluator needs them for free-XOR gates that
// reference a fixed wire.
func (g *Garbled) FixedLabels(c *Circuit) (zero, one ot.Label) {
	return g.Wires[c.FixedZero()].L0, g.Wires[c.FixedOne()].L1
}

// Lambda returns the point-and-permute bit of the wire's zero label.
func (g *Garbled) Lambda(wire Wire) uint {
	if g.Wires[wire].L0.P() {
		return 1
	}
	return 0
}

// Garble garbles the circuit. The labels and the oracle key are
// sampled from rand.
func (c *Circuit) Garble(rand io.Reader) (*Garbled, error) {
	r, err := ot.NewLabel(rand)
	if err != nil {
		return nil, err
	}
	// Odd parity keeps point-and-permute intact.
	r.SetP(true)

	g := &Garbled{
		R:     r,
		Wires: make([]ot.Wire, c.NumWires),
		Table: make([]ot.Label, 0, RowsPerGate*c.NumNonFree()),
	}
	if _, err := rand.Read(g.Key[:]); err != nil {
		return nil, err
	}
	alg, err := aes.NewCipher(g.Key[:])
	if err != nil {
		return nil, err
	}

	// Input wires and the fixed wires carry fresh labels.
	for i := 0; i < c.NumInputs+2; i++ {
		w, err := makeWire(rand, r)
		if err != nil {
			return nil, err
		}
		g.Wires[i] = w
	}

	var data ot.LabelData
	for i := range c.Gates {
		gate := &c.Gates[i]
		a := g.Wires[gate.Input0]

		var cw ot.Wire
		switch gate.Op {
		case XOR:
			// Free XOR.
			b := g.Wires[gate.Input1]
			l0 := a.L0
			l0.Xor(b.L0)
			l1 := l0
			l1.Xor(r)
			cw = ot.Wire{
				L0: l0,
				L1: l1,
			}

		case NOT:
			// Label swap; no table rows.
			cw = ot.Wire{
				L0: a.L1,
				L1: a.L0,
			}

		case AND, OR:
			b := g.Wires[gate.Input1]
			rows, w, err := garbleNonFree(alg, gate.Op, a, b, r,
				uint32(i), &data)
			if err != nil {
				return nil, err
			}
			g.Table = append(g.Table, rows[:]...)
			cw = w

		default:
			return nil, fmt.Errorf("invalid operation %s", gate.Op)
		}
		g.Wires[gate.Output] = cw
	}

	return g, nil
}

// garbleNonFree garbles one AND or OR gate with row reduction. The
// four label combinations are indexed by their point-and-permute
// bits; the (0,0) row is forced to zero by deriving the matching
// output label directly from the oracle, and the remaining three rows
// are stored in permutation order.
func garbleNonFree(alg cipher.Block, op Op, a, b ot.Wire, r ot.Label,
	tweak uint32, data *ot.LabelData) (
	rows [RowsPerGate]ot.Label, c ot.Wire, err error) {

	truth := func(va, vb bool) bool {
		if op == AND {
			return va && vb
		}
		return va || vb
	}

	// label returns the input label whose permute bit is sigma, and
	// the Boolean value it encodes.
	label := func(w ot.Wire, sigma bool) (ot.Label, bool) {
		if w.L0.P() == sigma {
			return w.L0, false
		}
		return w.L1, true
	}

	a0, va0 := label(a, false)
	b0, vb0 := label(b, false)

	// Row (0,0) defines the output label for truth(va0, vb0).
	h00 := oracle(alg, a0, b0, tweak, data)
	if truth(va0, vb0) {
		c.L1 = h00
		c.L0 = h00
		c.L0.Xor(r)
	} else {
		c.L0 = h00
		c.L1 = h00
		c.L1.Xor(r)
	}

	for idx := 1; idx < 4; idx++ {
		sa := idx&2 != 0
		sb := idx&1 != 0
		la, va := label(a, sa)
		lb, vb := label(b, sb)

		row := oracle(alg, la, lb, tweak, data)
		if truth(va, vb) {
			row.Xor(c.L1)
		} else {
			row.Xor(c.L0)
		}
		rows[idx-1] = row
	}
	return rows, c, nil
}

// oracle computes the tweakable random oracle H(a, b, t) = π(K) ⊕ K
// where K = 2a ⊕ 4b ⊕ t and π is AES-128 under the circuit key.
func oracle(alg cipher.Block, a, b ot.Label, t uint32,
	data *ot.LabelData) ot.Label {

	k := makeK(a, b, t)

	k.GetData(data)
	alg.Encrypt(data[:], data[:])

	var pi ot.Label
	pi.SetData(data)
	pi.Xor(k)

	return pi
}

// makeK computes the oracle tweak K = 2a ⊕ 4b ⊕ t.
func makeK(a, b ot.Label, t uint32) ot.Label {
	a.Mul2()

	b.Mul4()
	a.Xor(b)

	a.Xor(ot.NewTweak(t))

	return a
}

func makeWire(rand io.Reader, r ot.Label) (ot.Wire, error) {
	l0, err := ot.NewLabel(rand)
	if err != nil {
		return ot.Wire{}, err
	}
	l1 := l0
	l1.Xor(r)

	return ot.Wire{
		L0: l0,
		L1: l1,
	}, nil
}

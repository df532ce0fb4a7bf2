//
// circuit_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuit

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/applied-crypto-lab/bioauth/ot"
)

// testCircuit builds a two-input circuit exercising every gate type:
//
//	w4 = a XOR b
//	w5 = a AND b
//	w6 = a OR b
//	w7 = NOT w5
//	w8 = w4 XOR one (fixed wire reference)
//
// Outputs: w4, w5, w6, w7, w8.
func testCircuit() *Circuit {
	c := &Circuit{
		NumInputs:  2,
		NumOutputs: 5,
		NumWires:   9,
		Gates: []Gate{
			{Input0: 0, Input1: 1, Output: 4, Op: XOR},
			{Input0: 0, Input1: 1, Output: 5, Op: AND},
			{Input0: 0, Input1: 1, Output: 6, Op: OR},
			{Input0: 5, Output: 7, Op: NOT},
			{Input0: 4, Input1: 3, Output: 8, Op: XOR},
		},
		Outputs: []Wire{4, 5, 6, 7, 8},
		Stats: map[Op]int{
			XOR: 2,
			AND: 1,
			OR:  1,
			NOT: 1,
		},
	}
	return c
}

func TestComputeTruthTables(t *testing.T) {
	c := testCircuit()
	if err := c.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	for mask := 0; mask < 4; mask++ {
		a := mask&1 != 0
		b := mask&2 != 0
		outputs, err := c.Compute([]bool{a, b})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		expected := []bool{a != b, a && b, a || b, !(a && b), !(a != b)}
		for i, v := range expected {
			if outputs[i] != v {
				t.Errorf("inputs (%v,%v) output %d: got %v, expected %v",
					a, b, i, outputs[i], v)
			}
		}
	}
}

func TestGarbleInvariants(t *testing.T) {
	c := testCircuit()

	g, err := c.Garble(rand.Reader)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	if !g.R.P() {
		t.Error("free-XOR delta must have an odd permute bit")
	}
	if len(g.Table) != RowsPerGate*c.NumNonFree() {
		t.Errorf("table rows: got %d, expected %d",
			len(g.Table), RowsPerGate*c.NumNonFree())
	}
	for i, w := range g.Wires {
		expected := w.L0
		expected.Xor(g.R)
		if !w.L1.Equal(expected) {
			t.Errorf("wire %d: label1 != label0 ^ R", i)
		}
		if w.L0.P() == w.L1.P() {
			t.Errorf("wire %d: labels share the permute bit", i)
		}
	}
}

func TestGarbleEval(t *testing.T) {
	c := testCircuit()

	g, err := c.Garble(rand.Reader)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	for mask := 0; mask < 4; mask++ {
		inputs := []bool{mask&1 != 0, mask&2 != 0}

		wires := make([]ot.Label, c.NumWires)
		for i, v := range inputs {
			if v {
				wires[i] = g.Wires[i].L1
			} else {
				wires[i] = g.Wires[i].L0
			}
		}
		zero, one := g.FixedLabels(c)
		wires[c.FixedZero()] = zero
		wires[c.FixedOne()] = one

		table := make([]ot.Label, len(g.Table))
		copy(table, g.Table)

		labels, err := c.Eval(g.Key[:], wires, table)
		if err != nil {
			t.Fatalf("Eval: %v", err)
		}

		expected, err := c.Compute(inputs)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		for i, label := range labels {
			w := g.OutputWire(c, i)
			var value bool
			switch {
			case label.Equal(w.L0):
				value = false
			case label.Equal(w.L1):
				value = true
			default:
				t.Fatalf("inputs %v output %d: label %s matches neither label",
					inputs, i, label)
			}
			if value != expected[i] {
				t.Errorf("inputs %v output %d: got %v, expected %v",
					inputs, i, value, expected[i])
			}
		}
	}
}

func TestSCDRoundTrip(t *testing.T) {
	c := testCircuit()

	var buf bytes.Buffer
	if err := c.Marshal(&buf); err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// header + q gate records + m outputs
	expected := 16 + len(c.Gates)*13 + len(c.Outputs)*4
	if buf.Len() != expected {
		t.Errorf("SCD size: got %d, expected %d", buf.Len(), expected)
	}

	parsed, err := Unmarshal(&buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if parsed.NumInputs != c.NumInputs || parsed.NumOutputs != c.NumOutputs ||
		parsed.NumWires != c.NumWires || len(parsed.Gates) != len(c.Gates) {
		t.Fatalf("header mismatch: %s != %s", parsed, c)
	}
	for i, g := range parsed.Gates {
		if g.Op != c.Gates[i].Op || g.Input0 != c.Gates[i].Input0 ||
			g.Output != c.Gates[i].Output {
			t.Errorf("gate %d mismatch: %s != %s", i, g, c.Gates[i])
		}
	}
	for i, o := range parsed.Outputs {
		if o != c.Outputs[i] {
			t.Errorf("output %d mismatch: %d != %d", i, o, c.Outputs[i])
		}
	}
}

//
// eval.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuit

import (
	"crypto/aes"
	"fmt"

	"github.com/applied-crypto-lab/bioauth/ot"
)

// Eval evaluates the garbled circuit. The wires array must hold one
// label for every input wire and for the two fixed wires; the gates
// fill in the rest. The function returns one label per output wire.
func (c *Circuit) Eval(key []byte, wires []ot.Label,
	table []ot.Label) ([]ot.Label, error) {

	if len(wires) != c.NumWires {
		return nil, fmt.Errorf("invalid wires: got %d, expected %d",
			len(wires), c.NumWires)
	}
	if len(table) != RowsPerGate*c.NumNonFree() {
		return nil, fmt.Errorf("invalid table: got %d rows, expected %d",
			len(table), RowsPerGate*c.NumNonFree())
	}
	alg, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	var data ot.LabelData
	var tableOfs int

	for i := range c.Gates {
		gate := &c.Gates[i]
		a := wires[gate.Input0]

		var output ot.Label
		switch gate.Op {
		case XOR:
			output = a
			output.Xor(wires[gate.Input1])

		case NOT:
			// The labels are swapped; the active label is unchanged.
			output = a

		case AND, OR:
			b := wires[gate.Input1]

			var idx int
			if a.P() {
				idx |= 0x2
			}
			if b.P() {
				idx |= 0x1
			}
			output = oracle(alg, a, b, uint32(i), &data)
			if idx > 0 {
				output.Xor(table[tableOfs+idx-1])
			}
			tableOfs += RowsPerGate

		default:
			return nil, fmt.Errorf("invalid operation %s", gate.Op)
		}
		wires[gate.Output] = output
	}

	result := make([]ot.Label, len(c.Outputs))
	for i, o := range c.Outputs {
		result[i] = wires[o]
	}
	return result, nil
}

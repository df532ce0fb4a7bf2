//
// builder.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

// Package circuits implements the circuit builder: wire allocation
// with pre-allocated bounds, a constant-folding gate layer, and the
// integer, floating-point, and hash circuit libraries.
//
// All operations take wire-index slices and return freshly allocated
// wire-index slices; outputs never alias caller buffers. Errors are
// sticky: the first failure (typically ErrAllocExceeded) is recorded
// in the builder and returned from Finish, so circuit-emission code
// does not check errors at every gate.
package circuits

import (
	"errors"
	"fmt"

	"github.com/applied-crypto-lab/bioauth/circuit"
)

// ErrAllocExceeded signals that building exceeded the pre-allocated
// gate or wire bound.
var ErrAllocExceeded = errors.New("circuits: allocation exceeded")

// Mode selects the integer representation for multiplication,
// comparison, and constants.
type Mode int

// Integer representations.
const (
	Unsigned Mode = iota
	Signed
)

func (m Mode) String() string {
	if m == Signed {
		return "signed"
	}
	return "unsigned"
}

type fixedKind byte

const (
	fixedNone fixedKind = iota
	fixedZero
	fixedOne
)

// Builder builds a Boolean circuit. The gate and wire counts are
// bounded by the limits given to NewBuilder; exceeding either is
// fatal for the build.
type Builder struct {
	// IntMode is the active integer representation. The float
	// operators save it, switch to Unsigned, and restore it on exit.
	IntMode Mode

	numInputs int
	maxGates  int
	maxWires  int
	gates     []circuit.Gate
	fixed     []fixedKind
	nextWire  int
	err       error
}

// NewBuilder creates a circuit builder for numInputs input wires with
// upper bounds maxGates and maxWires. The fixed-zero and fixed-one
// wires are placed immediately after the inputs.
func NewBuilder(numInputs, maxGates, maxWires int) (*Builder, error) {
	if numInputs < 1 {
		return nil, fmt.Errorf("circuits: no inputs defined")
	}
	if maxWires < numInputs+2 {
		return nil, fmt.Errorf("circuits: wire bound %d below %d",
			maxWires, numInputs+2)
	}
	b := &Builder{
		numInputs: numInputs,
		maxGates:  maxGates,
		maxWires:  maxWires,
		fixed:     make([]fixedKind, numInputs+2, maxWires),
		nextWire:  numInputs + 2,
	}
	b.fixed[numInputs] = fixedZero
	b.fixed[numInputs+1] = fixedOne
	return b, nil
}

// Inputs returns the input wire indices 0..n-1.
func (b *Builder) Inputs() []int {
	result := make([]int, b.numInputs)
	for i := range result {
		result[i] = i
	}
	return result
}

// Zero returns the fixed-zero wire.
func (b *Builder) Zero() int {
	return b.numInputs
}

// One returns the fixed-one wire.
func (b *Builder) One() int {
	return b.numInputs + 1
}

// Err returns the sticky build error.
func (b *Builder) Err() error {
	return b.err
}

// NumGates returns the number of gates emitted so far.
func (b *Builder) NumGates() int {
	return len(b.gates)
}

// NumWires returns the number of wires allocated so far.
func (b *Builder) NumWires() int {
	return b.nextWire
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) isZero(w int) bool {
	return b.fixed[w] == fixedZero
}

func (b *Builder) isOne(w int) bool {
	return b.fixed[w] == fixedOne
}

func (b *Builder) newWire() int {
	if b.nextWire >= b.maxWires {
		b.setErr(fmt.Errorf("%w: %d wires", ErrAllocExceeded, b.maxWires))
		return b.Zero()
	}
	w := b.nextWire
	b.nextWire++
	b.fixed = append(b.fixed, fixedNone)
	return w
}

func (b *Builder) addGate(op circuit.Op, i0, i1 int) int {
	if len(b.gates) >= b.maxGates {
		b.setErr(fmt.Errorf("%w: %d gates", ErrAllocExceeded, b.maxGates))
		return b.Zero()
	}
	out := b.newWire()
	if b.err != nil {
		return b.Zero()
	}
	b.gates = append(b.gates, circuit.Gate{
		Input0: circuit.Wire(i0),
		Input1: circuit.Wire(i1),
		Output: circuit.Wire(out),
		Op:     op,
	})
	return out
}

// Finish records the output wires and returns the built circuit.
func (b *Builder) Finish(outputs []int) (*circuit.Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}

	stats := make(map[circuit.Op]int)
	for _, g := range b.gates {
		stats[g.Op]++
	}

	c := &circuit.Circuit{
		NumInputs:  b.numInputs,
		NumOutputs: len(outputs),
		NumWires:   b.nextWire,
		Gates:      b.gates,
		Outputs:    make([]circuit.Wire, len(outputs)),
		Stats:      stats,
	}
	for i, o := range outputs {
		if o < 0 || o >= b.nextWire {
			return nil, fmt.Errorf("circuits: invalid output wire %d", o)
		}
		c.Outputs[i] = circuit.Wire(o)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

//
// scd.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// The SCD (Serialized Circuit Description) format is the byte-exact
// on-disk form of a built circuit, excluding per-run labels:
//
//	header:  n, m, q, r as little-endian int32
//	gates:   q records {input0:i32, input1:i32, output:i32, type:u8}
//	outputs: m output-wire indices as little-endian int32
//
// NOT gates store -1 as input1.

var le = binary.LittleEndian

// Marshal writes the circuit in SCD format.
func (c *Circuit) Marshal(out io.Writer) error {
	w := bufio.NewWriter(out)

	var hdr [16]byte
	le.PutUint32(hdr[0:], uint32(c.NumInputs))
	le.PutUint32(hdr[4:], uint32(c.NumOutputs))
	le.PutUint32(hdr[8:], uint32(len(c.Gates)))
	le.PutUint32(hdr[12:], uint32(c.NumWires))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var rec [13]byte
	for _, g := range c.Gates {
		le.PutUint32(rec[0:], uint32(g.Input0))
		input1 := g.Input1
		if g.Op == NOT {
			input1 = -1
		}
		le.PutUint32(rec[4:], uint32(input1))
		le.PutUint32(rec[8:], uint32(g.Output))
		rec[12] = byte(g.Op)
		if _, err := w.Write(rec[:]); err != nil {
			return err
		}
	}

	for _, o := range c.Outputs {
		le.PutUint32(rec[0:], uint32(o))
		if _, err := w.Write(rec[:4]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Unmarshal reads a circuit in SCD format.
func Unmarshal(in io.Reader) (*Circuit, error) {
	r := bufio.NewReader(in)

	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := int(int32(le.Uint32(hdr[0:])))
	m := int(int32(le.Uint32(hdr[4:])))
	q := int(int32(le.Uint32(hdr[8:])))
	numWires := int(int32(le.Uint32(hdr[12:])))

	if n < 0 || m < 0 || q < 0 || numWires < n+2 {
		return nil, fmt.Errorf("invalid SCD header: n=%d, m=%d, q=%d, r=%d",
			n, m, q, numWires)
	}

	c := &Circuit{
		NumInputs:  n,
		NumOutputs: m,
		NumWires:   numWires,
		Gates:      make([]Gate, q),
		Outputs:    make([]Wire, m),
		Stats:      make(map[Op]int),
	}

	var rec [13]byte
	for i := 0; i < q; i++ {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, err
		}
		op := Op(rec[12])
		if op > NOT {
			return nil, fmt.Errorf("gate %d: invalid type %d", i, rec[12])
		}
		c.Gates[i] = Gate{
			Input0: Wire(int32(le.Uint32(rec[0:]))),
			Input1: Wire(int32(le.Uint32(rec[4:]))),
			Output: Wire(int32(le.Uint32(rec[8:]))),
			Op:     op,
		}
		c.Stats[op]++
	}

	for i := 0; i < m; i++ {
		if _, err := io.ReadFull(r, rec[:4]); err != nil {
			return nil, err
		}
		c.Outputs[i] = Wire(int32(le.Uint32(rec[0:])))
	}

	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteFile writes the circuit into an SCD file.
func (c *Circuit) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := c.Marshal(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a circuit from an SCD file.
func ReadFile(name string) (*Circuit, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Unmarshal(f)
}

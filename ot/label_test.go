//
// label_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.

package ot

import (
	"crypto/rand"
	"testing"
)

func TestLabelData(t *testing.T) {
	label, err := NewLabel(rand.Reader)
	if err != nil {
		t.Fatalf("NewLabel: %v", err)
	}

	var data LabelData
	label.GetData(&data)

	var parsed Label
	parsed.SetData(&data)

	if !label.Equal(parsed) {
		t.Errorf("label round-trip failed: %s != %s", label, parsed)
	}
}

func TestLabelP(t *testing.T) {
	var label Label

	label.SetP(true)
	if !label.P() {
		t.Error("P bit not set")
	}
	if label.D1 != 1 {
		t.Errorf("P bit must be the least significant bit, got %s", label)
	}
	label.SetP(false)
	if label.P() {
		t.Error("P bit not cleared")
	}
}

func TestLabelBit(t *testing.T) {
	var label Label

	for i := 0; i < 128; i++ {
		label.SetBit(i, 1)
		if label.Bit(i) != 1 {
			t.Errorf("bit %d not set", i)
		}
		label.SetBit(i, 0)
		if label.Bit(i) != 0 {
			t.Errorf("bit %d not cleared", i)
		}
		if label.D0 != 0 || label.D1 != 0 {
			t.Errorf("bit %d leaked: %s", i, label)
		}
	}
}

func TestLabelXor(t *testing.T) {
	a, err := NewLabel(rand.Reader)
	if err != nil {
		t.Fatalf("NewLabel: %v", err)
	}
	b, err := NewLabel(rand.Reader)
	if err != nil {
		t.Fatalf("NewLabel: %v", err)
	}

	c := a
	c.Xor(b)
	c.Xor(b)
	if !c.Equal(a) {
		t.Errorf("xor involution failed: %s != %s", c, a)
	}
}

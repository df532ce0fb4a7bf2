//
// ot_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.

package ot

import (
	"crypto/rand"
	"testing"
)

func testFlavor(t *testing.T, sender, receiver OT, count int) {
	t.Helper()

	wires := make([]Wire, count)
	flags := make([]bool, count)

	var buf [1]byte
	for i := 0; i < count; i++ {
		l0, err := NewLabel(rand.Reader)
		if err != nil {
			t.Fatalf("NewLabel: %v", err)
		}
		l1, err := NewLabel(rand.Reader)
		if err != nil {
			t.Fatalf("NewLabel: %v", err)
		}
		wires[i] = Wire{
			L0: l0,
			L1: l1,
		}
		if _, err := rand.Read(buf[:]); err != nil {
			t.Fatalf("rand: %v", err)
		}
		flags[i] = buf[0]&1 == 1
	}

	sPipe, rPipe := NewPipe()
	errs := make(chan error, 1)

	go func() {
		if err := sender.InitSender(sPipe); err != nil {
			errs <- err
			return
		}
		errs <- sender.Send(wires)
	}()

	if err := receiver.InitReceiver(rPipe); err != nil {
		t.Fatalf("InitReceiver: %v", err)
	}
	result := make([]Label, count)
	if err := receiver.Receive(flags, result); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i := 0; i < count; i++ {
		expected := wires[i].L0
		if flags[i] {
			expected = wires[i].L1
		}
		if !result[i].Equal(expected) {
			t.Errorf("transfer %d: got %s, expected %s",
				i, result[i], expected)
		}
	}
}

func TestCO(t *testing.T) {
	testFlavor(t, NewCO(), NewCO(), 16)
}

func TestIKNP(t *testing.T) {
	testFlavor(t, NewIKNP(NewCO(), rand.Reader),
		NewIKNP(NewCO(), rand.Reader), 300)
}

func TestIKNPOdd(t *testing.T) {
	// A count that is not a multiple of eight exercises the column
	// transposition tail.
	testFlavor(t, NewIKNP(NewCO(), rand.Reader),
		NewIKNP(NewCO(), rand.Reader), 13)
}

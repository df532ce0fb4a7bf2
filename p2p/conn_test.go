//
// conn_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"crypto/rand"
	"net"
	"testing"
)

func connPair(t *testing.T) (*Conn, *Conn) {
	t.Helper()

	a, b := net.Pipe()
	ca := NewConn(a)
	cb := NewConn(b)

	key := make([]byte, SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if err := ca.SetSession(key); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if err := cb.SetSession(key); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	return ca, cb
}

func TestConnPlaintext(t *testing.T) {
	ca, cb := connPair(t)

	msg := []byte("offline garbled table")
	errs := make(chan error, 1)
	go func() {
		errs <- ca.Send(msg, false)
	}()

	got, err := cb.Receive(len(msg), false)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("got %q, expected %q", got, msg)
	}
	if ca.Stats.Sent != uint64(len(msg)) {
		t.Errorf("sent stats: %d", ca.Stats.Sent)
	}
}

func TestConnEncrypted(t *testing.T) {
	ca, cb := connPair(t)

	for _, size := range []int{1, 15, 16, 17, 100} {
		msg := make([]byte, size)
		if _, err := rand.Read(msg); err != nil {
			t.Fatalf("rand: %v", err)
		}

		errs := make(chan error, 1)
		go func() {
			errs <- ca.Send(msg, true)
		}()

		got, err := cb.Receive(size, true)
		if err != nil {
			t.Fatalf("Receive(%d): %v", size, err)
		}
		if err := <-errs; err != nil {
			t.Fatalf("Send(%d): %v", size, err)
		}
		if !bytes.Equal(got, msg) {
			t.Errorf("size %d: payload mismatch", size)
		}
	}
}

func TestConnEncryptedNoSession(t *testing.T) {
	a, _ := net.Pipe()
	conn := NewConn(a)

	if err := conn.Send([]byte{1}, true); err == nil {
		t.Error("expected error without session key")
	}
}

func TestPKCS7(t *testing.T) {
	for size := 0; size < 40; size++ {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i)
		}
		padded := pkcs7Pad(data)
		if len(padded)%16 != 0 {
			t.Fatalf("size %d: padded length %d", size, len(padded))
		}
		got, err := pkcs7Unpad(padded)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("size %d: round-trip failed", size)
		}
	}
}

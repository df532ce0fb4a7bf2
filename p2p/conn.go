//
// conn.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package p2p

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/applied-crypto-lab/bioauth/ot"
)

// SessionKeySize is the AES-128 session key size in bytes.
const SessionKeySize = 16

var (
	bo       = binary.BigEndian
	_  ot.IO = &Conn{}
)

// IOStats counts transferred bytes.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Sub returns the difference of two samples.
func (stats IOStats) Sub(o IOStats) IOStats {
	return IOStats{
		Sent:  stats.Sent - o.Sent,
		Recvd: stats.Recvd - o.Recvd,
	}
}

// Sum returns the total transferred byte count.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// Conn implements a reliable, order-preserving byte channel to one
// peer. It implements ot.IO for the oblivious-transfer library.
type Conn struct {
	closer   io.Closer
	deadline deadliner
	timeout  time.Duration
	io       *bufio.ReadWriter
	session  cipher.Block
	Stats    IOStats
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// NewConn creates a channel over the underlying connection.
func NewConn(conn io.ReadWriter) *Conn {
	closer, _ := conn.(io.Closer)
	deadline, _ := conn.(deadliner)

	return &Conn{
		closer:   closer,
		deadline: deadline,
		io: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// SetTimeout arms a per-operation deadline for Send and Receive. An
// expired deadline surfaces as a short transfer error. Zero disables.
func (c *Conn) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *Conn) arm() {
	if c.deadline == nil || c.timeout == 0 {
		return
	}
	c.deadline.SetDeadline(time.Now().Add(c.timeout))
}

// SetSession arms the channel with the AES-128 session key used for
// encrypted transfers.
func (c *Conn) SetSession(key []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	c.session = block
	return nil
}

// Flush flushes pending data.
func (c *Conn) Flush() error {
	return c.io.Flush()
}

// Close flushes and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Send writes exactly len(data) logical bytes to the peer. With
// encrypted the payload travels as IV plus AES-128-CBC ciphertext
// with PKCS#7 padding; the on-wire size is implied by the logical
// size, so byte counts stay exact.
func (c *Conn) Send(data []byte, encrypted bool) error {
	c.arm()
	if !encrypted {
		if _, err := c.io.Write(data); err != nil {
			return err
		}
		c.Stats.Sent += uint64(len(data))
		return c.Flush()
	}
	if c.session == nil {
		return fmt.Errorf("p2p: no session key")
	}

	padded := pkcs7Pad(data)
	buf := make([]byte, aes.BlockSize+len(padded))
	iv := buf[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return err
	}
	cipher.NewCBCEncrypter(c.session, iv).CryptBlocks(buf[aes.BlockSize:],
		padded)

	if _, err := c.io.Write(buf); err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(buf))
	return c.Flush()
}

// Receive reads exactly n logical bytes from the peer.
func (c *Conn) Receive(n int, encrypted bool) ([]byte, error) {
	c.arm()
	if !encrypted {
		data := make([]byte, n)
		if _, err := io.ReadFull(c.io, data); err != nil {
			return nil, err
		}
		c.Stats.Recvd += uint64(n)
		return data, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("p2p: no session key")
	}

	ctLen := n + aes.BlockSize - n%aes.BlockSize
	buf := make([]byte, aes.BlockSize+ctLen)
	if _, err := io.ReadFull(c.io, buf); err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(len(buf))

	plain := make([]byte, ctLen)
	cipher.NewCBCDecrypter(c.session, buf[:aes.BlockSize]).
		CryptBlocks(plain, buf[aes.BlockSize:])

	plain, err := pkcs7Unpad(plain)
	if err != nil {
		return nil, err
	}
	if len(plain) != n {
		return nil, fmt.Errorf("p2p: byte count mismatch: got %d, expected %d",
			len(plain), n)
	}
	return plain, nil
}

func pkcs7Pad(data []byte) []byte {
	pad := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("p2p: invalid padded length %d", len(data))
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("p2p: invalid padding")
	}
	for _, v := range data[len(data)-pad:] {
		if int(v) != pad {
			return nil, fmt.Errorf("p2p: invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	var buf [4]byte
	bo.PutUint32(buf[:], uint32(val))
	if _, err := c.io.Write(buf[:]); err != nil {
		return err
	}
	c.Stats.Sent += 4
	return nil
}

// SendData sends length-prefixed binary data.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	if _, err := c.io.Write(val); err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(val))
	return nil
}

// SendLabel sends a label value.
func (c *Conn) SendLabel(val ot.Label, data *ot.LabelData) error {
	val.GetData(data)
	if _, err := c.io.Write(data[:]); err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(data))
	return nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(c.io, buf[:]); err != nil {
		return 0, err
	}
	c.Stats.Recvd += 4
	return int(bo.Uint32(buf[:])), nil
}

// ReceiveData receives length-prefixed binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	if _, err := io.ReadFull(c.io, result); err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(n)
	return result, nil
}

// ReceiveLabel receives a label value.
func (c *Conn) ReceiveLabel(val *ot.Label, data *ot.LabelData) error {
	if _, err := io.ReadFull(c.io, data[:]); err != nil {
		return err
	}
	val.SetData(data)
	c.Stats.Recvd += uint64(len(data))
	return nil
}

//
// network.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package p2p

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/getamis/sirius/log"
)

const (
	dialRetryDelay = 500 * time.Millisecond
	dialRetries    = 60
)

// Network is the mesh of peer channels for one party. Each peer pair
// shares one TCP connection: the higher-id party dials the lower-id
// party, sends its id, and ships a fresh AES-128 session key
// encrypted under the listener's RSA public key with OAEP.
type Network struct {
	id       int
	config   *Config
	priv     *rsa.PrivateKey
	listener net.Listener

	m     sync.Mutex
	peers map[int]*Conn
}

// NewNetwork creates the network for the party id and starts
// listening on its roster address.
func NewNetwork(config *Config, id int, priv *rsa.PrivateKey) (
	*Network, error) {

	self, err := config.Peer(id)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", self.Address)
	if err != nil {
		return nil, err
	}
	return &Network{
		id:       id,
		config:   config,
		priv:     priv,
		listener: listener,
		peers:    make(map[int]*Conn),
	}, nil
}

// Connect establishes the full mesh: dials every lower-id peer and
// accepts every higher-id peer. It returns when all peers are
// connected.
func (nw *Network) Connect() error {
	var accepts int
	for _, peer := range nw.config.Peers {
		switch {
		case peer.ID < nw.id:
			if err := nw.dial(peer); err != nil {
				return err
			}
		case peer.ID > nw.id:
			accepts++
		}
	}
	for i := 0; i < accepts; i++ {
		if err := nw.accept(); err != nil {
			return err
		}
	}
	return nil
}

func (nw *Network) dial(peer PeerConfig) error {
	pub, err := ReadPublicKey(peer.RSAPublicKey)
	if err != nil {
		return err
	}

	var nc net.Conn
	for i := 0; ; i++ {
		nc, err = net.Dial("tcp", peer.Address)
		if err == nil {
			break
		}
		if i >= dialRetries {
			return fmt.Errorf("connect to peer %d: %w", peer.ID, err)
		}
		log.Debug("peer not ready, retrying",
			"peer", peer.ID, "address", peer.Address)
		time.Sleep(dialRetryDelay)
	}
	conn := NewConn(nc)

	key := make([]byte, SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		conn.Close()
		return err
	}
	encrypted, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub,
		key, nil)
	if err != nil {
		conn.Close()
		return err
	}

	if err := conn.SendUint32(nw.id); err != nil {
		conn.Close()
		return err
	}
	if err := conn.SendData(encrypted); err != nil {
		conn.Close()
		return err
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return err
	}
	if err := conn.SetSession(key); err != nil {
		conn.Close()
		return err
	}

	nw.m.Lock()
	nw.peers[peer.ID] = conn
	nw.m.Unlock()

	log.Debug("connected to peer", "peer", peer.ID)
	return nil
}

func (nw *Network) accept() error {
	nc, err := nw.listener.Accept()
	if err != nil {
		return err
	}
	conn := NewConn(nc)

	id, err := conn.ReceiveUint32()
	if err != nil {
		conn.Close()
		return err
	}
	encrypted, err := conn.ReceiveData()
	if err != nil {
		conn.Close()
		return err
	}
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, nw.priv,
		encrypted, nil)
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.SetSession(key); err != nil {
		conn.Close()
		return err
	}

	nw.m.Lock()
	if _, ok := nw.peers[id]; ok {
		nw.m.Unlock()
		conn.Close()
		return fmt.Errorf("peer %d already connected", id)
	}
	nw.peers[id] = conn
	nw.m.Unlock()

	log.Debug("accepted peer", "peer", id)
	return nil
}

// Peer returns the channel to the peer.
func (nw *Network) Peer(id int) (*Conn, error) {
	nw.m.Lock()
	defer nw.m.Unlock()

	conn, ok := nw.peers[id]
	if !ok {
		return nil, fmt.Errorf("peer %d not connected", id)
	}
	return conn, nil
}

// MulticastAck is the blocking all-to-all barrier: each round every
// party sends one byte to every peer and then receives one byte from
// every peer. Per-channel FIFO plus this exchange is the only
// cross-channel synchronization between protocol phases.
func (nw *Network) MulticastAck(rounds int) error {
	nw.m.Lock()
	ids := make([]int, 0, len(nw.peers))
	for id := range nw.peers {
		ids = append(ids, id)
	}
	nw.m.Unlock()
	sort.Ints(ids)

	ack := []byte{0x06}
	for round := 0; round < rounds; round++ {
		for _, id := range ids {
			conn, err := nw.Peer(id)
			if err != nil {
				return err
			}
			if err := conn.Send(ack, false); err != nil {
				return err
			}
		}
		for _, id := range ids {
			conn, err := nw.Peer(id)
			if err != nil {
				return err
			}
			if _, err := conn.Receive(1, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the listener and all peer channels.
func (nw *Network) Close() error {
	err := nw.listener.Close()

	nw.m.Lock()
	defer nw.m.Unlock()
	for _, conn := range nw.peers {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}
	nw.peers = make(map[int]*Conn)
	return err
}

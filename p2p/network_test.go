//
// network_test.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

package p2p

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestKeys(t *testing.T, dir string, count int) (
	[]string, []*rsa.PrivateKey) {

	t.Helper()

	pubs := make([]string, count)
	privs := make([]*rsa.PrivateKey, count)
	for i := 0; i < count; i++ {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		privs[i] = key

		pubPath := filepath.Join(dir, fmt.Sprintf("pub%d.pem", i))
		pubPEM := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PUBLIC KEY",
			Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey),
		})
		require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))
		pubs[i] = pubPath
	}
	return pubs, privs
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peers.yaml")

	content := `peers:
  - id: 0
    address: 127.0.0.1:14501
    rsa_public_key: keys/pub0.pem
  - id: 1
    address: 127.0.0.1:14502
    rsa_public_key: keys/pub1.pem
  - id: 2
    address: 127.0.0.1:14503
    rsa_public_key: keys/pub2.pem
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	config, err := ReadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, config.Peers, 3)

	peer, err := config.Peer(1)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:14502", peer.Address)

	_, err = config.Peer(9)
	require.Error(t, err)
}

func TestNetworkMesh(t *testing.T) {
	dir := t.TempDir()
	pubs, privs := writeTestKeys(t, dir, 3)

	config := &Config{}
	networks := make([]*Network, 3)
	for i := 0; i < 3; i++ {
		config.Peers = append(config.Peers, PeerConfig{
			ID:           i,
			Address:      "127.0.0.1:0",
			RSAPublicKey: pubs[i],
		})
	}
	// Bind listeners first so the roster carries real ports.
	for i := 0; i < 3; i++ {
		nw, err := NewNetwork(config, i, privs[i])
		require.NoError(t, err)
		networks[i] = nw
		config.Peers[i].Address = nw.listener.Addr().String()
		defer nw.Close()
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs[id] = networks[id].Connect()
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "party %d", i)
	}

	// Encrypted exchange over the session keys established during the
	// handshake.
	msg := []byte("share")
	done := make(chan error, 1)
	go func() {
		conn, err := networks[0].Peer(1)
		if err != nil {
			done <- err
			return
		}
		done <- conn.Send(msg, true)
	}()

	conn, err := networks[1].Peer(0)
	require.NoError(t, err)
	got, err := conn.Receive(len(msg), true)
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, msg, got)

	// Barrier.
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs[id] = networks[id].MulticastAck(1)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "barrier party %d", i)
	}
}

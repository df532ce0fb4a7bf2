//
// config.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

// Package p2p implements the peer-to-peer transport between the
// protocol parties: a reliable, order-preserving byte channel per
// peer pair with optional AES-128-CBC encryption under session keys
// exchanged via RSA-OAEP, and a blocking all-to-all barrier.
package p2p

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// PeerConfig describes one peer of the roster.
type PeerConfig struct {
	ID      int    `yaml:"id"`
	Address string `yaml:"address"`
	// RSAPublicKey is the path of the peer's PEM-encoded RSA public
	// key.
	RSAPublicKey string `yaml:"rsa_public_key"`
}

// Config is the network roster: one entry per peer, including
// ourselves.
type Config struct {
	Peers []PeerConfig `yaml:"peers"`
}

// ReadConfigFile parses the YAML roster file.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	for _, peer := range c.Peers {
		if seen[peer.ID] {
			return nil, fmt.Errorf("duplicate peer id %d", peer.ID)
		}
		seen[peer.ID] = true
	}
	return c, nil
}

// Peer returns the roster entry for the id.
func (c *Config) Peer(id int) (PeerConfig, error) {
	for _, peer := range c.Peers {
		if peer.ID == id {
			return peer, nil
		}
	}
	return PeerConfig{}, fmt.Errorf("unknown peer id %d", id)
}

// ReadPublicKey reads a PEM-encoded RSA public key.
func ReadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA public key", path)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM block %s",
			path, block.Type)
	}
}

// ReadPrivateKey reads a PEM-encoded RSA private key.
func ReadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA private key", path)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM block %s",
			path, block.Type)
	}
}

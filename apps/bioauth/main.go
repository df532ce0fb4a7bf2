//
// main.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

// Command bioauth runs one party of the three-party authentication
// protocol:
//
//	bioauth --r 0 --tm sh --df hd --fc peers.yaml --fr private.pem
//
// Roles: 0 is the garbling server S1, 1 is the evaluating server S2,
// and 2 is the client C.
package main

import (
	"fmt"
	"os"

	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/applied-crypto-lab/bioauth/auth"
	"github.com/applied-crypto-lab/bioauth/p2p"
)

var cmd = &cobra.Command{
	Use:   "bioauth",
	Short: "Privacy-preserving biometric authentication party",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: run,
}

func init() {
	flags := cmd.Flags()
	flags.Int("r", -1, "party role: 0 = S1, 1 = S2, 2 = C")
	flags.String("tm", "sh", "threat model: sh or mal")
	flags.String("df", "hd", "distance function: hd, cs, or ed")
	flags.String("vf", "sha2-256",
		"verification function: sha2-256 or sha3-256")
	flags.Int("in", 8, "number of biometric inputs")
	flags.Int("il", 8, "biometric input length in bits")
	flags.Int("ht", 1, "Hamming distance threshold")
	flags.Int("nbo", 190, "number of base OTs")
	flags.Int("ncc", 380, "number of OT consistency checks")
	flags.Int("sk", 128, "OT security parameter kappa")
	flags.Int("sr", 40, "OT statistical parameter rho")
	flags.Bool("v", false, "verbose output")
	flags.Bool("coff", true, "compute the offline phase")
	flags.Bool("con", true, "compute the online phase")
	flags.String("fc", "peers.yaml", "network roster configuration file")
	flags.String("fr", "", "RSA private key file")
	flags.String("cd", "./circuit_files", "circuit file cache directory")
	cmd.SilenceUsage = true
}

func run(cmd *cobra.Command, args []string) error {
	role := viper.GetInt("r")
	if role < auth.S1 || role > auth.C {
		return fmt.Errorf("invalid role %d", role)
	}

	df, err := auth.ParseDistanceFunc(viper.GetString("df"))
	if err != nil {
		return err
	}
	hash, err := auth.ParseHashAlg(viper.GetString("vf"))
	if err != nil {
		return err
	}

	var malicious bool
	switch viper.GetString("tm") {
	case "sh":
	case "mal":
		malicious = true
	default:
		return fmt.Errorf("unknown threat model %q", viper.GetString("tm"))
	}
	if viper.GetInt("sk") < 128 {
		return fmt.Errorf("security parameter below 128")
	}
	if viper.GetInt("sr") < 40 {
		return fmt.Errorf("statistical parameter below 40")
	}

	cfg := auth.ProtoConfig{
		Params: auth.Params{
			Distance:    df,
			NumInputs:   viper.GetInt("in"),
			InputLength: viper.GetInt("il"),
			Malicious:   malicious,
			Hash:        hash,
			HDThreshold: viper.GetInt("ht"),
		},
		CircuitDir: viper.GetString("cd"),
		NumBaseOTs: viper.GetInt("nbo"),
		NumChecks:  viper.GetInt("ncc"),
		Offline:    viper.GetBool("coff"),
		Online:     viper.GetBool("con"),
		Verbose:    viper.GetBool("v"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	config, err := p2p.ReadConfigFile(viper.GetString("fc"))
	if err != nil {
		return err
	}
	priv, err := p2p.ReadPrivateKey(viper.GetString("fr"))
	if err != nil {
		return err
	}

	network, err := p2p.NewNetwork(config, role, priv)
	if err != nil {
		return err
	}
	defer network.Close()

	if err := network.Connect(); err != nil {
		return err
	}
	log.Info("network connected", "party", auth.PartyName(role))

	defer func() {
		for peer := auth.S1; peer <= auth.C; peer++ {
			if peer == role {
				continue
			}
			conn, err := network.Peer(peer)
			if err != nil {
				continue
			}
			log.Info("channel traffic", "party", auth.PartyName(role),
				"peer", auth.PartyName(peer),
				"sent", conn.Stats.Sent, "received", conn.Stats.Recvd)
		}
	}()

	switch role {
	case auth.S1:
		garbler := &auth.Garbler{ProtoConfig: cfg}
		decision, err := garbler.Run(network)
		if err != nil {
			return err
		}
		log.Info("authentication finished",
			"party", auth.PartyName(role), "decision", decision)

	case auth.S2:
		evaluator := &auth.Evaluator{ProtoConfig: cfg}
		if err := evaluator.Run(network); err != nil {
			return err
		}
		log.Info("evaluation finished", "party", auth.PartyName(role))

	case auth.C:
		client := &auth.Client{ProtoConfig: cfg}
		decision, err := client.Run(network)
		if err != nil {
			return err
		}
		log.Info("authentication finished",
			"party", auth.PartyName(role), "decision", decision)
		if decision == auth.DecisionError {
			return fmt.Errorf("authentication error, retry")
		}
	}
	return nil
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

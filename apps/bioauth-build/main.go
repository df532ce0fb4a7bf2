//
// main.go
//
// Copyright (c) 2024 Applied Crypto Lab
//
// All rights reserved.
//

// Command bioauth-build builds the authentication circuits and writes
// them into the circuit-file cache:
//
//	bioauth-build <alg> <num inputs> <input length> [opts...]
//
// where alg is one of hd, cs, ed, or all, and opts may include new
// (force a rebuild), mal (malicious mode with commitment checking),
// sha3-256 (SHA3-256 commitments), and check (random-input self
// check).
package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"

	"github.com/applied-crypto-lab/bioauth/auth"
)

var (
	circuitDir  string
	hdThreshold int
)

var cmd = &cobra.Command{
	Use:   "bioauth-build <alg> <num inputs> <input length> [opts...]",
	Short: "Build biometric-authentication circuit files",
	Long: `Builds the statically compiled circuit description (SCD) for the
selected distance function and stores it in the circuit-file cache.

<alg> is one of: hd (Hamming distance), cs (cosine similarity),
ed (Euclidean distance), all (every distance function).

Trailing options: new, mal, sha3-256, check.`,
	Args: cobra.MinimumNArgs(3),
	RunE: run,
}

func init() {
	cmd.Flags().StringVar(&circuitDir, "circuit-dir", "./circuit_files",
		"circuit file cache directory")
	cmd.Flags().IntVar(&hdThreshold, "threshold", 1,
		"Hamming distance acceptance threshold")
	cmd.SilenceUsage = true
}

func run(cmd *cobra.Command, args []string) error {
	alg := args[0]
	numInputs, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid number of inputs %q", args[1])
	}
	inputLength, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid input length %q", args[2])
	}

	var rebuild, check bool
	params := auth.Params{
		NumInputs:   numInputs,
		InputLength: inputLength,
		Hash:        auth.SHA2_256,
		HDThreshold: hdThreshold,
	}
	for _, opt := range args[3:] {
		switch opt {
		case "new":
			rebuild = true
		case "mal":
			params.Malicious = true
		case "sha3-256":
			params.Hash = auth.SHA3_256
		case "check":
			check = true
		default:
			return fmt.Errorf("unknown option %q", opt)
		}
	}
	if err := params.Validate(); err != nil {
		return err
	}

	var distances []auth.DistanceFunc
	switch alg {
	case "all":
		distances = []auth.DistanceFunc{auth.HD, auth.CS, auth.ED}
	case "cust":
		return fmt.Errorf("custom circuits are not supported")
	default:
		df, err := auth.ParseDistanceFunc(alg)
		if err != nil {
			return err
		}
		distances = []auth.DistanceFunc{df}
	}

	for _, df := range distances {
		params.Distance = df
		if err := buildOne(params, rebuild, check); err != nil {
			return err
		}
	}
	return nil
}

func buildOne(params auth.Params, rebuild, check bool) error {
	path := params.FileName(circuitDir)
	log.Info("building circuit", "file", path)

	circ, err := auth.LoadOrBuild(params, circuitDir, rebuild)
	if err != nil {
		return err
	}
	log.Info("circuit ready", "file", path, "gates", circ.NumGates(),
		"wires", circ.NumWires, "summary", circ.String())

	if !check {
		return nil
	}
	return selfCheck(params, circ)
}

// selfCheck evaluates the built circuit in plaintext on random inputs
// against the native reference computation, reporting the number of
// disagreeing output bits per run.
func selfCheck(params auth.Params, circ interface {
	Compute(inputs []bool) ([]bool, error)
}) error {
	const runs = 10

	for run := 0; run < runs; run++ {
		inputs := make([]bool, params.CircuitInputs())
		for i := range inputs {
			bit, err := rand.Int(rand.Reader, big.NewInt(2))
			if err != nil {
				return err
			}
			inputs[i] = bit.Int64() == 1
		}

		outputs, err := circ.Compute(inputs)
		if err != nil {
			return err
		}
		expected, exact, err := auth.ReferenceOutputs(params, inputs)
		if err != nil {
			return err
		}

		var errBits int
		for i := range outputs {
			if outputs[i] != expected[i] {
				errBits++
			}
		}
		log.Info("self check", "run", run, "errorBits", errBits,
			"outputs", len(outputs))
		if errBits > 0 && exact {
			return fmt.Errorf("self check failed on run %d", run)
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

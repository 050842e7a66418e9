package main

import (
	"fmt"
	"os"

	gocrdt "github.com/cshekharsharma/go-crdt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crdtctl",
	Short: "crdtctl exercises the go-crdt library against small multi-site scenarios",
	Long: `crdtctl is a demo CLI for the go-crdt library. It simulates a small
mesh of replicas mutating shared CRDT instances and exchanging ops/state,
then prints the converged value every replica lands on.

It is scaffolding around the library, not part of the CRDT core itself.`,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log rejected and dropped remote ops at debug level")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(demoCmd)
}

func initLogging() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if !verbose {
		gocrdt.Logger = zap.NewNop()
		return
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return
	}
	gocrdt.Logger = logger
}

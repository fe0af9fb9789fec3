// Package main is the entry point for the flash arbitrage executor.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "flasharb",
		Short:        "Flash loan arbitrage over a cyclic swap path",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error), overrides config")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Borrow, swap around the route and settle once",
		RunE:  runArbitrage,
	}
	addRouteFlags(runCmd)
	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price the route without moving any balance",
		RunE:  runQuote,
	}
	addRouteFlags(quoteCmd)
	root.AddCommand(quoteCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List the pool book with reserves and spot prices",
		RunE:  runPools,
	}
	root.AddCommand(poolsCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read live PancakeSwap reserves from BSC",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().StringSlice("pair", nil, "pair contract addresses (comma-separated), defaults to configured pool addresses")
	snapshotCmd.Flags().Bool("follow", false, "re-read the pairs on every new block until interrupted")
	snapshotCmd.Flags().Bool("plain", false, "with --follow, print plain tables instead of the live view")
	root.AddCommand(snapshotCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API with health and metrics endpoints",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("port", 0, "API port, overrides config")
	root.AddCommand(serveCmd)

	return root
}

func addRouteFlags(cmd *cobra.Command) {
	cmd.Flags().String("base", "", "base asset symbol, defaults to arbitrage.base_asset")
	cmd.Flags().String("amount", "", "loan amount in whole units, defaults to arbitrage.loan_amount")
	cmd.Flags().StringSlice("route", nil, "asset cycle (comma-separated), defaults to arbitrage.route")
}

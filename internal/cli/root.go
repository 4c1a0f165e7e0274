// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ballotbox.
//
// go-ballotbox is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the ballotbox command line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-ballotbox/internal/config"
)

var configFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ballotbox",
	Short: "ballotbox - fingerprint-verified election platform",
	Long: `ballotbox runs an election platform where voters enroll platform
authenticators (fingerprint readers, secure enclaves) through WebAuthn
ceremonies and cast a single ballot per election.

The server exposes a REST API for voter enrollment, WebAuthn registration
and authentication, vote casting and election administration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Load .env before flags and env overrides are read. Missing files are
	// fine; explicit environment always wins.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (YAML); defaults apply when omitted")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig loads the configuration from the --config flag and environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}

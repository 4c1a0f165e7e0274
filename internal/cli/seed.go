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

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-ballotbox/internal/server"
	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
)

var (
	seedAdminUsername string
	seedAdminPassword string
	seedActivate      bool
)

// seedCmd populates the database with demo data.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo data",
	Long: `Seed the configured storage backend with a demo election, candidates,
sample voters and an administrator account. Safe to run against an already
seeded database; existing admin and voter records are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Driver == "memory" {
			return fmt.Errorf("seeding the memory backend has no effect; use the sqlite driver")
		}

		ctx := context.Background()
		logger := server.NewLogger(cfg.Logging)

		stores, err := server.OpenStores(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer stores.Close()

		ballots, err := ballot.NewService(ballot.ServiceParams{
			Store:  stores.Ballots,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		return server.Seed(ctx, stores, ballots, server.SeedParams{
			AdminUsername: seedAdminUsername,
			AdminPassword: seedAdminPassword,
			Activate:      seedActivate,
		}, logger)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "admin",
		"initial administrator username")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "admin123",
		"initial administrator password")
	seedCmd.Flags().BoolVar(&seedActivate, "activate", false,
		"activate the seeded election")
}

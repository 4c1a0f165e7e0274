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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// SeedParams controls demo data seeding.
type SeedParams struct {
	// AdminUsername and AdminPassword create the initial administrator.
	AdminUsername string
	AdminPassword string

	// Activate makes the seeded election active.
	Activate bool
}

// Seed populates the stores with a demo election, candidates, sample voters
// and an administrator account. Existing records are left alone: duplicate
// errors are ignored so seeding is idempotent.
func Seed(ctx context.Context, stores *Stores, ballots *ballot.Service, params SeedParams, logger *slog.Logger) error {
	if params.AdminUsername == "" {
		params.AdminUsername = "admin"
	}
	if params.AdminPassword == "" {
		params.AdminPassword = "admin123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &ceremony.Admin{
		ID:           uuid.NewString(),
		Username:     params.AdminUsername,
		PasswordHash: string(hash),
		Name:         "Election Administrator",
		Email:        "admin@example.com",
		CreatedAt:    time.Now().UTC(),
	}
	if err := stores.Admins.Create(ctx, admin); err != nil {
		if !errors.Is(err, ceremony.ErrDuplicateAdmin) {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("admin already exists, skipping", "username", params.AdminUsername)
	} else {
		logger.Info("admin created", "username", params.AdminUsername)
	}

	now := time.Now().UTC()
	election := &ballot.Election{
		Title:       "Presidential Election 2024",
		Description: "General election for the office of president.",
		StartDate:   now.Add(-24 * time.Hour),
		EndDate:     now.Add(30 * 24 * time.Hour),
	}
	if err := ballots.CreateElection(ctx, election); err != nil {
		return fmt.Errorf("create election: %w", err)
	}
	logger.Info("election created", "election_id", election.ID, "title", election.Title)

	candidates := []*ballot.Candidate{
		{ElectionID: election.ID, Name: "Alex Morgan", Party: "Progressive Party", Position: "President"},
		{ElectionID: election.ID, Name: "Taylor Reed", Party: "Conservative Party", Position: "President"},
		{ElectionID: election.ID, Name: "Jordan Casey", Party: "Independent", Position: "President"},
	}
	for _, c := range candidates {
		if err := ballots.CreateCandidate(ctx, c); err != nil {
			return fmt.Errorf("create candidate %s: %w", c.Name, err)
		}
	}
	logger.Info("candidates created", "count", len(candidates))

	voters := []*ceremony.Voter{
		{Name: "Sam Rivera", Email: "sam@example.com", FingerprintID: "fp_001"},
		{Name: "Casey Nguyen", Email: "casey@example.com", FingerprintID: "fp_002"},
		{Name: "Riley Thompson", Email: "riley@example.com", FingerprintID: "fp_003"},
	}
	for _, v := range voters {
		v.ID = uuid.NewString()
		v.CreatedAt = now
		v.UpdatedAt = now
		if err := stores.Voters.Create(ctx, v); err != nil {
			if errors.Is(err, ceremony.ErrDuplicateVoter) {
				logger.Info("voter already exists, skipping", "fingerprint_id", v.FingerprintID)
				continue
			}
			return fmt.Errorf("create voter %s: %w", v.FingerprintID, err)
		}
	}
	logger.Info("sample voters created", "count", len(voters))

	if params.Activate {
		if err := ballots.SetActive(ctx, election.ID); err != nil {
			return fmt.Errorf("activate election: %w", err)
		}
		logger.Info("election activated", "election_id", election.ID)
	}

	return nil
}

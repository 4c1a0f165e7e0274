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

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// VoterStore is an in-memory implementation of ceremony.VoterStore.
type VoterStore struct {
	mu            sync.RWMutex
	byID          map[string]*ceremony.Voter
	byFingerprint map[string]string // fingerprint ID -> voter ID
}

// NewVoterStore creates a new in-memory voter store.
func NewVoterStore() *VoterStore {
	return &VoterStore{
		byID:          make(map[string]*ceremony.Voter),
		byFingerprint: make(map[string]string),
	}
}

// GetByID retrieves a voter by ID.
func (s *VoterStore) GetByID(_ context.Context, id string) (*ceremony.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voter, ok := s.byID[id]
	if !ok {
		return nil, ceremony.ErrVoterNotFound
	}
	cp := *voter
	return &cp, nil
}

// GetByFingerprint retrieves a voter by fingerprint identifier.
func (s *VoterStore) GetByFingerprint(_ context.Context, fingerprintID string) (*ceremony.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFingerprint[fingerprintID]
	if !ok {
		return nil, ceremony.ErrVoterNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// Create stores a new voter.
func (s *VoterStore) Create(_ context.Context, voter *ceremony.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[voter.ID]; ok {
		return ceremony.ErrDuplicateVoter
	}
	if voter.FingerprintID != "" {
		if _, ok := s.byFingerprint[voter.FingerprintID]; ok {
			return ceremony.ErrDuplicateVoter
		}
	}

	cp := *voter
	s.byID[voter.ID] = &cp
	if voter.FingerprintID != "" {
		s.byFingerprint[voter.FingerprintID] = voter.ID
	}
	return nil
}

// SetHasVoted updates the voter's has-voted flag.
func (s *VoterStore) SetHasVoted(_ context.Context, id string, hasVoted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	voter, ok := s.byID[id]
	if !ok {
		return ceremony.ErrVoterNotFound
	}
	voter.HasVoted = hasVoted
	voter.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns all voters sorted by creation time.
func (s *VoterStore) List(_ context.Context) ([]*ceremony.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voters := make([]*ceremony.Voter, 0, len(s.byID))
	for _, v := range s.byID {
		cp := *v
		voters = append(voters, &cp)
	}
	sort.Slice(voters, func(i, j int) bool {
		return voters[i].CreatedAt.Before(voters[j].CreatedAt)
	})
	return voters, nil
}

// AdminStore is an in-memory implementation of ceremony.AdminStore.
type AdminStore struct {
	mu         sync.RWMutex
	byUsername map[string]*ceremony.Admin
}

// NewAdminStore creates a new in-memory admin store.
func NewAdminStore() *AdminStore {
	return &AdminStore{
		byUsername: make(map[string]*ceremony.Admin),
	}
}

// GetByUsername retrieves an admin by username.
func (s *AdminStore) GetByUsername(_ context.Context, username string) (*ceremony.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.byUsername[username]
	if !ok {
		return nil, ceremony.ErrAdminNotFound
	}
	cp := *admin
	return &cp, nil
}

// Create stores a new admin.
func (s *AdminStore) Create(_ context.Context, admin *ceremony.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[admin.Username]; ok {
		return ceremony.ErrDuplicateAdmin
	}
	cp := *admin
	s.byUsername[admin.Username] = &cp
	return nil
}

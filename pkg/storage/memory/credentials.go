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
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// CredentialStore is an in-memory implementation of ceremony.CredentialStore.
type CredentialStore struct {
	mu       sync.RWMutex
	byID     map[string]*ceremony.Authenticator
	byCredID map[string]string // hex credential ID -> record ID
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byID:     make(map[string]*ceremony.Authenticator),
		byCredID: make(map[string]string),
	}
}

// GetByVoterID retrieves all authenticators registered to a voter.
func (s *CredentialStore) GetByVoterID(_ context.Context, voterID string) ([]*ceremony.Authenticator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var auths []*ceremony.Authenticator
	for _, a := range s.byID {
		if a.VoterID == voterID {
			cp := *a
			auths = append(auths, &cp)
		}
	}
	sort.Slice(auths, func(i, j int) bool {
		return auths[i].CreatedAt.Before(auths[j].CreatedAt)
	})
	return auths, nil
}

// Add stores a new authenticator.
func (s *CredentialStore) Add(_ context.Context, auth *ceremony.Authenticator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hex.EncodeToString(auth.CredentialID)
	if _, ok := s.byCredID[key]; ok {
		return ceremony.ErrDuplicateCredential
	}

	cp := *auth
	s.byID[auth.ID] = &cp
	s.byCredID[key] = auth.ID
	return nil
}

// UpdateCounter records a verified signature counter.
func (s *CredentialStore) UpdateCounter(_ context.Context, id string, counter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.byID[id]
	if !ok {
		return ceremony.ErrAuthenticatorNotFound
	}
	auth.Counter = counter
	auth.LastUsedAt = time.Now().UTC()
	return nil
}

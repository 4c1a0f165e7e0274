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
	"sync"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// ChallengeStore is an in-memory implementation of ceremony.ChallengeStore.
// A plain mutex (not RWMutex) keeps Consume's claim-and-delete atomic.
type ChallengeStore struct {
	mu      sync.Mutex
	entries map[string]*ceremony.Challenge
}

// NewChallengeStore creates a new in-memory challenge store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		entries: make(map[string]*ceremony.Challenge),
	}
}

// Save records an issued challenge.
func (s *ChallengeStore) Save(_ context.Context, challenge *ceremony.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *challenge
	s.entries[challenge.ID] = &cp
	return nil
}

// Consume atomically removes and returns the most recently issued unexpired
// challenge for the voter and ceremony type. Expired entries encountered
// along the way are dropped.
func (s *ChallengeStore) Consume(_ context.Context, voterID string, typ ceremony.Type) (*ceremony.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var newest *ceremony.Challenge
	for id, c := range s.entries {
		if c.Expired(now) {
			delete(s.entries, id)
			continue
		}
		if c.VoterID != voterID || c.Type != typ {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	if newest == nil {
		return nil, ceremony.ErrNoValidChallenge
	}

	delete(s.entries, newest.ID)
	cp := *newest
	return &cp, nil
}

// Len returns the number of stored challenges, expired entries included.
func (s *ChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

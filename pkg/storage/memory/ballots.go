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

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
)

// BallotStore is an in-memory implementation of ballot.Store. It holds a
// reference to the voter store so RecordVote can flip the voter's has-voted
// flag together with the vote insert.
type BallotStore struct {
	mu         sync.Mutex
	elections  map[string]*ballot.Election
	candidates map[string]*ballot.Candidate
	votes      map[string]*ballot.Vote
	voteKeys   map[string]string // voterID + "\x00" + electionID -> vote ID
	voters     *VoterStore
}

// NewBallotStore creates a new in-memory ballot store backed by the given
// voter store.
func NewBallotStore(voters *VoterStore) *BallotStore {
	return &BallotStore{
		elections:  make(map[string]*ballot.Election),
		candidates: make(map[string]*ballot.Candidate),
		votes:      make(map[string]*ballot.Vote),
		voteKeys:   make(map[string]string),
		voters:     voters,
	}
}

func voteKey(voterID, electionID string) string {
	return voterID + "\x00" + electionID
}

// CreateElection stores a new election.
func (s *BallotStore) CreateElection(_ context.Context, election *ballot.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *election
	s.elections[election.ID] = &cp
	return nil
}

// GetElection retrieves an election by ID.
func (s *BallotStore) GetElection(_ context.Context, id string) (*ballot.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[id]
	if !ok {
		return nil, ballot.ErrElectionNotFound
	}
	cp := *election
	return &cp, nil
}

// GetActiveElection retrieves the currently active election.
func (s *BallotStore) GetActiveElection(_ context.Context) (*ballot.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.elections {
		if e.IsActive {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ballot.ErrElectionNotFound
}

// ListElections returns all elections, newest first.
func (s *BallotStore) ListElections(_ context.Context) ([]*ballot.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elections := make([]*ballot.Election, 0, len(s.elections))
	for _, e := range s.elections {
		cp := *e
		elections = append(elections, &cp)
	}
	sort.Slice(elections, func(i, j int) bool {
		return elections[i].CreatedAt.After(elections[j].CreatedAt)
	})
	return elections, nil
}

// UpdateElection updates an existing election.
func (s *BallotStore) UpdateElection(_ context.Context, election *ballot.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[election.ID]; !ok {
		return ballot.ErrElectionNotFound
	}
	cp := *election
	s.elections[election.ID] = &cp
	return nil
}

// DeleteElection removes an election and its candidates.
func (s *BallotStore) DeleteElection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[id]; !ok {
		return ballot.ErrElectionNotFound
	}
	delete(s.elections, id)
	for cid, c := range s.candidates {
		if c.ElectionID == id {
			delete(s.candidates, cid)
		}
	}
	return nil
}

// SetActiveElection atomically deactivates every election and activates the
// given one.
func (s *BallotStore) SetActiveElection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.elections[id]
	if !ok {
		return ballot.ErrElectionNotFound
	}
	now := time.Now().UTC()
	for _, e := range s.elections {
		if e.IsActive {
			e.IsActive = false
			e.UpdatedAt = now
		}
	}
	target.IsActive = true
	target.UpdatedAt = now
	return nil
}

// CreateCandidate stores a new candidate.
func (s *BallotStore) CreateCandidate(_ context.Context, candidate *ballot.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[candidate.ElectionID]; !ok {
		return ballot.ErrElectionNotFound
	}
	cp := *candidate
	s.candidates[candidate.ID] = &cp
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (s *BallotStore) GetCandidate(_ context.Context, id string) (*ballot.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, ok := s.candidates[id]
	if !ok {
		return nil, ballot.ErrCandidateNotFound
	}
	cp := *candidate
	return &cp, nil
}

// ListCandidates returns the candidates of an election in creation order.
func (s *BallotStore) ListCandidates(_ context.Context, electionID string) ([]*ballot.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*ballot.Candidate
	for _, c := range s.candidates {
		if c.ElectionID == electionID {
			cp := *c
			candidates = append(candidates, &cp)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates, nil
}

// UpdateCandidate updates an existing candidate.
func (s *BallotStore) UpdateCandidate(_ context.Context, candidate *ballot.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[candidate.ID]; !ok {
		return ballot.ErrCandidateNotFound
	}
	cp := *candidate
	s.candidates[candidate.ID] = &cp
	return nil
}

// DeleteCandidate removes a candidate.
func (s *BallotStore) DeleteCandidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[id]; !ok {
		return ballot.ErrCandidateNotFound
	}
	delete(s.candidates, id)
	return nil
}

// RecordVote atomically inserts the vote and marks the voter as having voted.
func (s *BallotStore) RecordVote(ctx context.Context, vote *ballot.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey(vote.VoterID, vote.ElectionID)
	if _, ok := s.voteKeys[key]; ok {
		return ballot.ErrAlreadyVoted
	}

	cp := *vote
	s.votes[vote.ID] = &cp
	s.voteKeys[key] = vote.ID

	if s.voters != nil {
		if err := s.voters.SetHasVoted(ctx, vote.VoterID, true); err != nil {
			delete(s.votes, vote.ID)
			delete(s.voteKeys, key)
			return err
		}
	}
	return nil
}

// HasVoted reports whether the voter has a recorded vote in the election.
func (s *BallotStore) HasVoted(_ context.Context, voterID, electionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.voteKeys[voteKey(voterID, electionID)]
	return ok, nil
}

// CountVotes returns the number of votes recorded in the election.
func (s *BallotStore) CountVotes(_ context.Context, electionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, v := range s.votes {
		if v.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

// VotesByCandidate returns vote counts keyed by candidate ID.
func (s *BallotStore) VotesByCandidate(_ context.Context, electionID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, v := range s.votes {
		if v.ElectionID == electionID {
			counts[v.CandidateID]++
		}
	}
	return counts, nil
}

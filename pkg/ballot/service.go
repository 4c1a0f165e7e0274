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

package ballot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Service provides election management and vote casting on top of a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// ServiceParams contains dependencies for creating a ballot service.
type ServiceParams struct {
	// Store is the ballot persistence layer (required).
	Store Store

	// Logger is an optional structured logger.
	Logger *slog.Logger
}

// NewService creates a new ballot service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  params.Store,
		logger: logger,
	}, nil
}

// CastVote records a ballot for the voter. Preconditions are checked in a
// fixed order so clients see stable error semantics: election active first,
// candidate membership second, duplicate vote last. The final insert is
// atomic with the voter's has-voted flag and re-checks uniqueness, closing
// the race between the duplicate check and the write.
func (s *Service) CastVote(ctx context.Context, voterID, candidateID, electionID string) (*Vote, error) {
	election, err := s.store.GetElection(ctx, electionID)
	if err != nil {
		return nil, WrapError("get election", err)
	}
	if !election.IsActive {
		return nil, NewError("cast vote", ErrElectionNotActive)
	}

	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, WrapError("get candidate", err)
	}
	if candidate.ElectionID != electionID {
		return nil, NewError("cast vote", ErrCandidateNotInElection)
	}

	voted, err := s.store.HasVoted(ctx, voterID, electionID)
	if err != nil {
		return nil, WrapError("check vote", err)
	}
	if voted {
		return nil, NewError("cast vote", ErrAlreadyVoted)
	}

	vote := &Vote{
		ID:          uuid.NewString(),
		VoterID:     voterID,
		CandidateID: candidateID,
		ElectionID:  electionID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.RecordVote(ctx, vote); err != nil {
		return nil, WrapError("record vote", err)
	}

	s.logger.Info("vote recorded",
		"election_id", electionID, "candidate_id", candidateID)

	return vote, nil
}

// SetActive makes the given election the single active one.
func (s *Service) SetActive(ctx context.Context, electionID string) error {
	if err := s.store.SetActiveElection(ctx, electionID); err != nil {
		return WrapError("set active election", err)
	}
	s.logger.Info("election activated", "election_id", electionID)
	return nil
}

// ActiveElection returns the currently active election, or
// ErrElectionNotFound when none is active.
func (s *Service) ActiveElection(ctx context.Context) (*Election, error) {
	election, err := s.store.GetActiveElection(ctx)
	if err != nil {
		return nil, WrapError("get active election", err)
	}
	return election, nil
}

// Results tallies an election's votes per candidate.
func (s *Service) Results(ctx context.Context, electionID string) (*Results, error) {
	election, err := s.store.GetElection(ctx, electionID)
	if err != nil {
		return nil, WrapError("get election", err)
	}

	candidates, err := s.store.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, WrapError("list candidates", err)
	}

	counts, err := s.store.VotesByCandidate(ctx, electionID)
	if err != nil {
		return nil, WrapError("count votes", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	results := &Results{
		ElectionID: election.ID,
		Title:      election.Title,
		TotalVotes: total,
		Candidates: make([]CandidateResult, 0, len(candidates)),
	}
	for _, c := range candidates {
		r := CandidateResult{
			CandidateID: c.ID,
			Name:        c.Name,
			Party:       c.Party,
			Votes:       counts[c.ID],
		}
		if total > 0 {
			r.Percentage = float64(r.Votes) / float64(total) * 100
		}
		results.Candidates = append(results.Candidates, r)
	}
	sort.SliceStable(results.Candidates, func(i, j int) bool {
		return results.Candidates[i].Votes > results.Candidates[j].Votes
	})

	return results, nil
}

// CreateElection validates and stores a new election. New elections start
// inactive; activation is explicit via SetActive.
func (s *Service) CreateElection(ctx context.Context, election *Election) error {
	if election.Title == "" {
		return NewError("create election", fmt.Errorf("title is required"))
	}
	if !election.EndDate.After(election.StartDate) {
		return NewError("create election", fmt.Errorf("end date must be after start date"))
	}
	if election.ID == "" {
		election.ID = uuid.NewString()
	}
	election.IsActive = false
	now := time.Now().UTC()
	election.CreatedAt = now
	election.UpdatedAt = now

	if err := s.store.CreateElection(ctx, election); err != nil {
		return WrapError("create election", err)
	}
	return nil
}

// GetElection retrieves an election by ID.
func (s *Service) GetElection(ctx context.Context, id string) (*Election, error) {
	election, err := s.store.GetElection(ctx, id)
	if err != nil {
		return nil, WrapError("get election", err)
	}
	return election, nil
}

// ListElections returns all elections.
func (s *Service) ListElections(ctx context.Context) ([]*Election, error) {
	elections, err := s.store.ListElections(ctx)
	if err != nil {
		return nil, WrapError("list elections", err)
	}
	return elections, nil
}

// UpdateElection updates an election's details. The active flag is managed
// through SetActive and is preserved here.
func (s *Service) UpdateElection(ctx context.Context, election *Election) error {
	existing, err := s.store.GetElection(ctx, election.ID)
	if err != nil {
		return WrapError("get election", err)
	}
	election.IsActive = existing.IsActive
	election.CreatedAt = existing.CreatedAt
	election.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateElection(ctx, election); err != nil {
		return WrapError("update election", err)
	}
	return nil
}

// DeleteElection removes an election that has no recorded votes.
func (s *Service) DeleteElection(ctx context.Context, id string) error {
	count, err := s.store.CountVotes(ctx, id)
	if err != nil {
		return WrapError("count votes", err)
	}
	if count > 0 {
		return NewError("delete election", ErrElectionHasVotes)
	}
	if err := s.store.DeleteElection(ctx, id); err != nil {
		return WrapError("delete election", err)
	}
	return nil
}

// CreateCandidate validates and stores a new candidate.
func (s *Service) CreateCandidate(ctx context.Context, candidate *Candidate) error {
	if candidate.Name == "" {
		return NewError("create candidate", fmt.Errorf("name is required"))
	}
	if _, err := s.store.GetElection(ctx, candidate.ElectionID); err != nil {
		return WrapError("get election", err)
	}
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	candidate.CreatedAt = time.Now().UTC()

	if err := s.store.CreateCandidate(ctx, candidate); err != nil {
		return WrapError("create candidate", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (s *Service) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	candidate, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, WrapError("get candidate", err)
	}
	return candidate, nil
}

// ListCandidates returns an election's candidates.
func (s *Service) ListCandidates(ctx context.Context, electionID string) ([]*Candidate, error) {
	candidates, err := s.store.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, WrapError("list candidates", err)
	}
	return candidates, nil
}

// UpdateCandidate updates a candidate's details.
func (s *Service) UpdateCandidate(ctx context.Context, candidate *Candidate) error {
	existing, err := s.store.GetCandidate(ctx, candidate.ID)
	if err != nil {
		return WrapError("get candidate", err)
	}
	candidate.ElectionID = existing.ElectionID
	candidate.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateCandidate(ctx, candidate); err != nil {
		return WrapError("update candidate", err)
	}
	return nil
}

// DeleteCandidate removes a candidate.
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	if err := s.store.DeleteCandidate(ctx, id); err != nil {
		return WrapError("delete candidate", err)
	}
	return nil
}

// HasVoted reports whether the voter has voted in the election.
func (s *Service) HasVoted(ctx context.Context, voterID, electionID string) (bool, error) {
	voted, err := s.store.HasVoted(ctx, voterID, electionID)
	if err != nil {
		return false, WrapError("check vote", err)
	}
	return voted, nil
}

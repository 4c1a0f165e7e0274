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

import "context"

// Store persists elections, candidates and votes.
type Store interface {
	// CreateElection stores a new election.
	CreateElection(ctx context.Context, election *Election) error

	// GetElection retrieves an election by ID.
	// Returns ErrElectionNotFound if the election doesn't exist.
	GetElection(ctx context.Context, id string) (*Election, error)

	// GetActiveElection retrieves the currently active election.
	// Returns ErrElectionNotFound when no election is active.
	GetActiveElection(ctx context.Context) (*Election, error)

	// ListElections returns all elections, newest first.
	ListElections(ctx context.Context) ([]*Election, error)

	// UpdateElection updates an existing election.
	// Returns ErrElectionNotFound if the election doesn't exist.
	UpdateElection(ctx context.Context, election *Election) error

	// DeleteElection removes an election and its candidates.
	// Returns ErrElectionNotFound if the election doesn't exist.
	DeleteElection(ctx context.Context, id string) error

	// SetActiveElection atomically deactivates every election and activates
	// the given one, so at most one election is ever observed active.
	// Returns ErrElectionNotFound if the election doesn't exist.
	SetActiveElection(ctx context.Context, id string) error

	// CreateCandidate stores a new candidate.
	// Returns ErrElectionNotFound if the election doesn't exist.
	CreateCandidate(ctx context.Context, candidate *Candidate) error

	// GetCandidate retrieves a candidate by ID.
	// Returns ErrCandidateNotFound if the candidate doesn't exist.
	GetCandidate(ctx context.Context, id string) (*Candidate, error)

	// ListCandidates returns the candidates of an election.
	ListCandidates(ctx context.Context, electionID string) ([]*Candidate, error)

	// UpdateCandidate updates an existing candidate.
	// Returns ErrCandidateNotFound if the candidate doesn't exist.
	UpdateCandidate(ctx context.Context, candidate *Candidate) error

	// DeleteCandidate removes a candidate.
	// Returns ErrCandidateNotFound if the candidate doesn't exist.
	DeleteCandidate(ctx context.Context, id string) error

	// RecordVote atomically inserts the vote and marks the voter as having
	// voted. Uniqueness of (voter, election) is enforced here: a concurrent
	// duplicate that slipped past the precondition checks fails with
	// ErrAlreadyVoted and leaves no partial state.
	RecordVote(ctx context.Context, vote *Vote) error

	// HasVoted reports whether the voter has a recorded vote in the election.
	HasVoted(ctx context.Context, voterID, electionID string) (bool, error)

	// CountVotes returns the number of votes recorded in the election.
	CountVotes(ctx context.Context, electionID string) (int, error)

	// VotesByCandidate returns vote counts keyed by candidate ID.
	VotesByCandidate(ctx context.Context, electionID string) (map[string]int, error)
}

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

import "time"

// Election is a single election contest.
type Election struct {
	// ID is the election identifier.
	ID string `json:"id"`

	// Title is the election's display title.
	Title string `json:"title"`

	// Description is an optional longer description.
	Description string `json:"description,omitempty"`

	// StartDate is when voting opens.
	StartDate time.Time `json:"start_date"`

	// EndDate is when voting closes.
	EndDate time.Time `json:"end_date"`

	// IsActive indicates the election currently accepts votes. At most one
	// election is active at a time.
	IsActive bool `json:"is_active"`

	// CreatedAt is when the election was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the election last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate is a contestant in an election.
type Candidate struct {
	// ID is the candidate identifier.
	ID string `json:"id"`

	// ElectionID is the election the candidate runs in.
	ElectionID string `json:"election_id"`

	// Name is the candidate's name.
	Name string `json:"name"`

	// Party is the candidate's party affiliation.
	Party string `json:"party,omitempty"`

	// Position is the office contested.
	Position string `json:"position,omitempty"`

	// Bio is an optional biography.
	Bio string `json:"bio,omitempty"`

	// ImageURL is an optional portrait URL.
	ImageURL string `json:"image_url,omitempty"`

	// CreatedAt is when the candidate was added.
	CreatedAt time.Time `json:"created_at"`
}

// Vote is a single recorded ballot.
type Vote struct {
	// ID is the vote identifier.
	ID string `json:"id"`

	// VoterID is the voter who cast the ballot.
	VoterID string `json:"voter_id"`

	// CandidateID is the chosen candidate.
	CandidateID string `json:"candidate_id"`

	// ElectionID is the election voted in.
	ElectionID string `json:"election_id"`

	// CreatedAt is when the vote was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// CandidateResult is one candidate's tally in an election result.
type CandidateResult struct {
	// CandidateID is the candidate.
	CandidateID string `json:"candidate_id"`

	// Name is the candidate's name.
	Name string `json:"name"`

	// Party is the candidate's party affiliation.
	Party string `json:"party,omitempty"`

	// Votes is the number of ballots cast for the candidate.
	Votes int `json:"votes"`

	// Percentage is the candidate's share of the total, 0 when no ballots
	// have been cast.
	Percentage float64 `json:"percentage"`
}

// Results is the tally for a single election.
type Results struct {
	// ElectionID is the election tallied.
	ElectionID string `json:"election_id"`

	// Title is the election's display title.
	Title string `json:"title"`

	// TotalVotes is the number of ballots cast.
	TotalVotes int `json:"total_votes"`

	// Candidates holds per-candidate tallies, highest vote count first.
	Candidates []CandidateResult `json:"candidates"`
}

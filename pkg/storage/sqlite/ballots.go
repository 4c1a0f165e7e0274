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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// CreateElection stores a new election.
func (s *Store) CreateElection(ctx context.Context, election *ballot.Election) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO election (id, title, description, start_date, end_date, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		election.ID, election.Title, election.Description,
		encodeTime(election.StartDate), encodeTime(election.EndDate),
		boolToInt(election.IsActive), encodeTime(election.CreatedAt), encodeTime(election.UpdatedAt))
	return err
}

// GetElection retrieves an election by ID.
func (s *Store) GetElection(ctx context.Context, id string) (*ballot.Election, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, start_date, end_date, is_active, created_at, updated_at
		 FROM election WHERE id = ?`, id)
	return scanElection(row)
}

// GetActiveElection retrieves the currently active election.
func (s *Store) GetActiveElection(ctx context.Context) (*ballot.Election, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, start_date, end_date, is_active, created_at, updated_at
		 FROM election WHERE is_active = 1 LIMIT 1`)
	return scanElection(row)
}

// ListElections returns all elections, newest first.
func (s *Store) ListElections(ctx context.Context) ([]*ballot.Election, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, start_date, end_date, is_active, created_at, updated_at
		 FROM election ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elections []*ballot.Election
	for rows.Next() {
		election, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		elections = append(elections, election)
	}
	return elections, rows.Err()
}

// UpdateElection updates an existing election.
func (s *Store) UpdateElection(ctx context.Context, election *ballot.Election) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE election SET title = ?, description = ?, start_date = ?, end_date = ?,
		   is_active = ?, updated_at = ?
		 WHERE id = ?`,
		election.Title, election.Description,
		encodeTime(election.StartDate), encodeTime(election.EndDate),
		boolToInt(election.IsActive), encodeTime(election.UpdatedAt), election.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ballot.ErrElectionNotFound)
}

// DeleteElection removes an election. Candidates cascade with it.
func (s *Store) DeleteElection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM election WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ballot.ErrElectionNotFound)
}

// SetActiveElection deactivates every election and activates the given one in
// a single transaction.
func (s *Store) SetActiveElection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := encodeTime(time.Now().UTC())

	res, err := tx.ExecContext(ctx,
		`UPDATE election SET is_active = (id = ?), updated_at = ?`, id, now)
	if err != nil {
		return err
	}
	if err := requireRow(res, ballot.ErrElectionNotFound); err != nil {
		return err
	}

	// The bulk update succeeds even when the target is missing; verify it
	// actually went active.
	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM election WHERE id = ? AND is_active = 1`, id).
		Scan(&active); err != nil {
		return err
	}
	if active == 0 {
		return ballot.ErrElectionNotFound
	}

	return tx.Commit()
}

// CreateCandidate stores a new candidate.
func (s *Store) CreateCandidate(ctx context.Context, candidate *ballot.Candidate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate (id, election_id, name, party, position, bio, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		candidate.ID, candidate.ElectionID, candidate.Name, candidate.Party,
		candidate.Position, candidate.Bio, candidate.ImageURL, encodeTime(candidate.CreatedAt))
	if err != nil && !isUniqueViolation(err) {
		// A foreign key failure here means the election is gone.
		var exists int
		if s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM election WHERE id = ?`,
			candidate.ElectionID).Scan(&exists) == nil && exists == 0 {
			return ballot.ErrElectionNotFound
		}
	}
	return err
}

// GetCandidate retrieves a candidate by ID.
func (s *Store) GetCandidate(ctx context.Context, id string) (*ballot.Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, election_id, name, party, position, bio, image_url, created_at
		 FROM candidate WHERE id = ?`, id)
	return scanCandidate(row)
}

// ListCandidates returns the candidates of an election in creation order.
func (s *Store) ListCandidates(ctx context.Context, electionID string) ([]*ballot.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, election_id, name, party, position, bio, image_url, created_at
		 FROM candidate WHERE election_id = ? ORDER BY created_at`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*ballot.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

// UpdateCandidate updates an existing candidate.
func (s *Store) UpdateCandidate(ctx context.Context, candidate *ballot.Candidate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidate SET name = ?, party = ?, position = ?, bio = ?, image_url = ?
		 WHERE id = ?`,
		candidate.Name, candidate.Party, candidate.Position, candidate.Bio,
		candidate.ImageURL, candidate.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ballot.ErrCandidateNotFound)
}

// DeleteCandidate removes a candidate.
func (s *Store) DeleteCandidate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM candidate WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ballot.ErrCandidateNotFound)
}

// RecordVote inserts the vote and marks the voter as having voted in one
// transaction. The UNIQUE(voter_id, election_id) constraint turns concurrent
// duplicates into ErrAlreadyVoted with no partial state.
func (s *Store) RecordVote(ctx context.Context, vote *ballot.Vote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vote (id, voter_id, candidate_id, election_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		vote.ID, vote.VoterID, vote.CandidateID, vote.ElectionID, encodeTime(vote.CreatedAt))
	if isUniqueViolation(err) {
		return ballot.ErrAlreadyVoted
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE voter SET has_voted = 1, updated_at = ? WHERE id = ?`,
		encodeTime(time.Now().UTC()), vote.VoterID)
	if err != nil {
		return err
	}
	if err := requireRow(res, ceremony.ErrVoterNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// HasVoted reports whether the voter has a recorded vote in the election.
func (s *Store) HasVoted(ctx context.Context, voterID, electionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote WHERE voter_id = ? AND election_id = ?`,
		voterID, electionID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountVotes returns the number of votes recorded in the election.
func (s *Store) CountVotes(ctx context.Context, electionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote WHERE election_id = ?`, electionID).Scan(&count)
	return count, err
}

// VotesByCandidate returns vote counts keyed by candidate ID.
func (s *Store) VotesByCandidate(ctx context.Context, electionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, COUNT(*) FROM vote WHERE election_id = ? GROUP BY candidate_id`,
		electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			candidateID string
			count       int
		)
		if err := rows.Scan(&candidateID, &count); err != nil {
			return nil, err
		}
		counts[candidateID] = count
	}
	return counts, rows.Err()
}

func scanElection(row scanner) (*ballot.Election, error) {
	var (
		election                                 ballot.Election
		isActive                                 int
		startDate, endDate, createdAt, updatedAt int64
	)
	err := row.Scan(&election.ID, &election.Title, &election.Description,
		&startDate, &endDate, &isActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ballot.ErrElectionNotFound
	}
	if err != nil {
		return nil, err
	}
	election.StartDate = decodeTime(startDate)
	election.EndDate = decodeTime(endDate)
	election.IsActive = isActive != 0
	election.CreatedAt = decodeTime(createdAt)
	election.UpdatedAt = decodeTime(updatedAt)
	return &election, nil
}

func scanCandidate(row scanner) (*ballot.Candidate, error) {
	var (
		candidate ballot.Candidate
		createdAt int64
	)
	err := row.Scan(&candidate.ID, &candidate.ElectionID, &candidate.Name,
		&candidate.Party, &candidate.Position, &candidate.Bio, &candidate.ImageURL,
		&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ballot.ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	candidate.CreatedAt = decodeTime(createdAt)
	return &candidate, nil
}

// requireRow converts a zero-row result into the given not-found error.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

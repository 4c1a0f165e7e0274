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
	"errors"
	"fmt"
)

// Sentinel errors for ballot operations.
var (
	// ErrElectionNotFound is returned when an election cannot be found.
	ErrElectionNotFound = errors.New("election not found")

	// ErrElectionNotActive is returned when a vote targets an election that
	// is not currently active.
	ErrElectionNotActive = errors.New("election is not active")

	// ErrElectionHasVotes is returned when deleting an election that has
	// recorded votes.
	ErrElectionHasVotes = errors.New("election has recorded votes")

	// ErrCandidateNotFound is returned when a candidate cannot be found.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrCandidateNotInElection is returned when a vote names a candidate
	// that does not belong to the target election.
	ErrCandidateNotInElection = errors.New("candidate not in election")

	// ErrAlreadyVoted is returned when a voter has already cast a ballot in
	// the election.
	ErrAlreadyVoted = errors.New("voter has already voted")
)

// BallotError wraps an error with the operation that produced it.
type BallotError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *BallotError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *BallotError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *BallotError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new BallotError with the given operation and error.
func NewError(op string, err error) error {
	return &BallotError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsAlreadyVoted returns true if the error indicates a duplicate vote.
func IsAlreadyVoted(err error) bool {
	return errors.Is(err, ErrAlreadyVoted)
}

// IsElectionNotActive returns true if the error indicates an inactive election.
func IsElectionNotActive(err error) bool {
	return errors.Is(err, ErrElectionNotActive)
}

// IsElectionNotFound returns true if the error indicates a missing election.
func IsElectionNotFound(err error) bool {
	return errors.Is(err, ErrElectionNotFound)
}

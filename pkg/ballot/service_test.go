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

package ballot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
	"github.com/jeremyhahn/go-ballotbox/pkg/storage/memory"
)

type ballotEnv struct {
	svc    *ballot.Service
	store  *memory.BallotStore
	voters *memory.VoterStore
}

func newBallotEnv(t *testing.T) *ballotEnv {
	t.Helper()

	voters := memory.NewVoterStore()
	store := memory.NewBallotStore(voters)
	svc, err := ballot.NewService(ballot.ServiceParams{Store: store})
	require.NoError(t, err)

	return &ballotEnv{svc: svc, store: store, voters: voters}
}

func (e *ballotEnv) createVoter(t *testing.T, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.voters.Create(context.Background(), &ceremony.Voter{
		ID:            id,
		Name:          "Voter " + id,
		FingerprintID: "fp_" + id,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
}

func (e *ballotEnv) createElection(t *testing.T, active bool) *ballot.Election {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	election := &ballot.Election{
		Title:     "General Election",
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}
	require.NoError(t, e.svc.CreateElection(ctx, election))
	if active {
		require.NoError(t, e.svc.SetActive(ctx, election.ID))
	}
	return election
}

func (e *ballotEnv) createCandidate(t *testing.T, electionID, name string) *ballot.Candidate {
	t.Helper()
	candidate := &ballot.Candidate{
		ElectionID: electionID,
		Name:       name,
	}
	require.NoError(t, e.svc.CreateCandidate(context.Background(), candidate))
	return candidate
}

func TestService_CastVote(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	env.createVoter(t, "voter-1")

	election := env.createElection(t, true)
	candidate := env.createCandidate(t, election.ID, "Alex Morgan")

	vote, err := env.svc.CastVote(ctx, "voter-1", candidate.ID, election.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, "voter-1", vote.VoterID)
	assert.Equal(t, candidate.ID, vote.CandidateID)

	// The voter's has-voted flag flips with the vote insert.
	voter, err := env.voters.GetByID(ctx, "voter-1")
	require.NoError(t, err)
	assert.True(t, voter.HasVoted)
}

func TestService_CastVote_PreconditionOrder(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	env.createVoter(t, "voter-1")

	inactive := env.createElection(t, false)
	candidate := env.createCandidate(t, inactive.ID, "Alex Morgan")

	other := env.createElection(t, true)
	otherCandidate := env.createCandidate(t, other.ID, "Taylor Reed")

	// Inactive election is rejected before anything else, even with a
	// candidate that would also fail membership.
	_, err := env.svc.CastVote(ctx, "voter-1", otherCandidate.ID, inactive.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotActive))

	// Candidate membership is checked before the duplicate-vote rule.
	_, err = env.svc.CastVote(ctx, "voter-1", candidate.ID, other.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrCandidateNotInElection))

	// A clean vote, then a duplicate.
	_, err = env.svc.CastVote(ctx, "voter-1", otherCandidate.ID, other.ID)
	require.NoError(t, err)

	_, err = env.svc.CastVote(ctx, "voter-1", otherCandidate.ID, other.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrAlreadyVoted))
}

func TestService_CastVote_UnknownElectionAndCandidate(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	env.createVoter(t, "voter-1")

	_, err := env.svc.CastVote(ctx, "voter-1", "no-candidate", "no-election")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotFound))

	election := env.createElection(t, true)
	_, err = env.svc.CastVote(ctx, "voter-1", "no-candidate", election.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrCandidateNotFound))
}

func TestService_CastVote_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	env.createVoter(t, "voter-1")

	election := env.createElection(t, true)
	candidate := env.createCandidate(t, election.ID, "Alex Morgan")

	const attempts = 16
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.CastVote(ctx, "voter-1", candidate.ID, election.ID)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	successes, duplicates := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ballot.ErrAlreadyVoted):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one vote must land")
	assert.Equal(t, attempts-1, duplicates)

	count, err := env.store.CountVotes(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_SetActive_ExactlyOneActive(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)

	first := env.createElection(t, true)
	second := env.createElection(t, false)

	active, err := env.svc.ActiveElection(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	require.NoError(t, env.svc.SetActive(ctx, second.ID))

	active, err = env.svc.ActiveElection(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// The previously active election is deactivated.
	reloaded, err := env.svc.GetElection(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestService_SetActive_UnknownElection(t *testing.T) {
	env := newBallotEnv(t)
	err := env.svc.SetActive(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotFound))
}

func TestService_ActiveElection_NoneActive(t *testing.T) {
	env := newBallotEnv(t)
	env.createElection(t, false)

	_, err := env.svc.ActiveElection(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotFound))
}

func TestService_Results(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)

	election := env.createElection(t, true)
	alex := env.createCandidate(t, election.ID, "Alex Morgan")
	taylor := env.createCandidate(t, election.ID, "Taylor Reed")
	jordan := env.createCandidate(t, election.ID, "Jordan Casey")

	for i, candidateID := range []string{alex.ID, alex.ID, alex.ID, taylor.ID} {
		voterID := uuid.NewString()
		env.createVoter(t, voterID)
		_, err := env.svc.CastVote(ctx, voterID, candidateID, election.ID)
		require.NoError(t, err, "vote %d", i)
	}

	results, err := env.svc.Results(ctx, election.ID)
	require.NoError(t, err)

	assert.Equal(t, election.ID, results.ElectionID)
	assert.Equal(t, 4, results.TotalVotes)
	require.Len(t, results.Candidates, 3)

	// Sorted by votes, descending.
	assert.Equal(t, alex.ID, results.Candidates[0].CandidateID)
	assert.Equal(t, 3, results.Candidates[0].Votes)
	assert.InDelta(t, 75.0, results.Candidates[0].Percentage, 0.01)

	assert.Equal(t, taylor.ID, results.Candidates[1].CandidateID)
	assert.InDelta(t, 25.0, results.Candidates[1].Percentage, 0.01)

	assert.Equal(t, jordan.ID, results.Candidates[2].CandidateID)
	assert.Equal(t, 0, results.Candidates[2].Votes)
	assert.Zero(t, results.Candidates[2].Percentage)
}

func TestService_Results_EmptyElection(t *testing.T) {
	env := newBallotEnv(t)
	election := env.createElection(t, false)
	env.createCandidate(t, election.ID, "Alex Morgan")

	results, err := env.svc.Results(context.Background(), election.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, results.TotalVotes)
	require.Len(t, results.Candidates, 1)
	assert.Zero(t, results.Candidates[0].Percentage)
}

func TestService_CreateElection_Validation(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	now := time.Now().UTC()

	err := env.svc.CreateElection(ctx, &ballot.Election{
		StartDate: now,
		EndDate:   now.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")

	err = env.svc.CreateElection(ctx, &ballot.Election{
		Title:     "Backwards",
		StartDate: now,
		EndDate:   now.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end date must be after start date")

	// New elections never start active, even if the caller says so.
	election := &ballot.Election{
		Title:     "Valid",
		StartDate: now,
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, env.svc.CreateElection(ctx, election))
	assert.False(t, election.IsActive)
}

func TestService_UpdateElection_PreservesActiveFlag(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	election := env.createElection(t, true)

	updated := &ballot.Election{
		ID:        election.ID,
		Title:     "Renamed Election",
		StartDate: election.StartDate,
		EndDate:   election.EndDate,
	}
	require.NoError(t, env.svc.UpdateElection(ctx, updated))

	reloaded, err := env.svc.GetElection(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Election", reloaded.Title)
	assert.True(t, reloaded.IsActive)
}

func TestService_DeleteElection_WithVotes(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	env.createVoter(t, "voter-1")

	election := env.createElection(t, true)
	candidate := env.createCandidate(t, election.ID, "Alex Morgan")

	_, err := env.svc.CastVote(ctx, "voter-1", candidate.ID, election.ID)
	require.NoError(t, err)

	err = env.svc.DeleteElection(ctx, election.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionHasVotes))

	// Still retrievable.
	_, err = env.svc.GetElection(ctx, election.ID)
	require.NoError(t, err)
}

func TestService_DeleteElection_Empty(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	election := env.createElection(t, false)

	require.NoError(t, env.svc.DeleteElection(ctx, election.ID))

	_, err := env.svc.GetElection(ctx, election.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotFound))
}

func TestService_CreateCandidate_Validation(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	election := env.createElection(t, false)

	err := env.svc.CreateCandidate(ctx, &ballot.Candidate{ElectionID: election.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	err = env.svc.CreateCandidate(ctx, &ballot.Candidate{
		ElectionID: "missing",
		Name:       "Nobody",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ballot.ErrElectionNotFound))
}

func TestService_UpdateCandidate_PreservesElection(t *testing.T) {
	ctx := context.Background()
	env := newBallotEnv(t)
	election := env.createElection(t, false)
	candidate := env.createCandidate(t, election.ID, "Alex Morgan")

	updated := &ballot.Candidate{
		ID:         candidate.ID,
		ElectionID: "someone-elses-election",
		Name:       "Alex Morgan",
		Party:      "Progressive Party",
	}
	require.NoError(t, env.svc.UpdateCandidate(ctx, updated))

	reloaded, err := env.svc.GetCandidate(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, election.ID, reloaded.ElectionID)
	assert.Equal(t, "Progressive Party", reloaded.Party)
}

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

package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jeremyhahn/go-ballotbox/pkg/metrics"
)

// handleCastVote records a ballot for the authenticated voter. The voter
// identity comes from the session token, never the request body.
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		s.writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing session")
		return
	}

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}
	if req.CandidateID == "" || req.ElectionID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "candidate_id and election_id are required")
		return
	}

	vote, err := s.ballots.CastVote(r.Context(), session.Subject, req.CandidateID, req.ElectionID)
	if err != nil {
		metrics.RecordVote(metrics.StatusError)
		s.writeServiceError(w, err)
		return
	}
	metrics.RecordVote(metrics.StatusSuccess)

	s.writeJSON(w, http.StatusCreated, CastVoteResponse{
		Success: true,
		Vote:    vote,
	})
}

// handleActiveElection returns the currently active election.
func (s *Server) handleActiveElection(w http.ResponseWriter, r *http.Request) {
	election, err := s.ballots.ActiveElection(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, election)
}

// handleResults returns the vote tally for an election.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.ballots.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// handleListCandidates returns an election's candidates.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.ballots.ListCandidates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

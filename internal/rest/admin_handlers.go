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
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

const recentAlertLimit = 10

// handleAdminLogin authenticates an administrator by username and password
// and issues an admin session token. Unknown usernames and wrong passwords
// are indistinguishable to the caller.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "username and password are required")
		return
	}

	admin, err := s.admins.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, ceremony.ErrAdminNotFound) {
			s.writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		s.writeServiceError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("admin login failed", "username", req.Username)
		s.writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, err := s.sessions.Issue(admin.ID, admin.Name, RoleAdmin)
	if err != nil {
		s.logger.Error("failed to issue session token", "error", err)
		s.writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to issue session token")
		return
	}

	s.logger.Info("admin logged in", "username", admin.Username)
	s.writeJSON(w, http.StatusOK, AdminLoginResponse{
		Token:    token,
		Username: admin.Username,
		Name:     admin.Name,
	})
}

// handleDashboard summarizes platform state: voter counts, elections, the
// active election and recent security alerts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	voters, err := s.voters.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	voted := 0
	for _, v := range voters {
		if v.HasVoted {
			voted++
		}
	}

	elections, err := s.ballots.ListElections(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := DashboardResponse{
		Voters:      len(voters),
		VotersVoted: voted,
		Elections:   len(elections),
	}

	if active, err := s.ballots.ActiveElection(r.Context()); err == nil {
		resp.ActiveElection = active
	} else if !errors.Is(err, ballot.ErrElectionNotFound) {
		s.writeServiceError(w, err)
		return
	}

	if s.audit != nil {
		alerts, err := s.audit.ListAlerts(r.Context(), recentAlertLimit)
		if err != nil {
			s.logger.Error("failed to list security alerts", "error", err)
		} else {
			resp.RecentAlerts = alerts
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleListElections returns all elections.
func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := s.ballots.ListElections(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, elections)
}

// handleCreateElection creates a new, inactive election.
func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req ElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}

	election := &ballot.Election{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.ballots.CreateElection(r.Context(), election); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, election)
}

// handleUpdateElection updates an election's details.
func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	var req ElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}

	election := &ballot.Election{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.ballots.UpdateElection(r.Context(), election); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, election)
}

// handleDeleteElection removes an election that has no votes.
func (s *Server) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	if err := s.ballots.DeleteElection(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetActiveElection makes the given election the single active one.
func (s *Server) handleSetActiveElection(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ElectionID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "election_id is required")
		return
	}

	if err := s.ballots.SetActive(r.Context(), req.ElectionID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	election, err := s.ballots.GetElection(r.Context(), req.ElectionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, election)
}

// handleCreateCandidate creates a candidate in an election.
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}

	candidate := &ballot.Candidate{
		ElectionID: req.ElectionID,
		Name:       req.Name,
		Party:      req.Party,
		Position:   req.Position,
		Bio:        req.Bio,
		ImageURL:   req.ImageURL,
	}
	if err := s.ballots.CreateCandidate(r.Context(), candidate); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, candidate)
}

// handleUpdateCandidate updates a candidate's details.
func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}

	candidate := &ballot.Candidate{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Party:    req.Party,
		Position: req.Position,
		Bio:      req.Bio,
		ImageURL: req.ImageURL,
	}
	if err := s.ballots.UpdateCandidate(r.Context(), candidate); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, candidate)
}

// handleDeleteCandidate removes a candidate.
func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.ballots.DeleteCandidate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// handleRegisterVoter enrolls a new voter identity. Credential registration
// happens separately through the WebAuthn ceremony.
func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed request body")
		return
	}
	if req.Name == "" || req.FingerprintID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name and fingerprint_id are required")
		return
	}

	now := time.Now().UTC()
	voter := &ceremony.Voter{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		FingerprintID: req.FingerprintID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.voters.Create(r.Context(), voter); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.logger.Info("voter registered", "voter_id", voter.ID)
	s.writeJSON(w, http.StatusCreated, voter)
}

// handleLookupVoter resolves a voter by fingerprint identifier.
func (s *Server) handleLookupVoter(w http.ResponseWriter, r *http.Request) {
	fingerprintID := r.URL.Query().Get("fingerprint_id")
	if fingerprintID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "fingerprint_id query parameter is required")
		return
	}

	voter, err := s.voters.GetByFingerprint(r.Context(), fingerprintID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, voter)
}

// handleVoterStatus reports whether a voter exists and has voted.
func (s *Server) handleVoterStatus(w http.ResponseWriter, r *http.Request) {
	voter, err := s.voters.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, VoterInfo{
		ID:       voter.ID,
		Name:     voter.Name,
		HasVoted: voter.HasVoted,
	})
}

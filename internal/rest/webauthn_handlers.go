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
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
	"github.com/jeremyhahn/go-ballotbox/pkg/metrics"
)

// requestMeta extracts client metadata for risk annotation.
func requestMeta(r *http.Request) ceremony.Meta {
	return ceremony.Meta{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	}
}

// handleBeginRegistration starts a registration ceremony and returns the
// credential creation options for the browser.
func (s *Server) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	var req BeginCeremonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VoterID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "voter_id is required")
		return
	}

	options, err := s.ceremonies.BeginRegistration(r.Context(), req.VoterID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, options)
}

// handleCompleteRegistration verifies the attestation response and stores the
// new credential.
func (s *Server) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CompleteCeremonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VoterID == "" || len(req.Response) == 0 {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "voter_id and response are required")
		return
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(req.Response))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed credential creation response")
		return
	}

	result, err := s.ceremonies.CompleteRegistration(r.Context(), req.VoterID, parsed, requestMeta(r))
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusError, time.Since(start).Seconds())
		s.writeServiceError(w, err)
		return
	}
	metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusSuccess, time.Since(start).Seconds())

	voter, err := s.voters.GetByID(r.Context(), req.VoterID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, CompleteRegistrationResponse{
		Success:  true,
		Verified: true,
		Voter: &VoterInfo{
			ID:       voter.ID,
			Name:     voter.Name,
			HasVoted: voter.HasVoted,
		},
		AIVerification: result.Assessment,
	})
}

// handleBeginAuthentication starts an authentication ceremony and returns the
// assertion options for the browser.
func (s *Server) handleBeginAuthentication(w http.ResponseWriter, r *http.Request) {
	var req BeginCeremonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VoterID == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "voter_id is required")
		return
	}

	options, err := s.ceremonies.BeginAuthentication(r.Context(), req.VoterID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, options)
}

// handleCompleteAuthentication verifies the assertion and issues a voter
// session token.
func (s *Server) handleCompleteAuthentication(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CompleteCeremonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VoterID == "" || len(req.Response) == 0 {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "voter_id and response are required")
		return
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(req.Response))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed credential assertion response")
		return
	}

	result, err := s.ceremonies.CompleteAuthentication(r.Context(), req.VoterID, parsed, requestMeta(r))
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusError, time.Since(start).Seconds())
		s.writeServiceError(w, err)
		return
	}
	metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusSuccess, time.Since(start).Seconds())

	token, err := s.sessions.Issue(result.Voter.ID, result.Voter.Name, RoleVoter)
	if err != nil {
		s.logger.Error("failed to issue session token", "error", err)
		s.writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to issue session token")
		return
	}

	s.writeJSON(w, http.StatusOK, CompleteAuthenticationResponse{
		Success:  true,
		Verified: true,
		Voter: &VoterInfo{
			ID:       result.Voter.ID,
			Name:     result.Voter.Name,
			HasVoted: result.Voter.HasVoted,
		},
		Token:          token,
		AIVerification: result.Assessment,
	})
}

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

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error payload.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeServiceError maps a service error onto an HTTP status and error code.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status, code := mapServiceError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeError(w, status, code, err.Error())
}

// mapServiceError translates ceremony and ballot errors into HTTP semantics.
// Missing resources map to 404, conflicts to 409, rejected ceremonies to 401
// and precondition failures to 400.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, ceremony.ErrVoterNotFound):
		return http.StatusNotFound, ErrCodeVoterNotFound
	case errors.Is(err, ceremony.ErrAdminNotFound):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, ceremony.ErrUnknownCredential):
		return http.StatusNotFound, ErrCodeUnknownCredential
	case errors.Is(err, ceremony.ErrDuplicateVoter):
		return http.StatusConflict, ErrCodeDuplicateVoter
	case errors.Is(err, ceremony.ErrDuplicateCredential):
		return http.StatusConflict, ErrCodeDuplicateCredential
	case errors.Is(err, ceremony.ErrNoCredentials):
		return http.StatusBadRequest, ErrCodeNoCredentials
	case errors.Is(err, ceremony.ErrNoValidChallenge):
		return http.StatusBadRequest, ErrCodeNoValidChallenge
	case errors.Is(err, ceremony.ErrOriginMismatch):
		return http.StatusUnauthorized, ErrCodeOriginMismatch
	case errors.Is(err, ceremony.ErrSignatureInvalid):
		return http.StatusUnauthorized, ErrCodeVerificationFailed
	case errors.Is(err, ceremony.ErrCounterReuse):
		return http.StatusUnauthorized, ErrCodeCounterReuse
	case errors.Is(err, ballot.ErrElectionNotFound):
		return http.StatusNotFound, ErrCodeElectionNotFound
	case errors.Is(err, ballot.ErrElectionNotActive):
		return http.StatusBadRequest, ErrCodeElectionNotActive
	case errors.Is(err, ballot.ErrElectionHasVotes):
		return http.StatusConflict, ErrCodeElectionHasVotes
	case errors.Is(err, ballot.ErrCandidateNotFound):
		return http.StatusNotFound, ErrCodeCandidateNotFound
	case errors.Is(err, ballot.ErrCandidateNotInElection):
		return http.StatusBadRequest, ErrCodeCandidateNotInElection
	case errors.Is(err, ballot.ErrAlreadyVoted):
		return http.StatusConflict, ErrCodeAlreadyVoted
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

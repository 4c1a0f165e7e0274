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
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// Error codes returned in error responses.
const (
	ErrCodeInvalidRequest         = "invalid_request"
	ErrCodeVoterNotFound          = "voter_not_found"
	ErrCodeDuplicateVoter         = "voter_already_registered"
	ErrCodeDuplicateCredential    = "credential_already_registered"
	ErrCodeNoCredentials          = "no_credentials"
	ErrCodeUnknownCredential      = "unknown_credential"
	ErrCodeNoValidChallenge       = "no_valid_challenge"
	ErrCodeVerificationFailed     = "verification_failed"
	ErrCodeOriginMismatch         = "origin_mismatch"
	ErrCodeCounterReuse           = "counter_reuse"
	ErrCodeElectionNotFound       = "election_not_found"
	ErrCodeElectionNotActive      = "election_not_active"
	ErrCodeElectionHasVotes       = "election_has_votes"
	ErrCodeCandidateNotFound      = "candidate_not_found"
	ErrCodeCandidateNotInElection = "candidate_not_in_election"
	ErrCodeAlreadyVoted           = "already_voted"
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInternalError          = "internal_error"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BeginCeremonyRequest starts a registration or authentication ceremony.
type BeginCeremonyRequest struct {
	VoterID string `json:"voter_id"`
}

// CompleteCeremonyRequest finishes a ceremony. Response carries the browser's
// PublicKeyCredential JSON verbatim.
type CompleteCeremonyRequest struct {
	VoterID  string          `json:"voter_id"`
	Response json.RawMessage `json:"response"`
}

// VoterInfo is the voter summary returned after a successful ceremony.
type VoterInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HasVoted bool   `json:"has_voted"`
}

// CompleteRegistrationResponse is returned after a successful registration.
type CompleteRegistrationResponse struct {
	Success        bool             `json:"success"`
	Verified       bool             `json:"verified"`
	Voter          *VoterInfo       `json:"voter"`
	AIVerification *risk.Assessment `json:"ai_verification,omitempty"`
}

// CompleteAuthenticationResponse is returned after a successful
// authentication, including the session token for subsequent requests.
type CompleteAuthenticationResponse struct {
	Success        bool             `json:"success"`
	Verified       bool             `json:"verified"`
	Voter          *VoterInfo       `json:"voter"`
	Token          string           `json:"token"`
	AIVerification *risk.Assessment `json:"ai_verification,omitempty"`
}

// RegisterVoterRequest enrolls a new voter identity.
type RegisterVoterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	FingerprintID string `json:"fingerprint_id"`
}

// CastVoteRequest casts a ballot for the authenticated voter.
type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
	ElectionID  string `json:"election_id"`
}

// CastVoteResponse is returned after a recorded vote.
type CastVoteResponse struct {
	Success bool         `json:"success"`
	Vote    *ballot.Vote `json:"vote"`
}

// AdminLoginRequest authenticates an administrator.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the admin session token.
type AdminLoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ElectionRequest creates or updates an election.
type ElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// SetActiveRequest activates an election.
type SetActiveRequest struct {
	ElectionID string `json:"election_id"`
}

// CandidateRequest creates or updates a candidate.
type CandidateRequest struct {
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Party      string `json:"party,omitempty"`
	Position   string `json:"position,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// DashboardResponse summarizes platform state for administrators.
type DashboardResponse struct {
	Voters         int                   `json:"voters"`
	VotersVoted    int                   `json:"voters_voted"`
	Elections      int                   `json:"elections"`
	ActiveElection *ballot.Election      `json:"active_election,omitempty"`
	RecentAlerts   []*risk.SecurityAlert `json:"recent_alerts,omitempty"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status string `json:"status"`
}

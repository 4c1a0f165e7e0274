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

package risk

import (
	"fmt"
	"time"
)

// Level is the assessed risk severity of an authentication event.
type Level string

const (
	// LevelLow indicates a routine authentication.
	LevelLow Level = "low"

	// LevelMedium indicates mildly unusual behavior worth noting.
	LevelMedium Level = "medium"

	// LevelHigh indicates suspicious behavior that should be reviewed.
	LevelHigh Level = "high"

	// LevelCritical indicates behavior consistent with an active attack.
	LevelCritical Level = "critical"
)

// Valid reports whether the level is one of the defined severities.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// Alertable reports whether the level warrants a security alert.
func (l Level) Alertable() bool {
	return l == LevelHigh || l == LevelCritical
}

// Authentication methods recorded in the audit trail.
const (
	MethodRegistration   = "webauthn_registration"
	MethodAuthentication = "webauthn_authentication"
)

// Assessment is the result of scoring a single authentication event.
type Assessment struct {
	// RiskLevel is the assessed severity.
	RiskLevel Level `json:"risk_level"`

	// Confidence is the scorer's confidence in the assessment, 0-100.
	Confidence int `json:"confidence"`

	// RiskFactors lists the observations that contributed to the level.
	RiskFactors []string `json:"risk_factors,omitempty"`

	// Recommendation is the suggested action: "allow", "review" or "block".
	Recommendation string `json:"recommendation"`

	// AIAnalysis is the scorer's free-form explanation.
	AIAnalysis string `json:"ai_analysis,omitempty"`
}

// Validate checks that the assessment is well-formed.
func (a *Assessment) Validate() error {
	if !a.RiskLevel.Valid() {
		return fmt.Errorf("invalid risk level: %s", a.RiskLevel)
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("confidence out of range: %d", a.Confidence)
	}
	return nil
}

// Event is a single ceremony outcome forwarded by the ceremony engine.
type Event struct {
	// VoterID is the voter the ceremony was performed for.
	VoterID string

	// Method is the authentication method, one of the Method constants.
	Method string

	// Success indicates whether the ceremony completed successfully.
	Success bool

	// FailureReason describes why the ceremony failed, empty on success.
	FailureReason string

	// CredentialID is the credential involved, if one was resolved.
	CredentialID []byte

	// Counter is the signature counter reported by the authenticator.
	Counter uint32

	// UserAgent is the client's User-Agent header.
	UserAgent string

	// IPAddress is the client's remote address.
	IPAddress string
}

// Request is the input handed to a Scorer for a successful authentication.
type Request struct {
	// VoterID identifies the voter.
	VoterID string `json:"voter_id"`

	// Method is the authentication method.
	Method string `json:"method"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// UserAgent is the client's User-Agent header.
	UserAgent string `json:"user_agent,omitempty"`

	// IPAddress is the client's remote address.
	IPAddress string `json:"ip_address,omitempty"`

	// Credential describes the credential used.
	Credential CredentialInfo `json:"credential"`

	// History holds the voter's most recent successful authentications,
	// newest first.
	History []HistoryEntry `json:"history,omitempty"`
}

// CredentialInfo is the credential metadata included in a scoring request.
type CredentialInfo struct {
	// CredentialID is the base64url-encoded credential identifier.
	CredentialID string `json:"credential_id"`

	// Counter is the signature counter after this authentication.
	Counter uint32 `json:"counter"`

	// DeviceType describes the authenticator attachment, if known.
	DeviceType string `json:"device_type,omitempty"`
}

// HistoryEntry is one prior authentication in a scoring request.
type HistoryEntry struct {
	// Timestamp is when the prior authentication occurred.
	Timestamp time.Time `json:"timestamp"`

	// Method is the authentication method used.
	Method string `json:"method"`

	// Success indicates the outcome.
	Success bool `json:"success"`
}

// VerificationLog is the audit record written for every ceremony outcome.
type VerificationLog struct {
	// ID is the log entry identifier.
	ID string `json:"id"`

	// VoterID is the voter the ceremony was performed for.
	VoterID string `json:"voter_id"`

	// Method is the authentication method.
	Method string `json:"method"`

	// Success indicates the ceremony outcome.
	Success bool `json:"success"`

	// FailureReason describes a failed ceremony, empty on success.
	FailureReason string `json:"failure_reason,omitempty"`

	// IPAddress is the client's remote address.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the client's User-Agent header.
	UserAgent string `json:"user_agent,omitempty"`

	// Assessment is the risk assessment, nil for failed ceremonies.
	Assessment *Assessment `json:"assessment,omitempty"`

	// CreatedAt is when the entry was written.
	CreatedAt time.Time `json:"created_at"`
}

// SecurityAlert is raised when an assessment reaches an alertable level.
type SecurityAlert struct {
	// ID is the alert identifier.
	ID string `json:"id"`

	// VoterID is the affected voter.
	VoterID string `json:"voter_id"`

	// Type categorizes the alert.
	Type string `json:"type"`

	// Severity is the assessed risk level that triggered the alert.
	Severity Level `json:"severity"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// Confidence is the scorer's confidence, 0-100.
	Confidence int `json:"confidence"`

	// RiskFactors lists the contributing observations.
	RiskFactors []string `json:"risk_factors,omitempty"`

	// AIAnalysis is the scorer's explanation.
	AIAnalysis string `json:"ai_analysis,omitempty"`

	// CreatedAt is when the alert was raised.
	CreatedAt time.Time `json:"created_at"`
}

// AlertTypeHighRisk is the alert type raised for high or critical
// authentication assessments.
const AlertTypeHighRisk = "high_risk_authentication"

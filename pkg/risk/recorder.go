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
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-ballotbox/pkg/metrics"
)

// AuditStore persists verification logs and security alerts.
type AuditStore interface {
	// AppendLog appends a verification log entry.
	AppendLog(ctx context.Context, entry *VerificationLog) error

	// AppendAlert appends a security alert.
	AppendAlert(ctx context.Context, alert *SecurityAlert) error

	// RecentLogs returns the voter's most recent log entries for the given
	// method, newest first, limited to limit. When successOnly is set, failed
	// entries are skipped.
	RecentLogs(ctx context.Context, voterID, method string, successOnly bool, limit int) ([]*VerificationLog, error)

	// ListAlerts returns the most recent security alerts, newest first.
	ListAlerts(ctx context.Context, limit int) ([]*SecurityAlert, error)
}

// historyDepth is how many prior successful authentications are included in
// a scoring request.
const historyDepth = 5

// degradedConfidenceCap bounds the confidence reported when the configured
// scorer is unreachable and the heuristic fallback is used instead.
const degradedConfidenceCap = 75

// Recorder receives ceremony outcomes, scores the successful ones and writes
// the audit trail. It implements the ceremony engine's risk sink contract.
type Recorder struct {
	scorer   Scorer
	fallback *HeuristicScorer
	store    AuditStore
	logger   *slog.Logger
}

// RecorderParams contains dependencies for creating a Recorder.
type RecorderParams struct {
	// Scorer is the primary scorer. When nil, the heuristic scorer is used.
	Scorer Scorer

	// Store is the audit persistence layer (required).
	Store AuditStore

	// Logger is an optional structured logger.
	Logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(params RecorderParams) (*Recorder, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		scorer:   params.Scorer,
		fallback: NewHeuristicScorer(),
		store:    params.Store,
		logger:   logger,
	}, nil
}

// Record logs the event and, for successful events, returns its risk
// assessment. Recording never blocks the ceremony: audit write failures are
// logged and swallowed, and scorer outages degrade to the heuristic.
func (r *Recorder) Record(ctx context.Context, ev *Event) *Assessment {
	now := time.Now().UTC()

	entry := &VerificationLog{
		ID:            uuid.NewString(),
		VoterID:       ev.VoterID,
		Method:        ev.Method,
		Success:       ev.Success,
		FailureReason: ev.FailureReason,
		IPAddress:     ev.IPAddress,
		UserAgent:     ev.UserAgent,
		CreatedAt:     now,
	}

	if !ev.Success {
		r.appendLog(ctx, entry)
		return nil
	}

	assessment := r.score(ctx, ev, now)
	entry.Assessment = assessment
	r.appendLog(ctx, entry)

	if assessment.RiskLevel.Alertable() {
		alert := &SecurityAlert{
			ID:          uuid.NewString(),
			VoterID:     ev.VoterID,
			Type:        AlertTypeHighRisk,
			Severity:    assessment.RiskLevel,
			Description: fmt.Sprintf("%s risk %s for voter %s", assessment.RiskLevel, ev.Method, ev.VoterID),
			Confidence:  assessment.Confidence,
			RiskFactors: assessment.RiskFactors,
			AIAnalysis:  assessment.AIAnalysis,
			CreatedAt:   now,
		}
		if err := r.store.AppendAlert(ctx, alert); err != nil {
			r.logger.Error("failed to append security alert",
				"voter_id", ev.VoterID, "severity", assessment.RiskLevel, "error", err)
		} else {
			metrics.RecordSecurityAlert(string(assessment.RiskLevel))
			r.logger.Warn("security alert raised",
				"voter_id", ev.VoterID, "severity", assessment.RiskLevel,
				"confidence", assessment.Confidence)
		}
	}

	return assessment
}

// score builds the scoring request and runs the configured scorer, degrading
// to the heuristic on failure.
func (r *Recorder) score(ctx context.Context, ev *Event, now time.Time) *Assessment {
	req := &Request{
		VoterID:   ev.VoterID,
		Method:    ev.Method,
		Timestamp: now,
		UserAgent: ev.UserAgent,
		IPAddress: ev.IPAddress,
		Credential: CredentialInfo{
			CredentialID: base64.RawURLEncoding.EncodeToString(ev.CredentialID),
			Counter:      ev.Counter,
		},
	}

	history, err := r.store.RecentLogs(ctx, ev.VoterID, ev.Method, true, historyDepth)
	if err != nil {
		r.logger.Error("failed to load authentication history",
			"voter_id", ev.VoterID, "error", err)
	}
	for _, h := range history {
		req.History = append(req.History, HistoryEntry{
			Timestamp: h.CreatedAt,
			Method:    h.Method,
			Success:   h.Success,
		})
	}

	scorer := r.scorer
	if scorer == nil {
		scorer = r.fallback
	}

	assessment, err := scorer.Score(ctx, req)
	if err == nil {
		return assessment
	}

	r.logger.Warn("risk scorer unavailable, using heuristic fallback",
		"voter_id", ev.VoterID, "error", err)

	assessment, _ = r.fallback.Score(ctx, req)
	assessment.RiskFactors = append(assessment.RiskFactors, "risk scoring system offline")
	if assessment.Confidence > degradedConfidenceCap {
		assessment.Confidence = degradedConfidenceCap
	}
	return assessment
}

// appendLog writes a verification log entry, logging failures instead of
// propagating them.
func (r *Recorder) appendLog(ctx context.Context, entry *VerificationLog) {
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.logger.Error("failed to append verification log",
			"voter_id", entry.VoterID, "method", entry.Method, "error", err)
	}
}

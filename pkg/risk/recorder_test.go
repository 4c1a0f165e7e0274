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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuditStore records appended entries and serves canned history.
type stubAuditStore struct {
	logs         []*VerificationLog
	alerts       []*SecurityAlert
	history      []*VerificationLog
	appendLogErr error
}

func (s *stubAuditStore) AppendLog(_ context.Context, entry *VerificationLog) error {
	if s.appendLogErr != nil {
		return s.appendLogErr
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *stubAuditStore) AppendAlert(_ context.Context, alert *SecurityAlert) error {
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *stubAuditStore) RecentLogs(_ context.Context, voterID, method string, successOnly bool, limit int) ([]*VerificationLog, error) {
	return s.history, nil
}

func (s *stubAuditStore) ListAlerts(_ context.Context, limit int) ([]*SecurityAlert, error) {
	return s.alerts, nil
}

// fixedScorer returns the same assessment or error on every call.
type fixedScorer struct {
	assessment *Assessment
	err        error
	lastReq    *Request
}

func (s *fixedScorer) Score(_ context.Context, req *Request) (*Assessment, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.assessment, nil
}

func TestRecorder_RequiresStore(t *testing.T) {
	_, err := NewRecorder(RecorderParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit store is required")
}

func TestRecorder_FailureLoggedWithoutAssessment(t *testing.T) {
	store := &stubAuditStore{}
	recorder, err := NewRecorder(RecorderParams{Store: store})
	require.NoError(t, err)

	assessment := recorder.Record(context.Background(), &Event{
		VoterID:       "voter-1",
		Method:        MethodAuthentication,
		Success:       false,
		FailureReason: "no valid challenge",
	})

	assert.Nil(t, assessment)
	require.Len(t, store.logs, 1)
	assert.False(t, store.logs[0].Success)
	assert.Equal(t, "no valid challenge", store.logs[0].FailureReason)
	assert.Nil(t, store.logs[0].Assessment)
	assert.Empty(t, store.alerts)
}

func TestRecorder_SuccessScoredWithHeuristic(t *testing.T) {
	store := &stubAuditStore{}
	recorder, err := NewRecorder(RecorderParams{Store: store})
	require.NoError(t, err)

	assessment := recorder.Record(context.Background(), &Event{
		VoterID: "voter-1",
		Method:  MethodAuthentication,
		Success: true,
	})

	require.NotNil(t, assessment)
	assert.Equal(t, LevelLow, assessment.RiskLevel)
	assert.Contains(t, assessment.RiskFactors, "first authentication for this voter")

	require.Len(t, store.logs, 1)
	assert.True(t, store.logs[0].Success)
	assert.Equal(t, assessment, store.logs[0].Assessment)
	assert.Empty(t, store.alerts, "low risk must not raise an alert")
}

func TestRecorder_HighRiskRaisesAlert(t *testing.T) {
	store := &stubAuditStore{}
	scorer := &fixedScorer{
		assessment: &Assessment{
			RiskLevel:      LevelHigh,
			Confidence:     95,
			RiskFactors:    []string{"authentication from new location"},
			Recommendation: "review",
			AIAnalysis:     "Suspicious pattern.",
		},
	}
	recorder, err := NewRecorder(RecorderParams{Scorer: scorer, Store: store})
	require.NoError(t, err)

	assessment := recorder.Record(context.Background(), &Event{
		VoterID: "voter-1",
		Method:  MethodAuthentication,
		Success: true,
	})

	require.NotNil(t, assessment)
	assert.Equal(t, LevelHigh, assessment.RiskLevel)

	require.Len(t, store.alerts, 1)
	alert := store.alerts[0]
	assert.Equal(t, "voter-1", alert.VoterID)
	assert.Equal(t, AlertTypeHighRisk, alert.Type)
	assert.Equal(t, LevelHigh, alert.Severity)
	assert.Equal(t, 95, alert.Confidence)
	assert.Equal(t, []string{"authentication from new location"}, alert.RiskFactors)
}

func TestRecorder_ScorerOutageDegradesToHeuristic(t *testing.T) {
	store := &stubAuditStore{
		history: []*VerificationLog{
			{VoterID: "voter-1", Method: MethodAuthentication, Success: true,
				CreatedAt: time.Now().UTC().Add(-time.Hour)},
		},
	}
	scorer := &fixedScorer{err: fmt.Errorf("connection refused")}
	recorder, err := NewRecorder(RecorderParams{Scorer: scorer, Store: store})
	require.NoError(t, err)

	assessment := recorder.Record(context.Background(), &Event{
		VoterID: "voter-1",
		Method:  MethodAuthentication,
		Success: true,
	})

	require.NotNil(t, assessment)
	assert.Contains(t, assessment.RiskFactors, "risk scoring system offline")
	assert.LessOrEqual(t, assessment.Confidence, degradedConfidenceCap)

	// The event is still logged despite the scorer outage.
	require.Len(t, store.logs, 1)
	assert.NotNil(t, store.logs[0].Assessment)
}

func TestRecorder_ScorerReceivesHistory(t *testing.T) {
	now := time.Now().UTC()
	store := &stubAuditStore{
		history: []*VerificationLog{
			{VoterID: "voter-1", Method: MethodAuthentication, Success: true, CreatedAt: now.Add(-time.Minute)},
			{VoterID: "voter-1", Method: MethodAuthentication, Success: true, CreatedAt: now.Add(-time.Hour)},
		},
	}
	scorer := &fixedScorer{
		assessment: &Assessment{RiskLevel: LevelLow, Confidence: 85, Recommendation: "allow"},
	}
	recorder, err := NewRecorder(RecorderParams{Scorer: scorer, Store: store})
	require.NoError(t, err)

	recorder.Record(context.Background(), &Event{
		VoterID:      "voter-1",
		Method:       MethodAuthentication,
		Success:      true,
		CredentialID: []byte{0x01, 0x02},
		Counter:      7,
	})

	require.NotNil(t, scorer.lastReq)
	assert.Equal(t, "voter-1", scorer.lastReq.VoterID)
	assert.Equal(t, uint32(7), scorer.lastReq.Credential.Counter)
	assert.NotEmpty(t, scorer.lastReq.Credential.CredentialID)
	require.Len(t, scorer.lastReq.History, 2)
	assert.Equal(t, now.Add(-time.Minute), scorer.lastReq.History[0].Timestamp)
}

func TestRecorder_AuditWriteFailureSwallowed(t *testing.T) {
	store := &stubAuditStore{appendLogErr: fmt.Errorf("disk full")}
	recorder, err := NewRecorder(RecorderParams{Store: store})
	require.NoError(t, err)

	// Recording never propagates store failures to the ceremony.
	assessment := recorder.Record(context.Background(), &Event{
		VoterID: "voter-1",
		Method:  MethodRegistration,
		Success: true,
	})
	require.NotNil(t, assessment)
}

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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicScorer_FirstAuthentication(t *testing.T) {
	scorer := NewHeuristicScorer()

	assessment, err := scorer.Score(context.Background(), &Request{
		VoterID:   "voter-1",
		Method:    MethodAuthentication,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, LevelLow, assessment.RiskLevel)
	assert.Equal(t, 75, assessment.Confidence)
	assert.Contains(t, assessment.RiskFactors, "first authentication for this voter")
	assert.Equal(t, "allow", assessment.Recommendation)
}

func TestHeuristicScorer_RapidRepeat(t *testing.T) {
	scorer := NewHeuristicScorer()
	now := time.Now().UTC()

	assessment, err := scorer.Score(context.Background(), &Request{
		VoterID:   "voter-1",
		Method:    MethodAuthentication,
		Timestamp: now,
		History: []HistoryEntry{
			{Timestamp: now.Add(-10 * time.Second), Method: MethodAuthentication, Success: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, LevelMedium, assessment.RiskLevel)
	assert.Equal(t, 80, assessment.Confidence)
	assert.Contains(t, assessment.RiskFactors, "rapid repeat authentication")
}

func TestHeuristicScorer_RoutineAuthentication(t *testing.T) {
	scorer := NewHeuristicScorer()
	now := time.Now().UTC()

	assessment, err := scorer.Score(context.Background(), &Request{
		VoterID:   "voter-1",
		Method:    MethodAuthentication,
		Timestamp: now,
		History: []HistoryEntry{
			{Timestamp: now.Add(-time.Hour), Method: MethodAuthentication, Success: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, LevelLow, assessment.RiskLevel)
	assert.Equal(t, 85, assessment.Confidence)
	assert.Empty(t, assessment.RiskFactors)
}

func TestHTTPScorer_RequiresEndpoint(t *testing.T) {
	_, err := NewHTTPScorer(HTTPScorerParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestHTTPScorer_Score(t *testing.T) {
	var gotAuth string
	var gotReq Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Assessment{
			RiskLevel:      LevelHigh,
			Confidence:     92,
			RiskFactors:    []string{"authentication from new location"},
			Recommendation: "review",
			AIAnalysis:     "Unusual access pattern.",
		})
	}))
	defer srv.Close()

	scorer, err := NewHTTPScorer(HTTPScorerParams{
		Endpoint: srv.URL,
		APIKey:   "secret-key",
	})
	require.NoError(t, err)

	assessment, err := scorer.Score(context.Background(), &Request{
		VoterID:   "voter-1",
		Method:    MethodAuthentication,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "voter-1", gotReq.VoterID)
	assert.Equal(t, LevelHigh, assessment.RiskLevel)
	assert.Equal(t, 92, assessment.Confidence)
	assert.Equal(t, "review", assessment.Recommendation)
}

func TestHTTPScorer_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	scorer, err := NewHTTPScorer(HTTPScorerParams{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), &Request{VoterID: "voter-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPScorer_InvalidAssessment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Assessment{
			RiskLevel:  "extreme",
			Confidence: 50,
		})
	}))
	defer srv.Close()

	scorer, err := NewHTTPScorer(HTTPScorerParams{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), &Request{VoterID: "voter-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid assessment")
}

func TestLevel_Alertable(t *testing.T) {
	assert.False(t, LevelLow.Alertable())
	assert.False(t, LevelMedium.Alertable())
	assert.True(t, LevelHigh.Alertable())
	assert.True(t, LevelCritical.Alertable())
}

func TestAssessment_Validate(t *testing.T) {
	valid := Assessment{RiskLevel: LevelLow, Confidence: 85, Recommendation: "allow"}
	assert.NoError(t, valid.Validate())

	badLevel := Assessment{RiskLevel: "extreme", Confidence: 85}
	assert.Error(t, badLevel.Validate())

	badConfidence := Assessment{RiskLevel: LevelLow, Confidence: 150}
	assert.Error(t, badConfidence.Validate())
}

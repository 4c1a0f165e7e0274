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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Scorer produces a risk assessment for a successful authentication event.
type Scorer interface {
	// Score assesses the given request. Implementations must honor the
	// context deadline and return an error rather than block.
	Score(ctx context.Context, req *Request) (*Assessment, error)
}

// HTTPScorer scores events by posting them to an external assessment service.
// The service contract is a single JSON POST returning an Assessment; the
// backing model (Gemini, OpenAI or otherwise) is the service's concern.
type HTTPScorer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// HTTPScorerParams configures an HTTPScorer.
type HTTPScorerParams struct {
	// Endpoint is the URL assessments are requested from (required).
	Endpoint string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds each scoring request. Default: 10 seconds.
	Timeout time.Duration
}

// NewHTTPScorer creates an HTTPScorer.
func NewHTTPScorer(params HTTPScorerParams) (*HTTPScorer, error) {
	if params.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPScorer{
		endpoint: params.Endpoint,
		apiKey:   params.APIKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Score posts the request to the assessment service and decodes the result.
func (s *HTTPScorer) Score(ctx context.Context, req *Request) (*Assessment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scoring request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scoring request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var assessment Assessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	if err := assessment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assessment: %w", err)
	}
	return &assessment, nil
}

// HeuristicScorer is a deterministic local scorer used when no external
// service is configured or the configured service is unreachable.
type HeuristicScorer struct{}

// NewHeuristicScorer creates a HeuristicScorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// rapidRepeatWindow is the gap below which back-to-back authentications are
// treated as suspicious.
const rapidRepeatWindow = time.Minute

// Score assesses the request from its authentication history alone. It never
// returns an error.
func (s *HeuristicScorer) Score(_ context.Context, req *Request) (*Assessment, error) {
	assessment := &Assessment{
		RiskLevel:      LevelLow,
		Confidence:     85,
		Recommendation: "allow",
		AIAnalysis:     "Heuristic assessment based on authentication history.",
	}

	if len(req.History) == 0 {
		assessment.RiskFactors = append(assessment.RiskFactors, "first authentication for this voter")
		assessment.Confidence = 75
		return assessment, nil
	}

	if req.Timestamp.Sub(req.History[0].Timestamp) < rapidRepeatWindow {
		assessment.RiskFactors = append(assessment.RiskFactors, "rapid repeat authentication")
		assessment.RiskLevel = LevelMedium
		assessment.Confidence = 80
	}

	return assessment, nil
}

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

package ceremony

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// Service drives WebAuthn registration and authentication ceremonies.
type Service struct {
	webauthn   *webauthn.WebAuthn
	config     *Config
	voters     VoterStore
	creds      CredentialStore
	challenges ChallengeStore
	sink       RiskSink
	logger     *slog.Logger
}

// ServiceParams contains dependencies for creating a ceremony service.
type ServiceParams struct {
	// Config is the ceremony configuration (required).
	Config *Config

	// VoterStore is the voter persistence layer (required).
	VoterStore VoterStore

	// CredentialStore is the authenticator persistence layer (required).
	CredentialStore CredentialStore

	// ChallengeStore is the challenge ledger (required).
	ChallengeStore ChallengeStore

	// RiskSink receives every ceremony outcome. Optional; when nil, outcomes
	// are not annotated.
	RiskSink RiskSink

	// Logger is an optional structured logger.
	Logger *slog.Logger
}

// RegistrationResult is the outcome of a successful registration ceremony.
type RegistrationResult struct {
	// Authenticator is the newly stored credential.
	Authenticator *Authenticator

	// Assessment is the risk annotation, nil when no sink is configured.
	Assessment *risk.Assessment
}

// AuthenticationResult is the outcome of a successful authentication ceremony.
type AuthenticationResult struct {
	// Voter is the authenticated voter.
	Voter *Voter

	// Authenticator is the credential that produced the assertion, with its
	// counter already advanced.
	Authenticator *Authenticator

	// Assessment is the risk annotation, nil when no sink is configured.
	Assessment *risk.Assessment
}

// NewService creates a new ceremony service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.VoterStore == nil {
		return nil, fmt.Errorf("voter store is required")
	}
	if params.CredentialStore == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if params.ChallengeStore == nil {
		return nil, fmt.Errorf("challenge store is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wa, err := webauthn.New(params.Config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		webauthn:   wa,
		config:     params.Config,
		voters:     params.VoterStore,
		creds:      params.CredentialStore,
		challenges: params.ChallengeStore,
		sink:       params.RiskSink,
		logger:     logger,
	}, nil
}

// credentialParameters restricts registrations to ES256 and RS256, the two
// algorithms platform authenticators universally support.
func credentialParameters() []protocol.CredentialParameter {
	return []protocol.CredentialParameter{
		{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
		{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
	}
}

// BeginRegistration starts the registration ceremony for a voter. The
// returned options carry a fresh challenge recorded in the ledger; already
// registered credentials are excluded so the authenticator refuses to
// re-enroll them.
func (s *Service) BeginRegistration(ctx context.Context, voterID string) (*protocol.CredentialCreation, error) {
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get voter", err)
	}

	existing, err := s.creds.GetByVoterID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get credentials", err)
	}
	voter.SetAuthenticators(existing)

	excludeList := make([]protocol.CredentialDescriptor, len(existing))
	for i, auth := range existing {
		excludeList[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: auth.CredentialID,
			Transport:    auth.Transports,
		}
	}

	options, session, err := s.webauthn.BeginRegistration(voter,
		webauthn.WithExclusions(excludeList),
		webauthn.WithCredentialParameters(credentialParameters()),
	)
	if err != nil {
		return nil, WrapError("begin registration", err)
	}

	if err := s.saveChallenge(ctx, voterID, TypeRegistration, session); err != nil {
		return nil, err
	}

	return options, nil
}

// CompleteRegistration finishes the registration ceremony. The challenge is
// consumed before verification, so a failed attempt burns it and the client
// must begin again.
func (s *Service) CompleteRegistration(ctx context.Context, voterID string, response *protocol.ParsedCredentialCreationData, meta Meta) (*RegistrationResult, error) {
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get voter", err)
	}

	challenge, err := s.challenges.Consume(ctx, voterID, TypeRegistration)
	if err != nil {
		s.recordFailure(ctx, voterID, risk.MethodRegistration, err, meta, nil, 0)
		return nil, WrapError("consume challenge", err)
	}

	credential, err := s.webauthn.CreateCredential(voter, challenge.SessionData, response)
	if err != nil {
		mapped := mapVerificationError(err)
		s.logger.Warn("registration verification failed",
			"voter_id", voterID, "error", err)
		s.recordFailure(ctx, voterID, risk.MethodRegistration, mapped, meta, nil, 0)
		return nil, WrapError("create credential", mapped)
	}

	auth := FromWebAuthnCredential(voter.ID, credential)
	if len(auth.Transports) == 0 {
		// Browsers on some platforms omit transports; assume the built-in
		// sensor since attachment is platform.
		auth.Transports = []protocol.AuthenticatorTransport{protocol.Internal}
	}

	if err := s.creds.Add(ctx, auth); err != nil {
		s.recordFailure(ctx, voterID, risk.MethodRegistration, err, meta, auth.CredentialID, auth.Counter)
		return nil, WrapError("add credential", err)
	}

	s.logger.Info("credential registered",
		"voter_id", voterID, "authenticator_id", auth.ID)

	assessment := s.recordSuccess(ctx, voterID, risk.MethodRegistration, meta, auth.CredentialID, auth.Counter)

	return &RegistrationResult{
		Authenticator: auth,
		Assessment:    assessment,
	}, nil
}

// BeginAuthentication starts the authentication ceremony for a voter.
// Returns ErrNoCredentials when the voter has nothing registered.
func (s *Service) BeginAuthentication(ctx context.Context, voterID string) (*protocol.CredentialAssertion, error) {
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get voter", err)
	}

	existing, err := s.creds.GetByVoterID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get credentials", err)
	}
	if len(existing) == 0 {
		return nil, NewError("begin authentication", ErrNoCredentials)
	}
	voter.SetAuthenticators(existing)

	options, session, err := s.webauthn.BeginLogin(voter)
	if err != nil {
		return nil, WrapError("begin login", err)
	}

	if err := s.saveChallenge(ctx, voterID, TypeAuthentication, session); err != nil {
		return nil, err
	}

	return options, nil
}

// CompleteAuthentication finishes the authentication ceremony: consume the
// challenge, verify the assertion, enforce the signature counter rule and
// persist the advanced counter.
func (s *Service) CompleteAuthentication(ctx context.Context, voterID string, response *protocol.ParsedCredentialAssertionData, meta Meta) (*AuthenticationResult, error) {
	voter, err := s.voters.GetByID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get voter", err)
	}

	existing, err := s.creds.GetByVoterID(ctx, voterID)
	if err != nil {
		return nil, WrapError("get credentials", err)
	}
	voter.SetAuthenticators(existing)

	challenge, err := s.challenges.Consume(ctx, voterID, TypeAuthentication)
	if err != nil {
		s.recordFailure(ctx, voterID, risk.MethodAuthentication, err, meta, response.RawID, 0)
		return nil, WrapError("consume challenge", err)
	}

	var auth *Authenticator
	for _, candidate := range existing {
		if bytes.Equal(candidate.CredentialID, response.RawID) {
			auth = candidate
			break
		}
	}
	if auth == nil {
		s.recordFailure(ctx, voterID, risk.MethodAuthentication, ErrUnknownCredential, meta, response.RawID, 0)
		return nil, NewError("resolve credential", ErrUnknownCredential)
	}

	credential, err := s.webauthn.ValidateLogin(voter, challenge.SessionData, response)
	if err != nil {
		mapped := mapVerificationError(err)
		s.logger.Warn("authentication verification failed",
			"voter_id", voterID, "error", err)
		s.recordFailure(ctx, voterID, risk.MethodAuthentication, mapped, meta, auth.CredentialID, 0)
		return nil, WrapError("validate login", mapped)
	}

	// The library flags a counter that failed to advance past the stored
	// value (unless both are zero). The stored counter must not move.
	if credential.Authenticator.CloneWarning {
		s.logger.Warn("signature counter reuse detected",
			"voter_id", voterID, "authenticator_id", auth.ID,
			"stored_counter", auth.Counter,
			"reported_counter", credential.Authenticator.SignCount)
		s.recordFailure(ctx, voterID, risk.MethodAuthentication, ErrCounterReuse, meta, auth.CredentialID, credential.Authenticator.SignCount)
		return nil, NewError("verify counter", ErrCounterReuse)
	}

	if err := s.creds.UpdateCounter(ctx, auth.ID, credential.Authenticator.SignCount); err != nil {
		return nil, WrapError("update counter", err)
	}
	auth.Counter = credential.Authenticator.SignCount
	auth.LastUsedAt = time.Now().UTC()

	s.logger.Info("voter authenticated",
		"voter_id", voterID, "authenticator_id", auth.ID, "counter", auth.Counter)

	assessment := s.recordSuccess(ctx, voterID, risk.MethodAuthentication, meta, auth.CredentialID, auth.Counter)

	return &AuthenticationResult{
		Voter:         voter,
		Authenticator: auth,
		Assessment:    assessment,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// saveChallenge records a freshly issued challenge in the ledger.
func (s *Service) saveChallenge(ctx context.Context, voterID string, typ Type, session *webauthn.SessionData) error {
	now := time.Now().UTC()
	challenge := &Challenge{
		ID:          uuid.NewString(),
		VoterID:     voterID,
		Type:        typ,
		SessionData: *session,
		ExpiresAt:   now.Add(s.config.ChallengeTTL),
		CreatedAt:   now,
	}
	if err := s.challenges.Save(ctx, challenge); err != nil {
		return WrapError("save challenge", err)
	}
	return nil
}

// recordSuccess forwards a successful outcome to the risk sink.
func (s *Service) recordSuccess(ctx context.Context, voterID, method string, meta Meta, credentialID []byte, counter uint32) *risk.Assessment {
	if s.sink == nil {
		return nil
	}
	return s.sink.Record(ctx, &risk.Event{
		VoterID:      voterID,
		Method:       method,
		Success:      true,
		CredentialID: credentialID,
		Counter:      counter,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
	})
}

// recordFailure forwards a failed outcome to the risk sink.
func (s *Service) recordFailure(ctx context.Context, voterID, method string, cause error, meta Meta, credentialID []byte, counter uint32) {
	if s.sink == nil {
		return
	}
	s.sink.Record(ctx, &risk.Event{
		VoterID:       voterID,
		Method:        method,
		Success:       false,
		FailureReason: cause.Error(),
		CredentialID:  credentialID,
		Counter:       counter,
		UserAgent:     meta.UserAgent,
		IPAddress:     meta.IPAddress,
	})
}

// mapVerificationError translates go-webauthn verification failures into the
// package's sentinel errors.
func mapVerificationError(err error) error {
	var pErr *protocol.Error
	if errors.As(err, &pErr) {
		detail := strings.ToLower(pErr.Details + " " + pErr.DevInfo)
		if strings.Contains(detail, "origin") {
			return ErrOriginMismatch
		}
	}
	return ErrSignatureInvalid
}

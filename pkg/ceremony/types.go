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
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// Type identifies which ceremony a challenge belongs to. A registration
// challenge can never complete an authentication and vice versa.
type Type string

const (
	// TypeRegistration is the attestation (credential creation) ceremony.
	TypeRegistration Type = "registration"

	// TypeAuthentication is the assertion (login) ceremony.
	TypeAuthentication Type = "authentication"
)

// Voter is a registered voter identity. It implements webauthn.User so the
// underlying library can build options and verify responses against the
// voter's authenticators.
type Voter struct {
	// ID is the voter's unique identifier, used as the WebAuthn user handle.
	ID string `json:"id"`

	// Name is the voter's display name.
	Name string `json:"name"`

	// Email is the voter's email address, if provided.
	Email string `json:"email,omitempty"`

	// FingerprintID is the unique device-enrollment identifier assigned at
	// registration time.
	FingerprintID string `json:"fingerprint_id"`

	// HasVoted indicates whether the voter has cast a ballot.
	HasVoted bool `json:"has_voted"`

	// CreatedAt is when the voter registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the voter record last changed.
	UpdatedAt time.Time `json:"updated_at"`

	// authenticators are loaded for the duration of a ceremony.
	authenticators []*Authenticator
}

// SetAuthenticators attaches the voter's registered authenticators for use
// during a ceremony.
func (v *Voter) SetAuthenticators(auths []*Authenticator) {
	v.authenticators = auths
}

// Authenticators returns the authenticators attached to the voter.
func (v *Voter) Authenticators() []*Authenticator {
	return v.authenticators
}

// WebAuthnID returns the voter's WebAuthn user handle.
func (v *Voter) WebAuthnID() []byte {
	return []byte(v.ID)
}

// WebAuthnName returns the voter's username.
func (v *Voter) WebAuthnName() string {
	if v.Email != "" {
		return v.Email
	}
	return v.Name
}

// WebAuthnDisplayName returns the voter's display name.
func (v *Voter) WebAuthnDisplayName() string {
	return v.Name
}

// WebAuthnCredentials returns the voter's registered credentials.
func (v *Voter) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(v.authenticators))
	for i, a := range v.authenticators {
		creds[i] = a.ToWebAuthn()
	}
	return creds
}

// Admin is an election administrator account authenticated by password.
type Admin struct {
	// ID is the admin's unique identifier.
	ID string `json:"id"`

	// Username is the unique login name.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the admin's password.
	PasswordHash string `json:"-"`

	// Name is the admin's display name.
	Name string `json:"name"`

	// Email is the admin's email address.
	Email string `json:"email,omitempty"`

	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// Authenticator is a WebAuthn credential registered to a voter.
type Authenticator struct {
	// ID is the record identifier.
	ID string `json:"id"`

	// VoterID is the owning voter.
	VoterID string `json:"voter_id"`

	// CredentialID is the credential identifier assigned by the authenticator.
	CredentialID []byte `json:"credential_id"`

	// PublicKey is the credential's public key in COSE format.
	PublicKey []byte `json:"public_key"`

	// AttestationType indicates the type of attestation used.
	AttestationType string `json:"attestation_type"`

	// Transports lists the transports supported by the authenticator.
	Transports []protocol.AuthenticatorTransport `json:"transports,omitempty"`

	// Flags contains authenticator capability flags.
	Flags CredentialFlags `json:"flags"`

	// AAGUID is the authenticator model's unique identifier.
	AAGUID []byte `json:"aaguid"`

	// Counter is the last verified signature counter. It only ever advances;
	// an assertion that fails the counter rule leaves it unchanged.
	Counter uint32 `json:"counter"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential last completed an authentication.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// CredentialFlags contains authenticator capability flags.
type CredentialFlags struct {
	// UserPresent indicates the user was present during the operation.
	UserPresent bool `json:"user_present"`

	// UserVerified indicates the user was verified (biometric or PIN).
	UserVerified bool `json:"user_verified"`

	// BackupEligible indicates the credential can be backed up.
	BackupEligible bool `json:"backup_eligible"`

	// BackupState indicates the credential is currently backed up.
	BackupState bool `json:"backup_state"`
}

// ToWebAuthn converts the Authenticator to the go-webauthn library's
// Credential type.
func (a *Authenticator) ToWebAuthn() webauthn.Credential {
	return webauthn.Credential{
		ID:              a.CredentialID,
		PublicKey:       a.PublicKey,
		AttestationType: a.AttestationType,
		Transport:       a.Transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    a.Flags.UserPresent,
			UserVerified:   a.Flags.UserVerified,
			BackupEligible: a.Flags.BackupEligible,
			BackupState:    a.Flags.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    a.AAGUID,
			SignCount: a.Counter,
		},
	}
}

// FromWebAuthnCredential creates an Authenticator from a freshly verified
// go-webauthn Credential.
func FromWebAuthnCredential(voterID string, wc *webauthn.Credential) *Authenticator {
	return &Authenticator{
		ID:              uuid.NewString(),
		VoterID:         voterID,
		CredentialID:    wc.ID,
		PublicKey:       wc.PublicKey,
		AttestationType: wc.AttestationType,
		Transports:      wc.Transport,
		Flags: CredentialFlags{
			UserPresent:    wc.Flags.UserPresent,
			UserVerified:   wc.Flags.UserVerified,
			BackupEligible: wc.Flags.BackupEligible,
			BackupState:    wc.Flags.BackupState,
		},
		AAGUID:    wc.Authenticator.AAGUID,
		Counter:   wc.Authenticator.SignCount,
		CreatedAt: time.Now().UTC(),
	}
}

// Challenge is a single-use entry in the challenge ledger. The ledger keeps
// the full WebAuthn session data so verification can reconstruct exactly what
// was issued at begin time.
type Challenge struct {
	// ID is the ledger entry identifier.
	ID string `json:"id"`

	// VoterID is the voter the challenge was issued to.
	VoterID string `json:"voter_id"`

	// Type is the ceremony the challenge belongs to.
	Type Type `json:"type"`

	// SessionData is the WebAuthn session captured at options build time,
	// including the challenge value and allowed credential IDs.
	SessionData webauthn.SessionData `json:"session_data"`

	// ExpiresAt is when the challenge stops being consumable.
	ExpiresAt time.Time `json:"expires_at"`

	// CreatedAt is when the challenge was issued.
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Meta carries request attribution captured at the HTTP boundary for audit
// logging and risk scoring.
type Meta struct {
	// UserAgent is the client's User-Agent header.
	UserAgent string `json:"user_agent,omitempty"`

	// IPAddress is the client's remote address.
	IPAddress string `json:"ip_address,omitempty"`
}

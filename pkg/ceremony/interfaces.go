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
	"context"

	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// VoterStore persists voter identities.
type VoterStore interface {
	// GetByID retrieves a voter by ID.
	// Returns ErrVoterNotFound if the voter doesn't exist.
	GetByID(ctx context.Context, id string) (*Voter, error)

	// GetByFingerprint retrieves a voter by fingerprint identifier.
	// Returns ErrVoterNotFound if no voter matches.
	GetByFingerprint(ctx context.Context, fingerprintID string) (*Voter, error)

	// Create stores a new voter.
	// Returns ErrDuplicateVoter if the fingerprint identifier is taken.
	Create(ctx context.Context, voter *Voter) error

	// SetHasVoted updates the voter's has-voted flag.
	// Returns ErrVoterNotFound if the voter doesn't exist.
	SetHasVoted(ctx context.Context, id string, hasVoted bool) error

	// List returns all voters.
	List(ctx context.Context) ([]*Voter, error)
}

// AdminStore persists administrator accounts.
type AdminStore interface {
	// GetByUsername retrieves an admin by username.
	// Returns ErrAdminNotFound if no admin matches.
	GetByUsername(ctx context.Context, username string) (*Admin, error)

	// Create stores a new admin.
	// Returns ErrDuplicateAdmin if the username is taken.
	Create(ctx context.Context, admin *Admin) error
}

// CredentialStore persists registered authenticators.
type CredentialStore interface {
	// GetByVoterID retrieves all authenticators registered to a voter.
	GetByVoterID(ctx context.Context, voterID string) ([]*Authenticator, error)

	// Add stores a new authenticator.
	// Returns ErrDuplicateCredential if the credential ID is already stored.
	Add(ctx context.Context, auth *Authenticator) error

	// UpdateCounter records a verified signature counter and last-use time.
	// Returns ErrAuthenticatorNotFound if the authenticator doesn't exist.
	UpdateCounter(ctx context.Context, id string, counter uint32) error
}

// ChallengeStore is the challenge ledger. Challenges are strictly single-use:
// Consume atomically claims and deletes an entry so no two verifications can
// share one, even under concurrent access.
type ChallengeStore interface {
	// Save records an issued challenge.
	Save(ctx context.Context, challenge *Challenge) error

	// Consume atomically removes and returns the most recently issued
	// unexpired challenge for the voter and ceremony type.
	// Returns ErrNoValidChallenge when none exists, whether absent, expired
	// or already consumed.
	Consume(ctx context.Context, voterID string, typ Type) (*Challenge, error)
}

// RiskSink receives every ceremony outcome for audit logging and risk
// annotation. Implementations must not block the ceremony: the returned
// assessment is advisory and may be nil.
type RiskSink interface {
	Record(ctx context.Context, event *risk.Event) *risk.Assessment
}

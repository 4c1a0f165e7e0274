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
	"errors"
	"fmt"
)

// Sentinel errors for ceremony operations.
var (
	// ErrVoterNotFound is returned when a voter cannot be found.
	ErrVoterNotFound = errors.New("voter not found")

	// ErrDuplicateVoter is returned when a voter with the same fingerprint
	// identifier is already registered.
	ErrDuplicateVoter = errors.New("voter already registered")

	// ErrAdminNotFound is returned when an admin account cannot be found.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrDuplicateAdmin is returned when an admin username is already taken.
	ErrDuplicateAdmin = errors.New("admin already exists")

	// ErrAuthenticatorNotFound is returned when an authenticator cannot be found.
	ErrAuthenticatorNotFound = errors.New("authenticator not found")

	// ErrDuplicateCredential is returned when attempting to register a
	// credential ID that is already stored.
	ErrDuplicateCredential = errors.New("credential already registered")

	// ErrNoCredentials is returned when a voter has no registered authenticators.
	ErrNoCredentials = errors.New("voter has no registered credentials")

	// ErrUnknownCredential is returned when an assertion references a
	// credential ID that is not registered to the voter.
	ErrUnknownCredential = errors.New("credential not registered to voter")

	// ErrNoValidChallenge is returned when no unexpired challenge of the
	// requested type exists for the voter. Absent and expired challenges are
	// deliberately indistinguishable.
	ErrNoValidChallenge = errors.New("no valid challenge")

	// ErrSignatureInvalid is returned when the authenticator response fails
	// cryptographic verification.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrOriginMismatch is returned when the client data origin does not match
	// the configured relying party origins.
	ErrOriginMismatch = errors.New("origin mismatch")

	// ErrCounterReuse is returned when an assertion reports a signature counter
	// that did not advance past the stored value, indicating a possible cloned
	// authenticator.
	ErrCounterReuse = errors.New("signature counter reuse detected")
)

// CeremonyError wraps an error with the operation that produced it.
type CeremonyError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CeremonyError with the given operation and error.
func NewError(op string, err error) error {
	return &CeremonyError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsVoterNotFound returns true if the error indicates a voter was not found.
func IsVoterNotFound(err error) bool {
	return errors.Is(err, ErrVoterNotFound)
}

// IsNoValidChallenge returns true if the error indicates the challenge was
// missing, expired or already consumed.
func IsNoValidChallenge(err error) bool {
	return errors.Is(err, ErrNoValidChallenge)
}

// IsDuplicateCredential returns true if the error indicates a duplicate
// credential registration.
func IsDuplicateCredential(err error) bool {
	return errors.Is(err, ErrDuplicateCredential)
}

// IsCounterReuse returns true if the error indicates signature counter reuse.
func IsCounterReuse(err error) bool {
	return errors.Is(err, ErrCounterReuse)
}

// IsVerificationFailed returns true if the error indicates the authenticator
// response failed verification for any reason.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrOriginMismatch)
}

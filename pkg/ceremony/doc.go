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

// Package ceremony implements the WebAuthn registration and authentication
// ceremonies for the voting platform.
//
// A ceremony is a two-step challenge/response protocol. The begin step builds
// credential options containing a fresh cryptographic challenge and records
// the challenge in a ledger with a fixed expiry window. The complete step
// atomically consumes the challenge, verifies the signed authenticator
// response against the expected challenge, origin and relying-party
// identifier, and updates the credential store. Authentication additionally
// enforces a strictly-increasing signature counter to detect cloned
// authenticators.
//
// The package brings its own persistence contracts (VoterStore,
// CredentialStore, ChallengeStore) so applications can back ceremonies with
// any transactional store. Every ceremony outcome, success or failure, is
// forwarded to a RiskSink for audit logging before the result is returned to
// the caller.
package ceremony

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

// Package ballot implements the vote ledger: elections, candidates and the
// single-vote-per-voter invariant.
//
// Casting a vote checks its preconditions in a fixed order (election active,
// candidate belongs to the election, voter has not voted) and then records
// the vote and flips the voter's has-voted flag in one atomic store
// operation. The store additionally enforces uniqueness of
// (voter, election), so concurrent duplicate attempts that pass the
// precondition checks still resolve to exactly one recorded vote.
package ballot

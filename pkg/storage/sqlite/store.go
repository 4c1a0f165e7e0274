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

// Package sqlite persists the ceremony, ballot and audit stores in a single
// SQLite database using the pure-Go modernc.org/sqlite driver.
//
// The single-vote invariant is anchored here: the vote table carries
// UNIQUE(voter_id, election_id), so duplicate ballots are rejected by the
// database even when concurrent requests pass the service-level checks.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// schema is the idempotent DDL applied by CreateSchema. Timestamps are stored
// as unix nanoseconds, booleans as 0/1, structured fields as JSON text.
const schema = `
CREATE TABLE IF NOT EXISTS voter (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	fingerprint_id TEXT NOT NULL UNIQUE,
	has_voted      INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS admin (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS authenticator (
	id               TEXT PRIMARY KEY,
	voter_id         TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
	credential_id    BLOB NOT NULL UNIQUE,
	public_key       BLOB NOT NULL,
	attestation_type TEXT NOT NULL DEFAULT '',
	transports       TEXT NOT NULL DEFAULT '[]',
	flags            TEXT NOT NULL DEFAULT '{}',
	aaguid           BLOB,
	counter          INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	last_used_at     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_authenticator_voter ON authenticator(voter_id);

CREATE TABLE IF NOT EXISTS webauthn_challenge (
	id           TEXT PRIMARY KEY,
	voter_id     TEXT NOT NULL,
	type         TEXT NOT NULL,
	session_data TEXT NOT NULL,
	expires_at   INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_challenge_lookup ON webauthn_challenge(voter_id, type, expires_at);

CREATE TABLE IF NOT EXISTS election (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_date  INTEGER NOT NULL,
	end_date    INTEGER NOT NULL,
	is_active   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS candidate (
	id          TEXT PRIMARY KEY,
	election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	party       TEXT NOT NULL DEFAULT '',
	position    TEXT NOT NULL DEFAULT '',
	bio         TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_candidate_election ON candidate(election_id);

CREATE TABLE IF NOT EXISTS vote (
	id           TEXT PRIMARY KEY,
	voter_id     TEXT NOT NULL REFERENCES voter(id),
	candidate_id TEXT NOT NULL REFERENCES candidate(id),
	election_id  TEXT NOT NULL REFERENCES election(id),
	created_at   INTEGER NOT NULL,
	UNIQUE (voter_id, election_id)
);

CREATE TABLE IF NOT EXISTS verification_log (
	id             TEXT PRIMARY KEY,
	voter_id       TEXT NOT NULL,
	method         TEXT NOT NULL,
	success        INTEGER NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	ip_address     TEXT NOT NULL DEFAULT '',
	user_agent     TEXT NOT NULL DEFAULT '',
	assessment     TEXT,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verification_log_voter ON verification_log(voter_id, method, created_at);

CREATE TABLE IF NOT EXISTS security_alert (
	id           TEXT PRIMARY KEY,
	voter_id     TEXT NOT NULL,
	type         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	confidence   INTEGER NOT NULL DEFAULT 0,
	risk_factors TEXT NOT NULL DEFAULT '[]',
	ai_analysis  TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL
);
`

// Store implements the ceremony, ballot and audit store contracts against a
// SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if necessary) the SQLite database at the given DSN.
// The connection pool is capped at a single connection: SQLite serializes
// writers anyway, and a single connection makes every multi-statement
// operation see a consistent database.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

// CreateSchema applies the schema. Safe to call on every startup.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// isUniqueViolation reports whether the error is a SQLite UNIQUE constraint
// failure. The driver exposes no typed error for it, so match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// encodeTime stores a timestamp as unix nanoseconds, zero time as 0.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// decodeTime is the inverse of encodeTime.
func decodeTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

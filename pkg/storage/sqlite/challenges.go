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

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// Save records an issued challenge.
func (s *Store) Save(ctx context.Context, challenge *ceremony.Challenge) error {
	session, err := json.Marshal(challenge.SessionData)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO webauthn_challenge (id, voter_id, type, session_data, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		challenge.ID, challenge.VoterID, string(challenge.Type), string(session),
		encodeTime(challenge.ExpiresAt), encodeTime(challenge.CreatedAt))
	return err
}

// Consume atomically removes and returns the most recently issued unexpired
// challenge for the voter and ceremony type. Expired rows for the pair are
// purged in the same transaction.
func (s *Store) Consume(ctx context.Context, voterID string, typ ceremony.Type) (*ceremony.Challenge, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := encodeTime(time.Now().UTC())

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM webauthn_challenge WHERE voter_id = ? AND type = ? AND expires_at <= ?`,
		voterID, string(typ), now); err != nil {
		return nil, err
	}

	var (
		challenge            ceremony.Challenge
		sessionData          string
		expiresAt, createdAt int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, voter_id, type, session_data, expires_at, created_at
		 FROM webauthn_challenge
		 WHERE voter_id = ? AND type = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		voterID, string(typ), now).
		Scan(&challenge.ID, &challenge.VoterID, (*string)(&challenge.Type),
			&sessionData, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ceremony.ErrNoValidChallenge
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM webauthn_challenge WHERE id = ?`, challenge.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sessionData), &challenge.SessionData); err != nil {
		return nil, fmt.Errorf("decode session data: %w", err)
	}
	challenge.ExpiresAt = decodeTime(expiresAt)
	challenge.CreatedAt = decodeTime(createdAt)
	return &challenge, nil
}

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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// GetByVoterID retrieves all authenticators registered to a voter.
func (s *Store) GetByVoterID(ctx context.Context, voterID string) ([]*ceremony.Authenticator, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, voter_id, credential_id, public_key, attestation_type,
		        transports, flags, aaguid, counter, created_at, last_used_at
		 FROM authenticator WHERE voter_id = ? ORDER BY created_at`, voterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auths []*ceremony.Authenticator
	for rows.Next() {
		var (
			auth                  ceremony.Authenticator
			transports, flags     string
			createdAt, lastUsedAt int64
		)
		if err := rows.Scan(&auth.ID, &auth.VoterID, &auth.CredentialID, &auth.PublicKey,
			&auth.AttestationType, &transports, &flags, &auth.AAGUID,
			&auth.Counter, &createdAt, &lastUsedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(transports), &auth.Transports); err != nil {
			return nil, fmt.Errorf("decode transports: %w", err)
		}
		if err := json.Unmarshal([]byte(flags), &auth.Flags); err != nil {
			return nil, fmt.Errorf("decode flags: %w", err)
		}
		auth.CreatedAt = decodeTime(createdAt)
		auth.LastUsedAt = decodeTime(lastUsedAt)
		auths = append(auths, &auth)
	}
	return auths, rows.Err()
}

// Add stores a new authenticator.
func (s *Store) Add(ctx context.Context, auth *ceremony.Authenticator) error {
	transports, err := json.Marshal(auth.Transports)
	if err != nil {
		return fmt.Errorf("encode transports: %w", err)
	}
	flags, err := json.Marshal(auth.Flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO authenticator (id, voter_id, credential_id, public_key,
		   attestation_type, transports, flags, aaguid, counter, created_at, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auth.ID, auth.VoterID, auth.CredentialID, auth.PublicKey,
		auth.AttestationType, string(transports), string(flags), auth.AAGUID,
		auth.Counter, encodeTime(auth.CreatedAt), encodeTime(auth.LastUsedAt))
	if isUniqueViolation(err) {
		return ceremony.ErrDuplicateCredential
	}
	return err
}

// UpdateCounter records a verified signature counter and last-use time.
func (s *Store) UpdateCounter(ctx context.Context, id string, counter uint32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE authenticator SET counter = ?, last_used_at = ? WHERE id = ?`,
		counter, encodeTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ceremony.ErrAuthenticatorNotFound
	}
	return nil
}

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
	"errors"
	"time"

	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
)

// GetByID retrieves a voter by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*ceremony.Voter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, fingerprint_id, has_voted, created_at, updated_at
		 FROM voter WHERE id = ?`, id)
	return scanVoter(row)
}

// GetByFingerprint retrieves a voter by fingerprint identifier.
func (s *Store) GetByFingerprint(ctx context.Context, fingerprintID string) (*ceremony.Voter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, fingerprint_id, has_voted, created_at, updated_at
		 FROM voter WHERE fingerprint_id = ?`, fingerprintID)
	return scanVoter(row)
}

// Create stores a new voter.
func (s *Store) Create(ctx context.Context, voter *ceremony.Voter) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voter (id, name, email, fingerprint_id, has_voted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		voter.ID, voter.Name, voter.Email, voter.FingerprintID,
		boolToInt(voter.HasVoted), encodeTime(voter.CreatedAt), encodeTime(voter.UpdatedAt))
	if isUniqueViolation(err) {
		return ceremony.ErrDuplicateVoter
	}
	return err
}

// SetHasVoted updates the voter's has-voted flag.
func (s *Store) SetHasVoted(ctx context.Context, id string, hasVoted bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE voter SET has_voted = ?, updated_at = ? WHERE id = ?`,
		boolToInt(hasVoted), encodeTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ceremony.ErrVoterNotFound
	}
	return nil
}

// List returns all voters in registration order.
func (s *Store) List(ctx context.Context) ([]*ceremony.Voter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, fingerprint_id, has_voted, created_at, updated_at
		 FROM voter ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voters []*ceremony.Voter
	for rows.Next() {
		voter, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		voters = append(voters, voter)
	}
	return voters, rows.Err()
}

// GetByUsername retrieves an admin by username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*ceremony.Admin, error) {
	var (
		admin     ceremony.Admin
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, created_at
		 FROM admin WHERE username = ?`, username).
		Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Name, &admin.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ceremony.ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	admin.CreatedAt = decodeTime(createdAt)
	return &admin, nil
}

// CreateAdmin stores a new admin account.
func (s *Store) CreateAdmin(ctx context.Context, admin *ceremony.Admin) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin (id, username, password_hash, name, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		admin.ID, admin.Username, admin.PasswordHash, admin.Name, admin.Email,
		encodeTime(admin.CreatedAt))
	if isUniqueViolation(err) {
		return ceremony.ErrDuplicateAdmin
	}
	return err
}

// Admins returns an adapter satisfying ceremony.AdminStore. The adapter
// exists because the voter store already claims the Create method name.
func (s *Store) Admins() ceremony.AdminStore {
	return &adminView{s}
}

type adminView struct {
	s *Store
}

func (v *adminView) GetByUsername(ctx context.Context, username string) (*ceremony.Admin, error) {
	return v.s.GetByUsername(ctx, username)
}

func (v *adminView) Create(ctx context.Context, admin *ceremony.Admin) error {
	return v.s.CreateAdmin(ctx, admin)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVoter(row scanner) (*ceremony.Voter, error) {
	var (
		voter              ceremony.Voter
		hasVoted           int
		createdAt, updated int64
	)
	err := row.Scan(&voter.ID, &voter.Name, &voter.Email, &voter.FingerprintID,
		&hasVoted, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ceremony.ErrVoterNotFound
	}
	if err != nil {
		return nil, err
	}
	voter.HasVoted = hasVoted != 0
	voter.CreatedAt = decodeTime(createdAt)
	voter.UpdatedAt = decodeTime(updated)
	return &voter, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

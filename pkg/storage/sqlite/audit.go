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
	"fmt"

	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// AppendLog appends a verification log entry.
func (s *Store) AppendLog(ctx context.Context, entry *risk.VerificationLog) error {
	var assessment sql.NullString
	if entry.Assessment != nil {
		encoded, err := json.Marshal(entry.Assessment)
		if err != nil {
			return fmt.Errorf("encode assessment: %w", err)
		}
		assessment = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_log (id, voter_id, method, success, failure_reason,
		   ip_address, user_agent, assessment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.VoterID, entry.Method, boolToInt(entry.Success),
		entry.FailureReason, entry.IPAddress, entry.UserAgent, assessment,
		encodeTime(entry.CreatedAt))
	return err
}

// AppendAlert appends a security alert.
func (s *Store) AppendAlert(ctx context.Context, alert *risk.SecurityAlert) error {
	factors, err := json.Marshal(alert.RiskFactors)
	if err != nil {
		return fmt.Errorf("encode risk factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO security_alert (id, voter_id, type, severity, description,
		   confidence, risk_factors, ai_analysis, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.VoterID, alert.Type, string(alert.Severity), alert.Description,
		alert.Confidence, string(factors), alert.AIAnalysis, encodeTime(alert.CreatedAt))
	return err
}

// RecentLogs returns the voter's most recent entries for the method, newest
// first.
func (s *Store) RecentLogs(ctx context.Context, voterID, method string, successOnly bool, limit int) ([]*risk.VerificationLog, error) {
	query := `SELECT id, voter_id, method, success, failure_reason, ip_address,
	            user_agent, assessment, created_at
	          FROM verification_log
	          WHERE voter_id = ? AND method = ?`
	if successOnly {
		query += ` AND success = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, voterID, method, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*risk.VerificationLog
	for rows.Next() {
		var (
			entry      risk.VerificationLog
			success    int
			assessment sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(&entry.ID, &entry.VoterID, &entry.Method, &success,
			&entry.FailureReason, &entry.IPAddress, &entry.UserAgent,
			&assessment, &createdAt); err != nil {
			return nil, err
		}
		entry.Success = success != 0
		if assessment.Valid {
			entry.Assessment = &risk.Assessment{}
			if err := json.Unmarshal([]byte(assessment.String), entry.Assessment); err != nil {
				return nil, fmt.Errorf("decode assessment: %w", err)
			}
		}
		entry.CreatedAt = decodeTime(createdAt)
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}

// ListAlerts returns the most recent security alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]*risk.SecurityAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, voter_id, type, severity, description, confidence,
		   risk_factors, ai_analysis, created_at
		 FROM security_alert ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*risk.SecurityAlert
	for rows.Next() {
		var (
			alert     risk.SecurityAlert
			factors   string
			createdAt int64
		)
		if err := rows.Scan(&alert.ID, &alert.VoterID, &alert.Type,
			(*string)(&alert.Severity), &alert.Description, &alert.Confidence,
			&factors, &alert.AIAnalysis, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(factors), &alert.RiskFactors); err != nil {
			return nil, fmt.Errorf("decode risk factors: %w", err)
		}
		alert.CreatedAt = decodeTime(createdAt)
		alerts = append(alerts, &alert)
	}
	return alerts, rows.Err()
}

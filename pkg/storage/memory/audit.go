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

package memory

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// AuditStore is an in-memory implementation of risk.AuditStore. Entries are
// kept in append order.
type AuditStore struct {
	mu     sync.Mutex
	logs   []*risk.VerificationLog
	alerts []*risk.SecurityAlert
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// AppendLog appends a verification log entry.
func (s *AuditStore) AppendLog(_ context.Context, entry *risk.VerificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.logs = append(s.logs, &cp)
	return nil
}

// AppendAlert appends a security alert.
func (s *AuditStore) AppendAlert(_ context.Context, alert *risk.SecurityAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *alert
	s.alerts = append(s.alerts, &cp)
	return nil
}

// RecentLogs returns the voter's most recent entries for the method, newest
// first.
func (s *AuditStore) RecentLogs(_ context.Context, voterID, method string, successOnly bool, limit int) ([]*risk.VerificationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*risk.VerificationLog
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.logs[i]
		if entry.VoterID != voterID || entry.Method != method {
			continue
		}
		if successOnly && !entry.Success {
			continue
		}
		cp := *entry
		out = append(out, &cp)
	}
	return out, nil
}

// ListAlerts returns the most recent security alerts, newest first.
func (s *AuditStore) ListAlerts(_ context.Context, limit int) ([]*risk.SecurityAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*risk.SecurityAlert
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.alerts[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Logs returns every stored verification log entry in append order.
func (s *AuditStore) Logs() []*risk.VerificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*risk.VerificationLog, 0, len(s.logs))
	for _, entry := range s.logs {
		cp := *entry
		out = append(out, &cp)
	}
	return out
}

// Alerts returns every stored security alert in append order.
func (s *AuditStore) Alerts() []*risk.SecurityAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*risk.SecurityAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		cp := *alert
		out = append(out, &cp)
	}
	return out
}

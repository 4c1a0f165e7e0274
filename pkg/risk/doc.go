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

// Package risk annotates authentication events with risk assessments and
// records them for audit.
//
// The Recorder receives every ceremony outcome. Successful authentications
// are scored by a Scorer (an external HTTP service, or a deterministic local
// heuristic when none is configured or the service is unreachable), logged,
// and escalated to a security alert when the assessed level is high or
// critical. Scoring is advisory only: an assessment never blocks an
// authentication, and a scorer outage degrades to the heuristic rather than
// failing the ceremony.
package risk

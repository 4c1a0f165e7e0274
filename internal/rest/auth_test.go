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

package rest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_IssueAndVerify(t *testing.T) {
	mgr, err := NewSessionManager("test-secret", time.Hour, "ballotbox")
	require.NoError(t, err)

	token, err := mgr.Issue("voter-1", "Sam Rivera", RoleVoter)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "voter-1", session.Subject)
	assert.Equal(t, "Sam Rivera", session.Name)
	assert.Equal(t, RoleVoter, session.Role)
}

func TestSessionManager_RandomSecretWhenEmpty(t *testing.T) {
	a, err := NewSessionManager("", time.Hour, "ballotbox")
	require.NoError(t, err)
	b, err := NewSessionManager("", time.Hour, "ballotbox")
	require.NoError(t, err)

	token, err := a.Issue("voter-1", "Sam", RoleVoter)
	require.NoError(t, err)

	// A token issued by one manager must not verify against another.
	_, err = b.Verify(token)
	assert.Error(t, err)

	_, err = a.Verify(token)
	assert.NoError(t, err)
}

func TestSessionManager_ExpiredToken(t *testing.T) {
	mgr, err := NewSessionManager("test-secret", -time.Minute, "ballotbox")
	require.NoError(t, err)

	token, err := mgr.Issue("voter-1", "Sam", RoleVoter)
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	assert.Error(t, err)
}

func TestSessionManager_WrongIssuer(t *testing.T) {
	issuing, err := NewSessionManager("test-secret", time.Hour, "other-system")
	require.NoError(t, err)
	verifying, err := NewSessionManager("test-secret", time.Hour, "ballotbox")
	require.NoError(t, err)

	token, err := issuing.Issue("voter-1", "Sam", RoleVoter)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.Error(t, err)
}

func TestSessionManager_GarbageToken(t *testing.T) {
	mgr, err := NewSessionManager("test-secret", time.Hour, "ballotbox")
	require.NoError(t, err)

	_, err = mgr.Verify("not.a.token")
	assert.Error(t, err)

	_, err = mgr.Verify("")
	assert.Error(t, err)
}

func TestSessionManager_AdminRole(t *testing.T) {
	mgr, err := NewSessionManager("test-secret", time.Hour, "ballotbox")
	require.NoError(t, err)

	token, err := mgr.Issue("admin-1", "Administrator", RoleAdmin)
	require.NoError(t, err)

	session, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, session.Role)
}

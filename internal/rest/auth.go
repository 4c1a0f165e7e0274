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
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role distinguishes voter and administrator sessions.
type Role string

const (
	// RoleVoter is issued after a successful authentication ceremony.
	RoleVoter Role = "voter"

	// RoleAdmin is issued after an administrator password login.
	RoleAdmin Role = "admin"
)

// Session is the verified content of a session token.
type Session struct {
	// Subject is the voter or admin ID.
	Subject string

	// Name is the subject's display name.
	Name string

	// Role is the session role.
	Role Role
}

// SessionManager issues and verifies HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewSessionManager creates a session manager. An empty secret generates a
// random one, invalidating outstanding sessions on restart.
func NewSessionManager(secret string, ttl time.Duration, issuer string) (*SessionManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	if issuer == "" {
		issuer = "ballotbox"
	}
	return &SessionManager{
		secret: key,
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

// Issue creates a signed session token for the subject.
func (m *SessionManager) Issue(subject, name string, role Role) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"name": name,
		"role": string(role),
		"iss":  m.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token.
func (m *SessionManager) Verify(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	subject, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if subject == "" || role == "" {
		return nil, fmt.Errorf("token missing subject or role")
	}

	return &Session{
		Subject: subject,
		Name:    name,
		Role:    Role(role),
	}, nil
}

type contextKey struct{}

// sessionContextKey stores the verified session on the request context.
var sessionContextKey = contextKey{}

// SessionFromContext returns the verified session, if any.
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// requireRole is middleware enforcing a bearer token with the given role.
func (s *Server) requireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				s.writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
				return
			}

			session, err := s.sessions.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				s.writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid session token")
				return
			}
			if session.Role != role {
				s.writeError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

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

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Disabled(t *testing.T) {
	l := New(&Config{Enabled: false, RequestsPerMinute: 1})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("client-1"))
	}
}

func TestLimiter_NilConfigDisables(t *testing.T) {
	l := New(nil)
	defer l.Stop()

	assert.False(t, l.IsEnabled())
	assert.True(t, l.Allow("client-1"))
}

func TestLimiter_BurstExhaustion(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client-1"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("client-1"), "burst exhausted")
}

func TestLimiter_PerClientIsolation(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	require.True(t, l.Allow("client-1"))
	require.False(t, l.Allow("client-1"))

	// A different client has its own bucket.
	assert.True(t, l.Allow("client-2"))
	assert.Equal(t, 2, l.ActiveClients())
}

func TestLimiter_IdleCleanup(t *testing.T) {
	l := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		CleanupInterval:   time.Hour,
		MaxIdle:           time.Millisecond,
	})
	defer l.Stop()

	l.Allow("client-1")
	require.Equal(t, 1, l.ActiveClients())

	time.Sleep(5 * time.Millisecond)
	l.cleanup()
	assert.Equal(t, 0, l.ActiveClients())
}

func TestMiddleware_RejectsWhenExhausted(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "192.0.2.1:50000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate_limited","message":"too many requests"}`, rec.Body.String())
}

func TestMiddleware_SeparateClientIPs(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "192.0.2.1:50000"
	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "192.0.2.2:50000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// Port changes on the same IP share a bucket.
	firstAgain := httptest.NewRequest(http.MethodGet, "/", nil)
	firstAgain.RemoteAddr = "192.0.2.1:50001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, firstAgain)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}

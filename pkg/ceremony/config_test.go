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

package ceremony

import (
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid minimal config",
			config: Config{
				RPID:          "vote.example.com",
				RPDisplayName: "Example Votes",
				RPOrigins:     []string{"https://vote.example.com"},
			},
		},
		{
			name: "missing RPID",
			config: Config{
				RPDisplayName: "Example Votes",
				RPOrigins:     []string{"https://vote.example.com"},
			},
			wantErr: "RPID is required",
		},
		{
			name: "missing display name",
			config: Config{
				RPID:      "vote.example.com",
				RPOrigins: []string{"https://vote.example.com"},
			},
			wantErr: "RPDisplayName is required",
		},
		{
			name: "missing origins",
			config: Config{
				RPID:          "vote.example.com",
				RPDisplayName: "Example Votes",
			},
			wantErr: "at least one RPOrigin is required",
		},
		{
			name: "negative challenge TTL",
			config: Config{
				RPID:          "vote.example.com",
				RPDisplayName: "Example Votes",
				RPOrigins:     []string{"https://vote.example.com"},
				ChallengeTTL:  -time.Minute,
			},
			wantErr: "challenge TTL must not be negative",
		},
		{
			name: "invalid user verification",
			config: Config{
				RPID:             "vote.example.com",
				RPDisplayName:    "Example Votes",
				RPOrigins:        []string{"https://vote.example.com"},
				UserVerification: "always",
			},
			wantErr: "invalid user verification",
		},
		{
			name: "invalid attestation preference",
			config: Config{
				RPID:                  "vote.example.com",
				RPDisplayName:         "Example Votes",
				RPOrigins:             []string{"https://vote.example.com"},
				AttestationPreference: "full",
			},
			wantErr: "invalid attestation preference",
		},
		{
			name: "invalid authenticator attachment",
			config: Config{
				RPID:                    "vote.example.com",
				RPDisplayName:           "Example Votes",
				RPOrigins:               []string{"https://vote.example.com"},
				AuthenticatorAttachment: "usb",
			},
			wantErr: "invalid authenticator attachment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{
		RPID:          "vote.example.com",
		RPDisplayName: "Example Votes",
		RPOrigins:     []string{"https://vote.example.com"},
	}
	cfg.SetDefaults()

	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, "required", cfg.UserVerification)
	assert.Equal(t, "none", cfg.AttestationPreference)
	assert.Equal(t, "discouraged", cfg.ResidentKeyRequirement)
	assert.Equal(t, "platform", cfg.AuthenticatorAttachment)
}

func TestConfig_SetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		RPID:             "vote.example.com",
		RPDisplayName:    "Example Votes",
		RPOrigins:        []string{"https://vote.example.com"},
		ChallengeTTL:     time.Minute,
		UserVerification: "preferred",
	}
	cfg.SetDefaults()

	assert.Equal(t, time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, "preferred", cfg.UserVerification)
}

func TestConfig_ToWebAuthnConfig(t *testing.T) {
	cfg := Config{
		RPID:          "vote.example.com",
		RPDisplayName: "Example Votes",
		RPOrigins:     []string{"https://vote.example.com"},
	}
	cfg.SetDefaults()

	waCfg := cfg.ToWebAuthnConfig()

	assert.Equal(t, "vote.example.com", waCfg.RPID)
	assert.Equal(t, "Example Votes", waCfg.RPDisplayName)
	assert.Equal(t, []string{"https://vote.example.com"}, waCfg.RPOrigins)

	// The challenge ledger owns expiry; library-side enforcement must be off.
	assert.False(t, waCfg.Timeouts.Login.Enforce)
	assert.False(t, waCfg.Timeouts.Registration.Enforce)

	assert.Equal(t, protocol.PreferNoAttestation, waCfg.AttestationPreference)
	assert.Equal(t, protocol.VerificationRequired, waCfg.AuthenticatorSelection.UserVerification)
	assert.Equal(t, protocol.Platform, waCfg.AuthenticatorSelection.AuthenticatorAttachment)
	assert.Equal(t, protocol.ResidentKeyRequirementDiscouraged, waCfg.AuthenticatorSelection.ResidentKey)
}

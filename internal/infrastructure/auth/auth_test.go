package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/config"
	"tieba-server/services/messaging-api/internal/domain"
)

func TestUserIDFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    uint
		wantErr bool
	}{
		{name: "numeric claim", claims: jwt.MapClaims{"user_id": float64(42)}, want: 42},
		{name: "string claim", claims: jwt.MapClaims{"user_id": "17"}, want: 17},
		{name: "numeric subject", claims: jwt.MapClaims{"sub": "9"}, want: 9},
		{name: "uuid subject", claims: jwt.MapClaims{"sub": "4b1c0f0e-6a1e-4d6b-8c57-8a3c5d3b8f11"}, wantErr: true},
		{name: "zero id", claims: jwt.MapClaims{"user_id": float64(0)}, wantErr: true},
		{name: "fractional id", claims: jwt.MapClaims{"user_id": 1.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UserIDFromClaims(tt.claims, "user_id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatorPrincipal(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &config.Config{
		AuthEnabled:   true,
		AuthIssuer:    "https://auth.tieba.local/realms/tieba",
		Account:       "messaging",
		AuthUserClaim: "user_id",
	}
	v := &Validator{
		cfg: cfg,
		log: zerolog.Nop(),
		keyfunc: func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		},
	}

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	token := sign(jwt.MapClaims{
		"iss":                cfg.AuthIssuer,
		"aud":                "messaging",
		"sub":                "kc-123",
		"user_id":            float64(5),
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Hour).Unix(),
	})
	p, err := v.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), p.UserID)
	assert.Equal(t, domain.AuthMethodJWT, p.AuthMethod)
	assert.Equal(t, "alice", p.Username)

	expired := sign(jwt.MapClaims{
		"iss":     cfg.AuthIssuer,
		"aud":     "messaging",
		"user_id": float64(5),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	_, err = v.Principal(expired)
	assert.Error(t, err)

	wrongAudience := sign(jwt.MapClaims{
		"iss":     cfg.AuthIssuer,
		"aud":     "other",
		"user_id": float64(5),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	_, err = v.Principal(wrongAudience)
	assert.Error(t, err)
}

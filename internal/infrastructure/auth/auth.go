package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/config"
	"tieba-server/services/messaging-api/internal/domain"
)

// Validator validates JWTs using JWKS and maps them to a forum principal.
type Validator struct {
	cfg     *config.Config
	log     zerolog.Logger
	jwks    *keyfunc.JWKS
	keyfunc jwt.Keyfunc
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	logger := log.With().Str("component", "auth-validator").Logger()
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: logger}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}

	return &Validator{
		cfg:     cfg,
		log:     logger,
		jwks:    jwks,
		keyfunc: jwks.Keyfunc,
	}, nil
}

// Enabled reports whether bearer tokens are required.
func (v *Validator) Enabled() bool {
	return v != nil && v.cfg.AuthEnabled
}

// Principal validates tokenString and extracts the forum user.
func (v *Validator) Principal(tokenString string) (domain.Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithAudience(v.cfg.Account),
		jwt.WithIssuer(v.cfg.AuthIssuer),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256"}),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil || !token.Valid {
		return domain.Principal{}, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := UserIDFromClaims(claims, v.cfg.AuthUserClaim)
	if err != nil {
		return domain.Principal{}, err
	}

	subject, _ := claims.GetSubject()
	issuer, _ := claims.GetIssuer()
	username, _ := claims["preferred_username"].(string)
	return domain.Principal{
		UserID:     userID,
		AuthMethod: domain.AuthMethodJWT,
		Subject:    subject,
		Issuer:     issuer,
		Username:   username,
	}, nil
}

// Close stops the background JWKS refresh.
func (v *Validator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// UserIDFromClaims reads the numeric forum user id from claim, falling back
// to a numeric subject.
func UserIDFromClaims(claims jwt.MapClaims, claim string) (uint, error) {
	if claim != "" {
		if raw, ok := claims[claim]; ok {
			return parseUserID(raw)
		}
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		if id, err := parseUserID(sub); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("token carries no forum user id")
}

func parseUserID(raw any) (uint, error) {
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return 0, fmt.Errorf("invalid user id %v", v)
		}
		return uint(v), nil
	case json.Number:
		return parseUserID(v.String())
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid user id %q", v)
		}
		return uint(id), nil
	default:
		return 0, fmt.Errorf("unsupported user id claim type %T", raw)
	}
}

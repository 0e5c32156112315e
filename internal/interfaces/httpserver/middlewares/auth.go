package middlewares

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

const (
	principalContextKey = "principal"
	// UserIDHeader carries the forum user id injected by the gateway when
	// bearer authentication is disabled.
	UserIDHeader = "X-User-ID"
)

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	Enabled() bool
	Principal(token string) (domain.Principal, error)
}

// AuthMiddleware resolves the calling forum user. With token validation enabled
// a bearer JWT is required; otherwise the gateway supplied X-User-ID is trusted.
func AuthMiddleware(validator TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			principal domain.Principal
			err       error
		)
		if validator != nil && validator.Enabled() {
			principal, err = principalFromBearer(c, validator)
		} else {
			principal, err = principalFromGateway(c)
		}
		if err != nil {
			logger.Warn().
				Err(err).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, err, "unauthorized")
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

// RequirePrincipal returns the caller or aborts with 401 when the auth
// middleware did not run.
func RequirePrincipal(c *gin.Context) (domain.Principal, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok || !principal.Authenticated() {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "e8844f31-8529-4472-b6cc-ac4d8c0b07e6")
		return domain.Principal{}, false
	}
	return principal, true
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.UserID)
	c.Writer.Header().Set(UserIDHeader, strconv.FormatUint(uint64(principal.UserID), 10))
	c.Writer.Header().Set("X-Auth-Method", string(principal.AuthMethod))
}

func principalFromBearer(c *gin.Context, validator TokenValidator) (domain.Principal, error) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return domain.Principal{}, errors.New("authentication required")
	}
	return validator.Principal(token)
}

func principalFromGateway(c *gin.Context) (domain.Principal, error) {
	raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if raw == "" {
		return domain.Principal{}, errors.New("authentication required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return domain.Principal{}, errors.New("invalid user id header")
	}
	return domain.Principal{
		UserID:     uint(id),
		AuthMethod: domain.AuthMethodGateway,
		Username:   c.GetHeader("X-User-Username"),
	}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

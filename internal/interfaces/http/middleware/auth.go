package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/auth"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys and transport names
const (
	ClaimsKey     = "session_claims"
	ProfileKey    = "session_profile"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	SessionCookie = "sb-access-token"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// ProfileResolver returns the profile of an authenticated user, creating it
// on first sight
type ProfileResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, email string) (*identity.Profile, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Tokens   TokenValidator
	Profiles ProfileResolver
	Logger   *zap.Logger
}

// SessionAuth requires a valid Supabase session. The access token is read
// from the Authorization header or the sb-access-token cookie. On success
// the caller's profile is stored in the gin context.
func SessionAuth(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := cfg.Tokens.ValidateAccessToken(token)
		if err != nil {
			logger.Enrich(c.Request.Context(), log).Debug("Session rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			abortUnauthorized(c)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c)
			return
		}

		profile, err := cfg.Profiles.Resolve(c.Request.Context(), userID, claims.Email)
		if err != nil {
			logger.Enrich(c.Request.Context(), log).Error("Failed to resolve profile",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
				dto.ErrCodeInternal, "An internal error occurred", GetRequestID(c)))
			return
		}

		enterpriseID := ""
		if profile.EnterpriseID != nil {
			enterpriseID = profile.EnterpriseID.String()
		}
		c.Set(ClaimsKey, claims)
		c.Set(ProfileKey, profile)
		c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), userID.String(), enterpriseID))
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// abortUnauthorized answers 401 with no data and no hint about the cause
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "", ""))
}

// GetProfile returns the profile stored by SessionAuth, or nil
func GetProfile(c *gin.Context) *identity.Profile {
	if v, ok := c.Get(ProfileKey); ok {
		if p, ok := v.(*identity.Profile); ok {
			return p
		}
	}
	return nil
}

// GetClaims returns the token claims stored by SessionAuth, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

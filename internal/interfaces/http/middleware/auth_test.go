package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/auth"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	profiles map[uuid.UUID]*identity.Profile
	err      error
}

func (r *stubResolver) Resolve(_ context.Context, userID uuid.UUID, email string) (*identity.Profile, error) {
	if r.err != nil {
		return nil, r.err
	}
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	p := identity.NewProfile(userID, email)
	r.profiles[userID] = p
	return p, nil
}

func newSessionRouter(t *testing.T, resolver *stubResolver) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	tokens := auth.NewJWTService(config.SupabaseConfig{JWTSecret: "test-secret-with-enough-length-1234"})
	router := gin.New()
	router.Use(RequestID(), SessionAuth(SessionConfig{Tokens: tokens, Profiles: resolver}))
	router.GET("/me", func(c *gin.Context) {
		p := GetProfile(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       p.ID.String(),
			"email":    GetClaims(c).Email,
			"log_user": logger.GetUserID(c.Request.Context()),
		})
	})
	return router, tokens
}

func TestSessionAuth_Unauthorized(t *testing.T) {
	router, tokens := newSessionRouter(t, &stubResolver{profiles: map[uuid.UUID]*identity.Profile{}})

	expired, err := tokens.GenerateAccessToken(uuid.New(), "old@tanad.io", -time.Minute)
	require.NoError(t, err)
	other := auth.NewJWTService(config.SupabaseConfig{JWTSecret: "another-secret-with-enough-length"})
	forged, err := other.GenerateAccessToken(uuid.New(), "x@tanad.io", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"basic auth", func(r *http.Request) { r.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz") }},
		{"empty bearer", func(r *http.Request) { r.Header.Set(AuthHeaderKey, "Bearer ") }},
		{"garbage", func(r *http.Request) { r.Header.Set(AuthHeaderKey, "Bearer not-a-jwt") }},
		{"expired", func(r *http.Request) { r.Header.Set(AuthHeaderKey, BearerPrefix+expired) }},
		{"wrong secret", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"error":{"code":"UNAUTHORIZED"}}`, w.Body.String())
		})
	}
}

func TestSessionAuth_Accepts(t *testing.T) {
	resolver := &stubResolver{profiles: map[uuid.UUID]*identity.Profile{}}
	router, tokens := newSessionRouter(t, resolver)
	userID := uuid.New()
	token, err := tokens.GenerateAccessToken(userID, "Noura@Tanad.io", time.Hour)
	require.NoError(t, err)

	for name, setup := range map[string]func(r *http.Request){
		"bearer": func(r *http.Request) { r.Header.Set(AuthHeaderKey, BearerPrefix+token) },
		"cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) },
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), userID.String())
			assert.Contains(t, w.Body.String(), `"log_user":"`+userID.String()+`"`)
		})
	}
	require.Contains(t, resolver.profiles, userID)
	assert.Equal(t, "noura@tanad.io", resolver.profiles[userID].Email)
}

func TestSessionAuth_ResolverFailure(t *testing.T) {
	router, tokens := newSessionRouter(t, &stubResolver{err: errors.New("connection refused")})
	token, err := tokens.GenerateAccessToken(uuid.New(), "a@tanad.io", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An internal error occurred")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

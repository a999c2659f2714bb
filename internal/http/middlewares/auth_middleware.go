package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/geocoder89/scheduler/internal/auth"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionHydrator interface {
	Hydrate(ctx context.Context, token string) (identity.Claim, error)
}

type AuthMiddleware struct {
	sessions SessionHydrator
	prom     *observability.Prom
}

func NewAuthMiddleware(sessions SessionHydrator, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, prom: prom}
}

// RequireAuth hydrates the presented session and puts the identity on the
// request context. Handlers read it back with IdentityFromContext.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromRequest(c)
		if raw == "" {
			m.prom.ObserveHydration("missing")
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing session token")
			return
		}

		claim, err := m.sessions.Hydrate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthorized) {
				m.prom.ObserveHydration("invalid")
				abortError(c, http.StatusUnauthorized, "unauthorized", apperr.PublicMessage(err))
				return
			}

			m.prom.ObserveHydration("error")
			slog.Default().ErrorContext(c.Request.Context(), "session hydration failed", "err", err)
			abortError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		m.prom.ObserveHydration("ok")

		c.Request = c.Request.WithContext(identity.WithClaim(c.Request.Context(), claim))

		c.Next()
	}
}

// TokenFromRequest prefers the Authorization bearer token and falls back to the session cookie.
func TokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	cookie, err := c.Cookie(auth.SessionCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

// IdentityFromContext saves handlers from knowing where the claim lives.
func IdentityFromContext(c *gin.Context) (identity.Claim, bool) {
	return identity.FromContext(c.Request.Context())
}

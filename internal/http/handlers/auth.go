package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/geocoder89/scheduler/internal/auth"
	"github.com/geocoder89/scheduler/internal/domain/role"
	"github.com/geocoder89/scheduler/internal/domain/user"
	"github.com/geocoder89/scheduler/internal/http/middlewares"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.Claim, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, claim identity.Claim, meta auth.Meta) (auth.Artifact, error)
	Revoke(ctx context.Context, token string) error
}

type UserCreator interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type RoleFinder interface {
	GetByName(ctx context.Context, name string) (role.Role, error)
}

type AuthConfig struct {
	DefaultRole  string
	SecureCookie bool
}

type AuthHandler struct {
	authn    Authenticator
	sessions SessionIssuer
	users    UserCreator
	roles    RoleFinder
	hasher   PasswordHasher
	prom     *observability.Prom
	cfg      AuthConfig
}

func NewAuthHandler(
	authn Authenticator,
	sessions SessionIssuer,
	users UserCreator,
	roles RoleFinder,
	hasher PasswordHasher,
	prom *observability.Prom,
	cfg AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		authn:    authn,
		sessions: sessions,
		users:    users,
		roles:    roles,
		hasher:   hasher,
		prom:     prom,
		cfg:      cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      identity.Claim `json:"user"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claim, err := h.authn.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			h.prom.ObserveLogin("invalid_credentials")
		} else {
			h.prom.ObserveLogin("error")
		}
		RespondErr(ctx, err)
		return
	}

	artifact, err := h.sessions.Issue(ctx.Request.Context(), claim, auth.Meta{
		UserAgent: ctx.Request.UserAgent(),
		IP:        ctx.ClientIP(),
	})
	if err != nil {
		h.prom.ObserveLogin("error")
		RespondErr(ctx, err)
		return
	}

	h.prom.ObserveLogin("success")
	h.setSessionCookie(ctx, artifact.Token, artifact.ExpiresAt)

	RespondOK(ctx, http.StatusOK, "Login successful", LoginResponse{
		Token:     artifact.Token,
		ExpiresAt: artifact.ExpiresAt,
		User:      claim,
	})
}

// Register creates a self-service account with the default role and no extra permissions.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	defaultRole, err := h.roles.GetByName(ctx.Request.Context(), h.cfg.DefaultRole)
	if err != nil {
		// the default role is seeded on startup; its absence is a server fault
		if errors.Is(err, role.ErrNotFound) {
			err = errors.New("default role " + h.cfg.DefaultRole + " is missing")
		}
		RespondErr(ctx, err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), user.New(req.Name, req.Email, hash, defaultRole.ID, nil))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "User registered", u)
}

// Session returns the identity hydrated for this request.
func (h *AuthHandler) Session(ctx *gin.Context) {
	claim, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context", nil)
		return
	}

	RespondOK(ctx, http.StatusOK, "Session active", claim)
}

// Logout revokes the presented session. Repeating it is harmless.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if raw := middlewares.TokenFromRequest(ctx); raw != "" {
		if err := h.sessions.Revoke(ctx.Request.Context(), raw); err != nil {
			RespondErr(ctx, err)
			return
		}
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// Helper functions

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		auth.SessionCookie,
		raw,
		maxAge,
		"/",
		"",
		h.cfg.SecureCookie,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		auth.SessionCookie,
		"",
		-1,
		"/",
		"",
		h.cfg.SecureCookie,
		true,
	)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/geocoder89/scheduler/internal/domain/user"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/geocoder89/scheduler/internal/session"
)

const SessionCookie = "session"

var ErrSessionInvalid = apperr.New(apperr.ErrUnauthorized, "Invalid or expired session")

// Meta describes the client a session was issued to.
type Meta struct {
	UserAgent string
	IP        string
}

type Artifact struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions issues session artifacts and hydrates them back into identities.
type Sessions struct {
	jwt   *Manager
	store session.Store
	users UserReader
	now   func() time.Time
}

func NewSessions(jwtManager *Manager, store session.Store, users UserReader) *Sessions {
	return &Sessions{
		jwt:   jwtManager,
		store: store,
		users: users,
		now:   time.Now,
	}
}

func (s *Sessions) Issue(ctx context.Context, claim identity.Claim, meta Meta) (Artifact, error) {
	if claim.IsZero() {
		return Artifact{}, errors.New("issue session: empty identity")
	}

	raw, err := NewSessionID()
	if err != nil {
		return Artifact{}, fmt.Errorf("issue session: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.jwt.TTL())

	rec := session.Record{
		ID:        s.jwt.HashSessionID(raw),
		UserID:    claim.ID,
		ExpiresAt: expiresAt,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return Artifact{}, fmt.Errorf("issue session: %w", err)
	}

	token, err := s.jwt.Sign(raw, claim.ID, now, expiresAt)
	if err != nil {
		return Artifact{}, fmt.Errorf("sign session: %w", err)
	}

	return Artifact{Token: token, ExpiresAt: expiresAt}, nil
}

// Hydrate turns a presented artifact into the caller's current identity.
// The user row and role are read fresh, so role or permission changes and
// user deletion apply from the next request on.
func (s *Sessions) Hydrate(ctx context.Context, token string) (identity.Claim, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return identity.Claim{}, ErrSessionInvalid
	}

	rec, err := s.store.Get(ctx, s.jwt.HashSessionID(claims.SessionID))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return identity.Claim{}, ErrSessionInvalid
		}
		return identity.Claim{}, fmt.Errorf("load session: %w", err)
	}

	if !rec.Active(s.now()) || rec.UserID != claims.Subject {
		return identity.Claim{}, ErrSessionInvalid
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return identity.Claim{}, ErrSessionInvalid
		}
		return identity.Claim{}, fmt.Errorf("load session user: %w", err)
	}

	return ClaimFor(u), nil
}

// Revoke ends the session behind token. Invalid tokens are ignored.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return nil
	}

	return s.store.Revoke(ctx, s.jwt.HashSessionID(claims.SessionID))
}

func (s *Sessions) RevokeUser(ctx context.Context, userID string) error {
	return s.store.RevokeAllForUser(ctx, userID)
}

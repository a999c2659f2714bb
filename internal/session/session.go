// Package session holds the server-side session records that back every
// issued session artifact.
package session

import (
	"context"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
)

// Record is keyed by the HMAC of the opaque session id; the raw id only ever
// lives inside the signed artifact held by the client.
type Record struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	UserAgent string     `json:"userAgent"`
	IP        string     `json:"ip"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (r Record) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

var ErrNotFound = apperr.New(apperr.ErrUnauthorized, "session not found")

type Store interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// Revoke is idempotent: revoking an unknown or already revoked session is not an error.
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

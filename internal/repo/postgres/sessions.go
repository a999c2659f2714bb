package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/geocoder89/scheduler/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsRepo is the default session.Store.
type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

var _ session.Store = (*SessionsRepo)(nil)

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) Create(ctx context.Context, rec session.Record) error {
	return r.prom.ObserveDB("sessions.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO sessions (id, user_id, expires_at, revoked_at, user_agent, ip, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.UserID, rec.ExpiresAt, rec.RevokedAt, rec.UserAgent, rec.IP, rec.CreatedAt,
		)
		return err
	})
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Record, error) {
	var rec session.Record

	err := r.prom.ObserveDB("sessions.get", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, expires_at, revoked_at, user_agent, ip, created_at
			FROM sessions
			WHERE id = $1`, id,
		).Scan(
			&rec.ID,
			&rec.UserID,
			&rec.ExpiresAt,
			&rec.RevokedAt,
			&rec.UserAgent,
			&rec.IP,
			&rec.CreatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Record{}, session.ErrNotFound
		}
		return session.Record{}, err
	}

	return rec, nil
}

func (r *SessionsRepo) Revoke(ctx context.Context, id string) error {
	return r.prom.ObserveDB("sessions.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE sessions
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL`, id)
		return err
	})
}

func (r *SessionsRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.prom.ObserveDB("sessions.revoke_all_for_user", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE sessions
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL`, userID)
		return err
	})
}

// DeleteExpired removes rows past their expiry and returns how many went.
func (r *SessionsRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64

	err := r.prom.ObserveDB("sessions.delete_expired", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
		n = tag.RowsAffected()
		return err
	})

	return n, err
}

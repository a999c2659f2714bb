package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/scheduler/internal/domain/user"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

// every read joins the role so callers get the role name without a second query
const userColumns = `u.id, u.name, u.email, u.password_hash, u.role_id, r.name, u.permissions, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.RoleID,
		&u.Role,
		&u.Permissions,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+userColumns+`
			FROM users u
			JOIN roles r ON r.id = u.role_id
			ORDER BY u.created_at ASC, u.id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM users u
			JOIN roles r ON r.id = u.role_id
			WHERE u.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM users u
			JOIN roles r ON r.id = u.role_id
			WHERE u.email = $1`, user.NormalizeEmail(email)))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)
	if u.Permissions == nil {
		u.Permissions = []string{}
	}

	err := r.prom.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(ctx, `
			WITH ins AS (
				INSERT INTO users (id, name, email, password_hash, role_id, permissions, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING role_id
			)
			SELECT r.name FROM ins JOIN roles r ON r.id = ins.role_id`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, u.Permissions, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.Role)
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		case isForeignKeyViolation(err):
			return user.User{}, user.ErrUnknownRole
		}
		return user.User{}, err
	}

	return u, nil
}

// Update applies the non-nil fields of p and leaves the rest as stored.
func (r *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	if p.Email != nil {
		email := user.NormalizeEmail(*p.Email)
		p.Email = &email
	}

	var perms []string
	if p.Permissions != nil {
		perms = append([]string{}, (*p.Permissions)...)
	}

	var u user.User

	err := r.prom.ObserveDB("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			WITH u AS (
				UPDATE users
				SET name = COALESCE($2, name),
					email = COALESCE($3, email),
					password_hash = COALESCE($4, password_hash),
					role_id = COALESCE($5::uuid, role_id),
					permissions = COALESCE($6::text[], permissions),
					updated_at = NOW()
				WHERE id = $1
				RETURNING *
			)
			SELECT `+userColumns+`
			FROM u
			JOIN roles r ON r.id = u.role_id`,
			id, p.Name, p.Email, p.PasswordHash, p.RoleID, perms,
		))
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		case isForeignKeyViolation(err):
			return user.User{}, user.ErrUnknownRole
		}
		return user.User{}, err
	}

	return u, nil
}

// Delete removes the user; the user's events and session rows go with it.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

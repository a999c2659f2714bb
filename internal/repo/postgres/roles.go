package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/scheduler/internal/domain/role"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RolesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRolesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RolesRepo {
	return &RolesRepo{pool: pool, prom: prom}
}

func (r *RolesRepo) List(ctx context.Context) ([]role.Role, error) {
	out := make([]role.Role, 0)

	err := r.prom.ObserveDB("roles.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, name, created_at, updated_at
			FROM roles
			ORDER BY name ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ro role.Role
			if err := rows.Scan(&ro.ID, &ro.Name, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
				return err
			}
			out = append(out, ro)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *RolesRepo) GetByID(ctx context.Context, id string) (role.Role, error) {
	return r.getOne(ctx, "roles.get_by_id", `WHERE id = $1`, id)
}

func (r *RolesRepo) GetByName(ctx context.Context, name string) (role.Role, error) {
	return r.getOne(ctx, "roles.get_by_name", `WHERE name = $1`, strings.TrimSpace(name))
}

func (r *RolesRepo) getOne(ctx context.Context, op, where string, arg string) (role.Role, error) {
	var ro role.Role

	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, created_at, updated_at FROM roles `+where, arg,
		).Scan(&ro.ID, &ro.Name, &ro.CreatedAt, &ro.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.Role{}, role.ErrNotFound
		}
		return role.Role{}, err
	}

	return ro, nil
}

func (r *RolesRepo) Create(ctx context.Context, ro role.Role) (role.Role, error) {
	err := r.prom.ObserveDB("roles.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO roles (id, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4)`,
			ro.ID, ro.Name, ro.CreatedAt, ro.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return role.Role{}, role.ErrNameTaken
		}
		return role.Role{}, err
	}

	return ro, nil
}

func (r *RolesRepo) Update(ctx context.Context, id, name string) (role.Role, error) {
	var ro role.Role

	err := r.prom.ObserveDB("roles.update", func() error {
		return r.pool.QueryRow(ctx, `
			UPDATE roles
			SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, created_at, updated_at`,
			id, strings.TrimSpace(name),
		).Scan(&ro.ID, &ro.Name, &ro.CreatedAt, &ro.UpdatedAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return role.Role{}, role.ErrNotFound
		case isUniqueViolation(err):
			return role.Role{}, role.ErrNameTaken
		}
		return role.Role{}, err
	}

	return ro, nil
}

// Delete refuses to remove a role that users still reference. The role row is
// locked for the check so a concurrent user insert cannot slip in between.
func (r *RolesRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = r.prom.ObserveDB("roles.delete.lock", func() error {
		var locked string
		return tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.ErrNotFound
		}
		return err
	}

	var inUse bool
	err = r.prom.ObserveDB("roles.delete.in_use", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE role_id = $1)`, id).Scan(&inUse)
	})
	if err != nil {
		return err
	}
	if inUse {
		return role.ErrInUse
	}

	err = r.prom.ObserveDB("roles.delete", func() error {
		_, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return role.ErrInUse
		}
		return err
	}

	return tx.Commit(ctx)
}

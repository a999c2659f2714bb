package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/scheduler/internal/config"
	"github.com/geocoder89/scheduler/internal/domain/role"
	"github.com/geocoder89/scheduler/internal/domain/user"
)

type RoleSeeder interface {
	GetByName(ctx context.Context, name string) (role.Role, error)
	Create(ctx context.Context, r role.Role) (role.Role, error)
}

type UserSeeder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Bootstrap makes sure the admin and default roles exist and, when admin
// credentials are configured, that the admin user exists. It never modifies
// rows that are already there, so it is safe on every start.
func Bootstrap(ctx context.Context, log *slog.Logger, roles RoleSeeder, users UserSeeder, hasher PasswordHasher, cfg config.AdminConfig) error {
	adminRole, err := ensureRole(ctx, roles, cfg.Role)
	if err != nil {
		return err
	}

	if _, err := ensureRole(ctx, roles, cfg.DefaultRole); err != nil {
		return err
	}

	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	// check if the user exists
	_, err = users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return err
	}

	u, err := users.Create(ctx, user.New(cfg.Name, cfg.Email, hash, adminRole.ID, nil))
	if err != nil {
		// another instance won the race
		if errors.Is(err, user.ErrEmailTaken) {
			return nil
		}
		return err
	}

	log.InfoContext(ctx, "admin user created", "user_id", u.ID, "role", adminRole.Name)
	return nil
}

func ensureRole(ctx context.Context, roles RoleSeeder, name string) (role.Role, error) {
	r, err := roles.GetByName(ctx, name)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, role.ErrNotFound) {
		return role.Role{}, err
	}

	r, err = roles.Create(ctx, role.New(name))
	if errors.Is(err, role.ErrNameTaken) {
		return roles.GetByName(ctx, name)
	}
	return r, err
}

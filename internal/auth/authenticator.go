package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/geocoder89/scheduler/internal/domain/user"
	"github.com/geocoder89/scheduler/internal/identity"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = apperr.New(apperr.ErrInvalidCredentials, "Email or password is incorrect.")

// UserReader reads users together with their role name.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type PasswordVerifier interface {
	Verify(hash, plain string) bool
	VerifyDummy(plain string)
}

type Authenticator struct {
	users     UserReader
	passwords PasswordVerifier
}

func NewAuthenticator(users UserReader, passwords PasswordVerifier) *Authenticator {
	return &Authenticator{users: users, passwords: passwords}
}

func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (identity.Claim, error) {
	u, err := a.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.passwords.VerifyDummy(password)
			return identity.Claim{}, ErrInvalidCredentials
		}
		return identity.Claim{}, fmt.Errorf("authenticate: %w", err)
	}

	if !a.passwords.Verify(u.PasswordHash, password) {
		return identity.Claim{}, ErrInvalidCredentials
	}

	return ClaimFor(u), nil
}

func ClaimFor(u user.User) identity.Claim {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}

	return identity.Claim{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: perms,
	}
}

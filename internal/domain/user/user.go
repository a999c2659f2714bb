package user

import (
	"strings"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/google/uuid"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	RoleID       string    `json:"roleId"`
	Role         string    `json:"role,omitempty"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound    = apperr.New(apperr.ErrNotFound, "user not found")
	ErrEmailTaken  = apperr.New(apperr.ErrConflict, "email is already in use")
	ErrUnknownRole = apperr.New(apperr.ErrValidation, "roleId does not reference an existing role")
)

type CreateUserRequest struct {
	Name        string   `json:"name" binding:"required,notblank,max=120"`
	Email       string   `json:"email" binding:"required,email,max=254"`
	Password    string   `json:"password" binding:"required,min=6,max=72"`
	RoleID      string   `json:"roleId" binding:"required,uuid"`
	Permissions []string `json:"permissions" binding:"omitempty,dive,permission"`
}

// RegisterRequest is the self-service signup payload; role and permissions are assigned by the server.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=120"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	ID          string    `json:"id" binding:"omitempty,uuid"`
	Name        *string   `json:"name" binding:"omitempty,notblank,max=120"`
	Email       *string   `json:"email" binding:"omitempty,email,max=254"`
	Password    *string   `json:"password" binding:"omitempty,min=6,max=72"`
	RoleID      *string   `json:"roleId" binding:"omitempty,uuid"`
	Permissions *[]string `json:"permissions" binding:"omitempty,dive,permission"`
}

// Patch is what the store applies on update. PasswordHash is already hashed.
type Patch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	RoleID       *string
	Permissions  *[]string
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.RoleID == nil && p.Permissions == nil
}

// Apply returns u with every non-nil patch field written over it.
func (p Patch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.RoleID != nil {
		u.RoleID = *p.RoleID
	}
	if p.Permissions != nil {
		u.Permissions = append([]string{}, (*p.Permissions)...)
	}
	return u
}

// NormalizeEmail is applied on every write and lookup, which makes the login key case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func New(name, email, passwordHash, roleID string, permissions []string) User {
	now := time.Now().UTC()

	if permissions == nil {
		permissions = []string{}
	}

	return User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		RoleID:       roleID,
		Permissions:  permissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

package role

import (
	"strings"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
	"github.com/google/uuid"
)

type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound  = apperr.New(apperr.ErrNotFound, "role not found")
	ErrNameTaken = apperr.New(apperr.ErrConflict, "role already exists")
	ErrInUse     = apperr.New(apperr.ErrConflict, "role is still assigned to users")
	ErrBuiltIn   = apperr.New(apperr.ErrConflict, "built-in role cannot be renamed or deleted")
)

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required,notblank,min=2,max=64"`
}

type UpdateRoleRequest struct {
	ID   string `json:"id" binding:"omitempty,uuid"`
	Name string `json:"name" binding:"required,notblank,min=2,max=64"`
}

func New(name string) Role {
	now := time.Now().UTC()

	return Role{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/scheduler/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, p user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
}

type UsersHandler struct {
	store         UsersStore
	hasher        PasswordHasher
	sessions      SessionRevoker
	emptyNotFound bool
}

func NewUsersHandler(store UsersStore, hasher PasswordHasher, sessions SessionRevoker, emptyNotFound bool) *UsersHandler {
	return &UsersHandler{
		store:         store,
		hasher:        hasher,
		sessions:      sessions,
		emptyNotFound: emptyNotFound,
	}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	users, err := h.store.List(ctx.Request.Context())
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if len(users) == 0 && h.emptyNotFound {
		RespondNotFound(ctx, "No users found")
		return
	}

	RespondOK(ctx, http.StatusOK, "Users retrieved", users)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id, ok := resolveID(ctx, "")
	if !ok {
		return
	}

	u, err := h.store.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, "User retrieved", u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	u, err := h.store.Create(ctx.Request.Context(), user.New(req.Name, req.Email, hash, req.RoleID, req.Permissions))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "User created", u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, ok := resolveID(ctx, req.ID)
	if !ok {
		return
	}

	patch := user.Patch{
		Email:       req.Email,
		RoleID:      req.RoleID,
		Permissions: req.Permissions,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}

	if req.Password != nil {
		hash, err := h.hasher.Hash(*req.Password)
		if err != nil {
			RespondErr(ctx, err)
			return
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		RespondBadRequest(ctx, "No fields to update", nil)
		return
	}

	u, err := h.store.Update(ctx.Request.Context(), id, patch)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "User updated", u)
}

// DeleteUser removes the user and ends all of their sessions.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := resolveDeleteID(ctx)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), id); err != nil {
		RespondErr(ctx, err)
		return
	}

	// hydration already rejects sessions of a deleted user, so a failure here is not fatal
	if err := h.sessions.RevokeUser(ctx.Request.Context(), id); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "revoke sessions of deleted user",
			"deleted_user_id", id,
			"err", err,
		)
	}

	RespondOK(ctx, http.StatusOK, "User deleted", nil)
}

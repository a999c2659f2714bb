package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/geocoder89/scheduler/internal/domain/role"
	"github.com/gin-gonic/gin"
)

type RolesStore interface {
	List(ctx context.Context) ([]role.Role, error)
	GetByID(ctx context.Context, id string) (role.Role, error)
	Create(ctx context.Context, r role.Role) (role.Role, error)
	Update(ctx context.Context, id, name string) (role.Role, error)
	Delete(ctx context.Context, id string) error
}

type RolesHandler struct {
	store         RolesStore
	builtIn       []string
	emptyNotFound bool
}

// NewRolesHandler refuses to rename or delete the roles named in builtIn,
// since authorization and registration look them up by name.
func NewRolesHandler(store RolesStore, builtIn []string, emptyNotFound bool) *RolesHandler {
	return &RolesHandler{store: store, builtIn: builtIn, emptyNotFound: emptyNotFound}
}

func (h *RolesHandler) ListRoles(ctx *gin.Context) {
	roles, err := h.store.List(ctx.Request.Context())
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if len(roles) == 0 && h.emptyNotFound {
		RespondNotFound(ctx, "No roles found")
		return
	}

	RespondOK(ctx, http.StatusOK, "Roles retrieved", roles)
}

func (h *RolesHandler) GetRole(ctx *gin.Context) {
	id, ok := resolveID(ctx, "")
	if !ok {
		return
	}

	r, err := h.store.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, "Role retrieved", r)
}

func (h *RolesHandler) CreateRole(ctx *gin.Context) {
	var req role.CreateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	r, err := h.store.Create(ctx.Request.Context(), role.New(req.Name))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Role created", r)
}

func (h *RolesHandler) UpdateRole(ctx *gin.Context) {
	var req role.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, ok := resolveID(ctx, req.ID)
	if !ok {
		return
	}

	name := strings.TrimSpace(req.Name)

	if !h.allowChange(ctx, id, name) {
		return
	}

	r, err := h.store.Update(ctx.Request.Context(), id, name)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Role updated", r)
}

// DeleteRole answers 409 while any user still holds the role, and for built-in roles.
func (h *RolesHandler) DeleteRole(ctx *gin.Context) {
	id, ok := resolveDeleteID(ctx)
	if !ok {
		return
	}

	if !h.allowChange(ctx, id, "") {
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), id); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Role deleted", nil)
}

// allowChange loads the role and rejects the change when it would rename or
// remove a built-in role. An empty newName means delete.
// It writes the response and returns false when the change is refused.
func (h *RolesHandler) allowChange(ctx *gin.Context, id, newName string) bool {
	existing, err := h.store.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondErr(ctx, err)
		return false
	}

	if slices.Contains(h.builtIn, existing.Name) && newName != existing.Name {
		RespondErr(ctx, role.ErrBuiltIn)
		return false
	}

	return true
}

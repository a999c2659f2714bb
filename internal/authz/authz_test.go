package authz_test

import (
	"testing"

	"github.com/geocoder89/scheduler/internal/authz"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	admin := identity.Claim{ID: "a-1", Role: "admin"}
	editor := identity.Claim{ID: "e-1", Role: "user", Permissions: []string{"events:*"}}
	clerk := identity.Claim{ID: "c-1", Role: "user", Permissions: []string{"users:manage"}}
	plain := identity.Claim{ID: "p-1", Role: "user"}

	policy := authz.NewPolicy("admin")

	tests := []struct {
		name  string
		claim identity.Claim
		req   authz.Requirement
		want  bool
	}{
		{"admin_manages_users", admin, policy.ManageUsers(), true},
		{"permission_manages_users", clerk, policy.ManageUsers(), true},
		{"plain_cannot_manage_users", plain, policy.ManageUsers(), false},
		{"plain_cannot_manage_roles", clerk, policy.ManageRoles(), false},
		{"owner_modifies_event", plain, policy.ModifyEvent("p-1"), true},
		{"stranger_cannot_modify_event", plain, policy.ModifyEvent("x-9"), false},
		{"wildcard_permission", editor, policy.ModifyEvent("x-9"), true},
		{"admin_modifies_any_event", admin, policy.ModifyEvent("x-9"), true},
		{"empty_identity", identity.Claim{Role: "admin"}, authz.Role("admin"), false},
		{"empty_role_requirement", plain, authz.Role(""), false},
		{"empty_subject_requirement", identity.Claim{ID: "p-1"}, authz.Subject(""), false},
		{"nil_requirement", admin, nil, false},
		{"empty_any_of", admin, authz.AnyOf(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authz.Authorize(tt.claim, tt.req))
		})
	}
}

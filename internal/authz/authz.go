// Package authz is the single place where an identity is checked against what
// an operation requires. Handlers and middlewares never compare roles or
// permissions themselves.
package authz

import (
	"strings"

	"github.com/geocoder89/scheduler/internal/identity"
)

const (
	PermUsersManage  = "users:manage"
	PermRolesManage  = "roles:manage"
	PermEventsManage = "events:manage"
)

type Requirement interface {
	satisfiedBy(c identity.Claim) bool
}

type roleRequirement string

func (r roleRequirement) satisfiedBy(c identity.Claim) bool {
	return r != "" && c.Role == string(r)
}

type permissionRequirement string

func (p permissionRequirement) satisfiedBy(c identity.Claim) bool {
	if p == "" {
		return false
	}

	resource, _, _ := strings.Cut(string(p), ":")

	for _, granted := range c.Permissions {
		if granted == string(p) || granted == resource+":*" {
			return true
		}
	}
	return false
}

type subjectRequirement string

func (s subjectRequirement) satisfiedBy(c identity.Claim) bool {
	return s != "" && c.ID == string(s)
}

type anyOf []Requirement

func (a anyOf) satisfiedBy(c identity.Claim) bool {
	for _, r := range a {
		if r != nil && r.satisfiedBy(c) {
			return true
		}
	}
	return false
}

// Role is satisfied by an identity holding exactly that role name.
func Role(name string) Requirement { return roleRequirement(name) }

// Permission is satisfied by the permission itself or by "<resource>:*".
func Permission(p string) Requirement { return permissionRequirement(p) }

// Subject is satisfied only by the identity with the given user id.
func Subject(userID string) Requirement { return subjectRequirement(userID) }

func AnyOf(reqs ...Requirement) Requirement { return anyOf(reqs) }

// Authorize reports whether c may perform an action guarded by req.
// An empty identity satisfies nothing.
func Authorize(c identity.Claim, req Requirement) bool {
	if c.IsZero() || req == nil {
		return false
	}
	return req.satisfiedBy(c)
}

// Policy names the requirement of each protected operation.
type Policy struct {
	AdminRole string
}

func NewPolicy(adminRole string) Policy {
	return Policy{AdminRole: adminRole}
}

func (p Policy) ManageUsers() Requirement {
	return AnyOf(Role(p.AdminRole), Permission(PermUsersManage))
}

func (p Policy) ManageRoles() Requirement {
	return AnyOf(Role(p.AdminRole), Permission(PermRolesManage))
}

// ModifyEvent guards update/delete of an event and creating one on behalf of ownerID.
func (p Policy) ModifyEvent(ownerID string) Requirement {
	return AnyOf(Subject(ownerID), Role(p.AdminRole), Permission(PermEventsManage))
}

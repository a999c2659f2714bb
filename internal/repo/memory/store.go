// Package memory keeps users, roles and events in process memory with the
// same uniqueness and reference rules the postgres schema enforces.
package memory

import (
	"sync"

	"github.com/geocoder89/scheduler/internal/domain/event"
	"github.com/geocoder89/scheduler/internal/domain/role"
	"github.com/geocoder89/scheduler/internal/domain/user"
)

type Store struct {
	mu     sync.RWMutex
	users  map[string]user.User
	roles  map[string]role.Role
	events map[string]event.Event
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]user.User),
		roles:  make(map[string]role.Role),
		events: make(map[string]event.Event),
	}
}

func (s *Store) Users() *UsersRepo   { return &UsersRepo{s: s} }
func (s *Store) Roles() *RolesRepo   { return &RolesRepo{s: s} }
func (s *Store) Events() *EventsRepo { return &EventsRepo{s: s} }

// withRole fills the role name the way the SQL join does. Caller holds the lock.
func (s *Store) withRole(u user.User) user.User {
	u.Role = s.roles[u.RoleID].Name
	u.Permissions = append([]string{}, u.Permissions...)
	return u
}

// withOwner embeds the owner summary. Caller holds the lock.
func (s *Store) withOwner(e event.Event) event.Event {
	if u, ok := s.users[e.UserID]; ok {
		e.User = &event.Owner{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return e
}

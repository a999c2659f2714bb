package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/scheduler/internal/domain/role"
)

type RolesRepo struct {
	s *Store
}

func (r *RolesRepo) List(ctx context.Context) ([]role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]role.Role, 0, len(r.s.roles))
	for _, ro := range r.s.roles {
		out = append(out, ro)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *RolesRepo) GetByID(ctx context.Context, id string) (role.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ro, ok := r.s.roles[id]
	if !ok {
		return role.Role{}, role.ErrNotFound
	}
	return ro, nil
}

func (r *RolesRepo) GetByName(ctx context.Context, name string) (role.Role, error) {
	name = strings.TrimSpace(name)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, ro := range r.s.roles {
		if ro.Name == name {
			return ro, nil
		}
	}
	return role.Role{}, role.ErrNotFound
}

func (r *RolesRepo) Create(ctx context.Context, ro role.Role) (role.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.roleNameTaken(ro.Name, "") {
		return role.Role{}, role.ErrNameTaken
	}
	r.s.roles[ro.ID] = ro

	return ro, nil
}

func (r *RolesRepo) Update(ctx context.Context, id, name string) (role.Role, error) {
	name = strings.TrimSpace(name)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ro, ok := r.s.roles[id]
	if !ok {
		return role.Role{}, role.ErrNotFound
	}
	if r.s.roleNameTaken(name, id) {
		return role.Role{}, role.ErrNameTaken
	}

	ro.Name = name
	ro.UpdatedAt = time.Now().UTC()
	r.s.roles[id] = ro

	return ro, nil
}

func (r *RolesRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[id]; !ok {
		return role.ErrNotFound
	}
	for _, u := range r.s.users {
		if u.RoleID == id {
			return role.ErrInUse
		}
	}
	delete(r.s.roles, id)

	return nil
}

func (s *Store) roleNameTaken(name, exceptID string) bool {
	for _, ro := range s.roles {
		if ro.Name == name && ro.ID != exceptID {
			return true
		}
	}
	return false
}

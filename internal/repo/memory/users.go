package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/scheduler/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, r.s.withRole(u))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.withRole(u), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.withRole(u), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)
	if u.Permissions == nil {
		u.Permissions = []string{}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.emailTaken(u.Email, "") {
		return user.User{}, user.ErrEmailTaken
	}
	if _, ok := r.s.roles[u.RoleID]; !ok {
		return user.User{}, user.ErrUnknownRole
	}

	u.Permissions = append([]string{}, u.Permissions...)
	r.s.users[u.ID] = u

	return r.s.withRole(u), nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	if p.Email != nil {
		email := user.NormalizeEmail(*p.Email)
		p.Email = &email
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if p.Email != nil && r.s.emailTaken(*p.Email, id) {
		return user.User{}, user.ErrEmailTaken
	}
	if p.RoleID != nil {
		if _, ok := r.s.roles[*p.RoleID]; !ok {
			return user.User{}, user.ErrUnknownRole
		}
	}

	u = p.Apply(u)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u

	return r.s.withRole(u), nil
}

// Delete cascades to the user's events like the foreign key does.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.s.users, id)

	for eid, e := range r.s.events {
		if e.UserID == id {
			delete(r.s.events, eid)
		}
	}
	return nil
}

// emailTaken reports whether another user than exceptID owns email. Caller holds the lock.
func (s *Store) emailTaken(email, exceptID string) bool {
	for _, u := range s.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

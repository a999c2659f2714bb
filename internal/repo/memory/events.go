package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/scheduler/internal/domain/event"
)

type EventsRepo struct {
	s *Store
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[e.UserID]; !ok {
		return event.Event{}, event.ErrOwnerNotFound
	}

	e.User = nil
	r.s.events[e.ID] = e

	return r.s.withOwner(e), nil
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]event.Event, 0)
	for _, e := range r.s.events {
		if filter.Matches(e) {
			out = append(out, r.s.withOwner(e))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})

	return out, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return r.s.withOwner(e), nil
}

func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	e = req.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	r.s.events[id] = e

	return r.s.withOwner(e), nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(r.s.events, id)

	return nil
}
